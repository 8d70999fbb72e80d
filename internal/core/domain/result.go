package domain

import (
	"time"

	"github.com/diogoX451/maestro/pkg/types"
)

type AgentStatus string

const (
	AgentSuccess AgentStatus = "success"
	AgentFailed  AgentStatus = "failure"
)

type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

type RunStatus = types.RunStatus

// AgentResult produzido uma vez por invocação.
type AgentResult struct {
	Agent         string        `json:"agent"`
	Status        AgentStatus   `json:"status"`
	Outputs       []string      `json:"outputs"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Error         string        `json:"error,omitempty"`
	Attempts      int           `json:"attempts"`
	Duration      time.Duration `json:"duration"`
}

func (r AgentResult) Succeeded() bool { return r.Status == AgentSuccess }

// StageResult preserva a ordem de declaração nos dois modos.
type StageResult struct {
	StageID   string        `json:"stage_id"`
	Name      string        `json:"name"`
	Status    StageStatus   `json:"status"`
	Results   []AgentResult `json:"results"`
	Substages []StageResult `json:"substages,omitempty"`
}

func (r StageResult) Succeeded() bool { return r.Status == StageCompleted }

// RunResult agrega os estágios de topo de uma execução.
type RunResult struct {
	RunID      string        `json:"run_id"`
	Workflow   string        `json:"workflow"`
	Status     RunStatus     `json:"status"`
	Stages     []StageResult `json:"stages"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (r RunResult) Succeeded() bool { return r.Status == types.RunCompleted }

// Failed lista os ids dos estágios de topo que falharam.
func (r RunResult) Failed() []string {
	var ids []string
	for _, s := range r.Stages {
		if !s.Succeeded() {
			ids = append(ids, s.StageID)
		}
	}
	return ids
}

func statusFromAgents(results []AgentResult) StageStatus {
	for _, r := range results {
		if !r.Succeeded() {
			return StageFailed
		}
	}
	return StageCompleted
}

func statusFromStages(results []StageResult) StageStatus {
	for _, r := range results {
		if !r.Succeeded() {
			return StageFailed
		}
	}
	return StageCompleted
}

// NewLeafResult monta o resultado de um estágio folha.
func NewLeafResult(stage StageDescriptor, results []AgentResult) StageResult {
	if results == nil {
		results = []AgentResult{}
	}
	return StageResult{
		StageID: stage.StageID,
		Name:    stage.Name,
		Status:  statusFromAgents(results),
		Results: results,
	}
}

// NewCompositeResult monta o resultado de um estágio com substages.
func NewCompositeResult(stage StageDescriptor, subs []StageResult) StageResult {
	if subs == nil {
		subs = []StageResult{}
	}
	return StageResult{
		StageID:   stage.StageID,
		Name:      stage.Name,
		Status:    statusFromStages(subs),
		Results:   []AgentResult{},
		Substages: subs,
	}
}
