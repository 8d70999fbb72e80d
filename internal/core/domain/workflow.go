package domain

import (
	"fmt"
	"strings"
)

type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
)

// ParseExecutionMode aceita o valor vazio como sequential.
func ParseExecutionMode(raw string) (ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeSequential):
		return ModeSequential, nil
	case string(ModeParallel):
		return ModeParallel, nil
	default:
		return "", fmt.Errorf("unknown execution mode %q", raw)
	}
}

// WorkflowDefinition é somente leitura durante a execução.
type WorkflowDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Stages      []StageDescriptor `json:"stages"`
	Runtime     RuntimeConfig     `json:"runtime,omitempty"`
}

type RuntimeConfig struct {
	MaxParallel int `json:"max_parallel,omitempty"`
}

// StageDescriptor tem agents (folha) ou substages, nunca os dois.
type StageDescriptor struct {
	StageID   string            `json:"stage_id"`
	Name      string            `json:"name"`
	Mode      ExecutionMode     `json:"execution"`
	Agents    []AgentTask       `json:"agents,omitempty"`
	Substages []StageDescriptor `json:"substages,omitempty"`
	Retries   int               `json:"retries,omitempty"`
}

// HasSubstages substages sempre rodam em sequência, ignorando Mode.
func (s StageDescriptor) HasSubstages() bool {
	return s.Substages != nil
}

// AgentTask descritor consumido uma vez por invocação.
type AgentTask struct {
	Agent   string   `json:"agent"`
	Scope   string   `json:"scope"`
	Outputs []string `json:"outputs"`
}

// Validate garante que a definição pode ser executada.
func (def WorkflowDefinition) Validate() error {
	if strings.TrimSpace(def.Name) == "" {
		return &ConfigError{Field: "name", Reason: "workflow name is required"}
	}
	if def.Stages == nil {
		return &ConfigError{Field: "stages", Reason: "workflow stages are required"}
	}
	if def.Runtime.MaxParallel < 0 {
		return &ConfigError{Field: "runtime.max_parallel", Reason: "must be >= 0"}
	}
	seen := map[string]struct{}{}
	for idx, stage := range def.Stages {
		if err := stage.validate(fmt.Sprintf("stages[%d]", idx), seen); err != nil {
			return err
		}
	}
	return nil
}

func (s StageDescriptor) validate(path string, seen map[string]struct{}) error {
	if strings.TrimSpace(s.StageID) == "" {
		return &ConfigError{Field: path + ".stage_id", Reason: "stage id is required"}
	}
	if _, dup := seen[s.StageID]; dup {
		return &ConfigError{Field: path + ".stage_id", Reason: fmt.Sprintf("duplicate stage id %s", s.StageID)}
	}
	seen[s.StageID] = struct{}{}

	if _, err := ParseExecutionMode(string(s.Mode)); err != nil {
		return &ConfigError{Field: path + ".execution", Reason: err.Error()}
	}
	if s.Retries < 0 {
		return &ConfigError{Field: path + ".retries", Reason: "must be >= 0"}
	}
	if s.Agents != nil && s.Substages != nil {
		return &ConfigError{Field: path, Reason: "stage declares both agents and substages"}
	}
	for idx, sub := range s.Substages {
		if err := sub.validate(fmt.Sprintf("%s.substages[%d]", path, idx), seen); err != nil {
			return err
		}
	}
	return nil
}

// StageCount conta estágios em todos os níveis.
func (def WorkflowDefinition) StageCount() int {
	var count func([]StageDescriptor) int
	count = func(stages []StageDescriptor) int {
		n := 0
		for _, s := range stages {
			n += 1 + count(s.Substages)
		}
		return n
	}
	return count(def.Stages)
}
