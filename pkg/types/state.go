package types

import "time"

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunAborted   RunStatus = "aborted"
)

// RunState snapshot persistido de uma execução
type RunState struct {
	ID         string          `json:"id"`
	Workflow   string          `json:"workflow"`
	Status     RunStatus       `json:"status"`
	Error      string          `json:"error,omitempty"`
	Stages     []StageSnapshot `json:"stages"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

type StageSnapshot struct {
	StageID   string          `json:"stage_id"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Results   []AgentSnapshot `json:"results"`
	Substages []StageSnapshot `json:"substages,omitempty"`
}

type AgentSnapshot struct {
	Agent         string   `json:"agent"`
	Status        string   `json:"status"`
	Outputs       []string `json:"outputs"`
	CorrelationID string   `json:"correlation_id,omitempty"`
	Error         string   `json:"error,omitempty"`
	Attempts      int      `json:"attempts"`
	DurationMs    int64    `json:"duration_ms"`
}
