package types

import (
	"encoding/json"
	"time"
)

type Data = json.RawMessage

type MessageType string

const (
	MessageRequest  MessageType = "request"
	MessageResponse MessageType = "response"
	MessageStatus   MessageType = "status"
	MessageError    MessageType = "error"
	MessageHandoff  MessageType = "handoff"
)

// LogRecord é a linha persistida do log de mensagens.
// Os seis campos são contrato de compatibilidade com consumidores do log.
type LogRecord struct {
	Timestamp     time.Time      `json:"timestamp"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	Type          MessageType    `json:"type"`
	Payload       map[string]any `json:"payload"`
	CorrelationID string         `json:"correlation_id"`
}

type EventPhase string

const (
	PhaseStarted   EventPhase = "started"
	PhaseCompleted EventPhase = "completed"
)

// StageEvent status observável de início/fim de estágio
type StageEvent struct {
	RunID   string     `json:"run_id"`
	StageID string     `json:"stage_id"`
	Name    string     `json:"name"`
	Phase   EventPhase `json:"phase"`
	Status  string     `json:"status,omitempty"`
	At      time.Time  `json:"at"`
}

// AgentEvent status observável de início/fim de invocação
type AgentEvent struct {
	Agent         string     `json:"agent"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Phase         EventPhase `json:"phase"`
	Status        string     `json:"status,omitempty"`
	Error         string     `json:"error,omitempty"`
	At            time.Time  `json:"at"`
}

type ResultEvent struct {
	RunID      string    `json:"run_id"`
	Workflow   string    `json:"workflow"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
