package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownAgent é retornado pelo resolver quando nenhum executor atende o nome.
var ErrUnknownAgent = errors.New("unknown agent")

// ErrEmptyAgentName invocação sem destinatário
var ErrEmptyAgentName = errors.New("agent name is required")

// ConfigError definição de workflow malformada ou incompleta. Fatal, interrompe o run
// antes de qualquer invocação.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// DispatchError a invocação nem chegou a começar.
type DispatchError struct {
	Agent string
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q: %v", e.Agent, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// AgentFailure o agente reportou término sem sucesso.
type AgentFailure struct {
	Agent  string
	Detail string
	Err    error
}

func (e *AgentFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent %q failed: %v", e.Agent, e.Err)
	}
	return fmt.Sprintf("agent %q failed: %s", e.Agent, e.Detail)
}

func (e *AgentFailure) Unwrap() error { return e.Err }

// PersistenceError o log de mensagens não pôde ser escrito. Sempre propagado.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
