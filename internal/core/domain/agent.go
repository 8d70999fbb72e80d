package domain

import "context"

// Outcome sinal de término reportado pelo executor.
type Outcome struct {
	Success bool
	Detail  string
	Data    map[string]any
}

// AgentExecutor executa o trabalho opaco de um agente.
// Implementações devem observar ctx e terminar em tempo limitado.
type AgentExecutor interface {
	Perform(ctx context.Context, task AgentTask) (Outcome, error)
}

// AgentExecutorFunc adapta uma função para AgentExecutor.
type AgentExecutorFunc func(ctx context.Context, task AgentTask) (Outcome, error)

func (f AgentExecutorFunc) Perform(ctx context.Context, task AgentTask) (Outcome, error) {
	return f(ctx, task)
}

// ExecutorResolver resolve o executor responsável por um agente.
// Injetado no core, implementado em internal/agents.
type ExecutorResolver interface {
	Resolve(agentName string) (AgentExecutor, error)
}
