package ports

import (
	"context"

	"github.com/diogoX451/maestro/pkg/types"
)

// StatusPublisher recebe eventos observáveis de estágio e agente.
type StatusPublisher interface {
	PublishStageEvent(ctx context.Context, event types.StageEvent) error
	PublishAgentEvent(ctx context.Context, event types.AgentEvent) error
	PublishRunResult(ctx context.Context, event types.ResultEvent) error
}

// EventBus abstração de mensageria
type EventBus interface {
	StatusPublisher

	// Comandos (api -> worker)
	PublishRunCommand(ctx context.Context, cmd types.RunCommand) error
	SubscribeRunCommands(ctx context.Context, handler RunCommandHandler) error

	Close() error
}

type RunCommandHandler func(ctx context.Context, cmd types.RunCommand) error
