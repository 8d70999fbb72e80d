package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/internal/events"
	"github.com/diogoX451/maestro/pkg/types"
)

// Subjects NATS do maestro
const (
	SubjectRunCommand  = "maestro.command.run"
	SubjectStageStatus = "maestro.status.stage"
	SubjectAgentStatus = "maestro.status.agent"
	SubjectRunResult   = "maestro.result.run"
	SubjectMessage     = "maestro.message."
)

// EventBusImpl adapta o bus para a interface do Core
type EventBusImpl struct {
	bus    events.Bus
	logger *slog.Logger
}

var _ ports.EventBus = (*EventBusImpl)(nil)

func NewEventBus(bus events.Bus, logger *slog.Logger) *EventBusImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBusImpl{bus: bus, logger: logger}
}

func (e *EventBusImpl) PublishStageEvent(ctx context.Context, event types.StageEvent) error {
	return e.bus.PublishEvent(ctx, SubjectStageStatus, event)
}

func (e *EventBusImpl) PublishAgentEvent(ctx context.Context, event types.AgentEvent) error {
	return e.bus.PublishEvent(ctx, SubjectAgentStatus, event)
}

func (e *EventBusImpl) PublishRunResult(ctx context.Context, event types.ResultEvent) error {
	return e.bus.PublishEvent(ctx, SubjectRunResult, event)
}

func (e *EventBusImpl) PublishRunCommand(ctx context.Context, cmd types.RunCommand) error {
	if cmd.RunID == "" {
		return fmt.Errorf("run command: run id is required")
	}
	return e.bus.PublishEvent(ctx, SubjectRunCommand, cmd)
}

// SubscribeRunCommands entrega cada comando ao handler; erro do handler = redelivery.
func (e *EventBusImpl) SubscribeRunCommands(ctx context.Context, handler ports.RunCommandHandler) error {
	sub, err := e.bus.Subscribe(SubjectRunCommand, func(_ context.Context, msg events.Message) error {
		var cmd types.RunCommand
		if err := json.Unmarshal(msg.Data(), &cmd); err != nil {
			// Mensagem inválida nunca vai dar certo, descarta
			e.logger.Error("discarding malformed run command", "subject", msg.Subject(), "error", err)
			return msg.Ack()
		}
		if meta, err := msg.Metadata(); err == nil && meta.Deliveries > 1 {
			e.logger.Warn("run command redelivered", "run_id", cmd.RunID, "deliveries", meta.Deliveries)
		}
		if err := handler(ctx, cmd); err != nil {
			return err
		}
		return msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectRunCommand, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (e *EventBusImpl) Close() error {
	return e.bus.Close()
}
