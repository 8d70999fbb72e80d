package agents

import (
	"context"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
)

// DefaultDelay duração do trabalho simulado.
const DefaultDelay = time.Second

// DelayExecutor simula trabalho: espera o delay e reporta sucesso.
// Cancelamento do ctx interrompe a espera.
type DelayExecutor struct {
	delay time.Duration
}

var _ domain.AgentExecutor = (*DelayExecutor)(nil)

func NewDelayExecutor(delay time.Duration) *DelayExecutor {
	if delay < 0 {
		delay = 0
	}
	return &DelayExecutor{delay: delay}
}

func (d *DelayExecutor) Perform(ctx context.Context, task domain.AgentTask) (domain.Outcome, error) {
	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	case <-timer.C:
	}
	return domain.Outcome{
		Success: true,
		Detail:  "simulated",
		Data:    map[string]any{"scope": task.Scope},
	}, nil
}
