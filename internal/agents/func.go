package agents

import (
	"context"

	"github.com/diogoX451/maestro/internal/core/domain"
)

// Succeed executor in-process que sempre reporta sucesso.
func Succeed() domain.AgentExecutor {
	return domain.AgentExecutorFunc(func(ctx context.Context, _ domain.AgentTask) (domain.Outcome, error) {
		if err := ctx.Err(); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Outcome{Success: true}, nil
	})
}

// Fail executor in-process que sempre reporta falha com detail.
func Fail(detail string) domain.AgentExecutor {
	return domain.AgentExecutorFunc(func(context.Context, domain.AgentTask) (domain.Outcome, error) {
		return domain.Outcome{Success: false, Detail: detail}, nil
	})
}
