package ports

import (
	"context"
	"errors"

	"github.com/diogoX451/maestro/internal/core/domain"
)

var ErrRunNotFound = errors.New("run not found")

// RunRepository abstração de persistência dos resultados de execução
// Implementado em infra (Redis, memória), usado em service e api
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunResult) error
	MarkPending(ctx context.Context, runID, workflow string) error
	LoadRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// RunRecord visão persistida: resultado pode estar ausente enquanto pending.
type RunRecord struct {
	Result domain.RunResult
	Error  string
}
