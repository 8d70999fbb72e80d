package store

import (
	"context"
	"errors"
	"time"

	"github.com/diogoX451/maestro/pkg/types"
)

// ErrNotFound run inexistente ou expirado
var ErrNotFound = errors.New("run not found")

type StateStore interface {
	// Ciclo de vida do run
	SaveRun(ctx context.Context, state *types.RunState) error
	GetRun(ctx context.Context, runID string) (*types.RunState, error)
	DeleteRun(ctx context.Context, runID string) error

	// Listagem (mais recentes primeiro)
	ListRuns(ctx context.Context, limit int) ([]string, error)

	// Log de mensagens particionado por dia
	AppendMessage(ctx context.Context, day string, line []byte) error
	MessageLines(ctx context.Context, day string) ([][]byte, error)

	// Cleanup
	SetTTL(ctx context.Context, runID string, ttl time.Duration) error

	Close() error
}
