package ports

import (
	"context"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
)

// MessageLog é o sink append-only do protocolo de mensagens.
// Append precisa ser seguro sob escritores concorrentes.
type MessageLog interface {
	Append(ctx context.Context, msg domain.Message) error
}

// MessageReader lê de volta uma partição diária.
type MessageReader interface {
	Messages(ctx context.Context, day time.Time) ([]domain.Message, error)
}
