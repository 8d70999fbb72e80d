package messagelog

import (
	"context"
	"sync"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
)

// MemoryLog mantém as mensagens em memória (testes e modo dry-run).
type MemoryLog struct {
	mu   sync.Mutex
	msgs []domain.Message
}

var (
	_ ports.MessageLog    = (*MemoryLog)(nil)
	_ ports.MessageReader = (*MemoryLog)(nil)
)

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	return nil
}

func (l *MemoryLog) Messages(_ context.Context, day time.Time) ([]domain.Message, error) {
	key := PartitionKey(day)
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Message
	for _, m := range l.msgs {
		if PartitionKey(m.Timestamp()) == key {
			out = append(out, m)
		}
	}
	return out, nil
}

// All snapshot em ordem de append.
func (l *MemoryLog) All() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// ByType filtra o snapshot por tipo.
func (l *MemoryLog) ByType(t domain.MessageType) []domain.Message {
	var out []domain.Message
	for _, m := range l.All() {
		if m.Type() == t {
			out = append(out, m)
		}
	}
	return out
}

func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
