package messagelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
)

// LineStore é o subconjunto do store Redis usado pelo log.
type LineStore interface {
	AppendMessage(ctx context.Context, day string, line []byte) error
	MessageLines(ctx context.Context, day string) ([][]byte, error)
}

// RedisLog grava cada mensagem numa lista messages:YYYYMMDD.
type RedisLog struct {
	store LineStore
}

var (
	_ ports.MessageLog    = (*RedisLog)(nil)
	_ ports.MessageReader = (*RedisLog)(nil)
)

func NewRedisLog(store LineStore) *RedisLog {
	return &RedisLog{store: store}
}

func (l *RedisLog) Append(ctx context.Context, msg domain.Message) error {
	line, err := json.Marshal(msg.Record())
	if err != nil {
		return fmt.Errorf("messagelog: encode: %w", err)
	}
	if err := l.store.AppendMessage(ctx, PartitionKey(msg.Timestamp()), line); err != nil {
		return fmt.Errorf("messagelog: redis append: %w", err)
	}
	return nil
}

func (l *RedisLog) Messages(ctx context.Context, day time.Time) ([]domain.Message, error) {
	lines, err := l.store.MessageLines(ctx, PartitionKey(day))
	if err != nil {
		return nil, fmt.Errorf("messagelog: redis read: %w", err)
	}
	out := make([]domain.Message, 0, len(lines))
	for i, line := range lines {
		msg, err := domain.ParseMessage(line)
		if err != nil {
			return nil, fmt.Errorf("messagelog: redis entry %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}
