package messagelog

import (
	"context"
	"fmt"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
)

// Publisher é satisfeito por events.Bus.
type Publisher interface {
	PublishEvent(ctx context.Context, subject string, event any) error
}

// NATSLog publica cada mensagem em <prefix><type> no JetStream.
// Publish só retorna depois do ack do stream; ack ausente é falha de append.
type NATSLog struct {
	pub    Publisher
	prefix string
}

var _ ports.MessageLog = (*NATSLog)(nil)

func NewNATSLog(pub Publisher, subjectPrefix string) *NATSLog {
	if subjectPrefix == "" {
		subjectPrefix = "maestro.message."
	}
	return &NATSLog{pub: pub, prefix: subjectPrefix}
}

func (l *NATSLog) Subject(t domain.MessageType) string {
	return l.prefix + string(t)
}

func (l *NATSLog) Append(ctx context.Context, msg domain.Message) error {
	subject := l.Subject(msg.Type())
	if err := l.pub.PublishEvent(ctx, subject, msg.Record()); err != nil {
		return fmt.Errorf("messagelog: publish %s: %w", subject, err)
	}
	return nil
}
