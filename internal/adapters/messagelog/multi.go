package messagelog

import (
	"context"
	"errors"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
)

// MultiLog replica cada append em todos os sinks; qualquer falha falha o append.
type MultiLog struct {
	sinks []ports.MessageLog
}

var _ ports.MessageLog = (*MultiLog)(nil)

func NewMultiLog(sinks ...ports.MessageLog) *MultiLog {
	return &MultiLog{sinks: sinks}
}

func (m *MultiLog) Append(ctx context.Context, msg domain.Message) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Append(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reader devolve o primeiro sink que sabe ler partições.
func (m *MultiLog) Reader() (ports.MessageReader, bool) {
	for _, sink := range m.sinks {
		if r, ok := sink.(ports.MessageReader); ok {
			return r, true
		}
	}
	return nil, false
}
