package messagelog

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diogoX451/maestro/internal/core/ports"
)

// Options seleciona os sinks a partir da configuração.
type Options struct {
	Backends   []string
	Dir        string
	SQLitePath string
	Redis      LineStore
	Publisher  Publisher
}

// Sinks resultado de Open; Reader pode ser nil quando nenhum sink é legível.
type Sinks struct {
	Log     ports.MessageLog
	Reader  ports.MessageReader
	closers []io.Closer
}

func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open monta os sinks na ordem declarada. Sem backends usa "file".
func Open(opts Options) (*Sinks, error) {
	backends := opts.Backends
	if len(backends) == 0 {
		backends = []string{"file"}
	}

	out := &Sinks{}
	var logs []ports.MessageLog
	for _, name := range backends {
		var sink ports.MessageLog
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "file":
			sink = NewFileLog(opts.Dir)
		case "memory":
			sink = NewMemoryLog()
		case "sqlite":
			db, err := NewSQLiteLog(opts.SQLitePath)
			if err != nil {
				out.Close()
				return nil, fmt.Errorf("messagelog sqlite: %w", err)
			}
			out.closers = append(out.closers, db)
			sink = db
		case "redis":
			if opts.Redis == nil {
				out.Close()
				return nil, fmt.Errorf("messagelog redis: store not configured")
			}
			sink = NewRedisLog(opts.Redis)
		case "nats":
			if opts.Publisher == nil {
				out.Close()
				return nil, fmt.Errorf("messagelog nats: publisher not configured")
			}
			sink = NewNATSLog(opts.Publisher, "")
		default:
			out.Close()
			return nil, fmt.Errorf("messagelog: unknown backend %q", name)
		}
		logs = append(logs, sink)
	}

	if len(logs) == 1 {
		out.Log = logs[0]
		out.Reader, _ = logs[0].(ports.MessageReader)
		return out, nil
	}
	multi := NewMultiLog(logs...)
	out.Log = multi
	out.Reader, _ = multi.Reader()
	return out, nil
}
