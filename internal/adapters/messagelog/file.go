package messagelog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
)

// FileLog grava uma mensagem JSON por linha em messages_YYYYMMDD.jsonl, pela data UTC
// do timestamp da mensagem.
// O diretório só é criado no primeiro Append.
type FileLog struct {
	dir   string
	mu    sync.Mutex
	ready bool
}

var (
	_ ports.MessageLog    = (*FileLog)(nil)
	_ ports.MessageReader = (*FileLog)(nil)
)

func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir}
}

// Dir returns the directory holding the partitions.
func (l *FileLog) Dir() string { return l.dir }

// PartitionPath caminho do arquivo para o dia de t.
func (l *FileLog) PartitionPath(t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("messages_%s.jsonl", PartitionKey(t)))
}

func (l *FileLog) Append(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(msg.Record())
	if err != nil {
		return fmt.Errorf("messagelog: encode: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return fmt.Errorf("messagelog: ensure dir %s: %w", l.dir, err)
		}
		l.ready = true
	}

	path := l.PartitionPath(msg.Timestamp())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("messagelog: open %s: %w", path, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("messagelog: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("messagelog: close %s: %w", path, err)
	}
	return nil
}

// Messages lê a partição do dia; partição inexistente não é erro.
func (l *FileLog) Messages(ctx context.Context, day time.Time) ([]domain.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.PartitionPath(day)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("messagelog: open %s: %w", path, err)
	}
	defer f.Close()

	var out []domain.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		msg, err := domain.ParseMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("messagelog: %s line %d: %w", path, len(out)+1, err)
		}
		out = append(out, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("messagelog: scan %s: %w", path, err)
	}
	return out, nil
}
