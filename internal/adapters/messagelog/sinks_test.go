package messagelog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLog struct{}

func (failingLog) Append(context.Context, domain.Message) error { return errors.New("disk full") }

type lineStore struct {
	mu    sync.Mutex
	lines map[string][][]byte
}

func (s *lineStore) AppendMessage(_ context.Context, day string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		s.lines = map[string][][]byte{}
	}
	s.lines[day] = append(s.lines[day], line)
	return nil
}

func (s *lineStore) MessageLines(_ context.Context, day string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines[day], nil
}

type recordingPublisher struct {
	subjects []string
	events   []any
	err      error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, subject string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func TestMemoryLogFilters(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, mustMessage(t, "orchestrator", "a", domain.MessageRequest, nil)))
	require.NoError(t, log.Append(ctx, mustMessage(t, "a", "orchestrator", domain.MessageResponse, nil)))

	assert.Equal(t, 2, log.Len())
	assert.Len(t, log.ByType(domain.MessageRequest), 1)

	today, err := log.Messages(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, today, 2)
}

func TestMultiLogFailsWhenAnySinkFails(t *testing.T) {
	mem := NewMemoryLog()
	multi := NewMultiLog(mem, failingLog{})

	err := multi.Append(context.Background(), mustMessage(t, "orchestrator", "a", domain.MessageRequest, nil))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, mem.Len())

	reader, ok := multi.Reader()
	assert.True(t, ok)
	assert.Same(t, mem, reader)
}

func TestRedisLogRoundTrip(t *testing.T) {
	store := &lineStore{}
	log := NewRedisLog(store)
	fixed := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	msg := mustMessageAt(t, fixed, "orchestrator", "bob", domain.MessageRequest, map[string]any{"scope": "x"})
	require.NoError(t, log.Append(ctx, msg))
	require.Len(t, store.lines["20250505"], 1)

	msgs, err := log.Messages(ctx, fixed)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.CorrelationID(), msgs[0].CorrelationID())
}

func TestNATSLogSubjects(t *testing.T) {
	pub := &recordingPublisher{}
	log := NewNATSLog(pub, "")
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, mustMessage(t, "orchestrator", "a", domain.MessageRequest, nil)))
	require.NoError(t, log.Append(ctx, mustMessage(t, "a", "orchestrator", domain.MessageError, nil)))

	assert.Equal(t, []string{"maestro.message.request", "maestro.message.error"}, pub.subjects)

	data, err := json.Marshal(pub.events[0])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 6)

	pub.err = errors.New("no ack")
	assert.Error(t, log.Append(ctx, mustMessage(t, "orchestrator", "a", domain.MessageStatus, nil)))
}

func TestOpenSinks(t *testing.T) {
	t.Run("default is file", func(t *testing.T) {
		sinks, err := Open(Options{Dir: t.TempDir()})
		require.NoError(t, err)
		defer sinks.Close()
		assert.IsType(t, &FileLog{}, sinks.Log)
		assert.NotNil(t, sinks.Reader)
	})

	t.Run("multiple backends", func(t *testing.T) {
		sinks, err := Open(Options{
			Backends:   []string{"sqlite", "nats"},
			SQLitePath: ":memory:",
			Publisher:  &recordingPublisher{},
		})
		require.NoError(t, err)
		defer sinks.Close()
		assert.IsType(t, &MultiLog{}, sinks.Log)
		assert.IsType(t, &SQLiteLog{}, sinks.Reader)
	})

	t.Run("redis without store", func(t *testing.T) {
		_, err := Open(Options{Backends: []string{"redis"}})
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(Options{Backends: []string{"kafka"}})
		assert.Error(t, err)
	})
}

func TestParsePartitionKey(t *testing.T) {
	for _, raw := range []string{"20240102", "2024-01-02"} {
		day, err := ParsePartitionKey(raw)
		require.NoError(t, err)
		assert.Equal(t, "20240102", PartitionKey(day))
	}
	_, err := ParsePartitionKey("yesterday")
	assert.Error(t, err)
}

func TestSinksPartitionByMessageTimestamp(t *testing.T) {
	ctx := context.Background()
	lastInstant := time.Date(2024, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
	msg := mustMessageAt(t, lastInstant, "orchestrator", "alice", domain.MessageRequest, nil)

	sqliteLog, err := NewSQLiteLog(":memory:")
	require.NoError(t, err)
	defer sqliteLog.Close()

	readers := map[string]interface {
		Append(context.Context, domain.Message) error
		Messages(context.Context, time.Time) ([]domain.Message, error)
	}{
		"file":   NewFileLog(t.TempDir()),
		"memory": NewMemoryLog(),
		"sqlite": sqliteLog,
		"redis":  NewRedisLog(&lineStore{}),
	}

	for name, sink := range readers {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, sink.Append(ctx, msg))

			same, err := sink.Messages(ctx, lastInstant)
			require.NoError(t, err)
			require.Len(t, same, 1)
			assert.Equal(t, msg.CorrelationID(), same[0].CorrelationID())

			next, err := sink.Messages(ctx, lastInstant.Add(time.Millisecond))
			require.NoError(t, err)
			assert.Empty(t, next)
		})
	}
}
