package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/events"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	data    []byte
	subject string
	acked   bool
}

func (m *fakeMessage) Data() []byte               { return m.data }
func (m *fakeMessage) Subject() string            { return m.subject }
func (m *fakeMessage) Ack() error                 { m.acked = true; return nil }
func (m *fakeMessage) Nak(...time.Duration) error { return nil }
func (m *fakeMessage) Metadata() (*events.MsgMetadata, error) {
	return &events.MsgMetadata{Deliveries: 1}, nil
}

type fakeSub struct{}

func (fakeSub) Unsubscribe() error { return nil }

type fakeBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	handlers  map[string]events.Handler
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: map[string][][]byte{}, handlers: map[string]events.Handler{}}
}

func (b *fakeBus) Publish(_ context.Context, subject string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[subject] = append(b.published[subject], payload)
	return nil
}

func (b *fakeBus) PublishEvent(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.Publish(ctx, subject, data)
}

func (b *fakeBus) Subscribe(subject string, handler events.Handler) (events.Subscription, error) {
	b.handlers[subject] = handler
	return fakeSub{}, nil
}

func (b *fakeBus) CreateStream(events.StreamConfig) error { return nil }
func (b *fakeBus) DeleteStream(string) error              { return nil }
func (b *fakeBus) Close() error                           { return nil }

func TestPublishRunCommandRequiresID(t *testing.T) {
	bus := NewEventBus(newFakeBus(), nil)
	err := bus.PublishRunCommand(context.Background(), types.RunCommand{})
	assert.Error(t, err)
}

func TestStatusEventsUseSubjects(t *testing.T) {
	fb := newFakeBus()
	bus := NewEventBus(fb, nil)
	ctx := context.Background()

	require.NoError(t, bus.PublishStageEvent(ctx, types.StageEvent{StageID: "s1", Phase: types.PhaseStarted}))
	require.NoError(t, bus.PublishAgentEvent(ctx, types.AgentEvent{Agent: "alice", Phase: types.PhaseCompleted}))
	require.NoError(t, bus.PublishRunResult(ctx, types.ResultEvent{RunID: "r1", Status: types.RunCompleted}))

	assert.Len(t, fb.published[SubjectStageStatus], 1)
	assert.Len(t, fb.published[SubjectAgentStatus], 1)
	require.Len(t, fb.published[SubjectRunResult], 1)

	var got types.ResultEvent
	require.NoError(t, json.Unmarshal(fb.published[SubjectRunResult][0], &got))
	assert.Equal(t, "r1", got.RunID)
}

func TestSubscribeRunCommands(t *testing.T) {
	fb := newFakeBus()
	bus := NewEventBus(fb, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received []types.RunCommand
	fail := false
	require.NoError(t, bus.SubscribeRunCommands(ctx, func(_ context.Context, cmd types.RunCommand) error {
		if fail {
			return errors.New("boom")
		}
		received = append(received, cmd)
		return nil
	}))

	handler := fb.handlers[SubjectRunCommand]
	require.NotNil(t, handler)

	t.Run("acks handled command", func(t *testing.T) {
		data, _ := json.Marshal(types.RunCommand{RunID: "r1", Document: types.Data(`{"name":"w"}`)})
		msg := &fakeMessage{data: data, subject: SubjectRunCommand}
		require.NoError(t, handler(ctx, msg))
		assert.True(t, msg.acked)
		require.Len(t, received, 1)
		assert.Equal(t, "r1", received[0].RunID)
	})

	t.Run("acks malformed payload", func(t *testing.T) {
		msg := &fakeMessage{data: []byte("{"), subject: SubjectRunCommand}
		require.NoError(t, handler(ctx, msg))
		assert.True(t, msg.acked)
	})

	t.Run("handler error leaves message unacked", func(t *testing.T) {
		fail = true
		data, _ := json.Marshal(types.RunCommand{RunID: "r2"})
		msg := &fakeMessage{data: data, subject: SubjectRunCommand}
		assert.Error(t, handler(ctx, msg))
		assert.False(t, msg.acked)
	})
}
