package nats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/events"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurableFromSubject(t *testing.T) {
	assert.Equal(t, "maestro_command_run", durableFromSubject("maestro.command.run"))
	assert.Equal(t, "maestro_status__", durableFromSubject("maestro.status.>"))
	assert.Equal(t, "a_b", durableFromSubject("a-b"))
}

func TestCommandsRetention(t *testing.T) {
	t.Setenv("MAESTRO_COMMANDS_RETENTION", "")
	assert.Equal(t, events.RetentionWorkQueue, commandsRetention())

	t.Setenv("MAESTRO_COMMANDS_RETENTION", "Limits")
	assert.Equal(t, events.RetentionLimits, commandsRetention())

	t.Setenv("MAESTRO_COMMANDS_RETENTION", "interest")
	assert.Equal(t, events.RetentionInterest, commandsRetention())
}

func TestNATSBus(t *testing.T) {
	bus, err := New(Config{
		URL:           types.Getenv("MAESTRO_NATS_URL", "nats://localhost:4222"),
		MaxReconnects: 1,
		ReconnectWait: 100 * time.Millisecond,
	})
	if err != nil {
		t.Skip("NATS não disponível:", err)
	}
	defer bus.Close()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	stream := "MAESTRO_TEST_" + suffix
	subject := "maestrotest." + suffix + ".run"

	err = bus.CreateStream(events.StreamConfig{
		Name:      stream,
		Subjects:  []string{"maestrotest." + suffix + ".>"},
		Retention: events.RetentionWorkQueue,
		Storage:   events.StorageMemory,
	})
	if err != nil {
		t.Skip("JetStream não disponível:", err)
	}
	defer bus.DeleteStream(stream)

	// Criar de novo é idempotente
	require.NoError(t, bus.CreateStream(events.StreamConfig{
		Name:      stream,
		Subjects:  []string{"maestrotest." + suffix + ".>"},
		Retention: events.RetentionWorkQueue,
		Storage:   events.StorageMemory,
	}))

	type received struct {
		data     string
		subject  string
		delivery int
	}
	got := make(chan received, 1)

	sub, err := bus.Subscribe(subject, func(_ context.Context, msg events.Message) error {
		meta, err := msg.Metadata()
		if err != nil {
			return err
		}
		got <- received{data: string(msg.Data()), subject: msg.Subject(), delivery: meta.Deliveries}
		return msg.Ack()
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.PublishEvent(ctx, subject, map[string]string{"run_id": "r1"}))

	select {
	case r := <-got:
		assert.JSONEq(t, `{"run_id":"r1"}`, r.data)
		assert.Equal(t, subject, r.subject)
		assert.Equal(t, 1, r.delivery)
	case <-ctx.Done():
		t.Fatal("mensagem não entregue")
	}
}
