package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/diogoX451/maestro/internal/events"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/nats-io/nats.go"
)

type NATSBus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Verifica interface
var _ events.Bus = (*NATSBus)(nil)

type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	Name          string
}

func (c Config) name() string {
	if c.Name == "" {
		return "maestro-bus"
	}
	return c.Name
}

func New(cfg Config) (*NATSBus, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Name(cfg.name()),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connection failed: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream init failed: %w", err)
	}

	return &NATSBus{
		conn: conn,
		js:   js,
	}, nil
}

// CreateStream cria stream se não existir
func (n *NATSBus) CreateStream(cfg events.StreamConfig) error {
	storage := nats.FileStorage
	if cfg.Storage == events.StorageMemory {
		storage = nats.MemoryStorage
	}

	retention := nats.LimitsPolicy
	switch cfg.Retention {
	case events.RetentionInterest:
		retention = nats.InterestPolicy
	case events.RetentionWorkQueue:
		retention = nats.WorkQueuePolicy
	}

	_, err := n.js.AddStream(&nats.StreamConfig{
		Name:      cfg.Name,
		Subjects:  cfg.Subjects,
		Retention: retention,
		MaxMsgs:   cfg.MaxMsgs,
		MaxBytes:  cfg.MaxBytes,
		MaxAge:    cfg.MaxAge,
		Storage:   storage,
		Replicas:  cfg.Replicas,
	})

	if err == nats.ErrStreamNameAlreadyInUse {
		return nil // Já existe, ok
	}

	return err
}

// SetupMaestroStreams cria os streams usados pelo maestro
func (n *NATSBus) SetupMaestroStreams() error {
	// Stream: Comandos (api/cli -> worker)
	if err := n.CreateStream(events.StreamConfig{
		Name:      "MAESTRO_COMMANDS",
		Subjects:  []string{"maestro.command.>"},
		Retention: commandsRetention(),
		MaxMsgs:   10000,
		MaxAge:    24 * time.Hour,
		Storage:   events.StorageFile,
	}); err != nil {
		return fmt.Errorf("commands stream: %w", err)
	}

	// Stream: Status de estágios e agentes (UI, observadores)
	if err := n.CreateStream(events.StreamConfig{
		Name:      "MAESTRO_STATUS",
		Subjects:  []string{"maestro.status.>"},
		Retention: events.RetentionLimits,
		MaxMsgs:   100000,
		MaxAge:    24 * time.Hour,
		Storage:   events.StorageMemory,
	}); err != nil {
		return fmt.Errorf("status stream: %w", err)
	}

	// Stream: Resultados de runs
	if err := n.CreateStream(events.StreamConfig{
		Name:      "MAESTRO_RESULTS",
		Subjects:  []string{"maestro.result.>"},
		Retention: events.RetentionLimits,
		MaxMsgs:   1000000,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   events.StorageFile,
	}); err != nil {
		return fmt.Errorf("results stream: %w", err)
	}

	// Stream: Log de mensagens do protocolo
	if err := n.CreateStream(events.StreamConfig{
		Name:      "MAESTRO_MESSAGES",
		Subjects:  []string{"maestro.message.>"},
		Retention: events.RetentionLimits,
		MaxMsgs:   1000000,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   events.StorageFile,
	}); err != nil {
		return fmt.Errorf("messages stream: %w", err)
	}

	return nil
}

func commandsRetention() events.RetentionPolicy {
	switch strings.ToLower(types.Getenv("MAESTRO_COMMANDS_RETENTION", "workqueue")) {
	case "limits":
		return events.RetentionLimits
	case "interest":
		return events.RetentionInterest
	default:
		return events.RetentionWorkQueue
	}
}

// Publish envia mensagem bruta
func (n *NATSBus) Publish(ctx context.Context, subject string, payload []byte) error {
	_, err := n.js.Publish(subject, payload, nats.Context(ctx))
	return err
}

// PublishEvent serializa e envia
func (n *NATSBus) PublishEvent(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.Publish(ctx, subject, data)
}

// Subscribe registra handler push
func (n *NATSBus) Subscribe(subject string, handler events.Handler) (events.Subscription, error) {
	durable := durableFromSubject(subject)
	callback := func(msg *nats.Msg) {
		wrapped := &natsMessage{msg: msg}
		ctx := context.Background()

		if err := handler(ctx, wrapped); err != nil {
			// Handler errou, não deu ack = redelivery automático
			return
		}
	}

	sub, err := n.js.Subscribe(subject, callback, nats.Durable(durable), nats.ManualAck())
	if err == nil {
		return &natsSubscription{sub: sub}, nil
	}

	if !strings.Contains(err.Error(), "filtered consumer not unique on workqueue stream") {
		return nil, err
	}

	stream, streamErr := n.js.StreamNameBySubject(subject)
	if streamErr != nil {
		return nil, err
	}

	for name := range n.js.ConsumerNames(stream) {
		info, infoErr := n.js.ConsumerInfo(stream, name)
		if infoErr != nil {
			continue
		}
		if info.Config.FilterSubject != subject {
			continue
		}

		bound, bindErr := n.js.Subscribe(subject, callback, nats.Bind(stream, name), nats.ManualAck())
		if bindErr != nil {
			return nil, bindErr
		}
		return &natsSubscription{sub: bound}, nil
	}

	return nil, err
}

func durableFromSubject(subject string) string {
	var b strings.Builder
	b.Grow(len(subject))
	for _, r := range subject {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DeleteStream remove stream
func (n *NATSBus) DeleteStream(name string) error {
	return n.js.DeleteStream(name)
}

// Close encerra conexão
func (n *NATSBus) Close() error {
	n.conn.Close()
	return nil
}

// --- Implementações internas ---

type natsMessage struct {
	msg *nats.Msg
}

func (m *natsMessage) Data() []byte {
	return m.msg.Data
}

func (m *natsMessage) Subject() string {
	return m.msg.Subject
}

func (m *natsMessage) Ack() error {
	return m.msg.Ack()
}

func (m *natsMessage) Nak(delay ...time.Duration) error {
	if len(delay) > 0 {
		return m.msg.NakWithDelay(delay[0])
	}
	return m.msg.Nak()
}

func (m *natsMessage) Metadata() (*events.MsgMetadata, error) {
	meta, err := m.msg.Metadata()
	if err != nil {
		return nil, err
	}

	return &events.MsgMetadata{
		Sequence:   meta.Sequence.Consumer,
		Time:       meta.Timestamp,
		Stream:     meta.Stream,
		Consumer:   meta.Consumer,
		Deliveries: int(meta.NumDelivered),
	}, nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
