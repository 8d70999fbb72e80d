package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/diogoX451/maestro/pkg/types"
	"github.com/google/uuid"
)

type MessageType = types.MessageType

const (
	MessageRequest  = types.MessageRequest
	MessageResponse = types.MessageResponse
	MessageStatus   = types.MessageStatus
	MessageError    = types.MessageError
	MessageHandoff  = types.MessageHandoff
)

// ValidMessageType reports whether t is one of the known message kinds.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageRequest, MessageResponse, MessageStatus, MessageError, MessageHandoff:
		return true
	default:
		return false
	}
}

// Message é imutável depois de construída.
type Message struct {
	from          string
	to            string
	msgType       MessageType
	payload       map[string]any
	timestamp     time.Time
	correlationID string
}

// NewMessage constrói uma mensagem; correlationID vazio gera um UUID novo.
func NewMessage(from, to string, msgType MessageType, payload map[string]any, correlationID string) (Message, error) {
	if from == "" {
		return Message{}, fmt.Errorf("message: from party is required")
	}
	if to == "" {
		return Message{}, fmt.Errorf("message: to party is required")
	}
	if !ValidMessageType(msgType) {
		return Message{}, fmt.Errorf("message: unknown type %q", msgType)
	}
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	return Message{
		from:          from,
		to:            to,
		msgType:       msgType,
		payload:       clonePayload(payload),
		timestamp:     time.Now().UTC(),
		correlationID: correlationID,
	}, nil
}

// Getters
func (m Message) From() string          { return m.from }
func (m Message) To() string            { return m.to }
func (m Message) Type() MessageType     { return m.msgType }
func (m Message) Timestamp() time.Time  { return m.timestamp }
func (m Message) CorrelationID() string { return m.correlationID }

// Payload devolve uma cópia; o mapa interno nunca vaza.
func (m Message) Payload() map[string]any { return clonePayload(m.payload) }

// Record converte para o formato canônico do log.
func (m Message) Record() types.LogRecord {
	return types.LogRecord{
		Timestamp:     m.timestamp,
		From:          m.from,
		To:            m.to,
		Type:          m.msgType,
		Payload:       clonePayload(m.payload),
		CorrelationID: m.correlationID,
	}
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Record())
}

// MessageFromRecord reconstrói uma mensagem lida do log.
func MessageFromRecord(rec types.LogRecord) (Message, error) {
	if rec.From == "" || rec.To == "" {
		return Message{}, fmt.Errorf("message: record missing parties")
	}
	if !ValidMessageType(rec.Type) {
		return Message{}, fmt.Errorf("message: unknown type %q", rec.Type)
	}
	if rec.CorrelationID == "" {
		return Message{}, fmt.Errorf("message: record missing correlation_id")
	}
	return Message{
		from:          rec.From,
		to:            rec.To,
		msgType:       rec.Type,
		payload:       clonePayload(rec.Payload),
		timestamp:     rec.Timestamp.UTC(),
		correlationID: rec.CorrelationID,
	}, nil
}

// ParseMessage decodifica uma linha do log.
func ParseMessage(line []byte) (Message, error) {
	var rec types.LogRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Message{}, fmt.Errorf("message: decode record: %w", err)
	}
	return MessageFromRecord(rec)
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	return cloneValue(payload).(map[string]any)
}

// cloneValue copia em profundidade mapas e slices; escalares são copiados por valor.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		if val == nil {
			return val
		}
		return maps.Clone(val)
	case []string:
		if val == nil {
			return val
		}
		return slices.Clone(val)
	case json.RawMessage:
		if val == nil {
			return val
		}
		return slices.Clone(val)
	default:
		return v
	}
}
