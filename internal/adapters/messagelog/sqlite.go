package messagelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/pkg/types"

	_ "modernc.org/sqlite"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    day            TEXT NOT NULL,
    timestamp      TEXT NOT NULL,
    from_party     TEXT NOT NULL,
    to_party       TEXT NOT NULL,
    type           TEXT NOT NULL,
    payload        TEXT NOT NULL,
    correlation_id TEXT NOT NULL
)`

const createMessagesDayIndex = `CREATE INDEX IF NOT EXISTS idx_messages_day ON messages(day)`

// SQLiteLog persiste o log de mensagens numa tabela sqlite.
type SQLiteLog struct {
	db *sql.DB
}

var (
	_ ports.MessageLog    = (*SQLiteLog)(nil)
	_ ports.MessageReader = (*SQLiteLog)(nil)
)

// NewSQLiteLog abre o banco em dbPath e aplica o schema.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Uma conexão: serializa escritas e mantém ":memory:" num único banco.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(createMessagesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}
	if _, err := db.Exec(createMessagesDayIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages index: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteLog) Append(ctx context.Context, msg domain.Message) error {
	rec := msg.Record()
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (day, timestamp, from_party, to_party, type, payload, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		PartitionKey(rec.Timestamp), rec.Timestamp.Format(time.RFC3339Nano), rec.From, rec.To,
		string(rec.Type), string(payload), rec.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *SQLiteLog) Messages(ctx context.Context, day time.Time) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, from_party, to_party, type, payload, correlation_id
		FROM messages WHERE day = ? ORDER BY id`, PartitionKey(day))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			ts, payload string
			rec         types.LogRecord
		)
		if err := rows.Scan(&ts, &rec.From, &rec.To, &rec.Type, &payload, &rec.CorrelationID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		msg, err := domain.MessageFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
