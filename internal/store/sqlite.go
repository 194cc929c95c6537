package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"waas-gateway-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *SqliteSink must satisfy EventSink.
var _ EventSink = (*SqliteSink)(nil)

type SqliteSink struct {
	db *sql.DB
}

func NewSqliteSink(ctx context.Context, cfg models.SinkConfig) (*SqliteSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sink database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening event sink database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	sink := &SqliteSink{db: db}
	if err := sink.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	return sink, nil
}

func (s *SqliteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS webhook_events (
		event_id TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		event_type TEXT NOT NULL,
		kind TEXT NOT NULL,
		tx_id TEXT,
		tx_status TEXT,
		payload BLOB NOT NULL,
		received_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_webhook_events_tx_id ON webhook_events(tx_id);
	CREATE INDEX IF NOT EXISTS idx_webhook_events_received_at ON webhook_events(received_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SqliteSink) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close event sink database", zap.Error(err))
	}
}

func (s *SqliteSink) SaveEvent(ctx context.Context, record EventRecord) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO webhook_events
		 (event_id, version, event_type, kind, tx_id, tx_status, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.EventId, record.Version, record.EventType, record.Kind,
		record.TxId, record.TxStatus, record.Payload, record.ReceivedAt.UTC())
	if err != nil {
		return fmt.Errorf("unable to store event %s: %w", record.EventId, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("event %s: %w", record.EventId, ErrDuplicateEvent)
	}
	return nil
}

func (s *SqliteSink) GetEvent(ctx context.Context, eventId string) (*EventRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT event_id, version, event_type, kind, tx_id, tx_status, payload, received_at
		 FROM webhook_events WHERE event_id = ?`, eventId)

	record, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s: %w", eventId, ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load event %s: %w", eventId, err)
	}
	return record, nil
}

func (s *SqliteSink) ListEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, version, event_type, kind, tx_id, tx_status, payload, received_at
		 FROM webhook_events ORDER BY received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to list events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var records []EventRecord
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan event: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*EventRecord, error) {
	var record EventRecord
	var txId, txStatus sql.NullString
	var receivedAt time.Time

	err := row.Scan(&record.EventId, &record.Version, &record.EventType, &record.Kind,
		&txId, &txStatus, &record.Payload, &receivedAt)
	if err != nil {
		return nil, err
	}

	record.TxId = txId.String
	record.TxStatus = txStatus.String
	record.ReceivedAt = receivedAt.UTC()
	return &record, nil
}
