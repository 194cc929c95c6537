package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across all sink implementations.
var (
	ErrDuplicateEvent = errors.New("duplicate event")
	ErrEventNotFound  = errors.New("event not found")
)

// EventRecord is one normalized webhook event as persisted by a caller of
// the integration layer. The layer itself never writes these; the webhook
// daemon does, so deliveries survive restarts for the surrounding
// application to consume.
type EventRecord struct {
	EventId    string
	Version    string
	EventType  string
	Kind       string // TRANSACTION, VAULT_ACCOUNT or VAULT_ACCOUNT_ASSET
	TxId       string
	TxStatus   string
	Payload    []byte // normalized event, JSON-encoded
	ReceivedAt time.Time
}

// EventSink defines the contract every sink backend must satisfy. Saving an
// already-seen event id fails with ErrDuplicateEvent; redeliveries are
// expected and must not produce duplicate rows.
type EventSink interface {
	SaveEvent(ctx context.Context, record EventRecord) error
	GetEvent(ctx context.Context, eventId string) (*EventRecord, error)
	ListEvents(ctx context.Context, limit int) ([]EventRecord, error)
	Close()
}
