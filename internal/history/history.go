// Package history stores per-user chat exchanges.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lazycare/pkg/types"
)

// ErrNotFound is returned when a delete matched nothing.
var ErrNotFound = errors.New("chat record not found")

// Store persists chat records keyed by email.
type Store interface {
	Append(ctx context.Context, rec types.ChatRecord) error
	// List returns the records of email, newest first.
	List(ctx context.Context, email string) ([]types.ChatRecord, error)
	// Delete removes the record whose ID or timestamp equals messageID.
	Delete(ctx context.Context, email, messageID string) error
	// DeleteAll removes every record of email.
	DeleteAll(ctx context.Context, email string) error
	Close() error
}

// TimestampLayout is RFC 3339 with a fixed nine-digit fraction, so record
// timestamps of equal zone compare correctly as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewRecord fills id and timestamp for a fresh exchange.
func NewRecord(email, message, aiResponse string) types.ChatRecord {
	return types.ChatRecord{
		ID:         uuid.NewString(),
		Email:      email,
		Message:    message,
		AIResponse: strings.TrimSpace(aiResponse),
		Timestamp:  time.Now().UTC().Format(TimestampLayout),
	}
}

func matches(rec types.ChatRecord, messageID string) bool {
	return rec.ID == messageID || rec.Timestamp == messageID
}

// Options selects a store implementation.
type Options struct {
	Backend  string // memory|redis|off
	RedisURL string
	Prefix   string
}

// Open returns the configured store, or nil when history is disabled.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "off":
		return nil, nil
	case "redis":
		rs, err := NewRedisStore(ctx, opts.RedisURL, opts.Prefix)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", opts.Backend)
	}
}
