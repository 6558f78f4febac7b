// Package sessions defines the session store used by the HTTP transport to
// track per-client protocol state across requests. The stdio transport does
// not use it: a stdio process serves exactly one session for its lifetime.
package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Record is the persisted protocol state for one client session.
type Record struct {
	ID              string    `json:"id"`
	ProtocolVersion string    `json:"protocolVersion"`
	Initialized     bool      `json:"initialized"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Store persists session records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put creates or replaces the record for rec.ID.
	Put(ctx context.Context, rec Record) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)
	// Delete removes the record for id. Deleting an unknown id is not an
	// error.
	Delete(ctx context.Context, id string) error
}
