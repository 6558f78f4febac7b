package memoryhost

import (
	"context"
	"sync"
	"time"

	"github.com/calcmcp/calc-server-go/sessions"
)

// DefaultTTL is the idle lifetime of a session record.
const DefaultTTL = 30 * time.Minute

type entry struct {
	rec       sessions.Record
	expiresAt time.Time
}

// Host is an in-memory sessions.Store with TTL-based expiry. Expired
// records are dropped lazily on access.
type Host struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Host.
type Option func(*Host)

// WithTTL overrides the session lifetime. Non-positive values keep the
// default.
func WithTTL(ttl time.Duration) Option {
	return func(h *Host) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// New constructs an empty in-memory session host.
func New(opts ...Option) *Host {
	h := &Host{
		ttl: DefaultTTL,
		m:   make(map[string]entry),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) Put(ctx context.Context, rec sessions.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m[rec.ID] = entry{rec: rec, expiresAt: h.now().Add(h.ttl)}
	return nil
}

func (h *Host) Get(ctx context.Context, id string) (sessions.Record, error) {
	h.mu.RLock()
	e, ok := h.m[id]
	h.mu.RUnlock()
	if !ok {
		return sessions.Record{}, sessions.ErrNotFound
	}
	if h.now().After(e.expiresAt) {
		h.mu.Lock()
		// Re-check under the write lock; a Put may have raced.
		if cur, ok := h.m[id]; ok && h.now().After(cur.expiresAt) {
			delete(h.m, id)
		}
		h.mu.Unlock()
		return sessions.Record{}, sessions.ErrNotFound
	}
	return e.rec, nil
}

func (h *Host) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.m, id)
	return nil
}

// Interface compliance
var _ sessions.Store = (*Host)(nil)
