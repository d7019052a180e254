// Package session issues fixed-duration session records and enforces the
// single-active-class policy: one human operator uses one role at a time,
// so acquiring a session for one account class invalidates the slots of all
// other classes.
package session

import (
	"context"
	"errors"
	"time"

	"stationhq.org/internal/auth"
	"stationhq.org/internal/ids"
)

// TTL is the fixed session lifetime. Sessions are not renewable in place; a
// new login always replaces the record.
const TTL = 24 * time.Hour

// ErrSlotUnavailable indicates the slot store could not be read or written.
var ErrSlotUnavailable = errors.New("session: slot store unavailable")

// Record is an issued session: a principal snapshot plus its lifetime.
type Record struct {
	ID        string
	Principal auth.Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is past its lifetime. The boundary is
// inclusive: now == ExpiresAt means expired.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// SlotStore persists one session record per account class slot. It models
// the client-local persisted key/expiry pairs of the portal; implementations
// are injected so tests can swap an in-memory fake.
type SlotStore interface {
	Get(ctx context.Context, class auth.AccountClass) (*Record, error)
	Set(ctx context.Context, class auth.AccountClass, rec Record) error
	Delete(ctx context.Context, class auth.AccountClass) error
}

// Manager owns issuance and resolution over the class slots.
type Manager struct {
	slots SlotStore
	now   func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager over the given slot store.
func NewManager(slots SlotStore, opts ...Option) *Manager {
	m := &Manager{slots: slots, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue materializes a session record for the principal with the fixed
// expiry. It performs no persistence; pair with Activate.
func (m *Manager) Issue(principal auth.Principal) Record {
	now := m.now().UTC()
	return Record{
		ID:        ids.New(),
		Principal: principal,
		IssuedAt:  now,
		ExpiresAt: now.Add(TTL),
	}
}

// Activate invalidates every other class's stored session before persisting
// the new record into its class slot.
func (m *Manager) Activate(ctx context.Context, rec Record) error {
	for _, class := range auth.LoginPriority {
		if class == rec.Principal.Class {
			continue
		}
		if err := m.slots.Delete(ctx, class); err != nil {
			return err
		}
	}
	return m.slots.Set(ctx, rec.Principal.Class, rec)
}

// ResolveActive scans all class slots, purges expired records, and returns
// the surviving record with the latest IssuedAt. Under the invalidation
// policy at most one should exist, but interrupted writes may leave more;
// the most recently issued wins. Returns nil when no active session exists.
func (m *Manager) ResolveActive(ctx context.Context) (*Record, error) {
	now := m.now().UTC()
	var latest *Record
	for _, class := range auth.LoginPriority {
		rec, err := m.slots.Get(ctx, class)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		if rec.Expired(now) {
			if err := m.slots.Delete(ctx, class); err != nil {
				return nil, err
			}
			continue
		}
		if latest == nil || rec.IssuedAt.After(latest.IssuedAt) {
			latest = rec
		}
	}
	return latest, nil
}

// Clear discards every class slot. Used on logout.
func (m *Manager) Clear(ctx context.Context) error {
	for _, class := range auth.LoginPriority {
		if err := m.slots.Delete(ctx, class); err != nil {
			return err
		}
	}
	return nil
}
