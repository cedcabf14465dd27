// Package source feeds position fixes to a capture session. Every source
// writes into a Mailbox, a single slot that always holds only the freshest
// fix; the session drains it on its own cadence.
package source

import (
	"context"
	"sync"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/session"
)

// Mailbox is a latest-value-wins slot implementing session.PositionSource.
// A Put overwrites any fix not yet taken; LatestFix empties the slot.
type Mailbox struct {
	mu       sync.Mutex
	fix      geo.Fix
	has      bool
	auth     session.Authorization
	received int
	dropped  int

	// Prompt is consulted by RequestAuthorization while the authorization
	// is undetermined. A nil Prompt grants immediately.
	Prompt func(ctx context.Context) session.Authorization

	// OnPut, if set, observes every fix after it is stored. It runs on the
	// caller's goroutine without the lock held.
	OnPut func(geo.Fix)
}

// NewMailbox returns an empty mailbox with the given authorization.
func NewMailbox(auth session.Authorization) *Mailbox {
	return &Mailbox{auth: auth}
}

// Put stores fix, replacing any fix that has not been taken.
func (m *Mailbox) Put(fix geo.Fix) {
	m.mu.Lock()
	if m.has {
		m.dropped++
	}
	m.fix, m.has = fix, true
	m.received++
	onPut := m.OnPut
	m.mu.Unlock()

	if onPut != nil {
		onPut(fix)
	}
}

// LatestFix takes the stored fix, leaving the slot empty.
func (m *Mailbox) LatestFix() (geo.Fix, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return geo.Fix{}, false
	}
	m.has = false
	return m.fix, true
}

// Peek returns the stored fix without taking it.
func (m *Mailbox) Peek() (geo.Fix, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fix, m.has
}

// Stats returns how many fixes were put and how many were overwritten before
// being taken.
func (m *Mailbox) Stats() (received, dropped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received, m.dropped
}

// Authorization returns the current authorization.
func (m *Mailbox) Authorization() session.Authorization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth
}

// SetAuthorization overrides the authorization.
func (m *Mailbox) SetAuthorization(a session.Authorization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = a
}

// RequestAuthorization resolves an undetermined authorization through
// Prompt. A decided authorization is returned unchanged.
func (m *Mailbox) RequestAuthorization(ctx context.Context) session.Authorization {
	m.mu.Lock()
	auth, prompt := m.auth, m.Prompt
	m.mu.Unlock()
	if auth != session.AuthUndetermined {
		return auth
	}

	auth = session.AuthGranted
	if prompt != nil {
		auth = prompt(ctx)
	}
	m.SetAuthorization(auth)
	return auth
}
