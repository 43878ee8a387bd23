package rpc

import "sync"

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Transmission-Session-Id"

// DefaultSessionToken is the process-wide session id shared by clients built without their own cell.
var DefaultSessionToken = &SessionToken{}

// SessionToken holds the session id issued by the daemon.
//
// The value is absent until the first 409, replaced whenever the daemon issues a
// new id and never cleared. Get and Set are safe for concurrent use; the last Set wins.
type SessionToken struct {
	mu        sync.RWMutex
	value     string
	refreshes uint64
}

// Get returns the current session id, or "" before one has been issued.
func (t *SessionToken) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set replaces the session id.
func (t *SessionToken) Set(value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
	t.refreshes++
}

// Refreshes returns how many times the id has been set.
func (t *SessionToken) Refreshes() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refreshes
}
