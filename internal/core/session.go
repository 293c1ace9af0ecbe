package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds one table, its immutable baseline, the issue index, the
// undo/redo history and the currently selected filter issue. A session is
// mutated by at most one in-flight operation at a time; mu serializes the
// executor/history pair, which is not atomic on its own.
type Session struct {
	ID        string
	Kind      TableKind
	FileName  string
	VerifyIDs bool

	mu          sync.Mutex
	Table       *Table
	Baseline    *Table
	Issues      IssueIndex
	History     *History
	FilterIssue string // selected issue identifier, "" when unfiltered

	CreatedAt   time.Time
	LastUsed    time.Time
	ValidatedAt time.Time
	EditCount   int
}

// Lock acquires the session's operation lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's operation lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Manager is the in-memory session registry. Different sessions are fully
// independent; the manager itself only guards the map.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewManager returns a registry whose sessions expire after ttl of
// inactivity. A non-positive ttl disables expiry.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// NewSession registers a fresh session for the given parsed table.
func (m *Manager) NewSession(kind TableKind, fileName string, table *Table, issues IssueIndex, maxUndoDepth int) *Session {
	now := time.Now()
	sess := &Session{
		ID:          uuid.New().String(),
		Kind:        kind,
		FileName:    fileName,
		Table:       table,
		Baseline:    table.Clone(),
		Issues:      issues,
		History:     NewHistory(maxUndoDepth),
		CreatedAt:   now,
		LastUsed:    now,
		ValidatedAt: now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Restore registers an already-built session (draft loading).
func (m *Manager) Restore(sess *Session) {
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
}

// Get returns a live session and refreshes its last-used time.
// Returns ErrSessionNotFound for unknown or expired identifiers.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.LastUsed = time.Now()
	return sess, nil
}

// Delete removes a session. Returns false if it was not present.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle past the TTL and returns how many were
// removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.LastUsed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions on the given interval until ctx is
// cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", m.Len())
			}
		}
	}
}
