package ledger

import "sync"

// Factory builds a fresh ledger for a worker.
type Factory func(workerID string) *Ledger

// SessionManager keeps one live shift ledger per worker. Each worker's
// shift flow is exclusively owned by the client driving it; the map lock
// only guards session creation and teardown.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Ledger
	factory  Factory
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(factory Factory) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Ledger),
		factory:  factory,
	}
}

// Get returns the worker's ledger, creating one on first use.
func (sm *SessionManager) Get(workerID string) *Ledger {
	sm.mu.RLock()
	if session, exists := sm.sessions[workerID]; exists {
		sm.mu.RUnlock()
		return session
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[workerID]; exists {
		return session
	}
	session := sm.factory(workerID)
	sm.sessions[workerID] = session
	return session
}

// Clear removes a worker's session.
func (sm *SessionManager) Clear(workerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, workerID)
}

// EditManager keeps at most one edit session per board id, so concurrent
// confirms against the same saved entry share the session's in-flight flag
// instead of racing each other on fresh sessions.
type EditManager struct {
	mu    sync.Mutex
	edits map[string]*Edit
}

// NewEditManager creates an empty edit manager.
func NewEditManager() *EditManager {
	return &EditManager{edits: make(map[string]*Edit)}
}

// Get returns the open edit session for a board, calling open to create one
// when none exists yet.
func (em *EditManager) Get(boardID string, open func() (*Edit, error)) (*Edit, error) {
	em.mu.Lock()
	defer em.mu.Unlock()
	if edit, exists := em.edits[boardID]; exists {
		return edit, nil
	}
	edit, err := open()
	if err != nil {
		return nil, err
	}
	em.edits[boardID] = edit
	return edit, nil
}

// Clear drops a board's edit session, typically after a confirmed edit.
func (em *EditManager) Clear(boardID string) {
	em.mu.Lock()
	defer em.mu.Unlock()
	delete(em.edits, boardID)
}
