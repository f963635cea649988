// Package session keeps the workflow sessions of a server process.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// ErrNotFound is returned for unknown sessions and for sessions owned by
// another user.
var ErrNotFound = errors.New("session not found")

// Factory builds a new workflow session for an id.
type Factory func(id string) *workflow.Session

type entry struct {
	session *workflow.Session
	owner   int64
}

// Manager owns the sessions and the background work started for them.
//
// A Manager should be created using NewManager.
type Manager struct {
	factory Factory
	onCount func(n int)

	mu       sync.RWMutex
	sessions map[string]entry
	wg       sync.WaitGroup
}

// NewManagerParams defines the configuration parameters for creating a
// Manager.
//
// OnCount is called with the number of sessions after every change.
type NewManagerParams struct {
	Factory Factory
	OnCount func(n int)
}

func NewManager(params NewManagerParams) *Manager {
	return &Manager{
		factory:  params.Factory,
		onCount:  params.OnCount,
		sessions: make(map[string]entry),
	}
}

// Create opens a new session owned by owner.
func (m *Manager) Create(owner int64) (*workflow.Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	s := m.factory(id)

	m.mu.Lock()
	m.sessions[id] = entry{session: s, owner: owner}
	n := len(m.sessions)
	m.mu.Unlock()

	m.count(n)
	logger.Info("[Session] Created session", "id", id, "owner", owner)
	return s, nil
}

// Get returns the session if owner may access it. Admins pass any owner
// check.
func (m *Manager) Get(id string, owner int64, admin bool) (*workflow.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok || (!admin && e.owner != owner) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e.session, nil
}

// Delete closes and removes a session.
func (m *Manager) Delete(id string, owner int64, admin bool) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || (!admin && e.owner != owner) {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	e.session.Close()
	m.count(n)
	logger.Info("[Session] Deleted session", "id", id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Go runs fn in the background. Shutdown waits for it.
func (m *Manager) Go(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// Shutdown cancels the work of every session and waits for background
// functions until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, e := range m.sessions {
		e.session.Close()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) count(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}
