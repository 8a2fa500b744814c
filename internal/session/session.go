// Package session tracks import sessions: one uploaded or configured
// import root plus the session identity that scopes ledger entries.
package session

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/catalog"
	"github.com/hallgard/furrow/internal/decode"
	"github.com/hallgard/furrow/internal/models"
)

// Session is one logical user session over one import root. The origin is
// read once at session creation and never mutated afterwards.
type Session struct {
	ID     string
	Mode   models.ImportMode
	Root   string
	Origin models.Origin

	// workdir is the temp directory holding this session's extracted
	// upload; empty when the root is an externally managed directory.
	workdir string

	mu          sync.Mutex
	lastArchive []byte
}

// SetArchive stores the most recent export archive for download.
func (s *Session) SetArchive(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastArchive = data
}

// Archive returns the most recent export archive, or nil when no export
// has run yet.
func (s *Session) Archive() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastArchive
}

// Manager owns all live sessions. Dropping a session removes its workdir
// so repeated uploads cannot grow the disk without bound.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Open creates a session over an already resolved import root. For the
// legacy mode the origin descriptor is located and parsed here; failures
// are fatal for the whole root. workdir may be empty for externally
// managed roots.
func (m *Manager) Open(mode models.ImportMode, root, workdir string) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("session: unknown import mode %q", mode)
	}

	s := &Session{
		ID:      uuid.NewString(),
		Mode:    mode,
		Root:    root,
		workdir: workdir,
	}
	if mode == models.ModeCereaTxt {
		originPath, err := catalog.ResolveOriginPath(root)
		if err != nil {
			return nil, err
		}
		origin, err := decode.ReadOrigin(originPath)
		if err != nil {
			return nil, err
		}
		s.Origin = origin
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

// Drop removes a session and deletes its workdir.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok && s.workdir != "" {
		_ = os.RemoveAll(s.workdir)
	}
}

// Close drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Drop(id)
	}
}
