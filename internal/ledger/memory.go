package ledger

import (
	"sync"

	"github.com/hallgard/furrow/internal/models"
)

// Memory is a map-backed Store for tests and one-shot runs where edits
// need not survive the process.
type Memory struct {
	mu      sync.Mutex
	entries map[string]map[models.FieldKey]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]map[models.FieldKey]*Entry)}
}

var _ Store = (*Memory)(nil)

// Get returns a copy of the entry, or nil when none exists. Copying keeps
// callers from mutating stored state without going through Put.
func (m *Memory) Get(session string, key models.FieldKey) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[session][key]
	if !ok {
		return nil, nil
	}
	return copyEntry(e), nil
}

// Put upserts the entry for the field.
func (m *Memory) Put(session string, key models.FieldKey, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[session] == nil {
		m.entries[session] = make(map[models.FieldKey]*Entry)
	}
	m.entries[session][key] = copyEntry(e)
	return nil
}

// Discard drops the entry for the field.
func (m *Memory) Discard(session string, key models.FieldKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[session], key)
	return nil
}

// DiscardAll drops every entry of the session.
func (m *Memory) DiscardAll(session string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries[session])
	delete(m.entries, session)
	return n, nil
}

// DirtyKeys returns the keys of the session's dirty entries.
func (m *Memory) DirtyKeys(session string) ([]models.FieldKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []models.FieldKey
	for key, e := range m.entries[session] {
		if e.Dirty {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func copyEntry(e *Entry) *Entry {
	out := &Entry{Dirty: e.Dirty}
	out.Order = append([]int(nil), e.Order...)
	if e.Renamed != nil {
		out.Renamed = make(map[int]string, len(e.Renamed))
		for id, name := range e.Renamed {
			out.Renamed[id] = name
		}
	}
	if e.Deleted != nil {
		out.Deleted = make(map[int]struct{}, len(e.Deleted))
		for id := range e.Deleted {
			out.Deleted[id] = struct{}{}
		}
	}
	return out
}
