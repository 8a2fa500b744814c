package ledger

import "github.com/hallgard/furrow/internal/models"

// Store persists ledger entries keyed by (session, field). Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
//
// Each session gets an isolated set of entries; two sessions editing the
// same field never see each other's deltas.
type Store interface {
	// Get returns the entry for the field, or nil when none exists.
	Get(session string, key models.FieldKey) (*Entry, error)
	// Put upserts the entry for the field.
	Put(session string, key models.FieldKey, e *Entry) error
	// Discard drops the entry for the field (field reset). Dropping a
	// missing entry is a no-op.
	Discard(session string, key models.FieldKey) error
	// DiscardAll drops every entry of the session (all-reset). Returns
	// how many entries were removed.
	DiscardAll(session string) (int, error)
	// DirtyKeys returns the keys of the session's dirty entries.
	DirtyKeys(session string) ([]models.FieldKey, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
