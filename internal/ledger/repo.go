package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hallgard/furrow/internal/models"
)

// Get returns the stored entry for a field, or nil when none exists.
func (db *DB) Get(session string, key models.FieldKey) (*Entry, error) {
	var orderJSON, renamedJSON, deletedJSON string
	var dirty int
	err := db.conn.QueryRow(`
		SELECT track_order, renamed, deleted, dirty
		FROM entries
		WHERE session = ? AND mode = ? AND farm = ? AND field = ?
	`, session, string(key.Mode), key.Farm, key.Field).
		Scan(&orderJSON, &renamedJSON, &deletedJSON, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get entry: %w", err)
	}
	return decodeEntry(orderJSON, renamedJSON, deletedJSON, dirty != 0)
}

// Put upserts the entry for a field.
func (db *DB) Put(session string, key models.FieldKey, e *Entry) error {
	orderJSON, renamedJSON, deletedJSON, err := encodeEntry(e)
	if err != nil {
		return err
	}
	dirty := 0
	if e.Dirty {
		dirty = 1
	}
	_, err = db.conn.Exec(`
		INSERT INTO entries (session, mode, farm, field, track_order, renamed, deleted, dirty, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, mode, farm, field) DO UPDATE SET
			track_order = excluded.track_order,
			renamed     = excluded.renamed,
			deleted     = excluded.deleted,
			dirty       = excluded.dirty,
			updated_at  = excluded.updated_at
	`, session, string(key.Mode), key.Farm, key.Field,
		orderJSON, renamedJSON, deletedJSON, dirty, time.Now())
	if err != nil {
		return fmt.Errorf("ledger: put entry: %w", err)
	}
	return nil
}

// Discard drops the entry for a field. Missing entries are a no-op.
func (db *DB) Discard(session string, key models.FieldKey) error {
	_, err := db.conn.Exec(`
		DELETE FROM entries WHERE session = ? AND mode = ? AND farm = ? AND field = ?
	`, session, string(key.Mode), key.Farm, key.Field)
	if err != nil {
		return fmt.Errorf("ledger: discard entry: %w", err)
	}
	return nil
}

// DiscardAll drops every entry of a session and returns the count removed.
func (db *DB) DiscardAll(session string) (int, error) {
	res, err := db.conn.Exec(`DELETE FROM entries WHERE session = ?`, session)
	if err != nil {
		return 0, fmt.Errorf("ledger: discard all: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DirtyKeys returns the keys of the session's dirty entries.
func (db *DB) DirtyKeys(session string) ([]models.FieldKey, error) {
	rows, err := db.conn.Query(`
		SELECT mode, farm, field FROM entries WHERE session = ? AND dirty = 1
	`, session)
	if err != nil {
		return nil, fmt.Errorf("ledger: dirty keys: %w", err)
	}
	defer rows.Close()

	var out []models.FieldKey
	for rows.Next() {
		var mode, farm, field string
		if err := rows.Scan(&mode, &farm, &field); err != nil {
			return nil, err
		}
		out = append(out, models.FieldKey{Mode: models.ImportMode(mode), Farm: farm, Field: field})
	}
	return out, rows.Err()
}

func encodeEntry(e *Entry) (orderJSON, renamedJSON, deletedJSON string, err error) {
	order := e.Order
	if order == nil {
		order = []int{}
	}
	ob, err := json.Marshal(order)
	if err != nil {
		return "", "", "", fmt.Errorf("ledger: encode order: %w", err)
	}
	renamed := e.Renamed
	if renamed == nil {
		renamed = map[int]string{}
	}
	rb, err := json.Marshal(renamed)
	if err != nil {
		return "", "", "", fmt.Errorf("ledger: encode renamed: %w", err)
	}
	deleted := make([]int, 0, len(e.Deleted))
	for id := range e.Deleted {
		deleted = append(deleted, id)
	}
	db, err := json.Marshal(deleted)
	if err != nil {
		return "", "", "", fmt.Errorf("ledger: encode deleted: %w", err)
	}
	return string(ob), string(rb), string(db), nil
}

func decodeEntry(orderJSON, renamedJSON, deletedJSON string, dirty bool) (*Entry, error) {
	e := &Entry{Dirty: dirty}
	if err := json.Unmarshal([]byte(orderJSON), &e.Order); err != nil {
		return nil, fmt.Errorf("ledger: decode order: %w", err)
	}
	if err := json.Unmarshal([]byte(renamedJSON), &e.Renamed); err != nil {
		return nil, fmt.Errorf("ledger: decode renamed: %w", err)
	}
	var deleted []int
	if err := json.Unmarshal([]byte(deletedJSON), &deleted); err != nil {
		return nil, fmt.Errorf("ledger: decode deleted: %w", err)
	}
	if len(deleted) > 0 {
		e.Deleted = make(map[int]struct{}, len(deleted))
		for _, id := range deleted {
			e.Deleted[id] = struct{}{}
		}
	}
	if len(e.Order) == 0 {
		e.Order = nil
	}
	if len(e.Renamed) == 0 {
		e.Renamed = nil
	}
	return e, nil
}
