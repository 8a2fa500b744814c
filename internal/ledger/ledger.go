// Package ledger keeps the non-destructive record of user edits to a
// field's tracks: order overrides, renames, and deletions.
//
// The ledger stores deltas only, never geometry or decoded track lists.
// Effective tracks are produced by replaying the deltas on top of a fresh
// decode, so re-parsing the source, resetting, or re-uploading never
// corrupts an entry; deltas referencing ids that no longer decode are
// simply dropped at reconcile time.
package ledger

import (
	"github.com/hallgard/furrow/internal/models"
)

// Entry holds the edit deltas for one field. The zero value is a clean
// entry with no edits.
type Entry struct {
	// Order is the user-chosen track-id order, or empty when the decode
	// order stands. Ids are not validated here; stale ids are filtered
	// during reconciliation.
	Order []int `json:"order,omitempty"`
	// Renamed maps track id to its user-supplied name override.
	Renamed map[int]string `json:"renamed,omitempty"`
	// Deleted is the set of track ids removed by the user.
	Deleted map[int]struct{} `json:"deleted,omitempty"`
	// Dirty is true when the entry holds edits made since the last
	// export or reset.
	Dirty bool `json:"dirty"`
}

// HasEdits reports whether any delta is non-empty.
func (e *Entry) HasEdits() bool {
	if e == nil {
		return false
	}
	return len(e.Order) > 0 || len(e.Renamed) > 0 || len(e.Deleted) > 0
}

// SetOrder replaces the order delta.
func (e *Entry) SetOrder(ids []int) {
	e.Order = append([]int(nil), ids...)
	e.Dirty = true
}

// SetName upserts a rename override for a track id.
func (e *Entry) SetName(id int, name string) {
	if e.Renamed == nil {
		e.Renamed = make(map[int]string)
	}
	e.Renamed[id] = name
	e.Dirty = true
}

// Delete records a deletion. It purges the id from the rename map and the
// stored order so no dependent delta survives. Returns false when the id
// was already deleted, so callers can avoid duplicate confirmations.
func (e *Entry) Delete(id int) bool {
	if e.Deleted == nil {
		e.Deleted = make(map[int]struct{})
	}
	if _, done := e.Deleted[id]; done {
		return false
	}
	e.Deleted[id] = struct{}{}
	delete(e.Renamed, id)
	for i, ordered := range e.Order {
		if ordered == id {
			e.Order = append(e.Order[:i], e.Order[i+1:]...)
			break
		}
	}
	e.Dirty = true
	return true
}

// Reconcile replays the entry's deltas on top of freshly decoded tracks
// and returns the effective ordered track list. It is a pure function of
// its inputs: the same entry and decode always yield the same output, and
// a nil entry reproduces the decode order exactly.
//
// Every currently decoded, non-deleted id appears exactly once in the
// result, even when the stored order is stale or partial: ordered ids no
// longer present are dropped, and decoded ids the order never mentions are
// appended in decode order.
func Reconcile(e *Entry, decoded []models.Track) []models.Track {
	byID := make(map[int]models.Track, len(decoded))
	for _, tr := range decoded {
		byID[tr.ID] = tr
	}

	var finalIDs []int
	seen := make(map[int]struct{}, len(decoded))
	if e != nil {
		for _, id := range e.Order {
			if _, ok := byID[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			finalIDs = append(finalIDs, id)
		}
	}
	for _, tr := range decoded {
		if _, dup := seen[tr.ID]; dup {
			continue
		}
		seen[tr.ID] = struct{}{}
		finalIDs = append(finalIDs, tr.ID)
	}

	result := make([]models.Track, 0, len(finalIDs))
	for _, id := range finalIDs {
		if e != nil {
			if _, deleted := e.Deleted[id]; deleted {
				continue
			}
		}
		tr := byID[id]
		if e != nil {
			if name, ok := e.Renamed[id]; ok {
				tr.Name = name
			}
		}
		result = append(result, tr)
	}
	return result
}
