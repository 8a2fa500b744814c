package fieldservice

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/ledger"
	"github.com/hallgard/furrow/internal/models"
)

// The dbf name column caps effective track names.
const maxTrackName = 64

// Reorder stores a user-chosen display order for the field's tracks. Ids
// that no longer decode are filtered during reconciliation, so a stale
// client order degrades instead of failing.
func (s *Service) Reorder(_ context.Context, sessionID, farm, field string, ids []int) (*FieldDetail, error) {
	return s.mutate(sessionID, farm, field, func(e *ledger.Entry, _ []models.Track) error {
		e.SetOrder(ids)
		return nil
	})
}

// Rename sets a name override for one track. Blank names are rejected
// before anything is written; renaming a track to its current effective
// name succeeds without touching the ledger.
func (s *Service) Rename(_ context.Context, sessionID, farm, field string, id int, name string) (*FieldDetail, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(1, maxTrackName)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", apperr.ErrValidation, err)
	}
	return s.mutate(sessionID, farm, field, func(e *ledger.Entry, current []models.Track) error {
		for _, tr := range current {
			if tr.ID != id {
				continue
			}
			if tr.Name != name {
				e.SetName(id, name)
			}
			return nil
		}
		return apperr.ErrNotFound
	})
}

// DeleteTrack removes a track from the field's effective view. Deleting an
// already deleted id is a no-op success.
func (s *Service) DeleteTrack(_ context.Context, sessionID, farm, field string, id int) (*FieldDetail, error) {
	return s.mutate(sessionID, farm, field, func(e *ledger.Entry, current []models.Track) error {
		for _, tr := range current {
			if tr.ID == id {
				e.Delete(id)
				return nil
			}
		}
		if _, gone := e.Deleted[id]; gone {
			return nil
		}
		return apperr.ErrNotFound
	})
}

// Reset discards every edit of one field, restoring the decode view.
func (s *Service) Reset(_ context.Context, sessionID, farm, field string) (*FieldDetail, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	key := models.FieldKey{Mode: sess.Mode, Farm: farm, Field: field}
	if err := s.store.Discard(sess.ID, key); err != nil {
		return nil, err
	}
	return s.buildDetail(sess, key)
}

// ResetAll discards every edit of the session and reports how many fields
// were affected.
func (s *Service) ResetAll(_ context.Context, sessionID string) (int, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return 0, err
	}
	return s.store.DiscardAll(sess.ID)
}

// mutate runs one edit against the field's ledger entry and persists the
// result. fn sees the current effective track list so it can validate ids
// before mutating; returning an error leaves the stored entry untouched.
func (s *Service) mutate(sessionID, farm, field string, fn func(e *ledger.Entry, current []models.Track) error) (*FieldDetail, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	key := models.FieldKey{Mode: sess.Mode, Farm: farm, Field: field}

	dec, err := s.loadDecoded(sess, key)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.Get(sess.ID, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &ledger.Entry{}
	}

	if err := fn(entry, ledger.Reconcile(entry, dec.field.Tracks)); err != nil {
		return nil, err
	}
	if entry.HasEdits() || entry.Dirty {
		if err := s.store.Put(sess.ID, key, entry); err != nil {
			return nil, err
		}
	}
	return s.buildDetail(sess, key)
}
