// Package fieldservice coordinates sessions, decoding, the edit ledger and
// export into the operations exposed over HTTP and MCP.
package fieldservice

import (
	"context"
	"fmt"
	"os"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/catalog"
	"github.com/hallgard/furrow/internal/export"
	"github.com/hallgard/furrow/internal/ledger"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
)

// TrackView is one track as presented to clients: the stable decode id plus
// the 1-based display position after reconciliation.
type TrackView struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Order  int            `json:"order"`
	Points []models.Point `json:"points"`
}

// FieldDetail is the full representation of one field after the edit
// ledger has been applied to the decoded sources.
type FieldDetail struct {
	Farm    string             `json:"farm"`
	Field   string             `json:"field"`
	Polygon []models.Point     `json:"polygon,omitempty"`
	Tracks  []TrackView        `json:"tracks"`
	Dirty   bool               `json:"dirty"`
	Notes   []models.FieldNote `json:"notes,omitempty"`
}

// Service coordinates session, decode, ledger and export operations.
type Service struct {
	sessions  *session.Manager
	store     ledger.Store
	workspace string
	cache     *decodeCache
}

// NewService creates a field service. workspace is the directory for
// extracted uploads and export staging.
func NewService(sessions *session.Manager, store ledger.Store, workspace string) *Service {
	return &Service{
		sessions:  sessions,
		store:     store,
		workspace: workspace,
		cache:     newDecodeCache(),
	}
}

// ImportArchive extracts an uploaded zip into a fresh workdir, resolves the
// actual import root inside it and opens a session over the result.
func (s *Service) ImportArchive(_ context.Context, mode models.ImportMode, data []byte) (*session.Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown import mode %q", apperr.ErrValidation, mode)
	}
	workdir, err := os.MkdirTemp(s.workspace, "import-*")
	if err != nil {
		return nil, fmt.Errorf("fieldservice: workdir: %w", err)
	}
	if err := export.Unzip(data, workdir); err != nil {
		_ = os.RemoveAll(workdir)
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	root := catalog.ResolveImportRoot(workdir, mode)
	sess, err := s.sessions.Open(mode, root, workdir)
	if err != nil {
		_ = os.RemoveAll(workdir)
		return nil, err
	}
	return sess, nil
}

// OpenRoot opens a session over an externally managed directory, e.g. the
// import root named in the configuration. The directory is never deleted.
func (s *Service) OpenRoot(_ context.Context, mode models.ImportMode, root string) (*session.Session, error) {
	return s.sessions.Open(mode, catalog.ResolveImportRoot(root, mode), "")
}

// CloseSession drops a session, its workdir, its cached decodes and its
// ledger entries.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return err
	}
	s.sessions.Drop(sessionID)
	s.cache.purgeSession(sessionID)
	_, err := s.store.DiscardAll(sessionID)
	return err
}

// InvalidateDecodes drops every cached decode result. The source watcher
// calls this when files under a session root change on disk.
func (s *Service) InvalidateDecodes() {
	s.cache.purgeAll()
}

// Farms lists the farm folders of a session's import root.
func (s *Service) Farms(_ context.Context, sessionID string) ([]string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	farms, err := catalog.Farms(sess.Root)
	if err != nil {
		return nil, err
	}
	if farms == nil {
		farms = []string{}
	}
	return farms, nil
}

// Fields lists the fields of one farm.
func (s *Service) Fields(_ context.Context, sessionID, farm string) ([]string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	fields, err := catalog.Fields(sess.Root, sess.Mode, farm)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	if fields == nil {
		fields = []string{}
	}
	return fields, nil
}

// Field returns one field with the edit ledger applied.
func (s *Service) Field(_ context.Context, sessionID, farm, field string) (*FieldDetail, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(sess, models.FieldKey{Mode: sess.Mode, Farm: farm, Field: field})
}

// Validate reports the structural health of the session's import root.
func (s *Service) Validate(_ context.Context, sessionID string) (*models.ValidationReport, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return catalog.ValidateStructure(sess.Root, sess.Mode), nil
}

// buildDetail decodes the field's sources (memoized), loads the session's
// ledger entry and reconciles the two into the client view.
func (s *Service) buildDetail(sess *session.Session, key models.FieldKey) (*FieldDetail, error) {
	dec, err := s.loadDecoded(sess, key)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.Get(sess.ID, key)
	if err != nil {
		return nil, err
	}

	tracks := ledger.Reconcile(entry, dec.field.Tracks)
	views := make([]TrackView, len(tracks))
	for i, tr := range tracks {
		views[i] = TrackView{ID: tr.ID, Name: tr.Name, Order: i + 1, Points: tr.Points}
	}
	return &FieldDetail{
		Farm:    key.Farm,
		Field:   key.Field,
		Polygon: dec.field.Polygon,
		Tracks:  views,
		Dirty:   entry != nil && entry.Dirty,
		Notes:   dec.notes,
	}, nil
}
