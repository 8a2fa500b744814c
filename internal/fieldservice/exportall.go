package fieldservice

import (
	"context"
	"fmt"
	"os"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/catalog"
	"github.com/hallgard/furrow/internal/checksum"
	"github.com/hallgard/furrow/internal/export"
	"github.com/hallgard/furrow/internal/ledger"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
)

// ExportAll writes every field of the session into a fresh round-trip
// shapefile tree, zips the tree and stores the archive on the session for
// download. Per-field problems become report notes, not batch failures.
// Entries of successfully exported fields are marked clean.
func (s *Service) ExportAll(_ context.Context, sessionID string) (*export.Report, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp(s.workspace, "export-*")
	if err != nil {
		return nil, fmt.Errorf("fieldservice: staging dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	report, err := s.exportTree(sess, outDir)
	if err != nil {
		return nil, err
	}

	archive, err := export.ZipTree(outDir)
	if err != nil {
		return nil, err
	}
	sess.SetArchive(archive)
	report.Checksum = checksum.Sum(archive)
	return report, nil
}

// exportTree walks every farm and field of the session root and writes the
// usable ones under outDir.
func (s *Service) exportTree(sess *session.Session, outDir string) (*export.Report, error) {
	farms, err := catalog.Farms(sess.Root)
	if err != nil {
		return nil, err
	}
	if len(farms) == 0 {
		return nil, apperr.ErrNoFarms
	}

	report := &export.Report{Notes: []models.FieldNote{}}
	for _, farm := range farms {
		fields, err := catalog.Fields(sess.Root, sess.Mode, farm)
		if err != nil {
			continue
		}
		for _, field := range fields {
			s.exportField(sess, models.FieldKey{Mode: sess.Mode, Farm: farm, Field: field}, outDir, report)
		}
	}
	return report, nil
}

func (s *Service) exportField(sess *session.Session, key models.FieldKey, outDir string, report *export.Report) {
	dec, err := s.loadDecoded(sess, key)
	if err != nil {
		report.Skipped++
		report.AddNote(key.Farm, key.Field, "decode-failed", err.Error())
		return
	}
	report.Notes = append(report.Notes, dec.notes...)

	entry, err := s.store.Get(sess.ID, key)
	if err != nil {
		report.Skipped++
		report.AddNote(key.Farm, key.Field, "decode-failed", err.Error())
		return
	}
	tracks := ledger.Reconcile(entry, dec.field.Tracks)

	if dec.field.Polygon == nil && len(tracks) == 0 {
		report.Skipped++
		report.AddNote(key.Farm, key.Field, "skipped-empty", "nothing to export")
		return
	}

	contourErr, patternsErr := export.WriteField(dec.field.Polygon, tracks, outDir, key.Farm, key.Field)
	if contourErr != nil {
		report.AddNote(key.Farm, key.Field, "export-failed", contourErr.Error())
	}
	if patternsErr != nil {
		report.AddNote(key.Farm, key.Field, "export-failed", patternsErr.Error())
	}

	// The field counts as exported when at least one part was produced.
	wroteContour := dec.field.Polygon != nil && contourErr == nil
	wrotePatterns := len(tracks) > 0 && patternsErr == nil
	if !wroteContour && !wrotePatterns {
		report.Skipped++
		return
	}
	report.Exported++

	// Edits materialize in the patterns file; a failed patterns write
	// leaves the entry dirty for the next attempt.
	if entry != nil && entry.Dirty && patternsErr == nil {
		entry.Dirty = false
		if err := s.store.Put(sess.ID, key, entry); err != nil {
			report.AddNote(key.Farm, key.Field, "export-failed", fmt.Sprintf("clearing dirty flag: %v", err))
		}
	}
}

// Archive returns the archive produced by the session's most recent
// export.
func (s *Service) Archive(_ context.Context, sessionID string) ([]byte, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	data := sess.Archive()
	if data == nil {
		return nil, apperr.ErrNotFound
	}
	return data, nil
}
