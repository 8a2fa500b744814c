// Package export writes reconciled field geometry into the round-trip
// shapefile tree and bundles output trees into downloadable archives.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/shapefile"
)

// Report aggregates the outcome of a bulk export: per-field notes instead
// of a failed batch. Checksum identifies the produced archive so clients
// can verify the later download.
type Report struct {
	Exported int                `json:"exported"`
	Skipped  int                `json:"skipped"`
	Notes    []models.FieldNote `json:"notes"`
	Checksum string             `json:"checksum,omitempty"`
}

// AddNote appends a structured per-field note.
func (r *Report) AddNote(farm, field, kind, message string) {
	r.Notes = append(r.Notes, models.FieldNote{Farm: farm, Field: field, Kind: kind, Message: message})
}

// Render formats the report as the human-readable summary shown after a
// bulk export.
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d field(s), skipped %d.\n", r.Exported, r.Skipped)
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "- %s/%s: %s (%s)\n", n.Farm, n.Field, n.Message, n.Kind)
	}
	return b.String()
}

// WriteField writes one field's reconciled geometry into the round-trip
// tree under outputRoot:
//
//	farm/contours/{field}_contour.shp
//	farm/patterns/{field}_patterns.shp
//
// A nil polygon or empty track list simply omits the corresponding file.
// The two parts are written independently; a contour failure does not
// block the patterns file or vice versa. Each return value reports its
// own part, so the caller can note the failed half and keep whatever
// was produced.
func WriteField(polygon []models.Point, tracks []models.Track, outputRoot, farm, field string) (contourErr, patternsErr error) {
	farmDir := filepath.Join(outputRoot, farm)
	contoursDir := filepath.Join(farmDir, "contours")
	patternsDir := filepath.Join(farmDir, "patterns")
	for _, dir := range []string{contoursDir, patternsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			err = fmt.Errorf("export: mkdir %s: %w", dir, err)
			return err, err
		}
	}

	if polygon != nil {
		path := filepath.Join(contoursDir, field+"_contour.shp")
		if err := shapefile.WritePolygon(polygon, path); err != nil {
			contourErr = fmt.Errorf("export: contour %s/%s: %w", farm, field, err)
		}
	}
	if len(tracks) > 0 {
		path := filepath.Join(patternsDir, field+"_patterns.shp")
		if err := shapefile.WriteTracks(tracks, path); err != nil {
			patternsErr = fmt.Errorf("export: patterns %s/%s: %w", farm, field, err)
		}
	}
	return contourErr, patternsErr
}
