package fieldservice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/catalog"
	"github.com/hallgard/furrow/internal/decode"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
	"github.com/hallgard/furrow/internal/shapefile"
)

// loadDecoded decodes a field's sources, memoized on the source checksums.
// Per-source failures never fail the field; they surface as notes and the
// affected part stays empty.
func (s *Service) loadDecoded(sess *session.Session, key models.FieldKey) (decoded, error) {
	contourPath, patternsPath := catalog.FieldSources(sess.Root, key)
	ck := cacheKey(sess.ID, key, contourPath, patternsPath)
	if d, ok := s.cache.get(ck); ok {
		return d, nil
	}

	var d decoded
	if sess.Mode == models.ModeCereaTxt {
		d = loadLegacy(sess, key, contourPath, patternsPath)
	} else {
		d = loadShapefiles(key, contourPath, patternsPath)
	}
	s.cache.put(ck, d)
	return d, nil
}

func loadLegacy(sess *session.Session, key models.FieldKey, contourPath, patternsPath string) decoded {
	var d decoded
	if _, err := os.Stat(contourPath); err != nil {
		d.note(key, "missing-source", fmt.Sprintf("no %s", catalog.ContourRecord))
	} else if polygon, err := decode.ParseContour(contourPath, sess.Origin); err != nil {
		d.note(key, "decode-failed", err.Error())
	} else {
		d.field.Polygon = polygon
	}

	if _, err := os.Stat(patternsPath); err != nil {
		d.note(key, "missing-source", fmt.Sprintf("no %s", catalog.PatternsRecord))
	} else if tracks, err := decode.ParsePatterns(patternsPath, sess.Origin); err != nil {
		d.note(key, "decode-failed", err.Error())
	} else {
		d.field.Tracks = tracks
	}
	return d
}

func loadShapefiles(key models.FieldKey, contourPath, patternsPath string) decoded {
	var d decoded
	if _, err := os.Stat(contourPath); err != nil {
		d.note(key, "missing-source", fmt.Sprintf("no %s", filepath.Base(contourPath)))
	} else if polygon, assumed, err := shapefile.ReadPolygon(contourPath); err != nil {
		d.note(key, classifyShapefileErr(err), err.Error())
	} else {
		d.field.Polygon = polygon
		if assumed {
			d.note(key, "crs-assumed", fmt.Sprintf("%s has no CRS metadata, assuming WGS84", filepath.Base(contourPath)))
		}
	}

	if _, err := os.Stat(patternsPath); err != nil {
		d.note(key, "missing-source", fmt.Sprintf("no %s", filepath.Base(patternsPath)))
	} else if tracks, assumed, err := shapefile.ReadTracks(patternsPath); err != nil {
		d.note(key, classifyShapefileErr(err), err.Error())
	} else {
		d.field.Tracks = tracks
		if assumed {
			d.note(key, "crs-assumed", fmt.Sprintf("%s has no CRS metadata, assuming WGS84", filepath.Base(patternsPath)))
		}
	}
	return d
}

func classifyShapefileErr(err error) string {
	if errors.Is(err, apperr.ErrUnusableSource) {
		return "unusable-source"
	}
	return "decode-failed"
}

func (d *decoded) note(key models.FieldKey, kind, message string) {
	d.notes = append(d.notes, models.FieldNote{Farm: key.Farm, Field: key.Field, Kind: kind, Message: message})
}
