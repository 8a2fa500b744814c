package decode

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/models"
)

// contourRecord is the JSON document stored in contour.txt. The only
// field we care about is the flat offset-coordinate string.
type contourRecord struct {
	ContourTrueStr *string `json:"contourTrueStr"`
}

// ParseContour reconstructs the closed boundary polygon of a field from a
// contour record. The record holds a comma-separated flat list of numbers
// interpreted as repeating (dx, dy, dz) triplets relative to origin; dz is
// decoded but discarded (elevation is not modeled).
//
// Degenerate polygons (fewer than 3 points) are passed through as-is;
// validation is the shapefile bridge's concern at write time.
func ParseContour(path string, origin models.Origin) ([]models.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseContour(path, data, origin)
}

func parseContour(source string, data []byte, origin models.Origin) ([]models.Point, error) {
	var rec contourRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperr.Parsef(source, "not a valid contour record: %v", err)
	}
	if rec.ContourTrueStr == nil {
		return nil, apperr.Parsef(source, "missing contourTrueStr field")
	}

	coords := strings.Split(*rec.ContourTrueStr, ",")
	if len(coords)%3 != 0 {
		return nil, apperr.Parsef(source, "coordinate count %d is not a multiple of 3", len(coords))
	}

	points := make([]models.Point, 0, len(coords)/3)
	for i := 0; i < len(coords); i += 3 {
		dx, err := strconv.ParseFloat(strings.TrimSpace(coords[i]), 64)
		if err != nil {
			return nil, apperr.Parsef(source, "offset %q is not numeric", coords[i])
		}
		dy, err := strconv.ParseFloat(strings.TrimSpace(coords[i+1]), 64)
		if err != nil {
			return nil, apperr.Parsef(source, "offset %q is not numeric", coords[i+1])
		}
		// dz is decoded for validation but not kept.
		if _, err := strconv.ParseFloat(strings.TrimSpace(coords[i+2]), 64); err != nil {
			return nil, apperr.Parsef(source, "offset %q is not numeric", coords[i+2])
		}
		points = append(points, models.Point{X: origin.X + dx, Y: origin.Y + dy})
	}
	return points, nil
}
