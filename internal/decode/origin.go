// Package decode reconstructs absolute field geometry from Cerea guidance
// exports: the universe origin, contour records, and pattern records.
//
// Decoding is pure: the same source bytes and origin always produce the
// same geometry, so results may be cached and recomputed freely.
package decode

import (
	"os"
	"strconv"
	"strings"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/models"
)

// ReadOrigin reads the field-universe reference point from a descriptor
// file (universe.txt). The last non-blank line must be "<x>,<y>" with both
// tokens numeric. Any failure is fatal for the whole import root.
func ReadOrigin(path string) (models.Origin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Origin{}, err
	}
	return parseOrigin(path, string(data))
}

func parseOrigin(source, content string) (models.Origin, error) {
	var last string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	if last == "" {
		return models.Origin{}, apperr.Parsef(source, "descriptor is empty")
	}

	parts := strings.Split(last, ",")
	if len(parts) != 2 {
		return models.Origin{}, apperr.Parsef(source, "last line %q: want exactly one comma", last)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Origin{}, apperr.Parsef(source, "x coordinate %q is not numeric", parts[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Origin{}, apperr.Parsef(source, "y coordinate %q is not numeric", parts[1])
	}
	return models.Origin{X: x, Y: y}, nil
}
