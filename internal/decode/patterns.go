package decode

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hallgard/furrow/internal/models"
)

// minPatternFields is the minimum column count of a usable pattern row:
// id, mode, name plus at least two (x, y, z) triplets.
const minPatternFields = 9

// ParsePatterns reconstructs the named guidance tracks of a field from a
// pattern record. Each line is "id,mode,name,x1,y1,z1,...,xn,yn,zn" with
// offsets relative to origin.
//
// Real exports split long tracks across consecutive rows sharing a name;
// rows for the same name are accumulated in file order, dropping the
// duplicate junction point when a row starts exactly where the previous
// one ended. Rows sharing a name that are not genuine continuations are
// still merged in file order; this mirrors the source format and is
// deliberate (the format gives no way to tell the cases apart).
//
// Malformed lines (fewer than 9 columns, or yielding fewer than two
// points) are skipped silently: data-cleaning tolerance, not an error.
func ParsePatterns(path string, origin models.Origin) ([]models.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parsePatterns(f, origin)
}

func parsePatterns(r io.Reader, origin models.Origin) ([]models.Track, error) {
	accumulated := make(map[string][]models.Point)
	var nameOrder []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ",")
		if len(parts) < minPatternFields {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		name := parts[2]
		rowPoints := decodeRowPoints(parts, origin)
		if len(rowPoints) < 2 {
			continue
		}

		prev, seen := accumulated[name]
		if !seen {
			nameOrder = append(nameOrder, name)
			accumulated[name] = rowPoints
			continue
		}

		// Continuation row: drop the duplicate connecting point.
		if prev[len(prev)-1] == rowPoints[0] {
			accumulated[name] = append(prev, rowPoints[1:]...)
		} else {
			accumulated[name] = append(prev, rowPoints...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Emit tracks in first-appearance order; ids follow emission order.
	var tracks []models.Track
	for _, name := range nameOrder {
		points := accumulated[name]
		if len(points) < 2 {
			continue
		}
		tracks = append(tracks, models.Track{
			ID:     len(tracks),
			Name:   name,
			Points: points,
		})
	}
	return tracks, nil
}

// decodeRowPoints decodes the trailing (dx, dy, dz) triplets of a row
// starting at column 3. Triplets with non-numeric offsets are skipped
// individually; the z value is never used. Trailing columns that do not
// form a complete triplet are ignored.
func decodeRowPoints(parts []string, origin models.Origin) []models.Point {
	var points []models.Point
	for i := 3; i+2 < len(parts); i += 3 {
		dx, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			continue
		}
		dy, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			continue
		}
		points = append(points, models.Point{X: origin.X + dx, Y: origin.Y + dy})
	}
	return points
}
