package shapefile

import (
	"fmt"
	"os"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/models"
)

// WritePolygon writes a field boundary as a single polygon feature,
// reprojected from EPSG:25832 to WGS84. Degenerate polygons (fewer than
// 3 vertices) are rejected here, not at decode time.
func WritePolygon(polygon []models.Point, path string) error {
	if len(polygon) < 3 {
		return fmt.Errorf("shapefile: polygon has %d vertices, need at least 3", len(polygon))
	}

	ring := make([]shp.Point, 0, len(polygon)+1)
	for _, p := range polygon {
		lon, lat := toWGS84(p)
		ring = append(ring, shp.Point{X: lon, Y: lat})
	}
	// Shapefile polygon rings are explicitly closed.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("shapefile: create %s: %w", path, err)
	}

	w.Write((*shp.Polygon)(shp.NewPolyLine([][]shp.Point{ring})))

	return finishWrite(w, path)
}

// WriteTracks writes tracks as polyline features with explicit "id" and
// "name" attributes, reprojected from EPSG:25832 to WGS84. Feature row
// order matches the given track order exactly; downstream consumers rely
// on row order as the operational order, not on any attribute.
func WriteTracks(tracks []models.Track, path string) error {
	if len(tracks) == 0 {
		return fmt.Errorf("shapefile: no tracks to write")
	}

	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return fmt.Errorf("shapefile: create %s: %w", path, err)
	}

	fields := []shp.Field{
		shp.NumberField("id", 10),
		shp.StringField("name", 64),
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return fmt.Errorf("shapefile: set fields: %w", err)
	}

	for row, tr := range tracks {
		pts := make([]shp.Point, 0, len(tr.Points))
		for _, p := range tr.Points {
			lon, lat := toWGS84(p)
			pts = append(pts, shp.Point{X: lon, Y: lat})
		}
		w.Write(shp.NewPolyLine([][]shp.Point{pts}))
		if err := w.WriteAttribute(row, 0, tr.ID); err != nil {
			w.Close()
			return fmt.Errorf("shapefile: write id attribute: %w", err)
		}
		if err := w.WriteAttribute(row, 1, tr.Name); err != nil {
			w.Close()
			return fmt.Errorf("shapefile: write name attribute: %w", err)
		}
	}

	return finishWrite(w, path)
}

// finishWrite closes the writer, which is when go-shp materializes the
// .shx index and the attribute table, then moves the table to its
// conventional name. go-shp derives the table name by trimming ".shp"
// and appending "dbf" without the dot, so it lands next to the data
// file as e.g. "fielddbf" and must be renamed to the ".dbf" path that
// readers, including go-shp's own, look for.
func finishWrite(w *shp.Writer, path string) error {
	w.Close()
	misnamed := strings.TrimSuffix(path, ".shp") + "dbf"
	if _, err := os.Stat(misnamed); err == nil {
		if err := os.Rename(misnamed, sidecarPath(path, ".dbf")); err != nil {
			return fmt.Errorf("shapefile: move attribute table: %w", err)
		}
	}
	return writePRJ(path)
}

func writePRJ(shpPath string) error {
	if err := os.WriteFile(sidecarPath(shpPath, ".prj"), []byte(wgs84WKT), 0o644); err != nil {
		return fmt.Errorf("shapefile: write prj: %w", err)
	}
	return nil
}

// ReadPolygon reads a previously exported contour shapefile back into
// EPSG:25832. When several polygon features exist they are merged by
// keeping the outer ring enclosing the largest area; crsAssumed is true
// when no CRS metadata was stored and WGS84 was assumed.
func ReadPolygon(path string) (polygon []models.Point, crsAssumed bool, err error) {
	if missing := MissingSidecars(path); len(missing) > 0 {
		return nil, false, fmt.Errorf("%w: %s missing %s", apperr.ErrUnusableSource, path, strings.Join(missing, ", "))
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("shapefile: open %s: %w", path, err)
	}
	defer r.Close()

	projected, assumed := storedCRS(path)

	var best []models.Point
	var bestArea float64
	for r.Next() {
		_, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		for _, ring := range splitParts((*shp.PolyLine)(poly)) {
			pts := reprojectRing(ring, projected)
			if area := ringArea(pts); area > bestArea {
				bestArea = area
				best = pts
			}
		}
	}
	return best, assumed, nil
}

// ReadTracks reads a previously exported patterns shapefile back into
// EPSG:25832. Ids are reassigned by row order (decode-pass-local, like
// the text decoder); blank or missing name attributes fall back to
// "Track N".
func ReadTracks(path string) (tracks []models.Track, crsAssumed bool, err error) {
	if missing := MissingSidecars(path); len(missing) > 0 {
		return nil, false, fmt.Errorf("%w: %s missing %s", apperr.ErrUnusableSource, path, strings.Join(missing, ", "))
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("shapefile: open %s: %w", path, err)
	}
	defer r.Close()

	projected, assumed := storedCRS(path)
	nameCol := fieldIndex(r.Fields(), "name")

	for r.Next() {
		row, shape := r.Shape()
		line, ok := shape.(*shp.PolyLine)
		if !ok {
			continue
		}
		var pts []models.Point
		for _, part := range splitParts(line) {
			pts = append(pts, reprojectRing(part, projected)...)
		}
		if len(pts) < 2 {
			continue
		}

		id := len(tracks)
		name := fmt.Sprintf("Track %d", id+1)
		if nameCol >= 0 {
			// dbf string columns come back zero-padded to their
			// declared width; NUL is not cut by TrimSpace.
			if n := strings.Trim(r.ReadAttribute(row, nameCol), "\x00 \t"); n != "" {
				name = n
			}
		}
		tracks = append(tracks, models.Track{ID: id, Name: name, Points: pts})
	}
	return tracks, assumed, nil
}

// fieldIndex finds a DBF column by name, case-insensitively. Returns -1
// when absent.
func fieldIndex(fields []shp.Field, name string) int {
	for i, f := range fields {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// splitParts slices a polyline's flat point array into its parts.
func splitParts(line *shp.PolyLine) [][]shp.Point {
	if len(line.Parts) == 0 {
		return [][]shp.Point{line.Points}
	}
	var parts [][]shp.Point
	for i, start := range line.Parts {
		end := int32(len(line.Points))
		if i+1 < len(line.Parts) {
			end = line.Parts[i+1]
		}
		parts = append(parts, line.Points[start:end])
	}
	return parts
}

// reprojectRing converts shapefile points to EPSG:25832, dropping the
// closing duplicate vertex of polygon rings.
func reprojectRing(ring []shp.Point, projected bool) []models.Point {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	pts := make([]models.Point, 0, len(ring))
	for _, p := range ring {
		if projected {
			pts = append(pts, models.Point{X: p.X, Y: p.Y})
		} else {
			pts = append(pts, fromWGS84(p.X, p.Y))
		}
	}
	return pts
}

// ringArea returns the absolute shoelace area of a ring.
func ringArea(ring []models.Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
