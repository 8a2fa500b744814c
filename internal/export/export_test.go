package export

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hallgard/furrow/internal/models"
)

func TestWriteField_TreeLayout(t *testing.T) {
	out := t.TempDir()
	polygon := []models.Point{
		{X: 500000, Y: 5800000}, {X: 500100, Y: 5800000}, {X: 500100, Y: 5800100},
	}
	tracks := []models.Track{
		{ID: 0, Name: "T1", Points: []models.Point{{X: 500000, Y: 5800000}, {X: 500050, Y: 5800000}}},
	}

	if contourErr, patternsErr := WriteField(polygon, tracks, out, "Hof", "Nord"); contourErr != nil || patternsErr != nil {
		t.Fatalf("WriteField: contour %v, patterns %v", contourErr, patternsErr)
	}
	for _, rel := range []string{
		"Hof/contours/Nord_contour.shp",
		"Hof/contours/Nord_contour.dbf",
		"Hof/patterns/Nord_patterns.shp",
		"Hof/patterns/Nord_patterns.prj",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s", rel)
		}
	}
}

func TestWriteField_PolygonOnly(t *testing.T) {
	out := t.TempDir()
	polygon := []models.Point{
		{X: 500000, Y: 5800000}, {X: 500100, Y: 5800000}, {X: 500100, Y: 5800100},
	}
	if contourErr, patternsErr := WriteField(polygon, nil, out, "Hof", "Nord"); contourErr != nil || patternsErr != nil {
		t.Fatalf("WriteField: contour %v, patterns %v", contourErr, patternsErr)
	}
	if _, err := os.Stat(filepath.Join(out, "Hof", "patterns", "Nord_patterns.shp")); err == nil {
		t.Error("patterns file written for a field without tracks")
	}
}

func TestWriteField_PartsWrittenIndependently(t *testing.T) {
	out := t.TempDir()
	// Two vertices decode fine but cannot form a polygon; the rejection
	// happens at write time and must not take the tracks down with it.
	degenerate := []models.Point{
		{X: 500000, Y: 5800000}, {X: 500100, Y: 5800000},
	}
	tracks := []models.Track{
		{ID: 0, Name: "T1", Points: []models.Point{{X: 500000, Y: 5800000}, {X: 500050, Y: 5800000}}},
	}

	contourErr, patternsErr := WriteField(degenerate, tracks, out, "Hof", "Nord")
	if contourErr == nil {
		t.Error("expected contour error for 2-vertex polygon")
	}
	if patternsErr != nil {
		t.Fatalf("patterns: %v", patternsErr)
	}
	if _, err := os.Stat(filepath.Join(out, "Hof", "patterns", "Nord_patterns.shp")); err != nil {
		t.Error("patterns file missing after contour failure")
	}
	if _, err := os.Stat(filepath.Join(out, "Hof", "contours", "Nord_contour.shp")); err == nil {
		t.Error("contour file present despite write failure")
	}
}

func TestZipTreeAndUnzip_RoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "Hof", "contours"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("shapefile bytes")
	if err := os.WriteFile(filepath.Join(src, "Hof", "contours", "a.shp"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ZipTree(src)
	if err != nil {
		t.Fatalf("ZipTree: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "Hof/contours/a.shp" {
		t.Errorf("archive entries: %v", zr.File)
	}

	dest := t.TempDir()
	if err := Unzip(data, dest); err != nil {
		t.Fatalf("Unzip: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "Hof", "contours", "a.shp"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("extracted content differs")
	}
}

func TestUnzip_RejectsEscapingEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("../outside.txt")
	_, _ = w.Write([]byte("nope"))
	zw.Close()

	if err := Unzip(buf.Bytes(), t.TempDir()); err == nil {
		t.Error("expected error for escaping entry")
	}
}

func TestReport_Render(t *testing.T) {
	r := &Report{Exported: 2, Skipped: 1}
	r.AddNote("Hof", "Leer", "skipped-empty", "no polygon and no tracks")

	text := r.Render()
	if !strings.Contains(text, "Exported 2 field(s), skipped 1.") {
		t.Errorf("summary line missing: %q", text)
	}
	if !strings.Contains(text, "Hof/Leer") {
		t.Errorf("note line missing: %q", text)
	}
}
