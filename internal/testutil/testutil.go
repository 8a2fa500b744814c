// Package testutil provides shared test helpers for fabricating import
// roots and ledger databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hallgard/furrow/internal/ledger"
)

// TestLedger creates a temporary SQLite ledger store that is
// automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	f, err := os.CreateTemp("", "furrow-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := ledger.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// LegacyRootBuilder assembles a legacy (Cerea text) import root under a
// temp directory.
type LegacyRootBuilder struct {
	t    *testing.T
	Root string
}

// NewLegacyRoot creates a legacy import root with the given origin
// descriptor content.
func NewLegacyRoot(t *testing.T, originLine string) *LegacyRootBuilder {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "universe.txt"), originLine+"\n")
	return &LegacyRootBuilder{t: t, Root: root}
}

// AddField creates a farm/field directory with optional contour and
// patterns records. Empty content skips the file.
func (b *LegacyRootBuilder) AddField(farm, field, contourJSON, patternsCSV string) *LegacyRootBuilder {
	b.t.Helper()
	dir := filepath.Join(b.Root, farm, field)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatal(err)
	}
	if contourJSON != "" {
		writeFile(b.t, filepath.Join(dir, "contour.txt"), contourJSON)
	}
	if patternsCSV != "" {
		writeFile(b.t, filepath.Join(dir, "patterns.txt"), patternsCSV)
	}
	return b
}

// NewRoundTripFarm creates a round-trip farm directory with empty
// contours/ and patterns/ collections and returns (root, farmPath).
func NewRoundTripFarm(t *testing.T, farm string) (string, string) {
	t.Helper()
	root := t.TempDir()
	farmPath := filepath.Join(root, farm)
	for _, sub := range []string{"contours", "patterns"} {
		if err := os.MkdirAll(filepath.Join(farmPath, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root, farmPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
