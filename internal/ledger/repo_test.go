package ledger

import (
	"os"
	"testing"

	"github.com/hallgard/furrow/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "furrow-ledger-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testKey = models.FieldKey{Mode: models.ModeCereaTxt, Farm: "Hof", Field: "Nordacker"}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	e, err := db.Get("s1", testKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e != nil {
		t.Errorf("expected nil entry, got %+v", e)
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	db := testDB(t)

	e := &Entry{}
	e.SetOrder([]int{2, 0, 1})
	e.SetName(0, "Vorgewende")
	e.Delete(1)

	if err := db.Put("s1", testKey, e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get("s1", testKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("entry missing after Put")
	}
	// Delete(1) purged id 1 from the stored order.
	if len(got.Order) != 2 || got.Order[0] != 2 || got.Order[1] != 0 {
		t.Errorf("order = %v, want [2 0]", got.Order)
	}
	if got.Renamed[0] != "Vorgewende" {
		t.Errorf("renamed = %v", got.Renamed)
	}
	if _, ok := got.Deleted[1]; !ok {
		t.Errorf("deleted = %v, want id 1", got.Deleted)
	}
	if !got.Dirty {
		t.Error("dirty flag lost in round trip")
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	db := testDB(t)

	e := &Entry{}
	e.SetName(0, "A")
	if err := db.Put("s1", testKey, e); err != nil {
		t.Fatal(err)
	}

	other, err := db.Get("s2", testKey)
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Errorf("session s2 sees s1's entry: %+v", other)
	}
}

func TestStore_DiscardAndDiscardAll(t *testing.T) {
	db := testDB(t)

	key2 := models.FieldKey{Mode: models.ModeCereaTxt, Farm: "Hof", Field: "Suedacker"}
	e := &Entry{}
	e.SetName(0, "A")
	_ = db.Put("s1", testKey, e)
	_ = db.Put("s1", key2, e)

	if err := db.Discard("s1", testKey); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if got, _ := db.Get("s1", testKey); got != nil {
		t.Error("entry survived Discard")
	}

	n, err := db.DiscardAll("s1")
	if err != nil {
		t.Fatalf("DiscardAll: %v", err)
	}
	if n != 1 {
		t.Errorf("DiscardAll removed %d, want 1", n)
	}
}

func TestStore_DirtyKeys(t *testing.T) {
	db := testDB(t)

	dirty := &Entry{}
	dirty.SetName(0, "A")
	clean := &Entry{Dirty: false}
	clean.Renamed = map[int]string{0: "kept"} // exported edit: delta present, not dirty

	key2 := models.FieldKey{Mode: models.ModeShapefile, Farm: "Hof", Field: "West"}
	_ = db.Put("s1", testKey, dirty)
	_ = db.Put("s1", key2, clean)

	keys, err := db.DirtyKeys("s1")
	if err != nil {
		t.Fatalf("DirtyKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != testKey {
		t.Errorf("dirty keys = %v, want [%v]", keys, testKey)
	}
}
