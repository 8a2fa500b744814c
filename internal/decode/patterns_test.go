package decode

import (
	"strings"
	"testing"

	"github.com/hallgard/furrow/internal/models"
)

func decodeTracks(t *testing.T, content string) []models.Track {
	t.Helper()
	tracks, err := parsePatterns(strings.NewReader(content), testOrigin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tracks
}

func TestParsePatterns_SingleRow(t *testing.T) {
	tracks := decodeTracks(t, "1,AB,Track1,0,0,0,50,0,0\n")
	if len(tracks) != 1 {
		t.Fatalf("len(tracks) = %d, want 1", len(tracks))
	}
	tr := tracks[0]
	if tr.ID != 0 || tr.Name != "Track1" {
		t.Errorf("track = %+v, want id 0, name Track1", tr)
	}
	want := []models.Point{{X: 500000, Y: 5800000}, {X: 500050, Y: 5800000}}
	if len(tr.Points) != 2 || tr.Points[0] != want[0] || tr.Points[1] != want[1] {
		t.Errorf("points = %v, want %v", tr.Points, want)
	}
}

func TestParsePatterns_ContinuationMerge(t *testing.T) {
	// Second row starts where the first ended: the junction point must
	// not be duplicated in the merged polyline.
	content := "1,AB,A,0,0,0,10,0,0\n" +
		"1,AB,A,10,0,0,20,0,0\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 1 {
		t.Fatalf("len(tracks) = %d, want 1", len(tracks))
	}
	want := []models.Point{
		{X: 500000, Y: 5800000},
		{X: 500010, Y: 5800000},
		{X: 500020, Y: 5800000},
	}
	if len(tracks[0].Points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(tracks[0].Points))
	}
	for i := range want {
		if tracks[0].Points[i] != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, tracks[0].Points[i], want[i])
		}
	}
}

func TestParsePatterns_DisjointSameNameMerged(t *testing.T) {
	// Rows sharing a name that do not join are still merged in file
	// order, with all points kept. Documented behavior of the format.
	content := "1,AB,A,0,0,0,10,0,0\n" +
		"2,AB,B,0,5,0,10,5,0\n" +
		"3,AB,A,100,100,0,110,100,0\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(tracks))
	}
	if tracks[0].Name != "A" || tracks[1].Name != "B" {
		t.Errorf("order = [%s %s], want first-appearance [A B]", tracks[0].Name, tracks[1].Name)
	}
	if len(tracks[0].Points) != 4 {
		t.Errorf("merged A has %d points, want 4", len(tracks[0].Points))
	}
}

func TestParsePatterns_ShortRowSkipped(t *testing.T) {
	// 7 columns: contributes nothing, raises nothing.
	content := "1,AB,Broken,0,0,0,10\n" +
		"2,AB,Good,0,0,0,10,0,0\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 1 || tracks[0].Name != "Good" {
		t.Fatalf("tracks = %+v, want only Good", tracks)
	}
}

func TestParsePatterns_NonNumericTripletSkipped(t *testing.T) {
	// A bad triplet inside an otherwise good row is dropped on its own.
	content := "1,AB,A,0,0,0,bad,0,0,20,0,0\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 1 {
		t.Fatalf("len(tracks) = %d, want 1", len(tracks))
	}
	if len(tracks[0].Points) != 2 {
		t.Errorf("len(points) = %d, want 2 (bad triplet dropped)", len(tracks[0].Points))
	}
}

func TestParsePatterns_SinglePointRowSkipped(t *testing.T) {
	// Nine columns but only one decodable point: below the two-point
	// minimum for a polyline, skipped like any other corrupt row.
	content := "1,AB,A,0,0,0,x,y,z\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 0 {
		t.Errorf("tracks = %+v, want none", tracks)
	}
}

func TestParsePatterns_IDsFollowEmissionOrder(t *testing.T) {
	content := "9,AB,C,0,0,0,1,0,0\n" +
		"7,AB,B,0,1,0,1,1,0\n" +
		"5,AB,A,0,2,0,1,2,0\n"
	tracks := decodeTracks(t, content)
	if len(tracks) != 3 {
		t.Fatalf("len(tracks) = %d, want 3", len(tracks))
	}
	// Source ids (9, 7, 5) are irrelevant; ids restart at 0 per decode.
	for i, name := range []string{"C", "B", "A"} {
		if tracks[i].ID != i || tracks[i].Name != name {
			t.Errorf("tracks[%d] = {%d %s}, want {%d %s}", i, tracks[i].ID, tracks[i].Name, i, name)
		}
	}
}

func TestParsePatterns_EmptyInput(t *testing.T) {
	tracks := decodeTracks(t, "")
	if len(tracks) != 0 {
		t.Errorf("tracks = %+v, want none", tracks)
	}
}
