// Package models defines the domain types for Furrow.
package models

import "fmt"

// ImportMode selects which on-disk layout an import root uses.
type ImportMode string

const (
	// ModeCereaTxt is the legacy layout: farm/field directories with
	// universe.txt, contour.txt and patterns.txt records.
	ModeCereaTxt ImportMode = "cerea-txt"
	// ModeShapefile is the round-trip layout: farm directories with
	// contours/ and patterns/ collections of previously exported shapefiles.
	ModeShapefile ImportMode = "shapefile"
)

// Valid reports whether m is a known import mode.
func (m ImportMode) Valid() bool {
	return m == ModeCereaTxt || m == ModeShapefile
}

// Point is a 2D coordinate in a projected CRS (EPSG:25832 internally).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Origin is the absolute reference coordinate all per-field offsets are
// measured from. Read once per import root; never mutated afterwards.
type Origin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Track is a named guidance polyline within a field.
//
// ID is assigned at decode time by first-appearance order in the source
// record. It is stable only within one decode pass and is NOT a persistent
// identity across re-imports.
type Track struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Field is the decoded geometry of one field: an optional boundary polygon
// and an ordered list of tracks. A nil Polygon is a valid state (no contour
// source), not an error.
type Field struct {
	Polygon []Point `json:"polygon,omitempty"`
	Tracks  []Track `json:"tracks"`
}

// FieldKey identifies a field within one import session.
type FieldKey struct {
	Mode  ImportMode `json:"mode"`
	Farm  string     `json:"farm"`
	Field string     `json:"field"`
}

// String renders the key in the canonical mode::farm::field form.
func (k FieldKey) String() string {
	return fmt.Sprintf("%s::%s::%s", k.Mode, k.Farm, k.Field)
}

// FieldNote is a structured per-field condition recorded during decoding
// or export. Notes replace silent catch-and-continue: every swallowed
// condition surfaces as one of these.
type FieldNote struct {
	Farm    string `json:"farm"`
	Field   string `json:"field"`
	Kind    string `json:"kind"` // e.g. "missing-source", "unusable-source", "decode-failed", "skipped-empty", "crs-assumed"
	Message string `json:"message"`
}

// ValidationReport summarizes the structure of an import root before any
// geometry work happens. Issues are fatal for the whole root; warnings are
// per-field partial conditions.
type ValidationReport struct {
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Farms    int      `json:"farms"`
	Fields   int      `json:"fields"`
}

// OK reports whether the root is usable at all.
func (r *ValidationReport) OK() bool {
	return len(r.Issues) == 0
}
