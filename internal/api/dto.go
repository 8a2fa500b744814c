package api

import (
	"github.com/hallgard/furrow/internal/export"
	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/models"
)

// ReorderRequest is the request body for replacing a field's track order.
type ReorderRequest struct {
	Order []int `json:"order" example:"2,0,1" validate:"required"`
}

// RenameRequest is the request body for renaming a track.
type RenameRequest struct {
	Name string `json:"name" example:"Headland West" validate:"required"`
}

// SessionResponse is returned after a successful import.
type SessionResponse struct {
	Session string   `json:"session" validate:"required"`
	Mode    string   `json:"mode" example:"cerea-txt" validate:"required"`
	Farms   []string `json:"farms" validate:"required"`
}

// FarmListResponse wraps the farm listing of a session.
type FarmListResponse struct {
	Farms []string `json:"farms" validate:"required"`
}

// FieldListResponse wraps the field listing of a farm.
type FieldListResponse struct {
	Fields []string `json:"fields" validate:"required"`
}

// ResetAllResponse reports how many fields had edits discarded.
type ResetAllResponse struct {
	Reset int `json:"reset" example:"3" validate:"required"`
}

// FieldDetail is the full field response type (aliased from the domain layer).
type FieldDetail = fieldservice.FieldDetail

// ExportReport is the bulk export outcome (aliased from the domain layer).
type ExportReport = export.Report

// ValidationReport describes the structural health of an import root
// (aliased from the domain layer).
type ValidationReport = models.ValidationReport
