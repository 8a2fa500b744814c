package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *fieldservice.Service
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *fieldservice.Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

// param extracts a URL parameter, tolerating encoded characters in farm and
// field names (e.g. spaces from OpenAPI clients).
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeServiceErr maps domain errors onto HTTP statuses.
func writeServiceErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoOrigin), errors.Is(err, apperr.ErrNoFarms):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Farms handles GET /api/sessions/{session}/farms.
//
//	@Summary		List the farms of an import session
//	@Tags			catalog
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Success		200		{object}	FarmListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms [get]
func (h *Handler) Farms(w http.ResponseWriter, r *http.Request) {
	farms, err := h.svc.Farms(r.Context(), param(r, "session"))
	if err != nil {
		writeServiceErr(w, "list farms", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"farms": farms})
}

// Fields handles GET /api/sessions/{session}/farms/{farm}/fields.
//
//	@Summary		List the fields of a farm
//	@Tags			catalog
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Param			farm	path		string	true	"Farm name"
//	@Success		200		{object}	FieldListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields [get]
func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.svc.Fields(r.Context(), param(r, "session"), param(r, "farm"))
	if err != nil {
		writeServiceErr(w, "list fields", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

// Field handles GET /api/sessions/{session}/farms/{farm}/fields/{field}.
//
//	@Summary		Get one field with edits applied
//	@Tags			fields
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Param			farm	path		string	true	"Farm name"
//	@Param			field	path		string	true	"Field name"
//	@Success		200		{object}	FieldDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields/{field} [get]
func (h *Handler) Field(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Field(r.Context(), param(r, "session"), param(r, "farm"), param(r, "field"))
	if err != nil {
		writeServiceErr(w, "get field", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Reorder handles PUT /api/sessions/{session}/farms/{farm}/fields/{field}/order.
//
//	@Summary		Replace the display order of a field's tracks
//	@Tags			edits
//	@Accept			json
//	@Produce		json
//	@Param			session	path		string			true	"Session id"
//	@Param			farm	path		string			true	"Farm name"
//	@Param			field	path		string			true	"Field name"
//	@Param			body	body		ReorderRequest	true	"New track-id order"
//	@Success		200		{object}	FieldDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields/{field}/order [put]
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Order == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("order is required"))
		return
	}
	detail, err := h.svc.Reorder(r.Context(), param(r, "session"), param(r, "farm"), param(r, "field"), req.Order)
	if err != nil {
		writeServiceErr(w, "reorder tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Rename handles PUT /api/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id}.
//
//	@Summary		Rename one track
//	@Tags			edits
//	@Accept			json
//	@Produce		json
//	@Param			session	path		string			true	"Session id"
//	@Param			farm	path		string			true	"Farm name"
//	@Param			field	path		string			true	"Field name"
//	@Param			id		path		int				true	"Track id"
//	@Param			body	body		RenameRequest	true	"New name"
//	@Success		200		{object}	FieldDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id} [put]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid track id"))
		return
	}
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	detail, err := h.svc.Rename(r.Context(), param(r, "session"), param(r, "farm"), param(r, "field"), id, req.Name)
	if err != nil {
		writeServiceErr(w, "rename track", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteTrack handles DELETE /api/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id}.
//
//	@Summary		Remove one track from the field's effective view
//	@Tags			edits
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Param			farm	path		string	true	"Farm name"
//	@Param			field	path		string	true	"Field name"
//	@Param			id		path		int		true	"Track id"
//	@Success		200		{object}	FieldDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id} [delete]
func (h *Handler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid track id"))
		return
	}
	detail, err := h.svc.DeleteTrack(r.Context(), param(r, "session"), param(r, "farm"), param(r, "field"), id)
	if err != nil {
		writeServiceErr(w, "delete track", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ResetField handles POST /api/sessions/{session}/farms/{farm}/fields/{field}/reset.
//
//	@Summary		Discard every edit of one field
//	@Tags			edits
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Param			farm	path		string	true	"Farm name"
//	@Param			field	path		string	true	"Field name"
//	@Success		200		{object}	FieldDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/farms/{farm}/fields/{field}/reset [post]
func (h *Handler) ResetField(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Reset(r.Context(), param(r, "session"), param(r, "farm"), param(r, "field"))
	if err != nil {
		writeServiceErr(w, "reset field", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ResetAll handles POST /api/sessions/{session}/reset.
//
//	@Summary		Discard every edit of the session
//	@Tags			edits
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Success		200		{object}	ResetAllResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/reset [post]
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ResetAll(r.Context(), param(r, "session"))
	if err != nil {
		writeServiceErr(w, "reset all", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": n})
}

// Export handles POST /api/sessions/{session}/export.
//
//	@Summary		Export every field into a shapefile archive
//	@Tags			export
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Success		200		{object}	ExportReport
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := param(r, "session")
	report, err := h.svc.ExportAll(r.Context(), sessionID)
	if err != nil {
		writeServiceErr(w, "export", err)
		return
	}
	if h.events != nil {
		h.events.PublishExportCompleted(sessionID, report.Exported, report.Skipped)
	}
	writeJSON(w, http.StatusOK, report)
}

// Archive handles GET /api/sessions/{session}/archive.
//
//	@Summary		Download the archive of the most recent export
//	@Tags			export
//	@Produce		application/zip
//	@Param			session	path	string	true	"Session id"
//	@Success		200		"Zip archive"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/archive [get]
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Archive(r.Context(), param(r, "session"))
	if err != nil {
		writeServiceErr(w, "download archive", err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="furrow-export.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// Validate handles GET /api/sessions/{session}/validation.
//
//	@Summary		Report the structural health of the session's import root
//	@Tags			catalog
//	@Produce		json
//	@Param			session	path		string	true	"Session id"
//	@Success		200		{object}	ValidationReport
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session}/validation [get]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Validate(r.Context(), param(r, "session"))
	if err != nil {
		writeServiceErr(w, "validate", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CloseSession handles DELETE /api/sessions/{session}.
//
//	@Summary		Close a session and delete its extracted upload
//	@Tags			sessions
//	@Param			session	path	string	true	"Session id"
//	@Success		204		"Session closed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{session} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(r.Context(), param(r, "session")); err != nil {
		writeServiceErr(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
