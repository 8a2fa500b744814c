package api

import (
	"io"
	"net/http"

	"github.com/hallgard/furrow/internal/models"
)

// Uploaded archives are capped well above any realistic guidance export.
const maxImportBytes = 200 << 20 // 200 MB

// Import handles POST /api/imports (multipart/form-data, fields "archive"
// and "mode").
//
//	@Summary		Upload a zipped import root and open a session over it
//	@Tags			sessions
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			archive	formData	file	true	"Zipped import root"
//	@Param			mode	formData	string	true	"Import mode"	Enums(cerea-txt, shapefile)
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/imports [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("archive too large or invalid multipart"))
		return
	}

	mode := models.ImportMode(r.FormValue("mode"))
	if !mode.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be cerea-txt or shapefile"))
		return
	}

	file, _, err := r.FormFile("archive")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'archive' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read archive"))
		return
	}

	sess, err := h.svc.ImportArchive(r.Context(), mode, data)
	if err != nil {
		writeServiceErr(w, "import archive", err)
		return
	}

	farms, err := h.svc.Farms(r.Context(), sess.ID)
	if err != nil {
		writeServiceErr(w, "import archive", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session": sess.ID,
		"mode":    string(sess.Mode),
		"farms":   farms,
	})
}
