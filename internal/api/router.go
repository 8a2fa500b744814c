package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, provides the SSE endpoint and receives export
// notifications.
func NewRouter(svc *fieldservice.Service, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Import sessions.
	r.Post("/imports", h.Import)
	r.Delete("/sessions/{session}", h.CloseSession)
	r.Get("/sessions/{session}/validation", h.Validate)

	// Catalog browsing.
	r.Get("/sessions/{session}/farms", h.Farms)
	r.Get("/sessions/{session}/farms/{farm}/fields", h.Fields)
	r.Get("/sessions/{session}/farms/{farm}/fields/{field}", h.Field)

	// Track edits.
	r.Put("/sessions/{session}/farms/{farm}/fields/{field}/order", h.Reorder)
	r.Put("/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id}", h.Rename)
	r.Delete("/sessions/{session}/farms/{farm}/fields/{field}/tracks/{id}", h.DeleteTrack)
	r.Post("/sessions/{session}/farms/{farm}/fields/{field}/reset", h.ResetField)
	r.Post("/sessions/{session}/reset", h.ResetAll)

	// Export.
	r.Post("/sessions/{session}/export", h.Export)
	r.Get("/sessions/{session}/archive", h.Archive)

	// SSE endpoint (protected by same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
