package twin

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the /admin control plane.
type AdminHandler struct {
	store *Store
	mw    *Middleware
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(s *Store, mw *Middleware) *AdminHandler {
	return &AdminHandler{store: s, mw: mw}
}

// Routes mounts the admin endpoints. Fault paths may span several segments,
// e.g. POST /admin/fault/products/2.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/reset", h.handleReset)
		r.Get("/state", h.handleGetState)
		r.Post("/state", h.handleLoadState)
		r.Get("/requests", h.handleGetRequests)
		r.Get("/faults", h.handleListFaults)
		r.Post("/fault/*", h.handleInjectFault)
		r.Delete("/fault/*", h.handleRemoveFault)
	})
}

func (h *AdminHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.store.Reset()
	h.mw.ReqLog.Clear()
	h.mw.Faults.Reset()
	JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *AdminHandler) handleGetState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *AdminHandler) handleLoadState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if err := h.store.LoadState(body); err != nil {
		Error(w, http.StatusBadRequest, "failed to load state: "+err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{"status": "loaded", "products": h.store.Count()})
}

func (h *AdminHandler) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.mw.ReqLog.Entries())
}

func (h *AdminHandler) handleListFaults(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.mw.Faults.All())
}

func (h *AdminHandler) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(chi.URLParam(r, "*"))

	var fault Fault
	if err := json.NewDecoder(r.Body).Decode(&fault); err != nil {
		Error(w, http.StatusBadRequest, "invalid fault config: "+err.Error())
		return
	}
	h.mw.Faults.Set(path, fault)
	JSON(w, http.StatusOK, map[string]any{
		"status":   "injected",
		"endpoint": path,
		"fault":    fault,
	})
}

func (h *AdminHandler) handleRemoveFault(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(chi.URLParam(r, "*"))
	if h.mw.Faults.Remove(path) {
		JSON(w, http.StatusOK, map[string]any{"status": "removed", "endpoint": path})
		return
	}
	Error(w, http.StatusNotFound, "no fault registered for "+path)
}
