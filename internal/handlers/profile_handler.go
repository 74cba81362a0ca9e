package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/mawaddah/internal/service/profiles"
)

type ProfileHandler struct {
	service *profiles.Service
	log     *slog.Logger
}

func NewProfileHandler(service *profiles.Service, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, log: log}
}

// Me handles GET /profiles/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Get handles GET /profiles/{id}. The id may be a profile id or a user id.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeBadRequest(w, "id must be a positive number")
		return
	}

	view, err := h.service.Lookup(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Create handles POST /profiles. An existing profile is returned with 200.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var in profiles.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	view, created, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, view)
}

// Update handles PATCH /profiles/me.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var in profiles.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	view, err := h.service.Update(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
