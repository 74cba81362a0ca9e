package handlers

import (
	"log/slog"
	"net/http"

	"github.com/oggyb/mawaddah/internal/service/search"
)

type SearchHandler struct {
	service *search.Service
	log     *slog.Logger
}

func NewSearchHandler(service *search.Service, log *slog.Logger) *SearchHandler {
	return &SearchHandler{service: service, log: log}
}

// Search handles GET /search. Criteria come from the query
// string; "all" and empty values are ignored.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	c, err := search.ParseCriteria(r.URL.Query().Get)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp, err := h.service.Search(r.Context(), userID, c)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, search.Envelope(c, resp))
}
