package http

import (
	"net/http"
	"strings"

	"contas/internal/core"
)

func (s *Server) handleListIcons(w http.ResponseWriter, r *http.Request) {
	icons, err := s.icons.ListIcons(r.Context())
	if err != nil {
		respondError(w, r, err, "failed to list icons")
		return
	}
	writeJSON(w, http.StatusOK, icons)
}

type iconRequest struct {
	Keyword        string  `json:"keyword"`
	BrandTerm      *string `json:"brandTerm"`
	CustomImageURL *string `json:"customImageUrl"`
}

// handleCreateIcon upserts on the keyword: posting an existing keyword
// overwrites its brand term and image.
func (s *Server) handleCreateIcon(w http.ResponseWriter, r *http.Request) {
	var req iconRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	icon := core.CustomIcon{
		Keyword:        strings.TrimSpace(req.Keyword),
		BrandTerm:      req.BrandTerm,
		CustomImageURL: req.CustomImageURL,
	}
	if err := icon.Validate(); err != nil {
		respondError(w, r, err, "invalid icon")
		return
	}
	saved, err := s.icons.UpsertIcon(r.Context(), icon)
	if err != nil {
		respondError(w, r, err, "failed to save icon")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteIcon(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required", "")
		return
	}
	if err := s.icons.DeleteIcon(r.Context(), id); err != nil {
		respondError(w, r, err, "failed to delete icon")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}
