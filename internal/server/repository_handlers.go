package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type repositoryRequest struct {
	Name        string  `json:"name"`
	Link        string  `json:"link"`
	Description *string `json:"description"`
}

func (req repositoryRequest) validate() string {
	if len(req.Name) < 5 {
		return "Name must be at least 5 characters long"
	}
	if req.Link == "" {
		return "Link is required"
	}
	return ""
}

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)

	repos, total, err := s.Repositories.List(r.Context(), offset, limit)
	if err != nil {
		log.Printf("list repositories failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list repositories")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"repositories": repos,
		"total":        total,
	})
}

func (s *Server) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	repo, err := s.Repositories.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load repository")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "Repository not found")
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	var req repositoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	repo, err := s.Repositories.Create(r.Context(), req.Name, req.Link, req.Description)
	if err != nil {
		log.Printf("create repository failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create repository")
		return
	}

	writeJSON(w, http.StatusCreated, repo)
}

func (s *Server) handleUpdateRepository(w http.ResponseWriter, r *http.Request) {
	var req repositoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	repo, err := s.Repositories.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.Link, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update repository")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "Repository not found")
		return
	}

	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	if err := s.Repositories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete repository")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
