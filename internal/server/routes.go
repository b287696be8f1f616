package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/graphweave/graphweave/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := s.engine.AddMemory(r.Context(), req.Content, req.Tags)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyContent) {
			writeError(w, http.StatusBadRequest, "content required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAddBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Memories []struct {
			Content string   `json:"content"`
			Tags    []string `json:"tags"`
		} `json:"memories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Memories) == 0 {
		writeError(w, http.StatusBadRequest, "memories required")
		return
	}

	inputs := make([]engine.MemoryInput, len(req.Memories))
	for i, m := range req.Memories {
		inputs[i] = engine.MemoryInput{Content: m.Content, Tags: m.Tags}
	}

	ids, err := s.engine.AddBatch(r.Context(), inputs)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyContent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Partial commits are possible; report what landed alongside the error.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": err.Error(),
			"ids":   ids,
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}

	topK := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		topK = n
	}

	results, err := s.engine.QueryMemory(r.Context(), query, topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []engine.ScoredMemory{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleExploreEntity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	network, err := s.engine.ExploreEntity(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Unknown entities return the empty network shape, not a 404: the
	// caller asked a valid question with an empty answer.
	writeJSON(w, http.StatusOK, network)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities":      stats.Entities,
		"relationships": stats.Relationships,
		"memories":      stats.Memories,
		"db_path":       s.db.Path,
	})
}
