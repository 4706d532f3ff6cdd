package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hermes-labs/keeper/internal/memory"
)

func (s *Server) handleStoreContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string            `json:"content"`
		Type     string            `json:"type"`
		Priority string            `json:"priority"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Priority == "" {
		req.Priority = string(memory.PriorityMedium)
	}

	id, err := s.engine.StoreContext(req.Content, memory.ContextType(req.Type), memory.Priority(req.Priority), req.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRetrieveContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	typ := memory.ContextType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, "invalid context type")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	chunks := s.engine.RetrieveContext(query, typ, limit)
	if chunks == nil {
		chunks = []memory.Chunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := s.engine.GetChunk(chi.URLParam(r, "chunkID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chunk not found")
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleCompressContext(w http.ResponseWriter, r *http.Request) {
	compressed := s.engine.CompressContext(chi.URLParam(r, "chunkID"))
	writeJSON(w, http.StatusOK, map[string]bool{"compressed": compressed})
}

func (s *Server) handleDeleteContext(w http.ResponseWriter, r *http.Request) {
	deleted := s.engine.DeleteContext(chi.URLParam(r, "chunkID"))
	if !deleted {
		writeError(w, http.StatusNotFound, "chunk not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChunkIDs []string `json:"chunk_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	summary, err := s.engine.Summarize(req.ChunkIDs)
	if err != nil {
		switch {
		case errors.Is(err, memory.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, memory.ErrNoChunks):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries := s.engine.Summaries()
	if summaries == nil {
		summaries = []memory.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"count":     len(summaries),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Statistics())
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	result := s.engine.Sweep()
	writeJSON(w, http.StatusOK, map[string]any{
		"acted":      result.Count(),
		"evicted":    len(result.Evicted),
		"compressed": len(result.Compressed),
	})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	id, err := s.engine.CreateConversation()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "convID")

	var req struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	msg, result, err := s.engine.AppendMessage(convID, req.Sender, req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{"message": msg}
	if result != nil && result.Summarized {
		resp["curated"] = result
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.engine.ConversationMessages(chi.URLParam(r, "convID"))
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"count":    len(msgs),
	})
}

func (s *Server) handleCurate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Curate(chi.URLParam(r, "convID")))
}

func (s *Server) handleConversationSummaries(w http.ResponseWriter, r *http.Request) {
	summaries := s.engine.ConversationSummaries(chi.URLParam(r, "convID"))
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"count":     len(summaries),
	})
}
