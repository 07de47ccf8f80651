package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/docstore"
	"github.com/BillStark001/quizzy/internal/models"
)

func (s *Server) mutationStatus(err error) int {
	switch {
	case errors.Is(err, docstore.ErrDuplicateKey),
		errors.Is(err, docstore.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	var items []*models.Question
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids, err := s.store.ImportQuestions(r.Context(), items)
	if err != nil {
		s.logger.Error("import questions failed", zap.Error(err))
		s.respondError(w, s.mutationStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids})
}

func (s *Server) handleImportPapers(w http.ResponseWriter, r *http.Request) {
	var items []*models.QuizPaper
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids, err := s.store.ImportPapers(r.Context(), items)
	if err != nil {
		s.logger.Error("import papers failed", zap.Error(err))
		s.respondError(w, s.mutationStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids})
}

func (s *Server) handleImportRecords(w http.ResponseWriter, r *http.Request) {
	var items []*models.QuizRecord
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids, err := s.store.ImportRecords(r.Context(), items)
	if err != nil {
		s.logger.Error("import records failed", zap.Error(err))
		s.respondError(w, s.mutationStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "question not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetPaper(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListQuestionIds(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListQuestionIds(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ids": ids})
}

func (s *Server) handleListPaperIds(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListPaperIds(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ids": ids})
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	s.handleUpdate(w, r, s.store.UpdateQuestion)
}

func (s *Server) handleUpdatePaper(w http.ResponseWriter, r *http.Request) {
	s.handleUpdate(w, r, s.store.UpdatePaper)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request,
	update func(ctx context.Context, id string, patch map[string]interface{}, opts docstore.UpdateOptions) error) {
	id := chi.URLParam(r, "id")
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	opts := docstore.UpdateOptions{
		InvalidateKeywords: r.URL.Query().Get("invalidate_keywords") == "true",
	}
	if err := update(r.Context(), id, patch, opts); err != nil {
		s.logger.Error("update failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, s.mutationStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "updated"})
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.store.DeleteQuestion)
}

func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.store.DeletePaper)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request,
	del func(ctx context.Context, id string, hard bool) (bool, error)) {
	id := chi.URLParam(r, "id")
	hard := r.URL.Query().Get("hard") == "true"
	found, err := del(r.Context(), id, hard)
	if err != nil {
		s.logger.Error("delete failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) decodeSearchQuery(w http.ResponseWriter, r *http.Request) *models.SearchQuery {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil
	}
	return &query
}

func (s *Server) handleFindQuestions(w http.ResponseWriter, r *http.Request) {
	query := s.decodeSearchQuery(w, r)
	if query == nil {
		return
	}
	response, err := s.engine.FindQuestions(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleFindPapers(w http.ResponseWriter, r *http.Request) {
	query := s.decodeSearchQuery(w, r)
	if query == nil {
		return
	}
	response, err := s.engine.FindPapers(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleFindQuestionsByTags(w http.ResponseWriter, r *http.Request) {
	query := s.decodeSearchQuery(w, r)
	if query == nil {
		return
	}
	response, err := s.engine.FindQuestionsByTags(r.Context(), query)
	if err != nil {
		s.logger.Error("tag search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleFindPapersByTags(w http.ResponseWriter, r *http.Request) {
	query := s.decodeSearchQuery(w, r)
	if query == nil {
		return
	}
	response, err := s.engine.FindPapersByTags(r.Context(), query)
	if err != nil {
		s.logger.Error("tag search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleFindTags(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	suggestions, err := s.engine.FindTags(r.Context(), prefix)
	if err != nil {
		s.logger.Error("tag suggestions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleRefreshIndices(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	count, err := s.indexer.RefreshSearchIndices(r.Context(), force)
	if err != nil {
		s.logger.Error("index refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"reindexed": count})
}

func (s *Server) handleDeleteUnlinked(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.DeleteUnlinked(r.Context())
	if err != nil {
		s.logger.Error("delete unlinked failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"removed": count})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	questionIds, err := s.store.ListQuestionIds(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	paperIds, err := s.store.ListPaperIds(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions":      len(questionIds),
		"papers":         len(paperIds),
		"cached_queries": s.engine.Cache().Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
