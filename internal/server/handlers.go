package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/sqlquery"
	"github.com/hyperjump/ragsearch/internal/vector"
)

const missingQueryMessage = "Query parameter is required"

// queryHit is one entry of the /query response.
type queryHit struct {
	ID       int           `json:"id"`
	Score    float64       `json:"score"`
	Metadata models.Record `json:"metadata"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.respondFailure(w, "query", err)
		return
	}
	hits := make([]queryHit, len(resp.Results))
	for i, res := range resp.Results {
		hits[i] = queryHit{ID: res.ID, Score: res.Score, Metadata: res.Metadata}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	resp, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.respondFailure(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (*models.SearchQuery, bool) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(query.Query) == "" {
		s.respondError(w, http.StatusBadRequest, missingQueryMessage)
		return nil, false
	}
	return &query, true
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	if s.sql == nil {
		s.respondError(w, http.StatusNotImplemented, "sql queries not configured")
		return
	}
	var req models.SQLQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, missingQueryMessage)
		return
	}
	resp, err := s.sql.Ask(r.Context(), req.Query)
	if err != nil {
		s.respondFailure(w, "sql", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"index_size":  s.engine.IndexSize(),
		"metric":      s.engine.Metric(),
		"dimension":   s.engine.Dimension(),
		"sql_enabled": s.sql != nil,
	}
	if s.config != nil {
		resp["config"] = map[string]any{
			"data_path":          s.config.Data.Path,
			"watch":              s.config.Data.Watch,
			"embedding_provider": s.config.Embedding.Provider,
			"metadata_backend":   s.config.Index.MetadataBackend,
			"preprocess":         s.config.Search.Preprocess,
			"default_top_k":      s.config.Search.DefaultTopK,
		}
	}
	if s.sql != nil {
		if cols, err := s.sql.Schema(r.Context()); err == nil {
			resp["sql_columns"] = cols
		} else {
			s.logger.Warn("status: read sql schema failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps a pipeline error to an HTTP status code.
func statusFor(err error) int {
	var qe *sqlquery.QueryError
	switch {
	case errors.Is(err, models.ErrEmptyQuery),
		errors.Is(err, vector.ErrZeroVector),
		errors.Is(err, vector.ErrDimensionMismatch),
		errors.Is(err, vector.ErrNonFinite),
		errors.Is(err, vector.ErrInvalidTopK):
		return http.StatusBadRequest
	case errors.Is(err, vector.ErrEmptyIndex):
		return http.StatusConflict
	case embedding.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, embedding.ErrEmbeddingProvider),
		errors.Is(err, sqlquery.ErrGeneration),
		errors.Is(err, sqlquery.ErrEmptySQL):
		return http.StatusBadGateway
	case errors.As(err, &qe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

// respondJSON encodes before writing the header so an unencodable payload becomes a 500.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
