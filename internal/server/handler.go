package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hireloop/recommender/internal/ranking"
)

const (
	defaultK = 10
	maxK     = 10
)

// recommendRequest is the /v1/recommend request body. Exactly one of query or
// url should be set; query wins when both are.
type recommendRequest struct {
	Query string `json:"query"`
	URL   string `json:"url"`
	K     int    `json:"k"`
}

type recommendItem struct {
	Name        string   `json:"assessment_name"`
	URL         string   `json:"url"`
	TestType    string   `json:"test_type,omitempty"`
	DurationMin int      `json:"assessment_length_min,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Score       float64  `json:"score"`
}

type recommendResponse struct {
	Results []recommendItem `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "provide either 'query' or 'url'")
		return
	}

	k := req.K
	if k == 0 {
		k = defaultK
	}
	if k < 1 {
		k = 1
	}
	if k > maxK {
		k = maxK
	}

	var (
		result *ranking.RankedResult
		err    error
	)
	if strings.TrimSpace(req.Query) != "" {
		result, err = s.svc.Rank(r.Context(), req.Query, k)
	} else {
		result, err = s.svc.RankURL(r.Context(), req.URL, k)
	}
	if err != nil {
		status := statusFor(err)
		s.logger.Error("recommend failed", "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}

	resp := recommendResponse{Results: make([]recommendItem, 0, len(result.Results))}
	for _, si := range result.Results {
		resp.Results = append(resp.Results, recommendItem{
			Name:        si.Item.Name,
			URL:         si.Item.URL,
			TestType:    string(si.Item.TestType),
			DurationMin: si.Item.DurationMin,
			Languages:   si.Item.Languages,
			Score:       si.Score,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleReload(w http.ResponseWriter, r *http.Request) {
	count, err := s.reload(r.Context())
	if err != nil {
		s.logger.Error("index reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	s.logger.Info("index reloaded", "items", count)
	writeJSON(w, http.StatusOK, map[string]int{"items": count})
}

// requireAdmin rejects requests without a valid admin bearer token.
func (s *HTTPServer) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.jwt.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if !claims.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps pipeline errors to HTTP status codes. Embedding outages are
// reported as 503 so callers know to retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ranking.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ranking.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
