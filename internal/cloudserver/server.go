package cloudserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
)

// Query and lookup limits
const (
	DefaultResultsLimit = 50
	MaxResultsLimit     = 200
	MaxLookupRecords    = 200
)

const healthTimeout = 2 * time.Second

// Server serves the public record database API
type Server struct {
	repo   Repository
	assets AssetStore
	tokens map[string]struct{}
	logger *slog.Logger
	router chi.Router
}

// NewServer creates the API handler. assets may be nil when no bucket is
// configured. An empty token list disables authentication.
func NewServer(repo Repository, assets AssetStore, tokens []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		repo:   repo,
		assets: assets,
		tokens: make(map[string]struct{}, len(tokens)),
		logger: logger,
	}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			s.tokens[t] = struct{}{}
		}
	}
	if len(s.tokens) == 0 {
		logger.Warn("no API tokens configured, authentication disabled")
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route(cloud.APIPrefix+"/records", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/query", s.handleQuery)
		r.Post("/lookup", s.handleLookup)
		r.Post("/modify", s.handleModify)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.tokens) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, valid := s.tokens[strings.TrimSpace(token)]; !ok || !valid {
			writeError(w, http.StatusUnauthorized, cloud.CodeAuthFailed, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, reason string) {
	writeJSON(w, status, cloud.ErrorResponse{ServerErrorCode: code, Reason: reason})
}
