// Package api exposes the enrichment and matching operations over HTTP:
// a webhook to queue enrichment, status and intelligence reads, the
// match and reprofile evaluators, and the backfill trigger.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/backfill"
	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/monitoring"
	"github.com/voyantic/placeintel/internal/pipeline"
	"github.com/voyantic/placeintel/internal/store"
	"github.com/voyantic/placeintel/internal/taste"
)

// Enricher runs the enrichment pipeline for one place.
type Enricher interface {
	Enrich(ctx context.Context, ref model.PlaceRef) (*pipeline.Result, error)
}

// Backfiller recomputes derived taste state in bulk.
type Backfiller interface {
	Run(ctx context.Context, mode backfill.Mode) (*backfill.Result, error)
}

// Config tunes the HTTP server.
type Config struct {
	// Token, when set, is required as a Bearer token on every route
	// except /health.
	Token string

	// CacheTTL bounds how long read responses are served from cache.
	// Zero disables caching.
	CacheTTL time.Duration

	Decay taste.DecayConfig
	Match taste.MatchConfig
}

// Server holds the wired dependencies behind the HTTP API.
type Server struct {
	store      store.Store
	enricher   Enricher
	backfiller Backfiller
	collector  *monitoring.Collector
	cfg        Config
	cache      *gocache.Cache

	// baseCtx outlives individual requests; async work queued by a
	// handler runs on it so client disconnects don't cancel enrichment.
	baseCtx context.Context

	now func() time.Time
}

// New creates the API server. backfiller and collector may be nil; their
// routes then return 503.
func New(baseCtx context.Context, st store.Store, enricher Enricher, backfiller Backfiller, collector *monitoring.Collector, cfg Config) *Server {
	if cfg.Decay == (taste.DecayConfig{}) {
		cfg.Decay = taste.DefaultDecay()
	}
	if cfg.Match == (taste.MatchConfig{}) {
		cfg.Match = taste.DefaultMatch()
	}

	var c *gocache.Cache
	if cfg.CacheTTL > 0 {
		c = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return &Server{
		store:      st,
		enricher:   enricher,
		backfiller: backfiller,
		collector:  collector,
		cfg:        cfg,
		cache:      c,
		baseCtx:    baseCtx,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the chi handler with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/webhook/enrich", s.handleEnrich)
		r.Get("/places/{id}", s.handleGetPlace)
		r.Get("/places/{id}/status", s.handlePlaceStatus)
		r.Post("/places/{id}/match", s.handleMatch)
		r.Get("/users/{id}/reprofile", s.handleReprofile)
		r.Post("/backfill", s.handleBackfill)
		r.Get("/metrics", s.handleMetrics)
	})

	return r
}

// authenticate enforces the configured bearer token. No token configured
// means open access (local development).
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token != "" {
			header := r.Header.Get("Authorization")
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || got != s.cfg.Token {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
