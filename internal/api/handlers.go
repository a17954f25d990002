package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/backfill"
	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/pipeline"
	"github.com/voyantic/placeintel/internal/store"
	"github.com/voyantic/placeintel/internal/taste"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var ref model.PlaceRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ref.ID == "" || ref.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	// Enrichment outlives the request; the orchestrator's status guard
	// rejects a duplicate while one is in flight.
	go func() {
		result, err := s.enricher.Enrich(s.baseCtx, ref)
		if err != nil {
			zap.L().Error("webhook enrichment failed",
				zap.String("place_id", ref.ID), zap.Error(err))
			return
		}
		zap.L().Info("webhook enrichment finished",
			zap.String("place_id", ref.ID),
			zap.Bool("skipped", result.Skipped),
			zap.String("status", string(result.Place.Status)),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"place_id": ref.ID,
	})
}

func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.cache != nil {
		if cached, ok := s.cache.Get("place:" + id); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	place, err := s.store.GetPlace(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "place not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Only settled records are worth caching.
	if s.cache != nil && place.Status == model.PlaceStatusComplete {
		s.cache.SetDefault("place:"+id, place)
	}
	writeJSON(w, http.StatusOK, place)
}

type statusResponse struct {
	PlaceID          string              `json:"place_id"`
	Status           model.PlaceStatus   `json:"status"`
	Signals          []model.TasteSignal `json:"signals"`
	AntiSignals      []model.TasteSignal `json:"anti_signals"`
	ReliabilityScore *float64            `json:"reliability_score,omitempty"`
	SignalCount      int                 `json:"signal_count"`
	ReviewCount      int                 `json:"review_count"`
	LastEnrichedAt   *time.Time          `json:"last_enriched_at,omitempty"`
	Run              *model.PipelineRun  `json:"run,omitempty"`
	RunSummary       string              `json:"run_summary,omitempty"`
}

func (s *Server) handlePlaceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	place, err := s.store.GetPlace(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			// Never-registered places get a well-formed answer, not an
			// error.
			writeJSON(w, http.StatusOK, statusResponse{PlaceID: id, Status: model.PlaceStatusUnknown})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run, err := s.store.LatestRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := statusResponse{
		PlaceID:          place.ID,
		Status:           place.Status,
		Signals:          place.Signals,
		AntiSignals:      place.AntiSignals,
		ReliabilityScore: place.ReliabilityScore,
		SignalCount:      place.SignalCount,
		ReviewCount:      place.ReviewCount,
	}
	resp.LastEnrichedAt = place.LastEnrichedAt
	if run != nil {
		resp.Run = run
		resp.RunSummary = pipeline.Describe(run)
	}
	writeJSON(w, http.StatusOK, resp)
}

type matchRequest struct {
	UserID  string             `json:"user_id,omitempty"`
	Weights model.TasteProfile `json:"weights,omitempty"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" && len(req.Weights) == 0 {
		writeError(w, http.StatusBadRequest, "user_id or weights is required")
		return
	}

	place, err := s.store.GetPlace(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "place not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if place.Status != model.PlaceStatusComplete {
		writeError(w, http.StatusConflict, "place is not enriched yet")
		return
	}

	weights := req.Weights
	if len(weights) == 0 {
		profile, err := s.store.GetUserProfile(r.Context(), req.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if profile == nil {
			writeError(w, http.StatusNotFound, "user has no synthesized profile")
			return
		}
		weights = profile.Weights
	}

	result := taste.Match(weights, place.Signals, place.AntiSignals, s.cfg.Match, s.now())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReprofile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ctx := r.Context()

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	nodes, err := s.store.ListTasteNodes(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contradictions, err := s.store.ListActiveContradictions(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	in := taste.ReprofileInput{
		Nodes:                nodes,
		ActiveContradictions: len(contradictions),
	}
	if profile != nil {
		in.LastSynthesizedAt = profile.LastSynthesizedAt
		in.BookingsSinceSynthesis = profile.BookingsSinceSynthesis
	}

	decision := taste.EvaluateReprofile(in, s.cfg.Decay, s.now())
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.backfiller == nil {
		writeError(w, http.StatusServiceUnavailable, "backfill is not configured")
		return
	}

	mode, err := backfill.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		result, err := s.backfiller.Run(r.Context(), mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	go func() {
		if _, err := s.backfiller.Run(s.baseCtx, mode); err != nil {
			zap.L().Error("backfill failed", zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics are not configured")
		return
	}
	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
