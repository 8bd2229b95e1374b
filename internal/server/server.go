// Package server exposes the enrichment pipeline over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemstack/formulant/internal/anomaly"
	"github.com/chemstack/formulant/internal/enrich"
	"github.com/chemstack/formulant/internal/metrics"
	"github.com/chemstack/formulant/internal/model"
	"github.com/chemstack/formulant/internal/usage"
)

// Server holds the handlers' dependencies.
type Server struct {
	enricher *enrich.Enricher
	tracker  *usage.Tracker
	sink     anomaly.Sink
}

// New creates a Server.
func New(enricher *enrich.Enricher, tracker *usage.Tracker, sink anomaly.Sink) *Server {
	return &Server{enricher: enricher, tracker: tracker, sink: sink}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/enrich", s.handleEnrich)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// wireComponent mirrors RawComponent but keeps CAS nullable so a payload
// element with no cas field at all can be told apart from an empty string.
type wireComponent struct {
	CAS  *string `json:"cas"`
	Conc any     `json:"conc"`
}

// handleEnrich accepts a raw formula and responds with the enriched one.
// Malformed top-level input (not an array, or an element missing a CAS) is
// the only request-level failure; data-quality problems inside a valid
// request surface as anomalies, never as errors.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var wire []wireComponent
	if err := dec.Decode(&wire); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON array of components")
		return
	}

	formula := make([]model.RawComponent, 0, len(wire))
	for i, wc := range wire {
		if wc.CAS == nil || *wc.CAS == "" {
			writeError(w, http.StatusBadRequest, "component missing cas field")
			zap.L().Warn("rejected formula", zap.Int("component", i), zap.String("reason", "missing cas"))
			return
		}
		formula = append(formula, model.RawComponent{CAS: *wc.CAS, Conc: wc.Conc})
	}

	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	result := s.enricher.Enrich(r.Context(), formula)
	anomaly.Mirror(s.sink, result.Anomalies, requestID)

	components := result.Components
	if components == nil {
		components = []model.EnrichedComponent{}
	}
	writeJSON(w, http.StatusOK, components)
}

// handleStats serves the usage tracker snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.tracker.Snapshot()
	if snapshot == nil {
		snapshot = []model.UsageCounter{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
