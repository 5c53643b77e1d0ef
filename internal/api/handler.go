package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/threatpulse/internal/analysis"
	"github.com/kalambet/threatpulse/internal/threat"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB
	maxBatchSize       = 20
)

// Analyzer is the analysis core as seen by the boundary layers.
type Analyzer interface {
	Analyze(ctx context.Context, report, location string) (threat.Analysis, error)
	AnalyzeBatch(ctx context.Context, inputs []analysis.Input) ([]threat.Analysis, error)
}

// Recommender produces safety recommendations. It never fails.
type Recommender interface {
	Recommend(ctx context.Context, location string, profile threat.TravelerProfile, recent []threat.ReportSummary) []string
}

// Deps holds the dependencies of the HTTP handler.
type Deps struct {
	Analyzer    Analyzer
	Recommender Recommender
	Metrics     http.Handler // optional; mounted at /metrics when set
}

// NewHandler returns the HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/analyze", handleAnalyzeStatus)
		r.Post("/analyze", handleAnalyze(deps.Analyzer))
		r.Post("/analyze/batch", handleAnalyzeBatch(deps.Analyzer))
		r.Post("/recommendations", handleRecommendations(deps.Recommender))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ThreatPulse AI Analysis API is running"})
}

type analyzeRequest struct {
	Report   string `json:"report"`
	Location string `json:"location"`
}

func handleAnalyze(a Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if blank(req.Report) || blank(req.Location) {
			httpError(w, http.StatusBadRequest, "Report and location are required")
			return
		}

		result, err := a.Analyze(r.Context(), req.Report, req.Location)
		if err != nil {
			slog.Error("error analyzing report", "error", err, "request_id", RequestIDFrom(r.Context()))
			httpError(w, http.StatusInternalServerError, "Failed to analyze report")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"analysis": result,
		})
	}
}

type batchRequest struct {
	Reports []analyzeRequest `json:"reports"`
}

func handleAnalyzeBatch(a Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.Reports) == 0 || len(req.Reports) > maxBatchSize {
			httpError(w, http.StatusBadRequest, "Between 1 and 20 reports are required")
			return
		}

		inputs := make([]analysis.Input, len(req.Reports))
		for i, rep := range req.Reports {
			if blank(rep.Report) || blank(rep.Location) {
				httpError(w, http.StatusBadRequest, "Report and location are required")
				return
			}
			inputs[i] = analysis.Input{Report: rep.Report, Location: rep.Location}
		}

		results, err := a.AnalyzeBatch(r.Context(), inputs)
		if err != nil {
			slog.Error("error analyzing report batch", "error", err, "request_id", RequestIDFrom(r.Context()))
			httpError(w, http.StatusInternalServerError, "Failed to analyze reports")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"analyses": results,
		})
	}
}

type recommendRequest struct {
	Location      string                  `json:"location"`
	UserProfile   *threat.TravelerProfile `json:"userProfile"`
	RecentThreats []threat.ReportSummary  `json:"recentThreats"`
}

func handleRecommendations(rec Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if blank(req.Location) || req.UserProfile == nil {
			httpError(w, http.StatusBadRequest, "Location and user profile are required")
			return
		}

		recs := rec.Recommend(r.Context(), req.Location, *req.UserProfile, req.RecentThreats)

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"recommendations": recs,
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
