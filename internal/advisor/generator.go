package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/threatpulse/internal/completion"
	"github.com/kalambet/threatpulse/internal/observability"
	"github.com/kalambet/threatpulse/internal/threat"
)

const (
	maxContextThreats = 5
	temperature       = 0.4
	maxTokens         = 300
)

// Completer is the chat completion capability the generator needs.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Generator produces personalized safety recommendations with a chat model,
// falling back to rule-based Defaults.
type Generator struct {
	client  Completer
	model   string
	metrics *observability.Metrics
}

// NewGenerator creates a Generator using the given client and model name.
func NewGenerator(client Completer, model string, m *observability.Metrics) *Generator {
	return &Generator{client: client, model: model, metrics: m}
}

// Recommend returns between one and five recommendations. It never fails:
// a model error or an unparsable reply yields Defaults(profile).
func (g *Generator) Recommend(ctx context.Context, location string, profile threat.TravelerProfile, recent []threat.ReportSummary) []string {
	raw, err := g.client.Complete(ctx, completion.Request{
		Model: g.model,
		Messages: []completion.Message{
			{Role: "user", Content: BuildPrompt(location, profile, recent)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		slog.Warn("recommendation generation failed", "error", err)
		return g.defaults(profile)
	}

	recs := ParseRecommendations(raw)
	if len(recs) == 0 {
		slog.Warn("no recommendations found in model response", "response", raw)
		return g.defaults(profile)
	}

	g.metrics.Recommendations.WithLabelValues("model").Inc()
	return recs
}

func (g *Generator) defaults(profile threat.TravelerProfile) []string {
	g.metrics.Recommendations.WithLabelValues("default").Inc()
	return Defaults(profile)
}

// BuildPrompt renders the recommendation request, including up to five
// recent threats as context.
func BuildPrompt(location string, profile threat.TravelerProfile, recent []threat.ReportSummary) string {
	return fmt.Sprintf(
		"Generate 3-5 personalized safety recommendations for a %s %s traveler visiting %s. Recent threats: %s",
		profile.TravelStyle, profile.Experience, location, ThreatContext(recent),
	)
}

// ThreatContext joins the first five summaries as "type: title" pairs.
func ThreatContext(recent []threat.ReportSummary) string {
	n := min(len(recent), maxContextThreats)
	parts := make([]string, n)
	for i, r := range recent[:n] {
		parts[i] = r.ThreatType + ": " + r.Title
	}
	return strings.Join(parts, "; ")
}
