package analysis

import (
	"context"
	"fmt"

	"github.com/kalambet/threatpulse/internal/completion"
	"github.com/kalambet/threatpulse/internal/observability"
	"github.com/kalambet/threatpulse/internal/threat"
)

const (
	chatTemperature = 0.3
	chatMaxTokens   = 500
)

// Completer is the chat completion capability the primary provider needs.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// ChatProvider asks a generative model for a JSON assessment and normalizes
// whatever comes back. Only transport-level failures are errors; an
// unreadable reply becomes the degraded record.
type ChatProvider struct {
	client  Completer
	model   string
	metrics *observability.Metrics
}

// NewChatProvider creates the primary provider.
func NewChatProvider(client Completer, model string, m *observability.Metrics) *ChatProvider {
	return &ChatProvider{client: client, model: model, metrics: m}
}

func (p *ChatProvider) Name() string { return "chat" }

func (p *ChatProvider) Attempt(ctx context.Context, in Input) (threat.Analysis, error) {
	raw, err := p.client.Complete(ctx, completion.Request{
		Model: p.model,
		Messages: []completion.Message{
			{Role: "user", Content: threat.AnalysisPrompt(in.Report, in.Location)},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return threat.Analysis{}, fmt.Errorf("chat completion: %w", err)
	}

	a, degraded := threat.Normalize(raw)
	if degraded {
		p.metrics.NormalizerDegraded.Inc()
	}
	return a, nil
}
