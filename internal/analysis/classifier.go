package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/kalambet/threatpulse/internal/threat"
	"github.com/kalambet/threatpulse/internal/zeroshot"
)

// CandidateLabels is the fixed label set scored by the zero-shot model.
var CandidateLabels = []string{"scam", "theft", "violence", "surveillance", "fraud", "safe"}

// Classifier is the zero-shot capability the secondary provider needs.
type Classifier interface {
	Classify(ctx context.Context, inputs string, labels []string) (zeroshot.Classification, error)
}

// ClassifierProvider builds an assessment directly from the top zero-shot
// label and its score.
type ClassifierProvider struct {
	client Classifier
}

// NewClassifierProvider creates the secondary provider.
func NewClassifierProvider(client Classifier) *ClassifierProvider {
	return &ClassifierProvider{client: client}
}

func (p *ClassifierProvider) Name() string { return "classifier" }

func (p *ClassifierProvider) Attempt(ctx context.Context, in Input) (threat.Analysis, error) {
	labels := make([]string, len(CandidateLabels))
	copy(labels, CandidateLabels)

	res, err := p.client.Classify(ctx, in.Report, labels)
	if err != nil {
		return threat.Analysis{}, fmt.Errorf("zero-shot classification: %w", err)
	}
	label, score, err := res.Top()
	if err != nil {
		return threat.Analysis{}, fmt.Errorf("zero-shot classification: %w", err)
	}
	return FromClassification(label, score, in.Location), nil
}

// FromClassification maps a label and its 0-1 score to an Analysis.
func FromClassification(label string, score float64, location string) threat.Analysis {
	pct := int(math.Round(score * 100))
	return threat.Clamp(threat.Analysis{
		Category:    threat.CategoryFor(label),
		RiskScore:   pct,
		Confidence:  pct,
		Summary:     fmt.Sprintf("Potential %s incident reported in %s", label, location),
		ThreatType:  label,
		Severity:    threat.SeverityFor(pct),
		RelevantFor: []threat.TravelerProfile{{TravelStyle: threat.StyleSolo, Experience: threat.ExperienceBeginner}},
		ActionableInsights: []string{
			fmt.Sprintf("Stay alert for %s incidents in %s", label, location),
		},
	})
}
