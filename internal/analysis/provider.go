package analysis

import (
	"context"

	"github.com/kalambet/threatpulse/internal/threat"
)

// Input is a single incident report to assess.
type Input struct {
	Report   string `json:"report"`
	Location string `json:"location"`
}

// Provider is one inference strategy the Orchestrator can try. An Attempt
// makes at most one remote call.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, in Input) (threat.Analysis, error)
}
