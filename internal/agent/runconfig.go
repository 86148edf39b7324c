package agent

import (
	"time"

	"github.com/ShayCichocki/tenderswarm/internal/tier"
)

// RunConfig is the immutable per-run configuration handed to every
// pipeline stage at construction. Stages read it, never mutate it.
type RunConfig struct {
	// RunID identifies this pipeline run.
	RunID string
	// DemoMode shrinks output budgets and skips media generation.
	DemoMode bool
	// Tier is the service tier resolved from the client budget.
	Tier tier.Config
	// BatchDelay paces tender posting between batches. Cosmetic in
	// live runs, zero in tests.
	BatchDelay time.Duration
	// EvalDelay paces evaluation between deliverables.
	EvalDelay time.Duration
}
