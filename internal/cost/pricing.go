// Package cost tracks run spend against a fixed budget ceiling.
// It prices model usage from a per-model table, enforces a hard spending
// limit with a safety margin, and computes the refund at run end.
package cost

// Model identifiers for the generation collaborator.
const (
	// ModelHaiku is the lightweight, fast model for basic tiers and demo runs.
	ModelHaiku = "claude-3-5-haiku-20241022"
	// ModelSonnet is the balanced model for standard content work.
	ModelSonnet = "claude-sonnet-4-20250514"
	// ModelOpus is the most capable model for premium tiers.
	ModelOpus = "claude-opus-4-5-20251101"
	// ModelImage is the image generation model, priced per image.
	ModelImage = "gemini-3-pro-image"
)

// ModelPricing contains pricing per 1K tokens for a model.
type ModelPricing struct {
	InputPer1K  float64 // Cost per 1K input tokens, in MNEE
	OutputPer1K float64 // Cost per 1K output tokens, in MNEE
}

// DefaultModelPricing contains pricing for known generation models.
var DefaultModelPricing = map[string]ModelPricing{
	ModelHaiku:  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	ModelSonnet: {InputPer1K: 0.003, OutputPer1K: 0.015},
	ModelOpus:   {InputPer1K: 0.015, OutputPer1K: 0.075},
}

// CostPerImage is the fixed per-image generation rate, in MNEE.
const CostPerImage = 0.04

const (
	// estimateBuffer pads pre-flight estimates for estimation uncertainty.
	estimateBuffer = 1.20
	// ceilingFraction caps committed spend at 95% of budget. The 5%
	// remainder absorbs estimation error and is never spent.
	ceilingFraction = 0.95
	// platformFeeRate is the platform's cut of total AI spend.
	platformFeeRate = 0.02
	// minViableTaskCost is the smallest spend one more task could need.
	minViableTaskCost = 0.005
	// fallbackEstimate is the conservative estimate for unpriced models.
	fallbackEstimate = 0.01
)
