package models

// Tier represents the budget-derived service-quality bucket for a run.
type Tier string

const (
	// TierBasic is the entry tier with fast models and few tasks.
	TierBasic Tier = "basic"
	// TierStandard adds more tasks and deeper content.
	TierStandard Tier = "standard"
	// TierPremium unlocks advanced models and image generation.
	TierPremium Tier = "premium"
	// TierEnterprise is the highest tier with video allowance.
	TierEnterprise Tier = "enterprise"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// ContentDepth labels how exhaustive generated deliverables should be.
type ContentDepth string

const (
	DepthBrief         ContentDepth = "brief"
	DepthStandard      ContentDepth = "standard"
	DepthDetailed      ContentDepth = "detailed"
	DepthComprehensive ContentDepth = "comprehensive"
)

// Valid returns true if the depth is a known value.
func (d ContentDepth) Valid() bool {
	switch d {
	case DepthBrief, DepthStandard, DepthDetailed, DepthComprehensive:
		return true
	default:
		return false
	}
}
