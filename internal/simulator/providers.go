// Package simulator models the provider side of the marketplace: a
// catalog of AI provider identities that bid on tenders, capability
// inference for tasks, and the tender queue providers consume from.
package simulator

import (
	"math/rand"
	"strings"
	"time"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// platformTreasury receives simulated provider payouts.
const platformTreasury = "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"

// Provider is one AI service identity registered on the marketplace.
type Provider struct {
	// ID uniquely identifies the provider.
	ID string
	// Name is the display name shown in deliverable attribution.
	Name string
	// Address is the payout wallet address.
	Address string
	// Specialty is the task category the provider bids on.
	Specialty models.TaskCategory
	// Model is the backing model identifier.
	Model string
	// Description summarizes what the provider offers.
	Description string
	// Tier is the lowest service tier the provider serves.
	Tier models.Tier
	// Capabilities lists the skills the provider advertises.
	Capabilities []models.Capability
	// CostMultiplier scales the provider's effective price.
	CostMultiplier float64
	// Active reports whether the provider is accepting tenders.
	Active bool
}

// Has reports whether the provider advertises every capability in caps.
func (p Provider) Has(caps []models.Capability) bool {
	for _, want := range caps {
		found := false
		for _, have := range p.Capabilities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// catalog is the registered provider pool. Addresses all route to the
// platform treasury in simulation.
var catalog = []Provider{
	{
		ID: "grok-researcher-basic", Name: "Grok Research Assistant", Address: platformTreasury,
		Specialty: models.CategoryResearch, Model: "xai/grok-3-fast",
		Description: "Quick market research and data gathering",
		Tier:        models.TierBasic, CostMultiplier: 0.8, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis},
	},
	{
		ID: "grok-writer-basic", Name: "Grok Content Writer", Address: platformTreasury,
		Specialty: models.CategoryCopywriting, Model: "xai/grok-3-fast",
		Description: "Fast copywriting and content creation",
		Tier:        models.TierBasic, CostMultiplier: 0.8, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCreative},
	},
	{
		ID: "gpt4-strategist", Name: "GPT-4 Strategy Consultant", Address: platformTreasury,
		Specialty: models.CategoryStrategy, Model: "openai/gpt-4o",
		Description: "Strategic planning and business models",
		Tier:        models.TierStandard, CostMultiplier: 1.0, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis, models.CapabilityCreative},
	},
	{
		ID: "claude-writer", Name: "Claude Content Creator", Address: platformTreasury,
		Specialty: models.CategoryCopywriting, Model: "anthropic/claude-3.5-sonnet",
		Description: "High-quality copywriting and brand messaging",
		Tier:        models.TierStandard, CostMultiplier: 1.0, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCreative},
	},
	{
		ID: "grok-designer", Name: "Grok Design Architect", Address: platformTreasury,
		Specialty: models.CategoryDesign, Model: "xai/grok-3-fast",
		Description: "UX/UI design and visual specifications",
		Tier:        models.TierStandard, CostMultiplier: 1.0, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCreative, models.CapabilityVision},
	},
	{
		ID: "grok-marketer", Name: "Grok Marketing Specialist", Address: platformTreasury,
		Specialty: models.CategoryMarketing, Model: "xai/grok-3-fast",
		Description: "Marketing strategy and campaign planning",
		Tier:        models.TierStandard, CostMultiplier: 1.0, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCreative, models.CapabilityDataAnalysis},
	},
	{
		ID: "gpt4-developer", Name: "GPT-4 Technical Lead", Address: platformTreasury,
		Specialty: models.CategoryDevelopment, Model: "openai/gpt-4o",
		Description: "System architecture and technical specifications",
		Tier:        models.TierPremium, CostMultiplier: 1.3, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCode, models.CapabilityTechnical},
	},
	{
		ID: "claude-analyst", Name: "Claude Financial Analyst", Address: platformTreasury,
		Specialty: models.CategoryFinancialModeling, Model: "anthropic/claude-3.5-sonnet",
		Description: "Financial modeling and economic analysis",
		Tier:        models.TierPremium, CostMultiplier: 1.3, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis, models.CapabilityFinancial},
	},
	{
		ID: "grok-researcher-premium", Name: "Grok Research Specialist", Address: platformTreasury,
		Specialty: models.CategoryResearch, Model: "xai/grok-3-fast",
		Description: "Deep research, competitive analysis, and insights",
		Tier:        models.TierPremium, CostMultiplier: 1.2, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis, models.CapabilityVision},
	},
	{
		ID: "gpt4-turbo-strategist", Name: "GPT-4 Turbo Strategy Director", Address: platformTreasury,
		Specialty: models.CategoryStrategy, Model: "openai/gpt-4-turbo",
		Description: "Executive-level strategic planning and analysis",
		Tier:        models.TierEnterprise, CostMultiplier: 1.8, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis, models.CapabilityCreative, models.CapabilityVision},
	},
	{
		ID: "claude-opus-writer", Name: "Claude Opus Content Director", Address: platformTreasury,
		Specialty: models.CategoryCopywriting, Model: "anthropic/claude-opus-4-20250514",
		Description: "Premium copywriting and content strategy",
		Tier:        models.TierEnterprise, CostMultiplier: 2.0, Active: true,
		Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCreative, models.CapabilityVision},
	},
}

// Registry selects providers for tasks. The random source is
// injectable so tests get deterministic assignments.
type Registry struct {
	providers []Provider
	rand      *rand.Rand
}

// NewRegistry creates a registry over the built-in provider catalog.
// A nil source falls back to a time-seeded one.
func NewRegistry(src rand.Source) *Registry {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Registry{providers: catalog, rand: rand.New(src)}
}

// Active returns the active providers.
func (r *Registry) Active() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// ByID looks up a provider by its identifier.
func (r *Registry) ByID(id string) (Provider, bool) {
	for _, p := range r.providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

var tierOrder = []models.Tier{models.TierBasic, models.TierStandard, models.TierPremium, models.TierEnterprise}

func tierIndex(t models.Tier) int {
	for i, v := range tierOrder {
		if v == t {
			return i
		}
	}
	return 0
}

// Assign picks a provider for a task. It prefers active providers
// matching the task's category and required capabilities in the run's
// tier, allows one tier down for flexibility, and falls back to any
// active provider in the tier, then any active provider at all.
func (r *Registry) Assign(category models.TaskCategory, runTier models.Tier, caps []models.Capability) Provider {
	idx := tierIndex(runTier)
	allowed := map[models.Tier]bool{runTier: true}
	if idx > 0 {
		allowed[tierOrder[idx-1]] = true
	}

	var matches, exact []Provider
	for _, p := range r.providers {
		if !p.Active || p.Specialty != category || !allowed[p.Tier] {
			continue
		}
		if len(caps) > 0 && !p.Has(caps) {
			continue
		}
		matches = append(matches, p)
		if p.Tier == runTier {
			exact = append(exact, p)
		}
	}
	if len(exact) > 0 {
		matches = exact
	}
	if len(matches) > 0 {
		return matches[r.rand.Intn(len(matches))]
	}

	var tierPool []Provider
	for _, p := range r.providers {
		if p.Active && p.Tier == runTier {
			tierPool = append(tierPool, p)
		}
	}
	if len(tierPool) > 0 {
		return tierPool[r.rand.Intn(len(tierPool))]
	}

	active := r.Active()
	return active[r.rand.Intn(len(active))]
}

// InferCapabilities derives the capabilities a task needs from its
// category and description keywords.
func InferCapabilities(category models.TaskCategory, description string) []models.Capability {
	caps := []models.Capability{models.CapabilityText}
	add := func(c models.Capability) {
		for _, have := range caps {
			if have == c {
				return
			}
		}
		caps = append(caps, c)
	}

	switch category {
	case models.CategoryDevelopment:
		add(models.CapabilityCode)
		add(models.CapabilityTechnical)
	case models.CategoryDesign:
		add(models.CapabilityCreative)
		add(models.CapabilityVision)
	case models.CategoryFinancialModeling:
		add(models.CapabilityDataAnalysis)
		add(models.CapabilityFinancial)
	case models.CategoryResearch:
		add(models.CapabilityDataAnalysis)
	case models.CategoryCopywriting, models.CategoryMarketing:
		add(models.CapabilityCreative)
	case models.CategoryStrategy:
		add(models.CapabilityDataAnalysis)
		add(models.CapabilityCreative)
	}

	desc := strings.ToLower(description)
	if strings.Contains(desc, "code") || strings.Contains(desc, "programming") || strings.Contains(desc, "api") {
		add(models.CapabilityCode)
	}
	if strings.Contains(desc, "visual") || strings.Contains(desc, "image") || strings.Contains(desc, "mockup") {
		add(models.CapabilityVision)
	}
	if strings.Contains(desc, "financial") || strings.Contains(desc, "pricing") || strings.Contains(desc, "revenue") {
		add(models.CapabilityFinancial)
	}

	return caps
}
