package cost

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// Entry is one append-only line of the model-usage ledger.
type Entry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// Agent is the pipeline stage that incurred the cost.
	Agent models.AgentName `json:"agent"`
	// Model is the generation model used.
	Model string `json:"model"`
	// InputTokens is the prompt token count.
	InputTokens int64 `json:"inputTokens"`
	// OutputTokens is the completion token count.
	OutputTokens int64 `json:"outputTokens"`
	// Cost is the realized cost of the call, in MNEE.
	Cost float64 `json:"cost"`
	// Description is free text identifying the operation.
	Description string `json:"description"`
	// Timestamp is when the usage was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// ImageEntry is one append-only line of the image-generation ledger.
type ImageEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// Model is the image model used.
	Model string `json:"model"`
	// Images is the number of images generated.
	Images int `json:"imagesGenerated"`
	// CostPerImage is the per-image rate applied.
	CostPerImage float64 `json:"costPerImage"`
	// TotalCost is Images times CostPerImage.
	TotalCost float64 `json:"totalCost"`
	// Timestamp is when the usage was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Breakdown reports the tracker's spend position.
type Breakdown struct {
	// AICosts is the summed model and image spend.
	AICosts float64 `json:"aiCosts"`
	// PlatformFee is the platform's cut of AICosts.
	PlatformFee float64 `json:"platformFee"`
	// TotalSpent is AICosts plus PlatformFee.
	TotalSpent float64 `json:"totalSpent"`
	// OriginalBudget is the run's budget ceiling.
	OriginalBudget float64 `json:"originalBudget"`
	// RefundAmount is max(0, budget - TotalSpent).
	RefundAmount float64 `json:"refundAmount"`
	// UtilizationRate is TotalSpent over budget as a percentage.
	UtilizationRate float64 `json:"utilizationRate"`
}

// Tracker maintains running spend against a fixed budget for one run.
// It is safe for use from one run's sequential pipeline; concurrent runs
// each own their own Tracker.
type Tracker struct {
	mu sync.RWMutex

	budget  float64
	entries []Entry
	images  []ImageEntry
	pricing map[string]ModelPricing
}

// NewTracker creates a Tracker with the given budget ceiling.
func NewTracker(budget float64) *Tracker {
	return &Tracker{
		budget:  budget,
		pricing: DefaultModelPricing,
	}
}

// EstimateOperationCost projects the cost of a call before making it,
// padded by a 20% buffer for estimation uncertainty. Unknown models get
// a conservative flat fallback.
func (t *Tracker) EstimateOperationCost(model string, estInputTokens, estOutputTokens int64) float64 {
	t.mu.RLock()
	pricing, ok := t.pricing[model]
	t.mu.RUnlock()
	if !ok {
		log.Printf("[cost] no pricing for model %q, using fallback estimate", model)
		return fallbackEstimate
	}

	inputCost := float64(estInputTokens) / 1000 * pricing.InputPer1K
	outputCost := float64(estOutputTokens) / 1000 * pricing.OutputPer1K
	return (inputCost + outputCost) * estimateBuffer
}

// CanAffordOperation reports whether a call with the given estimated
// token counts fits under the 95% budget ceiling. No operation may push
// committed spend past that ceiling.
func (t *Tracker) CanAffordOperation(model string, estInputTokens, estOutputTokens int64) bool {
	estimated := t.EstimateOperationCost(model, estInputTokens, estOutputTokens)
	return t.CanAfford(estimated)
}

// CanAfford reports whether an operation with a known estimated cost
// fits under the 95% budget ceiling.
func (t *Tracker) CanAfford(estimatedCost float64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	projected := t.totalSpentLocked() + estimatedCost
	limit := t.budget * ceilingFraction
	if projected > limit {
		log.Printf("[cost] budget check failed: %.4f + %.4f = %.4f exceeds limit %.4f",
			t.totalSpentLocked(), estimatedCost, projected, limit)
		return false
	}
	return true
}

// TrackModelUsage appends a ledger entry with the realized cost of a
// completed call and returns that cost. Unknown model identifiers are
// rejected with cost 0 rather than silently estimated.
func (t *Tracker) TrackModelUsage(agent models.AgentName, model string, inputTokens, outputTokens int64, description string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	pricing, ok := t.pricing[model]
	if !ok {
		log.Printf("[cost] unknown model %q in usage report from %s, recording nothing", model, agent)
		return 0
	}

	totalCost := float64(inputTokens)/1000*pricing.InputPer1K + float64(outputTokens)/1000*pricing.OutputPer1K

	t.entries = append(t.entries, Entry{
		ID:           "cost-" + uuid.NewString(),
		Agent:        agent,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         totalCost,
		Description:  description,
		Timestamp:    time.Now(),
	})

	return totalCost
}

// TrackImageGeneration appends image-cost entries at the fixed per-image
// rate and returns the total cost.
func (t *Tracker) TrackImageGeneration(model string, imageCount int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	totalCost := float64(imageCount) * CostPerImage

	t.images = append(t.images, ImageEntry{
		ID:           "img-cost-" + uuid.NewString(),
		Model:        model,
		Images:       imageCount,
		CostPerImage: CostPerImage,
		TotalCost:    totalCost,
		Timestamp:    time.Now(),
	})

	return totalCost
}

// totalAICostsLocked sums model and image spend. Caller holds the lock.
func (t *Tracker) totalAICostsLocked() float64 {
	var sum float64
	for _, e := range t.entries {
		sum += e.Cost
	}
	for _, e := range t.images {
		sum += e.TotalCost
	}
	return sum
}

// totalSpentLocked is AI costs plus platform fee. Caller holds the lock.
func (t *Tracker) totalSpentLocked() float64 {
	ai := t.totalAICostsLocked()
	return ai + ai*platformFeeRate
}

// TotalSpent returns committed spend including the platform fee.
func (t *Tracker) TotalSpent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSpentLocked()
}

// RemainingBudget returns the spendable amount after the 5% safety
// buffer, floored at zero.
func (t *Tracker) RemainingBudget() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	remaining := t.budget*ceilingFraction - t.totalSpentLocked()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ShouldTerminateEarly reports whether the remaining budget can no
// longer cover even one minimal task. The orchestrator consults this
// before every further costed unit of work and winds down gracefully
// when it returns true.
func (t *Tracker) ShouldTerminateEarly() bool {
	return t.RemainingBudget() < minViableTaskCost
}

// GetCostBreakdown reports the tracker's current spend position.
// It is a pure read: calling it repeatedly without intervening track
// calls yields identical results.
func (t *Tracker) GetCostBreakdown() Breakdown {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ai := t.totalAICostsLocked()
	fee := ai * platformFeeRate
	spent := ai + fee

	refund := t.budget - spent
	if refund < 0 {
		refund = 0
	}

	var utilization float64
	if t.budget > 0 {
		utilization = spent / t.budget * 100
	}

	return Breakdown{
		AICosts:         ai,
		PlatformFee:     fee,
		TotalSpent:      spent,
		OriginalBudget:  t.budget,
		RefundAmount:    refund,
		UtilizationRate: utilization,
	}
}

// CostsByAgent sums ledger cost per pipeline agent.
func (t *Tracker) CostsByAgent() map[models.AgentName]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byAgent := make(map[models.AgentName]float64)
	for _, e := range t.entries {
		byAgent[e.Agent] += e.Cost
	}
	return byAgent
}

// Entries returns a copy of the model-usage ledger.
func (t *Tracker) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry{}, t.entries...)
}

// ImageEntries returns a copy of the image-generation ledger.
func (t *Tracker) ImageEntries() []ImageEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]ImageEntry{}, t.images...)
}

// Budget returns the fixed budget ceiling.
func (t *Tracker) Budget() float64 {
	return t.budget
}
