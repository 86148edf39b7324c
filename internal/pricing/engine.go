// Package pricing computes per-task rewards and agent coordination fees
// from a run budget, with proportional rescaling so the summed rewards
// never breach the budget invariant.
package pricing

import (
	"math"
	"math/rand"
	"time"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const (
	// taskBudgetFraction is the share of budget available as base rewards.
	taskBudgetFraction = 0.9
	// rescaleCeiling is the share of budget total rewards may not exceed.
	rescaleCeiling = 0.8
	// maxDetailBonus caps the description-length bonus at +30%.
	maxDetailBonus = 0.3
	// detailBonusDivisor converts description length to a bonus fraction.
	detailBonusDivisor = 500
	// varianceSpread bounds random market-noise variance at ±15%.
	varianceSpread = 0.15
)

// categoryMultipliers price task complexity by category. Analytical
// categories pay more than volume writing.
var categoryMultipliers = map[models.TaskCategory]float64{
	models.CategoryFinancialModeling: 1.4,
	models.CategoryStrategy:          1.3,
	models.CategoryDevelopment:       1.3,
	models.CategoryResearch:          1.1,
	models.CategoryDesign:            1.0,
	models.CategoryMarketing:         0.95,
	models.CategoryCopywriting:       0.9,
}

// Rand is the randomness source for pricing variance. *math/rand.Rand
// satisfies it; tests inject a seeded source for reproducibility.
type Rand interface {
	Float64() float64
}

// Engine prices tasks for one marketplace run.
type Engine struct {
	rand Rand
}

// NewEngine creates an Engine using the given randomness source.
// A nil source falls back to a time-seeded one.
func NewEngine(r Rand) *Engine {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rand: r}
}

// TaskReward computes the reward for one task: an even budget split
// scaled by category complexity, a detail bonus derived from the
// description length, and bounded market-noise variance.
func (e *Engine) TaskReward(description string, category models.TaskCategory, totalBudget float64, taskCount int) float64 {
	if taskCount < 1 {
		taskCount = 1
	}
	base := totalBudget * taskBudgetFraction / float64(taskCount)

	multiplier, ok := categoryMultipliers[category]
	if !ok {
		multiplier = 1.0
	}

	detailBonus := float64(len(description)) / detailBonusDivisor
	if detailBonus > maxDetailBonus {
		detailBonus = maxDetailBonus
	}

	variance := 1 - varianceSpread + e.rand.Float64()*2*varianceSpread

	reward := base * multiplier * (1 + detailBonus) * variance
	return round4(reward)
}

// RescaleRewards enforces the budget invariant: when summed rewards
// exceed 80% of budget, every reward is scaled down proportionally so
// the sum fits that ceiling. This is the authoritative enforcement
// point; model-proposed figures never survive it.
func RescaleRewards(tasks []*models.MicroTask, budget float64) {
	var total float64
	for _, t := range tasks {
		total += t.Reward
	}

	ceiling := budget * rescaleCeiling
	if total <= ceiling || total == 0 {
		return
	}

	scale := ceiling / total
	for _, t := range tasks {
		// Floor so rounding can never push the sum back over the ceiling.
		t.Reward = math.Floor(t.Reward*scale*10000) / 10000
	}
}

// SumRewards totals the rewards of a task set.
func SumRewards(tasks []*models.MicroTask) float64 {
	var total float64
	for _, t := range tasks {
		total += t.Reward
	}
	return total
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
