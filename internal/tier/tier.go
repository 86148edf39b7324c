// Package tier maps a run budget to its service-quality configuration.
package tier

import (
	"fmt"

	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// Config is the budget-derived configuration bundle for one run.
// It is computed once from the original budget and immutable thereafter.
type Config struct {
	// Tier names the service bucket.
	Tier models.Tier `json:"tier"`
	// MinBudget is the threshold that unlocks this tier, in MNEE.
	MinBudget float64 `json:"minBudget"`
	// MaxTasks caps the number of micro-tasks for the run.
	MaxTasks int `json:"maxTasks"`
	// Model is the generation model for deliverable content.
	Model string `json:"aiModel"`
	// MaxTokensPerTask caps output tokens on each task's generation call.
	MaxTokensPerTask int64 `json:"maxTokensPerTask"`
	// IncludesImages enables image generation for selected tasks.
	IncludesImages bool `json:"includesImages"`
	// MaxImages caps the number of generated images.
	MaxImages int `json:"maxImages"`
	// IncludesVideo enables video generation.
	IncludesVideo bool `json:"includesVideo,omitempty"`
	// MaxVideos caps the number of generated videos.
	MaxVideos int `json:"maxVideos,omitempty"`
	// ContentDepth labels how exhaustive deliverables should be.
	ContentDepth models.ContentDepth `json:"contentDepth"`
	// Priority orders runs by service level, higher first.
	Priority int `json:"priority"`
}

// configs holds the tier table in ascending budget order. Each threshold
// unlocks strictly more task capacity, deeper content, and media.
var configs = []Config{
	{
		Tier:             models.TierBasic,
		MinBudget:        0.25,
		MaxTasks:         3,
		Model:            cost.ModelHaiku,
		MaxTokensPerTask: 4000,
		ContentDepth:     models.DepthBrief,
		Priority:         1,
	},
	{
		Tier:             models.TierStandard,
		MinBudget:        0.5,
		MaxTasks:         5,
		Model:            cost.ModelHaiku,
		MaxTokensPerTask: 6000,
		ContentDepth:     models.DepthStandard,
		Priority:         2,
	},
	{
		Tier:             models.TierPremium,
		MinBudget:        1.0,
		MaxTasks:         8,
		Model:            cost.ModelSonnet,
		MaxTokensPerTask: 8000,
		IncludesImages:   true,
		MaxImages:        3,
		ContentDepth:     models.DepthDetailed,
		Priority:         3,
	},
	{
		Tier:             models.TierEnterprise,
		MinBudget:        2.0,
		MaxTasks:         12,
		Model:            cost.ModelSonnet,
		MaxTokensPerTask: 12000,
		IncludesImages:   true,
		MaxImages:        6,
		IncludesVideo:    true,
		MaxVideos:        1,
		ContentDepth:     models.DepthComprehensive,
		Priority:         4,
	},
}

// DetermineTier maps a budget to its tier configuration. The mapping is
// monotonic: a higher budget never yields a worse tier.
func DetermineTier(budget float64) Config {
	selected := configs[0]
	for _, cfg := range configs[1:] {
		if budget >= cfg.MinBudget {
			selected = cfg
		}
	}
	return selected
}

// demoMaxTokens caps per-task output in demo runs.
const demoMaxTokens = 1000

// Demo returns a copy of cfg with demo-mode overrides applied: the
// cheapest model, no media generation, and an aggressive token cap.
func Demo(cfg Config) Config {
	demo := cfg
	demo.Model = cost.ModelHaiku
	demo.IncludesImages = false
	demo.MaxImages = 0
	demo.IncludesVideo = false
	demo.MaxVideos = 0
	if demo.MaxTokensPerTask > demoMaxTokens {
		demo.MaxTokensPerTask = demoMaxTokens
	}
	return demo
}

// CostMultiplier scales per-token spend expectations by tier.
func CostMultiplier(t models.Tier) float64 {
	switch t {
	case models.TierEnterprise:
		return 1.5
	case models.TierPremium:
		return 1.25
	case models.TierStandard:
		return 1.0
	default:
		return 0.8
	}
}

// imagePriority orders categories by how much a visual adds to the
// deliverable. Earlier categories are selected for images first.
var imagePriority = []models.TaskCategory{
	models.CategoryDesign,
	models.CategoryMarketing,
	models.CategoryStrategy,
	models.CategoryResearch,
	models.CategoryDevelopment,
	models.CategoryFinancialModeling,
	models.CategoryCopywriting,
}

// ImageSelection pairs a task with the prompt for its accompanying image.
type ImageSelection struct {
	// TaskID references the selected task.
	TaskID string
	// Prompt is the image generation prompt.
	Prompt string
	// Category is the task's category.
	Category models.TaskCategory
}

// SelectImageTasks chooses which tasks receive an accompanying image,
// up to the tier's allowance, preferring visually expressive categories.
func SelectImageTasks(tasks []*models.MicroTask, cfg Config) []ImageSelection {
	if !cfg.IncludesImages || cfg.MaxImages == 0 {
		return nil
	}

	rank := func(c models.TaskCategory) int {
		for i, cat := range imagePriority {
			if c == cat {
				return i
			}
		}
		return len(imagePriority)
	}

	sorted := append([]*models.MicroTask{}, tasks...)
	// Stable selection sort keeps task order within equal categories.
	for i := 0; i < len(sorted); i++ {
		best := i
		for j := i + 1; j < len(sorted); j++ {
			if rank(sorted[j].Category) < rank(sorted[best].Category) {
				best = j
			}
		}
		sorted[i], sorted[best] = sorted[best], sorted[i]
	}

	limit := cfg.MaxImages
	if limit > len(sorted) {
		limit = len(sorted)
	}

	selections := make([]ImageSelection, 0, limit)
	for _, task := range sorted[:limit] {
		selections = append(selections, ImageSelection{
			TaskID:   task.ID,
			Prompt:   ImagePromptFor(task.Category, task.Description),
			Category: task.Category,
		})
	}
	return selections
}

// ImagePromptFor builds a category-appropriate image prompt for a task.
func ImagePromptFor(category models.TaskCategory, description string) string {
	// Rune-boundary cut: descriptions come from client briefs and may
	// hold multi-byte text.
	if runes := []rune(description); len(runes) > 100 {
		description = string(runes[:100])
	}

	switch category {
	case models.CategoryDesign:
		return fmt.Sprintf("A modern UI/UX design mockup or interface wireframe related to: %s", description)
	case models.CategoryMarketing:
		return fmt.Sprintf("A professional marketing infographic or campaign visual for: %s", description)
	case models.CategoryStrategy:
		return fmt.Sprintf("A business strategy diagram or roadmap visualization for: %s", description)
	case models.CategoryResearch:
		return fmt.Sprintf("A data visualization or research findings chart about: %s", description)
	case models.CategoryDevelopment:
		return fmt.Sprintf("A technical architecture diagram or system flowchart for: %s", description)
	case models.CategoryFinancialModeling:
		return fmt.Sprintf("A financial chart, graph, or projection visualization for: %s", description)
	case models.CategoryCopywriting:
		return fmt.Sprintf("A brand mood board or typography showcase for: %s", description)
	default:
		return fmt.Sprintf("A professional business illustration for: %s", description)
	}
}
