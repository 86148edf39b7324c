package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/pricing"
	"github.com/ShayCichocki/tenderswarm/internal/simulator"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const projectManagerPrompt = `You are the Project Manager agent in TenderSwarm.
Your role is to break down client briefs into atomic micro-tasks.

CRITICAL BUDGET RULES:
- The total of ALL task rewards MUST NOT exceed the provided budget
- Divide the budget evenly across tasks
- NEVER create tasks with rewards that sum to more than the budget

Each task MUST:
- Be highly specific and independently executable
- Have a clear, measurable deliverable
- Include an appropriate MNEE reward (budget divided by number of tasks)
- Fit into one of these categories: research, design, copywriting,
  financial-modeling, strategy, development, marketing

Balance the budget EXACTLY across all tasks.`

// Decomposer breaks a client brief into priced micro-tasks.
type Decomposer struct {
	thinker *agent.Thinker
	pricer  *pricing.Engine
	logger  *DebugLogger
}

// NewDecomposer creates the project-manager stage.
func NewDecomposer(thinker *agent.Thinker, pricer *pricing.Engine, logger *DebugLogger) *Decomposer {
	return &Decomposer{thinker: thinker, pricer: pricer, logger: logger}
}

// taskBreakdown is the structured decomposition result.
type taskBreakdown struct {
	Tasks []taskDraft `json:"tasks"`
}

type taskDraft struct {
	Description   string  `json:"description"`
	Reward        float64 `json:"reward"`
	Category      string  `json:"category"`
	EstimatedTime int     `json:"estimatedTime"`
}

var taskBreakdownSchema = map[string]any{
	"tasks": map[string]any{
		"type":     "array",
		"minItems": 3,
		"maxItems": 10,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "A specific, actionable task description",
				},
				"reward": map[string]any{
					"type":        "number",
					"minimum":     0.1,
					"maximum":     2,
					"description": "MNEE reward for this task (0.1-2)",
				},
				"category": map[string]any{
					"type": "string",
					"enum": []string{"research", "design", "copywriting", "financial-modeling", "strategy", "development", "marketing"},
				},
				"estimatedTime": map[string]any{
					"type":        "integer",
					"description": "Estimated time in seconds (60-600)",
				},
			},
			"required": []string{"description", "reward", "category", "estimatedTime"},
		},
	},
}

// Decompose turns the brief into 3-10 micro-tasks with dynamic
// rewards, capped so their sum never exceeds 80% of the budget.
// Falls back to template tasks when structured generation fails.
func (d *Decomposer) Decompose(ctx context.Context, brief models.ClientBrief, maxTasks int, emit func(models.AgentMessage)) ([]*models.MicroTask, error) {
	emit(d.thinker.NewMessage(fmt.Sprintf("Analyzing brief: %q...", truncate(brief.Text, 80)), models.MessageThinking, nil))

	taskCount := int(brief.Budget)
	if taskCount < 3 {
		taskCount = 3
	}
	if maxTasks <= 0 {
		maxTasks = 10
	}
	if taskCount > maxTasks {
		taskCount = maxTasks
	}

	var breakdown taskBreakdown
	prompt := fmt.Sprintf(`Break down this client brief into exactly %d micro-tasks:

%q

BUDGET: %.2f MNEE total
NUMBER OF TASKS: %d

Create diverse tasks across research, design, copywriting, strategy, and marketing.
Make each task specific enough that a freelancer could complete it independently.
Assign rewards based on task complexity (0.1 to 2 MNEE each).`, taskCount, brief.Text, brief.Budget, taskCount)

	err := d.thinker.ThinkStructured(ctx, prompt, "TaskBreakdown", taskBreakdownSchema, []string{"tasks"}, &breakdown)
	if err != nil || len(breakdown.Tasks) == 0 {
		if err != nil {
			d.logger.Log("[decomposer] structured breakdown failed, using templates: %v", err)
		} else {
			d.logger.Log("[decomposer] structured breakdown returned no tasks, using templates")
		}
		breakdown = fallbackBreakdown(brief, taskCount)
	}

	tasks := make([]*models.MicroTask, 0, len(breakdown.Tasks))
	for i, draft := range breakdown.Tasks {
		category := models.TaskCategory(draft.Category)
		if !category.Valid() {
			category = models.CategoryResearch
		}
		desc := draft.Description
		if desc == "" {
			desc = fmt.Sprintf("Task %d", i+1)
		}
		estTime := draft.EstimatedTime
		if estTime <= 0 {
			estTime = 120
		}

		tasks = append(tasks, &models.MicroTask{
			ID:                   fmt.Sprintf("task-%d-%d", time.Now().UnixMilli(), i),
			Description:          desc,
			Category:             category,
			Reward:               d.pricer.TaskReward(desc, category, brief.Budget, len(breakdown.Tasks)),
			EstimatedTime:        estTime,
			Status:               models.TaskStatusPending,
			RequiredCapabilities: simulator.InferCapabilities(category, desc),
			CreatedAt:            time.Now(),
		})
	}

	pricing.RescaleRewards(tasks, brief.Budget)
	d.thinker.AddProcessed(len(tasks))

	total := pricing.SumRewards(tasks)
	categories := uniqueCategories(tasks)
	emit(d.thinker.NewMessage(
		fmt.Sprintf("Created %d tasks totaling %.2f MNEE. Categories: %s", len(tasks), total, strings.Join(categories, ", ")),
		models.MessageSuccess,
		map[string]any{"taskCount": len(tasks), "categories": categories},
	))

	return tasks, nil
}

// fallbackBreakdown produces template tasks spanning every category
// when the model cannot provide a structured breakdown.
func fallbackBreakdown(brief models.ClientBrief, taskCount int) taskBreakdown {
	briefHead := truncate(brief.Text, 50)

	templates := []taskDraft{
		{Description: "Conduct market research and competitive analysis for: " + briefHead, Category: "research", EstimatedTime: 180},
		{Description: "Create visual design concepts and mockups", Category: "design", EstimatedTime: 240},
		{Description: "Write compelling copy and messaging framework", Category: "copywriting", EstimatedTime: 150},
		{Description: "Develop strategic roadmap and milestones", Category: "strategy", EstimatedTime: 200},
		{Description: "Plan marketing channels and campaign strategy", Category: "marketing", EstimatedTime: 160},
		{Description: "Outline technical architecture and requirements", Category: "development", EstimatedTime: 220},
		{Description: "Build financial projections and pricing model", Category: "financial-modeling", EstimatedTime: 180},
		{Description: "Analyze target audience and user personas", Category: "research", EstimatedTime: 140},
		{Description: "Create brand guidelines and identity system", Category: "design", EstimatedTime: 200},
		{Description: "Draft executive summary and pitch deck outline", Category: "copywriting", EstimatedTime: 160},
	}

	if taskCount > len(templates) {
		taskCount = len(templates)
	}
	return taskBreakdown{Tasks: templates[:taskCount]}
}

func uniqueCategories(tasks []*models.MicroTask) []string {
	seen := make(map[models.TaskCategory]bool)
	var out []string
	for _, t := range tasks {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, string(t.Category))
		}
	}
	return out
}
