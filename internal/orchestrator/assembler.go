package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const assemblerPrompt = `You are the Assembler agent in TenderSwarm.
Your role is to compile all accepted deliverables into a cohesive final output.
You organize deliverables by category and ensure professional presentation.`

const (
	// assemblyMinTokens is the floor for final-document output.
	assemblyMinTokens = 16000
	// assemblyPerTaskFactor scales the per-task limit for assembly.
	assemblyPerTaskFactor = 4
	// demoAssemblyMaxTokens caps final-document output in demo runs.
	demoAssemblyMaxTokens = 4000
)

// assemblyStructure is the structured outline for the final package.
type assemblyStructure struct {
	Sections []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"sections"`
	ExecutiveSummaryPoints []string `json:"executiveSummaryPoints"`
}

var assemblyStructureSchema = map[string]any{
	"sections": map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"title", "description"},
		},
	},
	"executiveSummaryPoints": map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	},
}

// Assembler compiles accepted deliverables into the final document.
type Assembler struct {
	thinker   *agent.Thinker
	generator gen.Generator
	tracker   *cost.Tracker
	cfg       agent.RunConfig
	logger    *DebugLogger
}

// NewAssembler creates the assembly stage.
func NewAssembler(thinker *agent.Thinker, generator gen.Generator, tracker *cost.Tracker, cfg agent.RunConfig, logger *DebugLogger) *Assembler {
	return &Assembler{thinker: thinker, generator: generator, tracker: tracker, cfg: cfg, logger: logger}
}

// Assemble derives a document structure from the accepted deliverables
// and synthesizes the final package. Structure derivation failure
// falls back to a single section; synthesis failure falls back to
// concatenating deliverable content so the client always gets a
// document.
func (a *Assembler) Assemble(ctx context.Context, deliverables []*models.GeneratedDeliverable, brief models.ClientBrief, emit func(models.AgentMessage)) (string, error) {
	a.thinker.AddProcessed(len(deliverables))

	emit(a.thinker.NewMessage(
		fmt.Sprintf("Assembling %d deliverables into final package...", len(deliverables)),
		models.MessageAction, nil))

	if len(deliverables) == 0 {
		return "# Project Summary\n\nNo deliverables were generated for this project.", nil
	}

	byCategory := make(map[models.TaskCategory][]*models.GeneratedDeliverable)
	var order []models.TaskCategory
	for _, d := range deliverables {
		if _, seen := byCategory[d.Category]; !seen {
			order = append(order, d.Category)
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}

	var parts []string
	for _, cat := range order {
		parts = append(parts, fmt.Sprintf("%s (%d)", cat, len(byCategory[cat])))
	}
	emit(a.thinker.NewMessage("Organizing: "+strings.Join(parts, ", "), models.MessageInfo, nil))

	structure := a.deriveStructure(ctx, brief, order, len(deliverables))
	emit(a.thinker.NewMessage(
		fmt.Sprintf("Structure defined: %d sections. Package ready for delivery.", len(structure.Sections)),
		models.MessageSuccess, nil))

	doc, err := a.synthesize(ctx, brief, order, byCategory)
	if err != nil {
		a.logger.Log("[assembler] synthesis failed, falling back to concatenation: %v", err)
		doc = concatenateDeliverables(brief, order, byCategory)
	}

	return doc, nil
}

func (a *Assembler) deriveStructure(ctx context.Context, brief models.ClientBrief, categories []models.TaskCategory, taskCount int) assemblyStructure {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}

	prompt := fmt.Sprintf(`Analyze these deliverable categories for the brief: %q

Categories: %s
Task count: %d

Create a logical structure for the final package.`, brief.Text, strings.Join(names, ", "), taskCount)

	var structure assemblyStructure
	err := a.thinker.ThinkStructured(ctx, prompt, "AssemblyStructure", assemblyStructureSchema,
		[]string{"sections", "executiveSummaryPoints"}, &structure)
	if err != nil || len(structure.Sections) == 0 {
		if err != nil {
			a.logger.Log("[assembler] structure derivation failed, using fallback: %v", err)
		}
		structure = assemblyStructure{}
		structure.Sections = append(structure.Sections, struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}{Title: "Deliverables", Description: "All completed work"})
		structure.ExecutiveSummaryPoints = []string{"Project completed successfully"}
	}
	return structure
}

func (a *Assembler) synthesize(ctx context.Context, brief models.ClientBrief, order []models.TaskCategory, byCategory map[models.TaskCategory][]*models.GeneratedDeliverable) (string, error) {
	maxTokens := a.cfg.Tier.MaxTokensPerTask * assemblyPerTaskFactor
	if maxTokens < assemblyMinTokens {
		maxTokens = assemblyMinTokens
	}
	if a.cfg.DemoMode {
		maxTokens = demoAssemblyMaxTokens
	}

	var b strings.Builder
	for _, cat := range order {
		fmt.Fprintf(&b, "\n## %s\n", strings.ToUpper(string(cat)))
		for _, d := range byCategory[cat] {
			fmt.Fprintf(&b, "\n### %s\n%s\n", d.TaskDescription, d.Content)
		}
	}

	imageNote := ""
	if a.cfg.Tier.IncludesImages {
		imageNote = "\n6. Note where images have been generated to accompany sections"
	}

	prompt := fmt.Sprintf(`You are compiling a final project deliverable package.

ORIGINAL BRIEF: %q

DELIVERABLES BY CATEGORY:
%s

Create a polished, executive-ready final document that:
1. Starts with an Executive Summary synthesizing all deliverables
2. Organizes the content logically by category
3. Adds transitions between sections
4. Ends with Next Steps and Recommendations
5. Uses professional markdown formatting throughout%s

IMPORTANT: Include ALL content from the deliverables above. Do not truncate or summarize - expand and integrate fully.

Output the complete assembled document.`, brief.Text, b.String(), imageNote)

	estIn := gen.EstimateTokens(prompt)
	if !a.tracker.CanAffordOperation(a.cfg.Tier.Model, estIn, maxTokens) {
		return "", fmt.Errorf("final document synthesis: %w", agent.ErrInsufficientBudget)
	}

	result, err := a.generator.GenerateText(ctx, gen.TextRequest{
		Model:           a.cfg.Tier.Model,
		SystemPrompt:    "You are an expert document editor and project manager. Create cohesive, professional deliverable packages. Always include ALL provided content - never truncate.",
		Prompt:          prompt,
		MaxOutputTokens: maxTokens,
		Temperature:     0.5,
	})
	if err != nil {
		return "", fmt.Errorf("final document synthesis: %w", err)
	}

	a.tracker.TrackModelUsage(models.AgentAssembler, a.cfg.Tier.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, "final document synthesis")

	return result.Text, nil
}

// concatenateDeliverables produces the final document without a model
// call when synthesis fails or cannot be afforded.
func concatenateDeliverables(brief models.ClientBrief, order []models.TaskCategory, byCategory map[models.TaskCategory][]*models.GeneratedDeliverable) string {
	var b strings.Builder
	b.WriteString("# Final Project Package\n\n")
	fmt.Fprintf(&b, "**Brief:** %s\n", brief.Text)

	for _, cat := range order {
		fmt.Fprintf(&b, "\n## %s\n", strings.ToUpper(string(cat)))
		for _, d := range byCategory[cat] {
			fmt.Fprintf(&b, "\n### %s\n\n*Delivered by %s*\n\n%s\n", d.TaskDescription, d.ProviderName, d.Content)
		}
	}

	return b.String()
}
