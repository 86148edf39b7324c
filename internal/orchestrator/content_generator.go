package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/simulator"
	"github.com/ShayCichocki/tenderswarm/internal/tier"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// categoryPrompts maps task category and content depth to the
// generation instruction for that deliverable.
var categoryPrompts = map[models.TaskCategory]map[models.ContentDepth]string{
	models.CategoryResearch: {
		models.DepthBrief:         "Create a concise research summary (200-300 words) with key findings and recommendations.",
		models.DepthStandard:      "Create a detailed research report (400-600 words) with executive summary, key findings, data analysis, and recommendations.",
		models.DepthDetailed:      "Create a comprehensive research report (800-1200 words) with executive summary, methodology, in-depth findings, data analysis, competitive insights, sources, and actionable recommendations.",
		models.DepthComprehensive: "Create an exhaustive research document (1500-2500 words) covering executive summary, detailed methodology, comprehensive findings with data visualization suggestions, market analysis, competitive landscape, risk assessment, multiple data sources, and strategic recommendations with implementation roadmap.",
	},
	models.CategoryDesign: {
		models.DepthBrief:         "Create a basic design brief (200-300 words) with visual guidelines and key components.",
		models.DepthStandard:      "Create a design specification (400-600 words) with user personas, visual guidelines, and component specifications.",
		models.DepthDetailed:      "Create a detailed design document (800-1200 words) with user personas, user journey maps, visual design system, component library specs, interaction patterns, and accessibility guidelines.",
		models.DepthComprehensive: "Create an exhaustive design specification (1500-2500 words) covering user research synthesis, multiple personas, complete user journey mapping, full design system with tokens, comprehensive component library, micro-interactions, responsive breakpoints, accessibility compliance (WCAG), and design handoff documentation.",
	},
	models.CategoryCopywriting: {
		models.DepthBrief:         "Create essential marketing copy (200-300 words) with headlines and key messages.",
		models.DepthStandard:      "Create marketing copy package (400-600 words) with headlines, taglines, body copy, and CTAs.",
		models.DepthDetailed:      "Create comprehensive copy deck (800-1200 words) with multiple headline variations, taglines, long-form body copy, email sequences, social media copy, and tone guidelines.",
		models.DepthComprehensive: "Create a complete content strategy document (1500-2500 words) with brand voice guidelines, messaging hierarchy, multiple headline/tagline variations, full website copy, email marketing sequences, social media content calendar, ad copy variations, SEO keywords, and content performance metrics.",
	},
	models.CategoryFinancialModeling: {
		models.DepthBrief:         "Create a financial summary (200-300 words) with key metrics and projections.",
		models.DepthStandard:      "Create a financial analysis (400-600 words) with revenue projections, cost analysis, and key metrics.",
		models.DepthDetailed:      "Create a detailed financial model document (800-1200 words) with P&L projections, cash flow analysis, unit economics, sensitivity analysis, and investment recommendations.",
		models.DepthComprehensive: "Create an exhaustive financial analysis (1500-2500 words) covering detailed P&L with 3-5 year projections, cash flow modeling, balance sheet impacts, unit economics deep-dive, multiple scenario analysis, sensitivity modeling, DCF valuation, comparable company analysis, and strategic financial recommendations.",
	},
	models.CategoryStrategy: {
		models.DepthBrief:         "Create a strategic overview (200-300 words) with objectives and key actions.",
		models.DepthStandard:      "Create a strategic plan (400-600 words) with market analysis, objectives, action items, and KPIs.",
		models.DepthDetailed:      "Create a detailed strategy document (800-1200 words) with market analysis, competitive positioning, strategic objectives, implementation roadmap, resource requirements, and success metrics.",
		models.DepthComprehensive: "Create a comprehensive strategic plan (1500-2500 words) covering industry analysis, detailed competitive landscape, SWOT analysis, strategic options evaluation, recommended strategy with rationale, phased implementation roadmap, resource allocation, risk mitigation, governance framework, and KPI dashboard design.",
	},
	models.CategoryDevelopment: {
		models.DepthBrief:         "Create a technical overview (200-300 words) with architecture summary and key components.",
		models.DepthStandard:      "Create a technical specification (400-600 words) with architecture design, API specs, and implementation notes.",
		models.DepthDetailed:      "Create a detailed technical document (800-1200 words) with system architecture, data models, API specifications, security considerations, and deployment strategy.",
		models.DepthComprehensive: "Create an exhaustive technical specification (1500-2500 words) covering system architecture with diagrams, microservices design, complete API documentation, database schema, security architecture, CI/CD pipeline, monitoring/observability strategy, scalability considerations, disaster recovery, and technical debt management.",
	},
	models.CategoryMarketing: {
		models.DepthBrief:         "Create a marketing overview (200-300 words) with campaign concept and target audience.",
		models.DepthStandard:      "Create a marketing plan (400-600 words) with target audience, channel strategy, and content calendar.",
		models.DepthDetailed:      "Create a detailed marketing strategy (800-1200 words) with audience segmentation, multi-channel strategy, content calendar, budget allocation, and success metrics.",
		models.DepthComprehensive: "Create a comprehensive marketing playbook (1500-2500 words) covering market segmentation, detailed buyer personas, full-funnel marketing strategy, channel-specific tactics, content marketing framework, paid media strategy, marketing automation workflows, A/B testing plan, attribution modeling, and ROI projections.",
	},
}

// demoContentMaxTokens caps per-deliverable output in demo runs.
const demoContentMaxTokens = 800

// ContentGenerator produces deliverables for accepted tenders.
type ContentGenerator struct {
	thinker   *agent.Thinker
	generator gen.Generator
	images    gen.ImageGenerator
	registry  *simulator.Registry
	tracker   *cost.Tracker
	cfg       agent.RunConfig
	logger    *DebugLogger
}

// NewContentGenerator creates the generation stage. images may be nil
// to disable image deliverables regardless of tier.
func NewContentGenerator(thinker *agent.Thinker, generator gen.Generator, images gen.ImageGenerator, registry *simulator.Registry, tracker *cost.Tracker, cfg agent.RunConfig, logger *DebugLogger) *ContentGenerator {
	return &ContentGenerator{
		thinker:   thinker,
		generator: generator,
		images:    images,
		registry:  registry,
		tracker:   tracker,
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate consumes posted tenders from the queue and produces one
// deliverable per task. A single task's failure marks that task failed
// and continues; budget exhaustion stops further generation and
// returns the deliverables produced so far.
func (g *ContentGenerator) Generate(ctx context.Context, queue *simulator.TenderQueue, tasks []*models.MicroTask, brief models.ClientBrief, emit func(models.AgentMessage), onTaskUpdate func(models.MicroTask)) ([]*models.GeneratedDeliverable, error) {
	emit(g.thinker.NewMessage(
		fmt.Sprintf("Provider network engaged: generating %d deliverables at %s depth", len(tasks), g.cfg.Tier.ContentDepth),
		models.MessageAction, nil))

	byID := make(map[string]*models.MicroTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	imageTargets := make(map[string]tier.ImageSelection)
	if g.images != nil && !g.cfg.DemoMode {
		for _, sel := range tier.SelectImageTasks(tasks, g.cfg.Tier) {
			imageTargets[sel.TaskID] = sel
		}
	}

	var deliverables []*models.GeneratedDeliverable
	for range tasks {
		if g.tracker.ShouldTerminateEarly() {
			emit(g.thinker.NewMessage(
				fmt.Sprintf("Budget nearly exhausted (%.4f MNEE remaining): stopping generation early", g.tracker.RemainingBudget()),
				models.MessageWarning, nil))
			break
		}

		tender, err := queue.Receive(ctx)
		if err != nil {
			if err == simulator.ErrQueueClosed {
				break
			}
			return deliverables, fmt.Errorf("receive tender: %w", err)
		}

		task, ok := byID[tender.Task.ID]
		if !ok {
			g.logger.Log("[content-generator] unknown task %s on tender %d, skipping", tender.Task.ID, tender.ID)
			continue
		}

		task.Status = models.TaskStatusInProgress
		onTaskUpdate(*task)

		_, wantsImage := imageTargets[task.ID]
		deliverable, err := g.generateOne(ctx, task, brief, wantsImage)
		if err != nil {
			task.Status = models.TaskStatusFailed
			onTaskUpdate(*task)
			emit(g.thinker.NewMessage(
				fmt.Sprintf("Provider failed on %q: %v", truncate(task.Description, 60), err),
				models.MessageWarning, nil))
			if err == context.Canceled || ctx.Err() != nil {
				return deliverables, ctx.Err()
			}
			continue
		}

		task.Status = models.TaskStatusCompleted
		task.Provider = deliverable.ProviderName
		task.DeliverableURI = "deliverable://" + task.ID
		onTaskUpdate(*task)

		deliverables = append(deliverables, deliverable)
		g.thinker.AddProcessed(1)

		emit(g.thinker.NewMessage(
			fmt.Sprintf("%s delivered %q (%d tokens)", deliverable.ProviderName, truncate(task.Description, 60), deliverable.TokensUsed),
			models.MessageSuccess,
			map[string]any{"taskId": task.ID, "provider": deliverable.ProviderName}))
	}

	emit(g.thinker.NewMessage(
		fmt.Sprintf("Generation complete: %d/%d deliverables produced", len(deliverables), len(tasks)),
		models.MessageInfo, nil))

	return deliverables, nil
}

func (g *ContentGenerator) generateOne(ctx context.Context, task *models.MicroTask, brief models.ClientBrief, wantsImage bool) (*models.GeneratedDeliverable, error) {
	provider := g.registry.Assign(task.Category, g.cfg.Tier.Tier, task.RequiredCapabilities)

	depth := g.cfg.Tier.ContentDepth
	depthPrompts, ok := categoryPrompts[task.Category]
	if !ok {
		depthPrompts = categoryPrompts[models.CategoryResearch]
	}
	instruction, ok := depthPrompts[depth]
	if !ok {
		instruction = depthPrompts[models.DepthStandard]
	}

	maxTokens := g.cfg.Tier.MaxTokensPerTask
	if g.cfg.DemoMode && maxTokens > demoContentMaxTokens {
		maxTokens = demoContentMaxTokens
	}

	estIn := gen.EstimateTokens(brief.Text + task.Description + instruction)
	if !g.tracker.CanAffordOperation(g.cfg.Tier.Model, estIn, maxTokens) {
		return nil, fmt.Errorf("deliverable for task %s: %w", task.ID, agent.ErrInsufficientBudget)
	}

	prompt := fmt.Sprintf(`Create a deliverable for this task:

ORIGINAL CLIENT BRIEF: %q

SPECIFIC TASK: %q

CATEGORY: %s
DEPTH LEVEL: %s

%s

Create a professional, detailed markdown document that fully addresses this task.
Use proper markdown formatting with headers, bullet points, tables where appropriate.
Make it specific and actionable, not generic.`, brief.Text, task.Description, task.Category, depth, instruction)

	result, err := g.generator.GenerateText(ctx, gen.TextRequest{
		Model:           g.cfg.Tier.Model,
		SystemPrompt:    fmt.Sprintf("You are an expert %s specialist. Create high-quality, professional deliverables.", task.Category),
		Prompt:          prompt,
		MaxOutputTokens: maxTokens,
		Temperature:     0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generate deliverable: %w", err)
	}

	g.tracker.TrackModelUsage(models.AgentContentGenerator, g.cfg.Tier.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens,
		fmt.Sprintf("deliverable for task %s (%s)", task.ID, task.Category))

	deliverable := &models.GeneratedDeliverable{
		TaskID:          task.ID,
		TaskDescription: task.Description,
		Category:        task.Category,
		Provider:        provider.Address,
		ProviderName:    provider.Name,
		Content:         result.Text,
		TokensUsed:      result.Usage.TotalTokens,
		Timestamp:       time.Now(),
	}

	if wantsImage {
		img, err := g.generateImage(ctx, task)
		if err != nil {
			g.logger.Log("[content-generator] image for task %s failed: %v", task.ID, err)
		} else {
			deliverable.Image = img
		}
	}

	return deliverable, nil
}

func (g *ContentGenerator) generateImage(ctx context.Context, task *models.MicroTask) (*models.GeneratedImage, error) {
	prompt := tier.ImagePromptFor(task.Category, task.Description)

	if !g.tracker.CanAfford(cost.CostPerImage) {
		return nil, agent.ErrInsufficientBudget
	}

	result, err := g.images.GenerateImage(ctx, gen.ImageRequest{
		Model:  cost.ModelImage,
		Prompt: prompt,
	})
	if err != nil {
		return nil, err
	}

	g.tracker.TrackImageGeneration(cost.ModelImage, 1)

	return &models.GeneratedImage{
		ID:         "img-" + uuid.NewString(),
		Prompt:     prompt,
		Base64Data: result.Base64Data,
		MimeType:   result.MimeType,
		Category:   task.Category,
		TaskID:     task.ID,
		Timestamp:  time.Now(),
	}, nil
}

// truncate shortens s to at most n runes. Briefs and task
// descriptions are client-supplied, so cutting on a byte index could
// split a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
