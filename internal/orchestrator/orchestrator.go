package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/internal/escrow"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/pricing"
	"github.com/ShayCichocki/tenderswarm/internal/simulator"
	"github.com/ShayCichocki/tenderswarm/internal/tier"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const coordinatorPrompt = `You are the Coordinator of TenderSwarm, an autonomous AI agency.
You oversee all agents and ensure smooth execution of client projects.
You communicate status updates clearly and professionally.
You never make up information - only report what has actually happened.`

// Options configures an Orchestrator.
type Options struct {
	// Generator is the text/object generation backend.
	Generator gen.Generator
	// Images is the image backend. Nil disables images.
	Images gen.ImageGenerator
	// Escrow settles provider payments. Nil forces simulated refs.
	Escrow escrow.Client
	// Registry supplies provider identities. Nil uses the default.
	Registry *simulator.Registry
	// Pricer prices task rewards. Nil uses a time-seeded engine.
	Pricer *pricing.Engine
	// Logger receives debug lines. Nil disables debug logging.
	Logger *DebugLogger
	// BatchDelay paces tender batches. Zero disables pacing.
	BatchDelay time.Duration
	// EvalDelay paces evaluation. Zero disables pacing.
	EvalDelay time.Duration
	// EventBuffer sizes the emitter channel. Zero uses the default.
	EventBuffer int
}

// Orchestrator runs the swarm pipeline for client briefs. One
// Orchestrator serves one run at a time; the server creates one per
// request so runs proceed concurrently without shared state.
type Orchestrator struct {
	opts    Options
	emitter *EventEmitter
	logger  *DebugLogger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = simulator.NewRegistry(nil)
	}
	if opts.Pricer == nil {
		opts.Pricer = pricing.NewEngine(nil)
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}
	bufferSize := opts.EventBuffer
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Orchestrator{
		opts:    opts,
		emitter: NewEventEmitter(bufferSize),
		logger:  opts.Logger,
	}
}

// Events exposes the run's event stream.
func (o *Orchestrator) Events() <-chan SwarmEvent {
	return o.emitter.Events()
}

// run carries the per-run mutable state. A fresh run is built for
// every Execute call so nothing leaks between runs.
type run struct {
	brief           models.ClientBrief
	contractAddress string
	payerAddress    string
	cfg             agent.RunConfig
	tracker         *cost.Tracker
	startTime       time.Time

	tasks        []*models.MicroTask
	deliverables []*models.GeneratedDeliverable

	coordinator *agent.Thinker
	decomposer  *Decomposer
	poster      *TenderPoster
	generator   *ContentGenerator
	evaluator   *Evaluator
	assembler   *Assembler
}

// Execute runs the full pipeline for one brief and returns its
// summary. Exactly one terminal event (complete or error) is emitted,
// including on cancellation, and the event channel is closed after it.
func (o *Orchestrator) Execute(ctx context.Context, brief models.ClientBrief, contractAddress, payerAddress string, demoMode bool) (summary *models.SwarmSummary, err error) {
	defer o.emitter.Close()

	r := o.newRun(brief, contractAddress, payerAddress, demoMode)

	summary, err = o.execute(ctx, r)
	if err != nil {
		o.logger.Log("[orchestrator] run failed: %v", err)
		o.emitStatus(models.PhaseError, 100, r)
		o.emitter.Emit(ErrorEvent(err))
		return nil, err
	}

	return summary, nil
}

func (o *Orchestrator) newRun(brief models.ClientBrief, contractAddress, payerAddress string, demoMode bool) *run {
	tierConfig := tier.DetermineTier(brief.Budget)
	if demoMode {
		tierConfig = tier.Demo(tierConfig)
	}

	tracker := cost.NewTracker(brief.Budget)
	cfg := agent.RunConfig{
		RunID:      "run-" + uuid.NewString(),
		DemoMode:   demoMode,
		Tier:       tierConfig,
		BatchDelay: o.opts.BatchDelay,
		EvalDelay:  o.opts.EvalDelay,
	}

	thinker := func(name models.AgentName, system string) *agent.Thinker {
		return agent.NewThinker(name, system, tierConfig.Model, o.opts.Generator, tracker, demoMode)
	}

	r := &run{
		brief:           brief,
		contractAddress: contractAddress,
		payerAddress:    payerAddress,
		cfg:             cfg,
		tracker:         tracker,
		startTime:       time.Now(),
		coordinator:     thinker(models.AgentCoordinator, coordinatorPrompt),
	}

	r.decomposer = NewDecomposer(thinker(models.AgentProjectManager, projectManagerPrompt), o.opts.Pricer, o.logger)
	r.poster = NewTenderPoster(thinker(models.AgentTenderPoster, tenderPosterPrompt), o.opts.BatchDelay, o.logger)
	r.generator = NewContentGenerator(thinker(models.AgentContentGenerator, ""), o.opts.Generator, o.opts.Images, o.opts.Registry, tracker, cfg, o.logger)
	r.evaluator = NewEvaluator(thinker(models.AgentEvaluator, evaluatorPrompt), o.opts.Escrow, cfg, o.logger)
	r.assembler = NewAssembler(thinker(models.AgentAssembler, assemblerPrompt), o.opts.Generator, tracker, cfg, o.logger)

	return r
}

func (o *Orchestrator) execute(ctx context.Context, r *run) (*models.SwarmSummary, error) {
	emitMsg := func(msg models.AgentMessage) { o.emitter.Emit(MessageEvent(msg)) }
	emitTask := func(t models.MicroTask) { o.emitter.Emit(TaskUpdateEvent(t)) }

	mode := "live mode - real MNEE transactions"
	if r.cfg.DemoMode {
		mode = "demo mode - payments simulated"
	}
	o.logger.Log("[orchestrator] starting run %s | budget %.4f MNEE | tier %s | %s",
		r.cfg.RunID, r.brief.Budget, r.cfg.Tier.Tier, mode)

	// Initialization (0-10%)
	o.emitStatus(models.PhaseInitializing, 5, r)
	emitMsg(r.coordinator.NewMessage(
		fmt.Sprintf("Running in %s | Tier: %s", mode, r.cfg.Tier.Tier), models.MessageInfo, nil))
	emitMsg(r.coordinator.NewMessage("Initializing swarm agents... All agents online and ready.", models.MessageInfo, nil))
	emitMsg(r.coordinator.NewMessage(
		fmt.Sprintf("Budget tier: %s | Max deliverables: %d | Content depth: %s",
			r.cfg.Tier.Tier, r.cfg.Tier.MaxTasks, r.cfg.Tier.ContentDepth),
		models.MessageInfo, nil))
	r.coordinator.AddProcessed(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decomposition (10-30%)
	o.emitStatus(models.PhaseDecomposing, 15, r)
	if r.tracker.ShouldTerminateEarly() {
		return nil, fmt.Errorf("budget depleted before task decomposition")
	}

	tasks, err := r.decomposer.Decompose(ctx, r.brief, r.cfg.Tier.MaxTasks, emitMsg)
	if err != nil {
		return nil, fmt.Errorf("decompose brief: %w", err)
	}
	r.tasks = tasks
	for _, t := range tasks {
		emitTask(*t)
	}
	o.emitStatus(models.PhaseDecomposing, 30, r)

	// Tendering (30-40%)
	o.emitStatus(models.PhaseTendering, 32, r)
	queue := simulator.NewTenderQueue(len(tasks))
	if err := r.poster.Post(ctx, queue, tasks, r.contractAddress, emitMsg, emitTask); err != nil {
		return nil, fmt.Errorf("post tenders: %w", err)
	}
	queue.Close()
	o.emitStatus(models.PhaseTendering, 40, r)

	// Generation (40-70%)
	o.emitStatus(models.PhaseGenerating, 45, r)
	generated := 0
	deliverables, err := r.generator.Generate(ctx, queue, tasks, r.brief, emitMsg, func(t models.MicroTask) {
		emitTask(t)
		if t.Status == models.TaskStatusCompleted {
			generated++
			o.emitStatus(models.PhaseGenerating, 45+generated*25/len(tasks), r)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("generate deliverables: %w", err)
	}
	r.deliverables = deliverables
	o.emitStatus(models.PhaseGenerating, 70, r)

	// Evaluation & payment (70-85%)
	o.emitStatus(models.PhaseEvaluating, 72, r)
	evalResult, err := r.evaluator.Evaluate(ctx, tasks, deliverables, r.payerAddress, emitMsg,
		func(p models.Payment) { o.emitter.Emit(PaymentEvent(p)) }, emitTask)
	if err != nil {
		return nil, fmt.Errorf("evaluate deliverables: %w", err)
	}
	o.emitStatus(models.PhaseEvaluating, 85, r)

	// Assembly (85-95%)
	o.emitStatus(models.PhaseAssembling, 88, r)
	finalDoc, err := r.assembler.Assemble(ctx, acceptedDeliverables(tasks, deliverables), r.brief, emitMsg)
	if err != nil {
		return nil, fmt.Errorf("assemble final document: %w", err)
	}
	o.emitStatus(models.PhaseAssembling, 95, r)

	// Completion & refund (95-100%)
	emitMsg(r.coordinator.NewMessage("Finalizing results and calculating refund...", models.MessageAction, nil))

	summary := o.buildSummary(r, evalResult, finalDoc)

	if summary.RefundAmount > 0 {
		o.emitter.Emit(PaymentEvent(models.Payment{
			ID:           "refund-" + uuid.NewString(),
			Amount:       summary.RefundAmount,
			Recipient:    "client",
			ProviderName: "Refund",
			TxHash:       "refund-internal",
			Kind:         models.PaymentRefund,
			Timestamp:    time.Now(),
		}))
	}

	emitMsg(r.coordinator.NewMessage(
		fmt.Sprintf("Swarm complete! %d deliverables | %.4f MNEE spent | %.4f MNEE refunded",
			summary.CompletedTasks, summary.TotalSpent, summary.RefundAmount),
		models.MessageSuccess, nil))

	// The terminal frame closes the stream; nothing may follow it.
	o.emitStatus(models.PhaseComplete, 100, r)
	o.emitter.Emit(CompleteEvent(*summary))

	o.logger.Log("[orchestrator] run %s complete: %d/%d tasks | spent %.4f | refund %.4f",
		r.cfg.RunID, summary.CompletedTasks, summary.TotalTasks, summary.TotalSpent, summary.RefundAmount)

	return summary, nil
}

func (o *Orchestrator) buildSummary(r *run, evalResult EvalResult, finalDoc string) *models.SwarmSummary {
	breakdown := r.tracker.GetCostBreakdown()

	providerPaid := 0.0
	providers := make(map[string]bool)
	for _, p := range evalResult.Payments {
		providerPaid += p.Amount
		providers[p.ProviderName] = true
	}

	work := map[models.AgentName]pricing.AgentWork{
		models.AgentCoordinator:      agentWork(r.coordinator),
		models.AgentProjectManager:   agentWork(r.decomposer.thinker),
		models.AgentTenderPoster:     agentWork(r.poster.thinker),
		models.AgentContentGenerator: agentWork(r.generator.thinker),
		models.AgentEvaluator:        agentWork(r.evaluator.thinker),
		models.AgentAssembler:        agentWork(r.assembler.thinker),
	}
	fees := pricing.CoordinationFees(r.brief.Budget, work, providerPaid)

	summary := &models.SwarmSummary{
		TotalTasks:     len(r.tasks),
		CompletedTasks: evalResult.Accepted,
		TotalSpent:     breakdown.TotalSpent,
		OriginalBudget: r.brief.Budget,
		RefundAmount:   breakdown.RefundAmount,
		Tier:           r.cfg.Tier.Tier,
		CostBreakdown: models.CostBreakdown{
			AgentFees:        fees.TotalAgentCost,
			ProviderPayments: breakdown.AICosts,
			PlatformFee:      breakdown.PlatformFee,
			TotalCost:        breakdown.TotalSpent,
		},
		ProvidersUsed:    len(providers),
		ExecutionTime:    int(time.Since(r.startTime).Seconds()),
		AgentPayments:    fees.Payments,
		FinalDeliverable: finalDoc,
	}

	for _, d := range r.deliverables {
		summary.Deliverables = append(summary.Deliverables, models.DeliverableSummary{
			TaskID:       d.TaskID,
			Title:        d.TaskDescription,
			Category:     d.Category,
			ProviderName: d.ProviderName,
			Content:      d.Content,
		})
		if d.Image != nil {
			summary.GeneratedImages = append(summary.GeneratedImages, *d.Image)
		}
	}

	return summary
}

func (o *Orchestrator) emitStatus(phase models.SwarmPhase, progress int, r *run) {
	completed := 0
	for _, t := range r.tasks {
		if t.Status == models.TaskStatusAccepted || t.Status == models.TaskStatusCompleted {
			completed++
		}
	}
	o.emitter.Emit(StatusEvent(models.SwarmStatus{
		Phase:          phase,
		Progress:       progress,
		TotalTasks:     len(r.tasks),
		CompletedTasks: completed,
		TotalSpent:     r.tracker.TotalSpent(),
	}))
}

// acceptedDeliverables filters deliverables whose tasks were accepted.
func acceptedDeliverables(tasks []*models.MicroTask, deliverables []*models.GeneratedDeliverable) []*models.GeneratedDeliverable {
	accepted := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Status == models.TaskStatusAccepted {
			accepted[t.ID] = true
		}
	}
	var out []*models.GeneratedDeliverable
	for _, d := range deliverables {
		if accepted[d.TaskID] {
			out = append(out, d)
		}
	}
	return out
}

func agentWork(t *agent.Thinker) pricing.AgentWork {
	m := t.Metrics()
	return pricing.AgentWork{TokensUsed: m.TokensUsed, TasksProcessed: m.TasksProcessed, Calls: m.CallsMade}
}
