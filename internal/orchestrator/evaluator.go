package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/escrow"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const evaluatorPrompt = `You are the Evaluator agent in TenderSwarm.
Your role is to assess provider submissions for quality and completeness.

Evaluate based on:
1. Completeness - Does it fulfill the task requirements?
2. Quality - Is it production-ready and professional?
3. Relevance - Does it match the original task description?
4. Depth - Is there sufficient detail and actionable content?

Be thorough but fair. Accept submissions that meet professional standards.`

// acceptThreshold is the minimum heuristic score to accept.
const acceptThreshold = 60

// autoAcceptScore is assigned when evaluation itself fails.
const autoAcceptScore = 75

// evaluation is the structured scoring result.
type evaluation struct {
	Accept       bool    `json:"accept"`
	Score        float64 `json:"score"`
	Reasoning    string  `json:"reasoning"`
	QualityNotes string  `json:"qualityNotes"`
}

var evaluationSchema = map[string]any{
	"accept": map[string]any{"type": "boolean"},
	"score":  map[string]any{"type": "number", "minimum": 0, "maximum": 100},
	"reasoning": map[string]any{
		"type":        "string",
		"description": "Brief explanation of the decision",
	},
	"qualityNotes": map[string]any{
		"type":        "string",
		"description": "Specific notes on content quality",
	},
}

// EvalResult summarizes one evaluation pass.
type EvalResult struct {
	// Accepted is the count of accepted deliverables.
	Accepted int
	// Rejected is the count of rejected deliverables.
	Rejected int
	// Payments lists settled provider payments.
	Payments []models.Payment
}

// Evaluator scores deliverables and settles provider payments.
type Evaluator struct {
	thinker *agent.Thinker
	escrow  escrow.Client
	cfg     agent.RunConfig
	logger  *DebugLogger
}

// NewEvaluator creates the evaluation stage. A nil escrow client means
// all payments use simulated references.
func NewEvaluator(thinker *agent.Thinker, escrowClient escrow.Client, cfg agent.RunConfig, logger *DebugLogger) *Evaluator {
	return &Evaluator{thinker: thinker, escrow: escrowClient, cfg: cfg, logger: logger}
}

// Evaluate scores every deliverable, pays accepted providers their
// task reward, and reports accepted/rejected counts. An evaluation
// failure never rejects work: the deliverable is auto-accepted at a
// neutral score. A payment failure downgrades to a marked error
// reference, never blocks the pipeline.
func (e *Evaluator) Evaluate(ctx context.Context, tasks []*models.MicroTask, deliverables []*models.GeneratedDeliverable, payerAddress string, emit func(models.AgentMessage), onPayment func(models.Payment), onTaskUpdate func(models.MicroTask)) (EvalResult, error) {
	mode := "Live payments"
	if e.cfg.DemoMode || e.escrow == nil {
		mode = "Demo mode"
	}
	emit(e.thinker.NewMessage(
		fmt.Sprintf("Evaluating %d submissions with content analysis... (%s)", len(deliverables), mode),
		models.MessageThinking, nil))

	byID := make(map[string]*models.MicroTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var result EvalResult
	for _, d := range deliverables {
		task, ok := byID[d.TaskID]
		if !ok {
			continue
		}

		e.thinker.AddProcessed(1)

		ev := e.scoreOne(ctx, task, d)

		if ev.Accept {
			result.Accepted++

			payment := e.settle(ctx, task, d, payerAddress, emit)
			result.Payments = append(result.Payments, payment)
			onPayment(payment)

			task.Status = models.TaskStatusAccepted
			task.Provider = d.Provider
			onTaskUpdate(*task)

			emit(e.thinker.NewMessage(
				fmt.Sprintf("Accepted from %s: Score %.0f/100 -> %.2f MNEE", d.ProviderName, ev.Score, task.Reward),
				models.MessageSuccess,
				map[string]any{"score": ev.Score, "taskId": task.ID, "quality": ev.QualityNotes}))
		} else {
			result.Rejected++
			task.Status = models.TaskStatusRejected
			onTaskUpdate(*task)

			emit(e.thinker.NewMessage(
				fmt.Sprintf("Rejected from %s: %s", d.ProviderName, ev.Reasoning),
				models.MessageWarning, nil))
		}

		if e.cfg.EvalDelay > 0 {
			select {
			case <-time.After(e.cfg.EvalDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	totalPaid := 0.0
	for _, p := range result.Payments {
		totalPaid += p.Amount
	}
	suffix := " (simulated)"
	if mode == "Live payments" {
		suffix = " (real transactions)"
	}
	emit(e.thinker.NewMessage(
		fmt.Sprintf("Evaluation complete: %d accepted, %d rejected. Provider payments: %.2f MNEE%s",
			result.Accepted, result.Rejected, totalPaid, suffix),
		models.MessageSuccess,
		map[string]any{"accepted": result.Accepted, "rejected": result.Rejected, "totalPaid": totalPaid}))

	return result, nil
}

// scoreOne evaluates one deliverable, falling back to a heuristic
// score when structured evaluation fails, and auto-accepting when even
// that path errors out.
func (e *Evaluator) scoreOne(ctx context.Context, task *models.MicroTask, d *models.GeneratedDeliverable) evaluation {
	preview := truncate(d.Content, 500)
	if preview == "" {
		preview = "No content available"
	}

	prompt := fmt.Sprintf(`Evaluate this submission:

TASK: %q
CATEGORY: %s
PROVIDER: %s

CONTENT PREVIEW:
%s

Score the quality (0-100) and decide whether to accept.
Consider: completeness, professionalism, relevance, and actionable detail.`,
		task.Description, task.Category, d.ProviderName, preview)

	var ev evaluation
	err := e.thinker.ThinkStructured(ctx, prompt, "SubmissionEvaluation", evaluationSchema,
		[]string{"accept", "score", "reasoning", "qualityNotes"}, &ev)
	if err == nil {
		return ev
	}

	e.logger.Log("[evaluator] structured evaluation failed for task %s: %v", task.ID, err)

	if score, ok := heuristicScore(d); ok {
		return evaluation{
			Accept:       score >= acceptThreshold,
			Score:        float64(score),
			Reasoning:    "Heuristic content analysis",
			QualityNotes: fmt.Sprintf("Scored %d by structural analysis", score),
		}
	}

	return evaluation{
		Accept:       true,
		Score:        autoAcceptScore,
		Reasoning:    "Auto-accepted due to evaluation error",
		QualityNotes: "N/A",
	}
}

// heuristicScore rates content by structural signals. Returns false
// when there is no content to analyze.
func heuristicScore(d *models.GeneratedDeliverable) (int, bool) {
	if d.Content == "" {
		return 0, false
	}

	score := 50
	if len(d.Content) > 500 {
		score += 15
	}
	if len(d.Content) > 1000 {
		score += 10
	}
	if strings.Contains(d.Content, "#") {
		score += 10
	}
	if strings.Contains(d.Content, "- ") || strings.Contains(d.Content, "* ") {
		score += 10
	}
	if d.Image != nil {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

// settle pays the provider the task reward. Demo runs and missing
// escrow clients use simulated references; transfer failures downgrade
// to a marked error reference.
func (e *Evaluator) settle(ctx context.Context, task *models.MicroTask, d *models.GeneratedDeliverable, payerAddress string, emit func(models.AgentMessage)) models.Payment {
	var txHash string

	switch {
	case e.cfg.DemoMode || e.escrow == nil:
		txHash = escrow.SimulatedTxHash()
		e.logger.Log("[evaluator] demo payment: %.4f MNEE to %s", task.Reward, d.ProviderName)
	default:
		result, err := e.escrow.TransferMNEE(ctx, payerAddress, d.Provider, task.Reward)
		if err == nil && result.Success {
			txHash = result.Hash
			emit(e.thinker.NewMessage(
				fmt.Sprintf("Real MNEE payment confirmed: %s...", txHash[:10]),
				models.MessageSuccess, map[string]any{"txHash": txHash}))
		} else {
			if err == nil {
				err = fmt.Errorf("transaction failed")
			}
			txHash = escrow.ErrorTxHash()
			emit(e.thinker.NewMessage(
				fmt.Sprintf("Payment failed: %v. Using simulated payment.", err),
				models.MessageWarning, nil))
		}
	}

	return models.Payment{
		ID:           "pay-" + uuid.NewString(),
		TenderID:     task.TenderID,
		TaskID:       task.ID,
		Amount:       task.Reward,
		Recipient:    d.Provider,
		ProviderName: d.ProviderName,
		TxHash:       txHash,
		Kind:         models.PaymentProvider,
		Timestamp:    time.Now(),
	}
}
