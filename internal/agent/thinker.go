// Package agent provides the shared capabilities every pipeline stage
// composes: budget-guarded generation primitives, status-message
// construction, and per-stage work metrics.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// ErrInsufficientBudget is returned when a pre-flight affordability
// check fails before a generation call is made.
var ErrInsufficientBudget = errors.New("insufficient budget for operation")

const (
	// demoMaxTextTokens caps Think output in demo runs.
	demoMaxTextTokens = 500
	// structuredMaxTokens caps ThinkStructured output.
	structuredMaxTokens = 3000
	// demoStructuredMaxTokens caps ThinkStructured output in demo runs.
	demoStructuredMaxTokens = 1500
)

// WorkMetrics counts the measurable work one stage performed.
type WorkMetrics struct {
	// TokensUsed is the total tokens consumed across calls.
	TokensUsed int64
	// TasksProcessed is the number of work items handled.
	TasksProcessed int
	// CallsMade is the number of generation calls issued.
	CallsMade int
}

// Thinker is the generation capability a pipeline stage composes. Every
// call pre-flight-checks affordability against the cost tracker, then
// records realized usage in the ledger. Stages inject a Thinker rather
// than inheriting one, so tests swap in fake generators freely.
type Thinker struct {
	name         models.AgentName
	systemPrompt string
	model        string
	generator    gen.Generator
	tracker      *cost.Tracker
	demoMode     bool

	metrics WorkMetrics
}

// NewThinker creates a Thinker for one stage.
func NewThinker(name models.AgentName, systemPrompt, model string, g gen.Generator, tracker *cost.Tracker, demoMode bool) *Thinker {
	return &Thinker{
		name:         name,
		systemPrompt: systemPrompt,
		model:        model,
		generator:    g,
		tracker:      tracker,
		demoMode:     demoMode,
	}
}

// Name returns the owning stage's agent name.
func (t *Thinker) Name() models.AgentName { return t.name }

// Model returns the configured model identifier.
func (t *Thinker) Model() string { return t.model }

// Think generates free text for a prompt, guarded by a pre-flight
// affordability check. Returns the text and the tokens consumed.
func (t *Thinker) Think(ctx context.Context, prompt string, maxTokens int64) (string, int64, error) {
	if t.demoMode && maxTokens > demoMaxTextTokens {
		maxTokens = demoMaxTextTokens
	}

	estIn := gen.EstimateTokens(prompt)
	if t.tracker != nil && !t.tracker.CanAffordOperation(t.model, estIn, maxTokens) {
		return "", 0, fmt.Errorf("%s think: %w", t.name, ErrInsufficientBudget)
	}

	result, err := t.generator.GenerateText(ctx, gen.TextRequest{
		Model:           t.model,
		SystemPrompt:    t.systemPrompt,
		Prompt:          prompt,
		MaxOutputTokens: maxTokens,
		Temperature:     0.7,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%s think: %w", t.name, err)
	}

	usage := result.Usage
	t.metrics.TokensUsed += usage.TotalTokens
	t.metrics.CallsMade++

	if t.tracker != nil {
		t.tracker.TrackModelUsage(t.name, t.model, usage.PromptTokens, usage.CompletionTokens,
			fmt.Sprintf("%s think operation", t.name))
	}

	return result.Text, usage.TotalTokens, nil
}

// ThinkStructured generates a schema-validated object into out, guarded
// by the same pre-flight affordability check as Think.
func (t *Thinker) ThinkStructured(ctx context.Context, prompt, schemaName string, schema map[string]any, required []string, out any) error {
	maxTokens := int64(structuredMaxTokens)
	if t.demoMode {
		maxTokens = demoStructuredMaxTokens
	}

	estIn := gen.EstimateTokens(prompt)
	if t.tracker != nil && !t.tracker.CanAffordOperation(t.model, estIn, maxTokens) {
		return fmt.Errorf("%s think structured: %w", t.name, ErrInsufficientBudget)
	}

	usage, err := t.generator.GenerateObject(ctx, gen.ObjectRequest{
		Model:           t.model,
		SystemPrompt:    t.systemPrompt,
		Prompt:          prompt,
		SchemaName:      schemaName,
		Schema:          schema,
		Required:        required,
		MaxOutputTokens: maxTokens,
	}, out)
	if err != nil {
		return fmt.Errorf("%s think structured: %w", t.name, err)
	}

	t.metrics.TokensUsed += usage.TotalTokens
	t.metrics.CallsMade++

	if t.tracker != nil {
		t.tracker.TrackModelUsage(t.name, t.model, usage.PromptTokens, usage.CompletionTokens,
			fmt.Sprintf("%s structured think operation", t.name))
	}

	return nil
}

// NewMessage builds a timestamped, agent-attributed status message.
func (t *Thinker) NewMessage(text string, typ models.MessageType, metadata map[string]any) models.AgentMessage {
	return models.AgentMessage{
		ID:        "msg-" + uuid.NewString(),
		Agent:     t.name,
		Message:   text,
		Type:      typ,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// AddProcessed counts work items the stage handled outside Think calls.
func (t *Thinker) AddProcessed(n int) {
	t.metrics.TasksProcessed += n
}

// Metrics returns a copy of the stage's accumulated work metrics.
func (t *Thinker) Metrics() WorkMetrics {
	return t.metrics
}

// ResetMetrics clears the accumulated work metrics before a new run.
func (t *Thinker) ResetMetrics() {
	t.metrics = WorkMetrics{}
}
