package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// fakeGenerator records requests and returns canned results.
type fakeGenerator struct {
	lastText   gen.TextRequest
	lastObject gen.ObjectRequest
	text       string
	usage      gen.Usage
	err        error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, req gen.TextRequest) (*gen.TextResult, error) {
	f.lastText = req
	if f.err != nil {
		return nil, f.err
	}
	return &gen.TextResult{Text: f.text, Usage: f.usage}, nil
}

func (f *fakeGenerator) GenerateObject(ctx context.Context, req gen.ObjectRequest, out any) (*gen.Usage, error) {
	f.lastObject = req
	if f.err != nil {
		return nil, f.err
	}
	u := f.usage
	return &u, nil
}

func TestThinkRecordsUsage(t *testing.T) {
	fake := &fakeGenerator{text: "result", usage: gen.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}}
	tracker := cost.NewTracker(1.0)
	th := NewThinker(models.AgentProjectManager, "system", cost.ModelSonnet, fake, tracker, false)

	text, tokens, err := th.Think(context.Background(), "prompt", 2000)
	if err != nil {
		t.Fatalf("Think: %v", err)
	}
	if text != "result" {
		t.Errorf("text = %q, want %q", text, "result")
	}
	if tokens != 150 {
		t.Errorf("tokens = %d, want 150", tokens)
	}

	entries := tracker.Entries()
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].Agent != models.AgentProjectManager {
		t.Errorf("entry agent = %s, want project manager", entries[0].Agent)
	}

	m := th.Metrics()
	if m.TokensUsed != 150 || m.CallsMade != 1 {
		t.Errorf("metrics = %+v, want 150 tokens, 1 call", m)
	}
}

func TestThinkInsufficientBudget(t *testing.T) {
	fake := &fakeGenerator{text: "never"}
	tracker := cost.NewTracker(0.0001)
	th := NewThinker(models.AgentProjectManager, "system", cost.ModelOpus, fake, tracker, false)

	_, _, err := th.Think(context.Background(), "an expensive prompt", 3000)
	if !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("Think error = %v, want ErrInsufficientBudget", err)
	}
	if fake.lastText.Model != "" {
		t.Error("generator was called despite failed pre-flight check")
	}
	if th.Metrics().CallsMade != 0 {
		t.Error("metrics counted a call that never happened")
	}
}

func TestThinkDemoTokenCap(t *testing.T) {
	fake := &fakeGenerator{text: "ok", usage: gen.Usage{TotalTokens: 10}}
	th := NewThinker(models.AgentContentGenerator, "system", cost.ModelHaiku, fake, cost.NewTracker(1.0), true)

	if _, _, err := th.Think(context.Background(), "prompt", 4000); err != nil {
		t.Fatalf("Think: %v", err)
	}
	if fake.lastText.MaxOutputTokens != 500 {
		t.Errorf("demo MaxOutputTokens = %d, want 500", fake.lastText.MaxOutputTokens)
	}
}

func TestThinkStructuredDemoTokenCap(t *testing.T) {
	fake := &fakeGenerator{usage: gen.Usage{TotalTokens: 10}}
	th := NewThinker(models.AgentProjectManager, "system", cost.ModelHaiku, fake, cost.NewTracker(1.0), true)

	var out struct{}
	err := th.ThinkStructured(context.Background(), "prompt", "thing", map[string]any{}, nil, &out)
	if err != nil {
		t.Fatalf("ThinkStructured: %v", err)
	}
	if fake.lastObject.MaxOutputTokens != 1500 {
		t.Errorf("demo structured MaxOutputTokens = %d, want 1500", fake.lastObject.MaxOutputTokens)
	}

	th = NewThinker(models.AgentProjectManager, "system", cost.ModelHaiku, fake, cost.NewTracker(1.0), false)
	if err := th.ThinkStructured(context.Background(), "prompt", "thing", map[string]any{}, nil, &out); err != nil {
		t.Fatalf("ThinkStructured: %v", err)
	}
	if fake.lastObject.MaxOutputTokens != 3000 {
		t.Errorf("live structured MaxOutputTokens = %d, want 3000", fake.lastObject.MaxOutputTokens)
	}
}

func TestThinkWrapsGeneratorError(t *testing.T) {
	wantErr := errors.New("upstream down")
	fake := &fakeGenerator{err: wantErr}
	th := NewThinker(models.AgentEvaluator, "system", cost.ModelHaiku, fake, cost.NewTracker(1.0), false)

	_, _, err := th.Think(context.Background(), "prompt", 100)
	if !errors.Is(err, wantErr) {
		t.Errorf("Think error = %v, want wrapped %v", err, wantErr)
	}
	if th.Metrics().CallsMade != 0 {
		t.Error("failed call counted in metrics")
	}
}

func TestMetricsAccumulateAndReset(t *testing.T) {
	fake := &fakeGenerator{text: "ok", usage: gen.Usage{TotalTokens: 20}}
	th := NewThinker(models.AgentAssembler, "system", cost.ModelHaiku, fake, cost.NewTracker(1.0), false)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := th.Think(ctx, "p", 100); err != nil {
			t.Fatalf("Think: %v", err)
		}
	}
	th.AddProcessed(5)

	m := th.Metrics()
	if m.TokensUsed != 60 || m.CallsMade != 3 || m.TasksProcessed != 5 {
		t.Errorf("metrics = %+v, want {60 5 3}", m)
	}

	th.ResetMetrics()
	if th.Metrics() != (WorkMetrics{}) {
		t.Errorf("metrics after reset = %+v, want zero", th.Metrics())
	}
}

func TestNewMessage(t *testing.T) {
	th := NewThinker(models.AgentCoordinator, "system", cost.ModelHaiku, &fakeGenerator{}, nil, false)

	msg := th.NewMessage("hello", models.MessageInfo, map[string]any{"k": "v"})
	if msg.Agent != models.AgentCoordinator {
		t.Errorf("agent = %s, want coordinator", msg.Agent)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Error("message missing ID or timestamp")
	}
	if msg.Metadata["k"] != "v" {
		t.Error("metadata not carried through")
	}
}
