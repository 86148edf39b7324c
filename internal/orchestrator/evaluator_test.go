package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/cost"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

func TestHeuristicScore(t *testing.T) {
	long := strings.Repeat("word ", 250)   // over 1000 chars
	medium := strings.Repeat("word ", 110) // over 500 chars
	tests := []struct {
		name    string
		content string
		image   bool
		want    int
		wantOK  bool
	}{
		{"empty content", "", false, 0, false},
		{"short plain text", "brief note", false, 50, true},
		{"medium length", medium, false, 65, true},
		{"long with headers", "# Title\n" + long, false, 85, true},
		{"long with headers and bullets", "# Title\n- item\n" + long, false, 95, true},
		{"everything plus image capped", "# T\n- i\n" + long, true, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &models.GeneratedDeliverable{Content: tt.content}
			if tt.image {
				d.Image = &models.GeneratedImage{}
			}
			got, ok := heuristicScore(d)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("heuristicScore = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func newTestEvaluator(g *scriptedGenerator, demo bool) *Evaluator {
	thinker := agent.NewThinker(models.AgentEvaluator, evaluatorPrompt, cost.ModelHaiku, g, cost.NewTracker(1.0), demo)
	cfg := agent.RunConfig{RunID: "run-test", DemoMode: demo}
	return NewEvaluator(thinker, nil, cfg, NopLogger())
}

func evalFixture() ([]*models.MicroTask, []*models.GeneratedDeliverable) {
	tasks := []*models.MicroTask{
		{ID: "t1", Description: "Research", Category: models.CategoryResearch, Reward: 0.2, TenderID: 1},
		{ID: "t2", Description: "Copy", Category: models.CategoryCopywriting, Reward: 0.15, TenderID: 2},
	}
	deliverables := []*models.GeneratedDeliverable{
		{TaskID: "t1", Provider: "0xprov1", ProviderName: "Provider One", Content: "# Findings\n- a\n" + strings.Repeat("x", 1100)},
		{TaskID: "t2", Provider: "0xprov2", ProviderName: "Provider Two", Content: "# Copy\n- b\n" + strings.Repeat("y", 1100)},
	}
	return tasks, deliverables
}

func TestEvaluateAcceptsAndPays(t *testing.T) {
	e := newTestEvaluator(&scriptedGenerator{}, true)
	tasks, deliverables := evalFixture()

	var payments []models.Payment
	result, err := e.Evaluate(context.Background(), tasks, deliverables, "0xpayer", discardMsg,
		func(p models.Payment) { payments = append(payments, p) },
		func(models.MicroTask) {})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if result.Accepted != 2 || result.Rejected != 0 {
		t.Errorf("result = %d accepted, %d rejected, want 2/0", result.Accepted, result.Rejected)
	}
	if len(payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(payments))
	}
	for i, p := range payments {
		if p.Amount != tasks[i].Reward {
			t.Errorf("payment[%d] amount = %v, want task reward %v", i, p.Amount, tasks[i].Reward)
		}
		if p.Kind != models.PaymentProvider {
			t.Errorf("payment[%d] kind = %s, want provider", i, p.Kind)
		}
		if !strings.HasPrefix(p.TxHash, "0xDEMO") {
			t.Errorf("payment[%d] hash = %q, want 0xDEMO prefix", i, p.TxHash)
		}
		if len(p.TxHash) != 66 {
			t.Errorf("payment[%d] hash length = %d, want 66", i, len(p.TxHash))
		}
	}
	for _, task := range tasks {
		if task.Status != models.TaskStatusAccepted {
			t.Errorf("task %s status = %s, want accepted", task.ID, task.Status)
		}
	}
}

func TestEvaluateHeuristicFallback(t *testing.T) {
	// Structured evaluation fails; structured content should pass the
	// heuristic, bare content should be rejected by it.
	e := newTestEvaluator(&scriptedGenerator{objectErr: errors.New("model unavailable")}, true)
	tasks := []*models.MicroTask{
		{ID: "good", Description: "a", Category: models.CategoryResearch, Reward: 0.1},
		{ID: "bad", Description: "b", Category: models.CategoryResearch, Reward: 0.1},
	}
	deliverables := []*models.GeneratedDeliverable{
		{TaskID: "good", ProviderName: "P1", Content: "# Report\n- point\n" + strings.Repeat("x", 1100)},
		{TaskID: "bad", ProviderName: "P2", Content: "too short"},
	}

	result, err := e.Evaluate(context.Background(), tasks, deliverables, "0xpayer", discardMsg,
		func(models.Payment) {}, func(models.MicroTask) {})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Accepted != 1 || result.Rejected != 1 {
		t.Errorf("result = %d accepted, %d rejected, want 1/1", result.Accepted, result.Rejected)
	}
	if tasks[1].Status != models.TaskStatusRejected {
		t.Errorf("rejected task status = %s, want rejected", tasks[1].Status)
	}
}

func TestEvaluateAutoAcceptsOnTotalFailure(t *testing.T) {
	// No structured result and no content to analyze: never punish the
	// provider for an evaluation failure.
	e := newTestEvaluator(&scriptedGenerator{objectErr: errors.New("model unavailable")}, true)
	tasks := []*models.MicroTask{{ID: "t1", Description: "a", Category: models.CategoryResearch, Reward: 0.1}}
	deliverables := []*models.GeneratedDeliverable{{TaskID: "t1", ProviderName: "P", Content: ""}}

	result, err := e.Evaluate(context.Background(), tasks, deliverables, "0xpayer", discardMsg,
		func(models.Payment) {}, func(models.MicroTask) {})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Accepted != 1 {
		t.Errorf("accepted = %d, want 1 (auto-accept)", result.Accepted)
	}
}

func TestEvaluateSkipsOrphanDeliverables(t *testing.T) {
	e := newTestEvaluator(&scriptedGenerator{}, true)
	deliverables := []*models.GeneratedDeliverable{{TaskID: "unknown", ProviderName: "P", Content: "x"}}

	result, err := e.Evaluate(context.Background(), nil, deliverables, "0xpayer", discardMsg,
		func(models.Payment) {}, func(models.MicroTask) {})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Accepted != 0 || result.Rejected != 0 || len(result.Payments) != 0 {
		t.Errorf("orphan deliverable was processed: %+v", result)
	}
}
