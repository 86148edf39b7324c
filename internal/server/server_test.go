package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/orchestrator"
	"github.com/ShayCichocki/tenderswarm/internal/state"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// fakeGen answers every call with small canned results so handler
// tests run full pipelines without a real backend.
type fakeGen struct{}

func (fakeGen) GenerateText(_ context.Context, _ gen.TextRequest) (*gen.TextResult, error) {
	return &gen.TextResult{
		Text:  "# Deliverable\n\n- finding one\n- finding two\n" + strings.Repeat("Analysis. ", 60),
		Usage: gen.Usage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
	}, nil
}

func (fakeGen) GenerateObject(_ context.Context, req gen.ObjectRequest, out any) (*gen.Usage, error) {
	var payload any
	switch req.SchemaName {
	case "TaskBreakdown":
		payload = map[string]any{"tasks": []map[string]any{
			{"description": "Research the market", "reward": 0.2, "category": "research", "estimatedTime": 120},
			{"description": "Write the copy", "reward": 0.2, "category": "copywriting", "estimatedTime": 120},
			{"description": "Plan the campaign", "reward": 0.2, "category": "marketing", "estimatedTime": 120},
		}}
	case "SubmissionEvaluation":
		payload = map[string]any{"accept": true, "score": 80, "reasoning": "ok", "qualityNotes": "ok"}
	case "AssemblyStructure":
		payload = map[string]any{
			"sections":               []map[string]any{{"title": "All", "description": "everything"}},
			"executiveSummaryPoints": []string{"done"},
		}
	}
	blob, _ := json.Marshal(payload)
	if err := json.Unmarshal(blob, out); err != nil {
		return nil, err
	}
	return &gen.Usage{PromptTokens: 100, CompletionTokens: 100, TotalTokens: 200}, nil
}

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	cfg := Config{Generator: fakeGen{}}
	if withStore {
		store, err := state.Open(filepath.Join(t.TempDir(), "runs.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		cfg.Store = store
	}
	return New(cfg)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSwarmRequestValidation(t *testing.T) {
	h := newTestServer(t, false).Handler()

	tests := []struct {
		name string
		body any
	}{
		{"missing brief", map[string]any{"budget": 0.5}},
		{"blank brief", map[string]any{"brief": "   ", "budget": 0.5}},
		{"zero budget", map[string]any{"brief": "build a thing"}},
		{"negative budget", map[string]any{"brief": "build a thing", "budget": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/api/swarm", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error body missing error field")
			}
		})
	}
}

func TestSwarmRequestMalformedJSON(t *testing.T) {
	h := newTestServer(t, false).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/swarm", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleSwarmStreamsNDJSON(t *testing.T) {
	h := newTestServer(t, false).Handler()

	w := postJSON(t, h, "/api/swarm", map[string]any{
		"brief": "Launch a newsletter", "budget": 0.75, "isDemoMode": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q, want application/x-ndjson", ct)
	}

	var terminal int
	var sawComplete bool
	var lastType orchestrator.EventType
	scanner := bufio.NewScanner(w.Body)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ev orchestrator.SwarmEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("frame is not valid JSON: %v\n%s", err, line)
		}
		lastType = ev.Type
		if ev.Type.Terminal() {
			terminal++
		}
		if ev.Type == orchestrator.EventComplete {
			sawComplete = true
			if ev.Summary == nil || ev.Summary.TotalTasks != 3 {
				t.Errorf("complete frame summary = %+v, want 3 tasks", ev.Summary)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan stream: %v", err)
	}

	if terminal != 1 {
		t.Errorf("terminal frames = %d, want exactly 1", terminal)
	}
	if !sawComplete {
		t.Error("stream carried no complete frame")
	}
	if lastType != orchestrator.EventComplete {
		t.Errorf("last frame = %s, want complete to close the stream", lastType)
	}
}

// brokenStreamWriter fails every body write, standing in for a client
// that disconnected mid-stream.
type brokenStreamWriter struct {
	header http.Header
}

func (w *brokenStreamWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *brokenStreamWriter) WriteHeader(int) {}

func (w *brokenStreamWriter) Write([]byte) (int, error) {
	return 0, errors.New("write tcp: broken pipe")
}

func (w *brokenStreamWriter) Flush() {}

func TestHandleSwarmClientGoneDrainsRun(t *testing.T) {
	srv := newTestServer(t, false)
	// A tiny buffer makes the run goroutine block on its terminal
	// emit unless the handler keeps draining after the write fails.
	srv.eventBuffer = 1

	blob, err := json.Marshal(map[string]any{
		"brief": "Launch a newsletter", "budget": 0.75, "isDemoMode": true,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/swarm", bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")

	finished := make(chan struct{})
	go func() {
		srv.handleSwarm(&brokenStreamWriter{}, req)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("handler did not return after the client went away")
	}
}

func TestHandleSwarmPaymentConfirmationFrame(t *testing.T) {
	h := newTestServer(t, false).Handler()

	w := postJSON(t, h, "/api/swarm", map[string]any{
		"brief": "Launch a newsletter", "budget": 0.75, "isDemoMode": true,
		"txHash": "0xabc123def456abc123def456",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	scanner := bufio.NewScanner(w.Body)
	if !scanner.Scan() {
		t.Fatal("empty stream")
	}
	var first orchestrator.SwarmEvent
	if err := json.Unmarshal(scanner.Bytes(), &first); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if first.Type != orchestrator.EventMessage {
		t.Fatalf("first frame type = %s, want message", first.Type)
	}
	if !strings.Contains(first.Message.Message, "Demo mode payment") {
		t.Errorf("first frame = %q, want payment confirmation", first.Message.Message)
	}
}

func TestHandleStartSwarm(t *testing.T) {
	h := newTestServer(t, false).Handler()

	w := postJSON(t, h, "/api/start-swarm", map[string]any{
		"brief": "Launch a newsletter", "budget": 0.75, "isDemoMode": true,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "started" {
		t.Errorf("status field = %q, want started", resp["status"])
	}
	if !strings.HasPrefix(resp["runId"], "run-") {
		t.Errorf("runId = %q, want run- prefix", resp["runId"])
	}
}

func TestHandleGetRun(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.Handler()

	summary := models.SwarmSummary{TotalTasks: 3, Tier: models.TierStandard}
	blob, _ := json.Marshal(summary)
	if err := srv.store.Put(context.Background(), "run-abc", blob); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got models.SwarmSummary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if got.TotalTasks != 3 || got.Tier != models.TierStandard {
		t.Errorf("run = %+v, want seeded summary", got)
	}
}

func TestHandleGetRunNotFound(t *testing.T) {
	h := newTestServer(t, true).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.Handler()

	for _, id := range []string{"run-1", "run-2"} {
		if err := srv.store.Put(context.Background(), id, []byte(`{"totalTasks":1}`)); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Runs []state.RunRecord `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(resp.Runs))
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, false).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, false).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight missing Access-Control-Allow-Origin")
	}
	if w.Code != http.StatusNoContent && w.Code != http.StatusOK {
		t.Errorf("preflight status = %d", w.Code)
	}
}
