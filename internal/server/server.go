// Package server exposes the swarm pipeline over HTTP: a streaming
// run endpoint, a fire-and-forget start endpoint, and completed-run
// retrieval from the state store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/internal/escrow"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/orchestrator"
	"github.com/ShayCichocki/tenderswarm/internal/state"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// defaultContract is used when the request names no escrow contract.
const defaultContract = "0x0000000000000000000000000000000000000000"

// Server handles swarm API requests.
type Server struct {
	generator gen.Generator
	images    gen.ImageGenerator
	escrow    escrow.Client
	store     *state.Store
	logger    *orchestrator.DebugLogger

	batchDelay time.Duration
	evalDelay  time.Duration

	// eventBuffer overrides the orchestrator's event buffer size.
	// Zero keeps the default; tests shrink it.
	eventBuffer int
}

// Config wires the server's collaborators.
type Config struct {
	// Generator is the generation backend for all runs.
	Generator gen.Generator
	// Images is the image backend. Nil disables images.
	Images gen.ImageGenerator
	// Escrow settles payments. Nil forces simulated refs.
	Escrow escrow.Client
	// Store persists completed runs. Nil disables persistence.
	Store *state.Store
	// Logger receives debug lines.
	Logger *orchestrator.DebugLogger
	// BatchDelay paces tender batches.
	BatchDelay time.Duration
	// EvalDelay paces evaluation.
	EvalDelay time.Duration
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = orchestrator.NopLogger()
	}
	return &Server{
		generator:  cfg.Generator,
		images:     cfg.Images,
		escrow:     cfg.Escrow,
		store:      cfg.Store,
		logger:     cfg.Logger,
		batchDelay: cfg.BatchDelay,
		evalDelay:  cfg.EvalDelay,
	}
}

// Handler returns the routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/swarm", s.handleSwarm)
	mux.HandleFunc("POST /api/start-swarm", s.handleStartSwarm)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return Recovery(Logging(CORS(mux)))
}

// swarmRequest is the body of both swarm endpoints.
type swarmRequest struct {
	Brief           string  `json:"brief"`
	Budget          float64 `json:"budget"`
	ContractAddress string  `json:"contractAddress"`
	TxHash          string  `json:"txHash"`
	IsDemoMode      bool    `json:"isDemoMode"`
	UserAddress     string  `json:"userAddress"`
}

func (s *Server) parseSwarmRequest(w http.ResponseWriter, r *http.Request) (*swarmRequest, bool) {
	var req swarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(req.Brief) == "" || req.Budget <= 0 {
		writeError(w, http.StatusBadRequest, "Brief and budget required")
		return nil, false
	}
	if req.ContractAddress == "" {
		req.ContractAddress = defaultContract
	}
	return &req, true
}

// handleSwarm runs the pipeline and streams NDJSON frames, one per
// event, flushing after each. The stream carries exactly one terminal
// complete or error frame. Client disconnect cancels the run.
func (s *Server) handleSwarm(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseSwarmRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	brief := models.ClientBrief{
		ID:            "brief-" + uuid.NewString(),
		Text:          req.Brief,
		Budget:        req.Budget,
		CreatedAt:     time.Now(),
		PaymentTxHash: req.TxHash,
	}

	orc := s.newOrchestrator()
	enc := json.NewEncoder(w)

	if req.TxHash != "" {
		frame := orchestrator.MessageEvent(models.AgentMessage{
			ID:        "msg-payment-" + uuid.NewString(),
			Agent:     models.AgentCoordinator,
			Message:   paymentConfirmation(req.TxHash, req.IsDemoMode),
			Type:      models.MessageInfo,
			Timestamp: time.Now(),
		})
		enc.Encode(frame)
		flusher.Flush()
	}

	// r.Context() is canceled on client disconnect, which stops the run.
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.runAndStore(r.Context(), orc, brief, req)
	}()

	for event := range orc.Events() {
		if err := enc.Encode(event); err != nil {
			s.logger.Log("[server] stream write failed, client gone: %v", err)
			// Keep draining so the run goroutine can emit its terminal
			// event and exit; Emit blocks on terminal events when the
			// buffer is full.
			for range orc.Events() {
			}
			break
		}
		flusher.Flush()
	}
	<-done
}

// handleStartSwarm launches a run in the background and returns its
// run ID immediately. The result is retrievable from /api/runs/{id}
// once complete.
func (s *Server) handleStartSwarm(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseSwarmRequest(w, r)
	if !ok {
		return
	}

	brief := models.ClientBrief{
		ID:            "brief-" + uuid.NewString(),
		Text:          req.Brief,
		Budget:        req.Budget,
		CreatedAt:     time.Now(),
		PaymentTxHash: req.TxHash,
	}
	runID := "run-" + uuid.NewString()

	orc := s.newOrchestrator()
	go func() {
		// Detached from the request context: fire-and-forget runs
		// survive the client's connection.
		for range orc.Events() {
		}
	}()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		summary, err := orc.Execute(ctx, brief, req.ContractAddress, req.UserAddress, req.IsDemoMode)
		if err != nil {
			s.logger.Log("[server] background run %s failed: %v", runID, err)
			return
		}
		s.storeSummary(runID, summary)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"runId": runID, "status": "started"})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	if s.store == nil {
		writeError(w, http.StatusNotFound, "run persistence disabled")
		return
	}

	blob, err := s.store.Get(r.Context(), runID)
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Log("[server] load run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run persistence disabled")
		return
	}

	records, err := s.store.List(r.Context(), 20)
	if err != nil {
		s.logger.Log("[server] list runs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) newOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Generator:   s.generator,
		Images:      s.images,
		Escrow:      s.escrow,
		Logger:      s.logger,
		BatchDelay:  s.batchDelay,
		EvalDelay:   s.evalDelay,
		EventBuffer: s.eventBuffer,
	})
}

func (s *Server) runAndStore(ctx context.Context, orc *orchestrator.Orchestrator, brief models.ClientBrief, req *swarmRequest) {
	summary, err := orc.Execute(ctx, brief, req.ContractAddress, req.UserAddress, req.IsDemoMode)
	if err != nil {
		return
	}
	s.storeSummary(brief.ID, summary)
}

func (s *Server) storeSummary(runID string, summary *models.SwarmSummary) {
	if s.store == nil {
		return
	}
	blob, err := json.Marshal(summary)
	if err != nil {
		s.logger.Log("[server] marshal summary for %s: %v", runID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Put(ctx, runID, blob); err != nil {
		s.logger.Log("[server] persist run %s: %v", runID, err)
	}
}

func paymentConfirmation(txHash string, demo bool) string {
	if demo {
		return fmt.Sprintf("Demo mode payment: %s...", head(txHash, 10))
	}
	if len(txHash) > 18 {
		return fmt.Sprintf("Payment confirmed on Ethereum: %s...%s", txHash[:10], txHash[len(txHash)-8:])
	}
	return "Payment confirmed on Ethereum: " + txHash
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
