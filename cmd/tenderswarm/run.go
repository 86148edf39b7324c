package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tenderswarm/internal/config"
	"github.com/ShayCichocki/tenderswarm/internal/escrow"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/orchestrator"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

var (
	runBudget float64
	runDemo   bool
	runLive   bool
)

var runCmd = &cobra.Command{
	Use:   "run [brief]",
	Short: "Run a swarm for a client brief",
	Long: `Run the full pipeline for one brief and print agent activity
as it happens. The budget determines the service tier, the number of
micro-tasks, and the content depth of the deliverables.`,
	Args: cobra.ExactArgs(1),
	RunE: runSwarm,
}

func init() {
	runCmd.Flags().Float64Var(&runBudget, "budget", 1.0, "budget in MNEE")
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "force demo mode (simulated payments, cheap models)")
	runCmd.Flags().BoolVar(&runLive, "live", false, "force live mode")
}

func runSwarm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	demoMode := cfg.Swarm.DemoMode
	if runDemo {
		demoMode = true
	}
	if runLive {
		demoMode = false
	}

	client, err := gen.NewClient(gen.ClientConfig{
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Swarm.DebugLog)
	if err != nil {
		return fmt.Errorf("creating debug logger: %w", err)
	}
	defer logger.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orc := orchestrator.New(orchestrator.Options{
		Generator:  client,
		Images:     gen.PlaceholderImages{},
		Escrow:     escrow.NewSimulated(),
		Logger:     logger,
		BatchDelay: cfg.Swarm.BatchDelay,
		EvalDelay:  cfg.Swarm.EvalDelay,
	})

	brief := models.ClientBrief{
		ID:     "brief-cli",
		Text:   args[0],
		Budget: runBudget,
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := orc.Execute(ctx, brief, cfg.Swarm.ContractAddress, "", demoMode)
		errCh <- err
	}()

	for event := range orc.Events() {
		printEvent(event)
	}

	return <-errCh
}

var agentColors = map[models.AgentName]*color.Color{
	models.AgentCoordinator:      color.New(color.FgCyan),
	models.AgentProjectManager:   color.New(color.FgBlue),
	models.AgentTenderPoster:     color.New(color.FgMagenta),
	models.AgentContentGenerator: color.New(color.FgGreen),
	models.AgentEvaluator:        color.New(color.FgYellow),
	models.AgentAssembler:        color.New(color.FgHiBlue),
}

func printEvent(event orchestrator.SwarmEvent) {
	switch event.Type {
	case orchestrator.EventStatus:
		s := event.Status
		color.New(color.Faint).Printf("[%s] %d%% (%d/%d tasks, %.4f MNEE spent)\n",
			s.Phase, s.Progress, s.CompletedTasks, s.TotalTasks, s.TotalSpent)
	case orchestrator.EventMessage:
		m := event.Message
		c, ok := agentColors[m.Agent]
		if !ok {
			c = color.New(color.FgWhite)
		}
		prefix := c.Sprintf("%-17s", m.Agent)
		if m.Type == models.MessageWarning || m.Type == models.MessageError {
			fmt.Printf("%s %s\n", prefix, color.New(color.FgRed).Sprint(m.Message))
		} else {
			fmt.Printf("%s %s\n", prefix, m.Message)
		}
	case orchestrator.EventTaskUpdate:
		t := event.Task
		color.New(color.Faint).Printf("  task %-10s %s\n", t.Status, t.Description)
	case orchestrator.EventPayment:
		p := event.Payment
		if p.Kind == models.PaymentRefund {
			color.New(color.FgGreen).Printf("  refund %.4f MNEE to client\n", p.Amount)
		} else {
			color.New(color.FgGreen).Printf("  paid %.4f MNEE to %s (%s...)\n", p.Amount, p.ProviderName, head(p.TxHash, 10))
		}
	case orchestrator.EventError:
		color.New(color.FgRed, color.Bold).Printf("swarm failed: %s\n", event.Error)
	case orchestrator.EventComplete:
		s := event.Summary
		color.New(color.FgGreen, color.Bold).Printf(
			"\nSwarm complete: %d/%d deliverables | tier %s | spent %.4f MNEE | refunded %.4f MNEE\n",
			s.CompletedTasks, s.TotalTasks, s.Tier, s.TotalSpent, s.RefundAmount)
		fmt.Println("\n--- Final Deliverable ---")
		fmt.Println(s.FinalDeliverable)
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
