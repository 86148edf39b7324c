package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const (
	// minimumAgentFee is the flat coordination fee per active agent.
	minimumAgentFee = 0.001
	// coordinatorMultiplier compensates orchestration overhead.
	coordinatorMultiplier = 1.15
)

// AgentWork summarizes one agent's measurable work for fee purposes.
type AgentWork struct {
	// TokensUsed is the total tokens the agent consumed.
	TokensUsed int64
	// TasksProcessed is the number of work items the agent handled.
	TasksProcessed int
	// Calls is the number of generation calls the agent made.
	Calls int
}

// FeeResult aggregates the coordination fees of a run.
type FeeResult struct {
	// Payments lists the per-agent fee entries.
	Payments []models.AgentPayment
	// TotalAgentCost sums all coordination fees.
	TotalAgentCost float64
	// ActualProviderCost is the summed provider payouts passed in.
	ActualProviderCost float64
	// TotalCost is agent fees plus provider payouts.
	TotalCost float64
	// RemainingBudget is budget minus TotalCost, floored at zero.
	RemainingBudget float64
}

// CoordinationFees charges a minimal flat fee per agent that did any
// measurable work, with a bonus multiplier for the coordinator.
func CoordinationFees(originalBudget float64, work map[models.AgentName]AgentWork, providerPayments float64) FeeResult {
	result := FeeResult{ActualProviderCost: round6(providerPayments)}

	for _, agent := range models.AgentNames {
		w := work[agent]
		if w.TokensUsed == 0 && w.TasksProcessed == 0 && w.Calls == 0 {
			continue
		}

		fee := minimumAgentFee
		if agent == models.AgentCoordinator {
			fee *= coordinatorMultiplier
		}

		result.Payments = append(result.Payments, models.AgentPayment{
			ID:             "agent-pay-" + uuid.NewString(),
			Agent:          agent,
			Amount:         round6(fee),
			Reason:         feeReason(agent, w),
			TokensUsed:     w.TokensUsed,
			TasksProcessed: w.TasksProcessed,
			Timestamp:      time.Now(),
		})
		result.TotalAgentCost += fee
	}

	result.TotalAgentCost = round6(result.TotalAgentCost)
	result.TotalCost = round6(result.TotalAgentCost + providerPayments)

	remaining := originalBudget - result.TotalCost
	if remaining < 0 {
		remaining = 0
	}
	result.RemainingBudget = round6(remaining)

	return result
}

func feeReason(agent models.AgentName, w AgentWork) string {
	switch agent {
	case models.AgentCoordinator:
		return fmt.Sprintf("Swarm orchestration (%d coordination calls)", w.Calls)
	case models.AgentProjectManager:
		return fmt.Sprintf("Task decomposition (%d tasks created)", w.TasksProcessed)
	case models.AgentTenderPoster:
		return fmt.Sprintf("Tender broadcasting (%d tenders posted)", w.TasksProcessed)
	case models.AgentEvaluator:
		return fmt.Sprintf("Quality evaluation (%d submissions reviewed)", w.TasksProcessed)
	case models.AgentAssembler:
		return fmt.Sprintf("Document assembly (%d tokens processed)", w.TokensUsed)
	default:
		return fmt.Sprintf("Pipeline work (%d operations)", w.Calls)
	}
}

func round6(v float64) float64 {
	return math.Round(v*1000000) / 1000000
}
