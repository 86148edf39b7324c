package models

// SwarmPhase names one step of the orchestrator's forward-only state machine.
type SwarmPhase string

const (
	PhaseIdle         SwarmPhase = "idle"
	PhaseInitializing SwarmPhase = "initializing"
	PhaseDecomposing  SwarmPhase = "decomposing"
	PhaseTendering    SwarmPhase = "tendering"
	PhaseGenerating   SwarmPhase = "generating"
	PhaseEvaluating   SwarmPhase = "evaluating"
	PhaseAssembling   SwarmPhase = "assembling"
	PhaseComplete     SwarmPhase = "complete"
	PhaseError        SwarmPhase = "error"
)

// Valid returns true if the phase is a known value.
func (p SwarmPhase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseInitializing, PhaseDecomposing, PhaseTendering,
		PhaseGenerating, PhaseEvaluating, PhaseAssembling, PhaseComplete, PhaseError:
		return true
	default:
		return false
	}
}

// SwarmStatus is the progress payload carried by status events.
type SwarmStatus struct {
	// Phase is the current pipeline phase.
	Phase SwarmPhase `json:"phase"`
	// Progress is a monotonic 0-100 percentage across the whole run.
	Progress int `json:"progress"`
	// CurrentTask describes the unit of work in flight, if any.
	CurrentTask string `json:"currentTask,omitempty"`
	// TotalTasks is the number of tasks created for the run.
	TotalTasks int `json:"totalTasks"`
	// CompletedTasks is the number of tasks with generated deliverables.
	CompletedTasks int `json:"completedTasks"`
	// TotalSpent is the committed spend so far, in MNEE.
	TotalSpent float64 `json:"totalSpent"`
}

// CostBreakdown splits total run cost for the summary.
type CostBreakdown struct {
	// AgentFees is the summed orchestration cost attributed to agents.
	AgentFees float64 `json:"agentFees"`
	// ProviderPayments is the summed model/provider spend.
	ProviderPayments float64 `json:"providerPayments"`
	// PlatformFee is the platform's cut of the AI spend.
	PlatformFee float64 `json:"platformFee"`
	// TotalCost is the full committed spend.
	TotalCost float64 `json:"totalCost"`
}

// DeliverableSummary is the compact deliverable listing in a summary.
type DeliverableSummary struct {
	// TaskID references the originating task.
	TaskID string `json:"taskId"`
	// Title is the originating task description.
	Title string `json:"title"`
	// Category is the deliverable's category.
	Category TaskCategory `json:"category"`
	// ProviderName is the credited provider.
	ProviderName string `json:"providerName"`
	// Content is the generated markdown.
	Content string `json:"content"`
}

// SwarmSummary is the terminal aggregate of one completed run.
// The orchestrator produces exactly one summary per successful run.
type SwarmSummary struct {
	// TotalTasks is the number of tasks created.
	TotalTasks int `json:"totalTasks"`
	// CompletedTasks is the number of tasks accepted.
	CompletedTasks int `json:"completedTasks"`
	// TotalSpent is the committed spend, in MNEE.
	TotalSpent float64 `json:"totalSpent"`
	// OriginalBudget is the brief's budget, in MNEE.
	OriginalBudget float64 `json:"originalBudget"`
	// RefundAmount is the unspent budget returned to the client.
	RefundAmount float64 `json:"refundAmount"`
	// Tier is the service tier the budget resolved to.
	Tier Tier `json:"tier"`
	// CostBreakdown splits the total spend.
	CostBreakdown CostBreakdown `json:"costBreakdown"`
	// ProvidersUsed counts distinct providers credited with work.
	ProvidersUsed int `json:"providersUsed"`
	// ExecutionTime is the run duration in seconds.
	ExecutionTime int `json:"executionTime"`
	// AgentPayments attributes cost per pipeline agent.
	AgentPayments []AgentPayment `json:"agentPayments"`
	// FinalDeliverable is the assembled document.
	FinalDeliverable string `json:"finalDeliverable"`
	// Deliverables lists the individual accepted deliverables.
	Deliverables []DeliverableSummary `json:"deliverables"`
	// GeneratedImages lists images produced during the run.
	GeneratedImages []GeneratedImage `json:"generatedImages"`
	// GeneratedVideos lists videos produced during the run.
	GeneratedVideos []GeneratedVideo `json:"generatedVideos,omitempty"`
}
