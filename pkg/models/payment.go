package models

import "time"

// PaymentKind distinguishes provider payouts from budget refunds.
type PaymentKind string

const (
	// PaymentProvider pays a provider for an accepted deliverable.
	PaymentProvider PaymentKind = "provider"
	// PaymentRefund returns unspent budget to the client.
	PaymentRefund PaymentKind = "refund"
)

// Valid returns true if the kind is a known value.
func (k PaymentKind) Valid() bool {
	return k == PaymentProvider || k == PaymentRefund
}

// Payment records a single transfer decision. Payments are append-only:
// once emitted they are never revised, even when the underlying transfer
// had to fall back to a simulated transaction reference.
type Payment struct {
	// ID is the unique identifier for this payment.
	ID string `json:"id"`
	// TenderID references the originating tender, zero for refunds.
	TenderID int64 `json:"tenderId"`
	// TaskID references the originating task, if any.
	TaskID string `json:"taskId,omitempty"`
	// Amount is the transfer value in MNEE.
	Amount float64 `json:"amount"`
	// Recipient is the receiving address or identity.
	Recipient string `json:"recipient"`
	// ProviderName is the human-readable provider label.
	ProviderName string `json:"providerName,omitempty"`
	// TxHash is the transaction reference. Simulated or failed transfers
	// carry a clearly marked 0xDEMO/0xERROR reference.
	TxHash string `json:"txHash"`
	// Kind distinguishes provider payments from refunds.
	Kind PaymentKind `json:"paymentType"`
	// Timestamp is when the payment was decided.
	Timestamp time.Time `json:"timestamp"`
}

// AgentPayment attributes run cost to one pipeline agent for the summary.
type AgentPayment struct {
	// ID is the unique identifier for this attribution entry.
	ID string `json:"id"`
	// Agent is the stage being credited.
	Agent AgentName `json:"agent"`
	// Amount is the summed model cost attributed to the agent, in MNEE.
	Amount float64 `json:"amount"`
	// Reason describes the work the amount covers.
	Reason string `json:"reason"`
	// TokensUsed is the total tokens the agent consumed.
	TokensUsed int64 `json:"tokensUsed,omitempty"`
	// TasksProcessed is the number of operations the agent ran.
	TasksProcessed int `json:"tasksProcessed,omitempty"`
	// Timestamp is when the attribution was computed.
	Timestamp time.Time `json:"timestamp"`
}
