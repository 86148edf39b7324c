// Package models defines the shared domain types for the tenderswarm
// marketplace: briefs, tasks, deliverables, payments, and run summaries.
package models

import "time"

// ClientBrief is a client's natural-language project request plus budget.
// It is immutable once accepted by the orchestrator.
type ClientBrief struct {
	// ID is the unique identifier for this brief.
	ID string `json:"id"`
	// Text is the free-form project description.
	Text string `json:"text"`
	// Budget is the total spend ceiling for the run, in MNEE.
	Budget float64 `json:"budget"`
	// CreatedAt is when the brief was accepted.
	CreatedAt time.Time `json:"createdAt"`
	// PaymentTxHash is the funding transaction reference, if any.
	PaymentTxHash string `json:"paymentTxHash,omitempty"`
}
