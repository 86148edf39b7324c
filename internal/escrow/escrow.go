// Package escrow wraps the MNEE payment collaborator. Transfers are
// fallible network calls; callers degrade to clearly-marked simulated
// transaction references instead of failing a run on transfer errors.
package escrow

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// BalanceResult reports whether an address holds a required amount.
type BalanceResult struct {
	// HasBalance indicates the balance covers the required amount.
	HasBalance bool `json:"hasBalance"`
	// Balance is the current holding, in MNEE.
	Balance float64 `json:"balance"`
}

// TransferResult reports the outcome of a token transfer.
type TransferResult struct {
	// Hash is the transaction reference.
	Hash string `json:"hash"`
	// Success indicates the transfer was confirmed.
	Success bool `json:"success"`
}

// Client is the payment collaborator contract.
type Client interface {
	// VerifyBalance checks whether address holds at least amount MNEE.
	VerifyBalance(ctx context.Context, address string, amount float64) (*BalanceResult, error)
	// TransferMNEE moves amount MNEE between addresses.
	TransferMNEE(ctx context.Context, from, to string, amount float64) (*TransferResult, error)
	// GetBalance returns the MNEE holding of an address.
	GetBalance(ctx context.Context, address string) (float64, error)
}

// SimulatedTxHash builds a clearly-marked demo transaction reference.
func SimulatedTxHash() string {
	return padHash(fmt.Sprintf("0xDEMO%x%x", rand.Int63(), rand.Int63()))
}

// ErrorTxHash builds a clearly-marked failed-transfer reference.
func ErrorTxHash() string {
	return padHash(fmt.Sprintf("0xERROR%x%x", rand.Int63(), rand.Int63()))
}

func padHash(h string) string {
	for len(h) < 66 {
		h += "0"
	}
	return h[:66]
}

// Simulated is an in-memory Client for demo runs and tests. Balances
// default to funded; FailTransfers forces every transfer to error.
type Simulated struct {
	mu sync.Mutex

	// FailTransfers makes TransferMNEE return an error on every call.
	FailTransfers bool

	balances map[string]float64
}

// NewSimulated creates a funded simulated escrow client.
func NewSimulated() *Simulated {
	return &Simulated{balances: make(map[string]float64)}
}

// SetBalance seeds an address balance for tests.
func (s *Simulated) SetBalance(address string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[address] = amount
}

// VerifyBalance reports a funded balance unless one was seeded lower.
func (s *Simulated) VerifyBalance(_ context.Context, address string, amount float64) (*BalanceResult, error) {
	balance, ok := s.balance(address)
	if !ok {
		// Unseeded addresses are treated as amply funded.
		return &BalanceResult{HasBalance: true, Balance: amount * 10}, nil
	}
	return &BalanceResult{HasBalance: balance >= amount, Balance: balance}, nil
}

// TransferMNEE simulates a confirmed transfer with a demo-marked hash.
func (s *Simulated) TransferMNEE(_ context.Context, from, to string, amount float64) (*TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailTransfers {
		return nil, fmt.Errorf("transfer %f from %s to %s: network unavailable", amount, from, to)
	}

	if balance, ok := s.balances[from]; ok {
		if balance < amount {
			return nil, fmt.Errorf("insufficient balance: %f < %f", balance, amount)
		}
		s.balances[from] = balance - amount
		s.balances[to] += amount
	}

	return &TransferResult{Hash: SimulatedTxHash(), Success: true}, nil
}

// GetBalance returns the seeded balance, zero if unseeded.
func (s *Simulated) GetBalance(_ context.Context, address string) (float64, error) {
	balance, _ := s.balance(address)
	return balance, nil
}

func (s *Simulated) balance(address string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[address]
	return b, ok
}
