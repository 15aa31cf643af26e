package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

//go:generate mockgen -package mocks -destination mocks/ledger.go . Ledger

var ErrInsufficientFunds = errors.New("insufficient funds")

// Transfer is a movement of funds between two principals.
type Transfer struct {
	Amount uint64
	From   Identity
	To     Identity
	// ProofID is the proof whose submission caused the transfer.
	ProofID uint64
	// Time is the registry time at which the transfer was made.
	Time uint64
	// Refund marks a compensating transfer that reverses an earlier one.
	Refund bool
}

// Ledger moves submission fees.
// A Transfer that returns an error must not have moved any funds.
type Ledger interface {
	Transfer(ctx context.Context, t Transfer) error
}

// MemLedger is an in-memory ledger that keeps every transfer it executes.
// Without balances it accepts any transfer.
type MemLedger struct {
	mu        sync.Mutex
	transfers []Transfer
	balances  map[Identity]uint64
}

type memLedgerOptionFunc func(*MemLedger)

// WithBalances makes the ledger track balances starting from the given ones.
// Transfers exceeding the sender's balance fail with ErrInsufficientFunds.
func WithBalances(balances map[Identity]uint64) memLedgerOptionFunc {
	return func(l *MemLedger) {
		l.balances = make(map[Identity]uint64, len(balances))
		for id, amount := range balances {
			l.balances[id] = amount
		}
	}
}

func NewMemLedger(opts ...memLedgerOptionFunc) *MemLedger {
	l := &MemLedger{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemLedger) Transfer(ctx context.Context, t Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances != nil {
		balance := l.balances[t.From]
		if balance < t.Amount {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, t.From, balance, t.Amount)
		}
		l.balances[t.From] = balance - t.Amount
		l.balances[t.To] += t.Amount
	}
	l.transfers = append(l.transfers, t)
	return nil
}

// Transfers returns a copy of the audit trail in execution order.
func (l *MemLedger) Transfers() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Transfer, len(l.transfers))
	copy(out, l.transfers)
	return out
}

// Balance returns the balance of id, and false if balances are not tracked.
func (l *MemLedger) Balance(id Identity) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances == nil {
		return 0, false
	}
	return l.balances[id], true
}
