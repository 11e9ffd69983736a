package ledger

import (
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Status is the outcome of a transaction.
type Status string

const (
	StatusCommitted  Status = "committed"
	StatusRolledBack Status = "rolled_back"
)

// Invocation is one program entry during a transaction, top-level or nested.
type Invocation struct {
	Program solana.PublicKey `json:"program"`
	Depth   int              `json:"depth"`
}

// Receipt summarises an executed transaction.
type Receipt struct {
	ID           uuid.UUID    `json:"id"`
	Slot         uint64       `json:"slot"`
	Status       Status       `json:"status"`
	Error        string       `json:"error,omitempty"`
	Instructions int          `json:"instructions"`
	Invocations  []Invocation `json:"invocations"`
	Time         time.Time    `json:"time"`
}

// Invoked reports whether program ran at any depth.
func (r Receipt) Invoked(program solana.PublicKey) bool {
	for _, inv := range r.Invocations {
		if inv.Program.Equals(program) {
			return true
		}
	}
	return false
}
