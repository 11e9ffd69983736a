// Package ledger is an in-memory host for router programs. It executes
// transactions atomically: every account change made by every instruction and
// nested invocation commits together, or the transaction leaves no trace.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/metrics"
	"feeproxy-go/internal/runtime"
)

// MaxInvokeDepth bounds nested invocations, counting the top-level instruction.
const MaxInvokeDepth = 5

var (
	ErrAccountNotFound      = errors.New("account not passed to instruction")
	ErrProgramNotFound      = errors.New("program not found")
	ErrMissingSignature     = errors.New("missing required signature")
	ErrPrivilegeEscalation  = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrCallDepth            = errors.New("invocation depth exceeded")
	ErrInsufficientLamports = errors.New("insufficient lamports for transfer")
	ErrReadonlyModified     = errors.New("instruction modified a read-only account")
	ErrUnbalanced           = errors.New("sum of account balances changed")
	ErrUnsupportedSystemIx  = errors.New("unsupported system instruction")
)

// Recorder receives a receipt for every executed transaction.
type Recorder interface {
	Record(Receipt)
}

// Transaction is a batch of instructions that settles as one unit.
type Transaction struct {
	Signers      []solana.PublicKey
	Instructions []solana.Instruction
}

// Bank holds account state, registered programs, and the current slot.
type Bank struct {
	mu        sync.Mutex
	log       zerolog.Logger
	accounts  map[solana.PublicKey]*runtime.Account
	programs  map[solana.PublicKey]runtime.Program
	slot      uint64
	recorders []Recorder
}

// Option configures a Bank.
type Option func(*Bank)

// WithLogger routes bank logging to log.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Bank) { b.log = log.With().Str("component", "bank").Logger() }
}

// WithRecorder adds a receipt sink.
func WithRecorder(r Recorder) Option {
	return func(b *Bank) {
		if r != nil {
			b.recorders = append(b.recorders, r)
		}
	}
}

// WithSlot sets the starting slot.
func WithSlot(slot uint64) Option {
	return func(b *Bank) { b.slot = slot }
}

// NewBank returns an empty bank.
func NewBank(opts ...Option) *Bank {
	b := &Bank{
		log:      zerolog.Nop(),
		accounts: make(map[solana.PublicKey]*runtime.Account),
		programs: make(map[solana.PublicKey]runtime.Program),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register installs prog at id and marks the id executable.
func (b *Bank) Register(id solana.PublicKey, prog runtime.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[id] = prog
	acct := b.accounts[id]
	if acct == nil {
		acct = &runtime.Account{Owner: solana.BPFLoaderUpgradeableProgramID}
		b.accounts[id] = acct
	}
	acct.Executable = true
}

// SetAccount stores a copy of acct at key.
func (b *Bank) SetAccount(key solana.PublicKey, acct runtime.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[key] = acct.Clone()
}

// Fund adds lamports to key, creating a system-owned account if needed.
func (b *Bank) Fund(key solana.PublicKey, lamports uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.accounts[key]
	if acct == nil {
		acct = &runtime.Account{Owner: solana.SystemProgramID}
		b.accounts[key] = acct
	}
	acct.Lamports += lamports
}

// Account returns a copy of the state at key.
func (b *Bank) Account(key solana.PublicKey) (runtime.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[key]
	if !ok {
		return runtime.Account{}, false
	}
	return *acct.Clone(), true
}

// Balance returns the lamports held at key.
func (b *Bank) Balance(key solana.PublicKey) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct := b.accounts[key]; acct != nil {
		return acct.Lamports
	}
	return 0
}

// Slot returns the slot transactions currently execute in.
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

// SetSlot moves the bank to slot.
func (b *Bank) SetSlot(slot uint64) {
	b.mu.Lock()
	b.slot = slot
	b.mu.Unlock()
}

// Execute runs tx. On error no account change is kept and the returned receipt
// says why.
func (b *Bank) Execute(ctx context.Context, tx Transaction) (Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	run := newExecution(b, tx.Signers)
	receipt := Receipt{
		ID:           uuid.New(),
		Slot:         b.slot,
		Instructions: len(tx.Instructions),
		Time:         time.Now().UTC(),
	}

	var execErr error
	for i, ix := range tx.Instructions {
		if err := run.execute(ctx, ix); err != nil {
			execErr = fmt.Errorf("instruction %d: %w", i, err)
			break
		}
	}
	receipt.Invocations = run.invocations

	if execErr != nil {
		receipt.Status = StatusRolledBack
		receipt.Error = execErr.Error()
		metrics.TransactionsTotal.WithLabelValues(string(StatusRolledBack)).Inc()
		b.log.Warn().Str("id", receipt.ID.String()).Err(execErr).Msg("transaction rolled back")
		b.record(receipt)
		return receipt, execErr
	}

	for key, acct := range run.working {
		b.accounts[key] = acct
	}
	receipt.Status = StatusCommitted
	metrics.TransactionsTotal.WithLabelValues(string(StatusCommitted)).Inc()
	b.log.Info().Str("id", receipt.ID.String()).Int("invocations", len(receipt.Invocations)).Msg("transaction committed")
	b.record(receipt)
	return receipt, nil
}

func (b *Bank) record(receipt Receipt) {
	for _, r := range b.recorders {
		r.Record(receipt)
	}
}
