// Package runtime describes the host environment a router program executes in:
// account views, cross-program invocation, and the current slot.
package runtime

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
)

// Account is the mutable state behind an address. AccountInfo values that name
// the same address within one transaction share a single *Account.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Data != nil {
		out.Data = make([]byte, len(a.Data))
		copy(out.Data, a.Data)
	}
	return &out
}

// AccountInfo is an account as passed to a program for one instruction.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	*Account
}

// Env is what the host hands to a program while it runs.
type Env interface {
	// ProgramID is the address of the program currently executing.
	ProgramID() solana.PublicKey
	// Slot is the slot the transaction executes in.
	Slot() uint64
	// Invoke runs ix synchronously against accounts. The callee sees the same
	// underlying account state; changes it makes are visible on return.
	Invoke(ctx context.Context, ix solana.Instruction, accounts []*AccountInfo) error
}

// Program is an on-chain program the host can dispatch instructions to.
type Program interface {
	Process(ctx context.Context, env Env, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, env Env, accounts []*AccountInfo, data []byte) error

// Process calls f.
func (f ProgramFunc) Process(ctx context.Context, env Env, accounts []*AccountInfo, data []byte) error {
	return f(ctx, env, accounts, data)
}
