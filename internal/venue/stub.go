// Package venue provides stand-in trading programs that record what the router
// forwards to them.
package venue

import (
	"context"
	"encoding/binary"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/runtime"
)

// Call is one instruction a Stub received.
type Call struct {
	ProgramID solana.PublicKey
	Selector  [8]byte
	// Amount is the first u64 after the selector, zero when absent.
	Amount   uint64
	Args     []byte
	Accounts []solana.PublicKey
	Data     []byte
}

// Stub is a runtime.Program that records calls and optionally fails them.
type Stub struct {
	name string
	log  zerolog.Logger

	mu    sync.Mutex
	calls []Call
	err   error
}

// NewStub returns a stub logging under name.
func NewStub(name string, log zerolog.Logger) *Stub {
	return &Stub{name: name, log: log.With().Str("venue", name).Logger()}
}

// FailWith makes every later call return err. A nil err restores success.
func (s *Stub) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Process records the call, then returns the configured error if any.
func (s *Stub) Process(_ context.Context, env runtime.Env, accounts []*runtime.AccountInfo, data []byte) error {
	call := Call{ProgramID: env.ProgramID(), Data: append([]byte(nil), data...)}
	copy(call.Selector[:], data)
	if len(data) > 8 {
		call.Args = call.Data[8:]
	}
	if len(data) >= 16 {
		call.Amount = binary.LittleEndian.Uint64(data[8:16])
	}
	for _, acct := range accounts {
		call.Accounts = append(call.Accounts, acct.Key)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	err := s.err
	s.mu.Unlock()

	s.log.Info().Hex("selector", call.Selector[:]).Uint64("amount", call.Amount).Int("accounts", len(accounts)).Msg("venue call (stub)")
	return err
}

// Calls returns a copy of everything received so far, including calls whose
// transaction was later rolled back.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Last returns the most recent call.
func (s *Stub) Last() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// Reset forgets recorded calls.
func (s *Stub) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// Name is the label the stub logs under.
func (s *Stub) Name() string { return s.name }
