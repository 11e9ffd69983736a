package program

import (
	"context"
	"encoding/binary"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/ledger"
	"feeproxy-go/internal/runtime"
	"feeproxy-go/internal/venue"
)

// harness is a bank with the router, stub venues, and an initialized config.
type harness struct {
	bank    *ledger.Bank
	router  solana.PublicKey
	config  solana.PublicKey
	admin   solana.PublicKey
	payer   solana.PublicKey
	venues  map[string]*venue.Stub
	ata     *venue.Stub
	journal *ledger.Journal
	ctx     context.Context
}

func newHarness(t *testing.T, rate uint8) *harness {
	t.Helper()
	h := &harness{
		router:  solana.NewWallet().PublicKey(),
		config:  solana.NewWallet().PublicKey(),
		admin:   solana.NewWallet().PublicKey(),
		payer:   solana.NewWallet().PublicKey(),
		venues:  make(map[string]*venue.Stub),
		journal: ledger.NewJournal(16),
		ctx:     context.Background(),
	}
	h.bank = ledger.NewBank(ledger.WithRecorder(h.journal), ledger.WithSlot(100))
	h.bank.Register(h.router, NewProcessor(zerolog.Nop()))
	for _, v := range Venues() {
		stub := venue.NewStub(v.Name, zerolog.Nop())
		h.venues[v.Name] = stub
		h.bank.Register(v.ProgramID, stub)
	}
	h.ata = venue.NewStub("ata", zerolog.Nop())
	h.bank.Register(solana.SPLAssociatedTokenAccountProgramID, h.ata)
	h.bank.SetAccount(h.config, runtime.Account{Owner: h.router, Data: make([]byte, ConfigSize)})
	h.bank.Fund(h.payer, 10_000_000)

	if _, err := h.run([]solana.PublicKey{h.admin}, NewInitializeInstruction(h.router, h.config, h.admin, rate)); err != nil {
		t.Fatalf("initialize config: %v", err)
	}
	return h
}

func (h *harness) run(signers []solana.PublicKey, ixs ...solana.Instruction) (ledger.Receipt, error) {
	return h.bank.Execute(h.ctx, ledger.Transaction{Signers: signers, Instructions: ixs})
}

func (h *harness) feeConfig(t *testing.T) *FeeConfig {
	t.Helper()
	acct, ok := h.bank.Account(h.config)
	if !ok {
		t.Fatalf("config account missing")
	}
	cfg, err := DecodeFeeConfig(acct.Data)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg
}

// venueArgs is an 8-byte venue amount followed by extra.
func venueArgs(amount uint64, extra ...byte) []byte {
	return append(binary.LittleEndian.AppendUint64(nil, amount), extra...)
}

func (h *harness) trade(t *testing.T, op Operation, receiver solana.PublicKey, amount uint64, args []byte, venueAccounts ...*solana.AccountMeta) *solana.GenericInstruction {
	t.Helper()
	ix, err := NewTradeInstruction(h.router, op, TradeAccounts{Config: h.config, FeePayer: h.payer, FeeReceiver: receiver}, venueAccounts, amount, args)
	if err != nil {
		t.Fatalf("NewTradeInstruction: %v", err)
	}
	return ix
}

// fakeEnv serves handler-level tests that never reach the host.
type fakeEnv struct {
	id      solana.PublicKey
	slot    uint64
	invoked []solana.Instruction
	err     error
}

func (e *fakeEnv) ProgramID() solana.PublicKey { return e.id }
func (e *fakeEnv) Slot() uint64                { return e.slot }
func (e *fakeEnv) Invoke(_ context.Context, ix solana.Instruction, _ []*runtime.AccountInfo) error {
	e.invoked = append(e.invoked, ix)
	return e.err
}
