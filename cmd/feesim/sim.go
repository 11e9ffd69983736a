package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/config"
	"feeproxy-go/internal/ledger"
	"feeproxy-go/internal/program"
	"feeproxy-go/internal/runtime"
	"feeproxy-go/internal/venue"
)

// simulator is a bank with the router, stub venues, and named funded accounts.
type simulator struct {
	log    zerolog.Logger
	bank   *ledger.Bank
	router solana.PublicKey
	config solana.PublicKey
	mint   solana.PublicKey
	names  map[string]solana.PublicKey
	stubs  map[solana.PublicKey]*venue.Stub
}

type stepResult struct {
	Step    config.Step
	Receipt ledger.Receipt
	Err     error
}

func newSimulator(cfg *config.Config, log zerolog.Logger, recorders ...ledger.Recorder) (*simulator, error) {
	s := &simulator{
		log:   log.With().Str("component", "sim").Logger(),
		mint:  solana.NewWallet().PublicKey(),
		names: make(map[string]solana.PublicKey),
		stubs: make(map[solana.PublicKey]*venue.Stub),
	}
	var err error
	if s.router, err = keyOrRandom(cfg.Program.ID); err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	if s.config, err = keyOrRandom(cfg.Program.ConfigAccount); err != nil {
		return nil, fmt.Errorf("config account: %w", err)
	}

	opts := []ledger.Option{ledger.WithLogger(log), ledger.WithSlot(cfg.Sim.Slot)}
	for _, r := range recorders {
		opts = append(opts, ledger.WithRecorder(r))
	}
	s.bank = ledger.NewBank(opts...)
	s.bank.Register(s.router, program.NewProcessor(log))
	for _, v := range program.Venues() {
		s.addStub(v.Name, v.ProgramID)
	}
	s.addStub("associated-token", solana.SPLAssociatedTokenAccountProgramID)
	s.bank.SetAccount(s.config, runtime.Account{Owner: s.router, Data: make([]byte, program.ConfigSize)})

	for _, acct := range cfg.Sim.Accounts {
		key := solana.NewWallet().PublicKey()
		s.names[acct.Name] = key
		s.bank.Fund(key, acct.Lamports)
	}
	return s, nil
}

func (s *simulator) addStub(name string, id solana.PublicKey) {
	stub := venue.NewStub(name, s.log)
	s.stubs[id] = stub
	s.bank.Register(id, stub)
}

func keyOrRandom(addr string) (solana.PublicKey, error) {
	if addr == "" {
		return solana.NewWallet().PublicKey(), nil
	}
	return solana.PublicKeyFromBase58(addr)
}

// bootstrap initializes the config with admin as fee wallet.
func (s *simulator) bootstrap(ctx context.Context, admin string, rate uint8) error {
	key, ok := s.names[admin]
	if !ok {
		return fmt.Errorf("unknown admin %q", admin)
	}
	ix := program.NewInitializeInstruction(s.router, s.config, key, rate)
	if _, err := s.bank.Execute(ctx, ledger.Transaction{Signers: []solana.PublicKey{key}, Instructions: []solana.Instruction{ix}}); err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}
	s.log.Info().Str("router", s.router.String()).Str("config", s.config.String()).Str("admin", admin).Uint8("fee_rate", rate).Msg("router ready")
	return nil
}

// run executes steps in order. A step whose outcome differs from its
// expectation stops the run.
func (s *simulator) run(ctx context.Context, steps []config.Step) ([]stepResult, error) {
	results := make([]stepResult, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		receipt, err := s.runStep(ctx, step)
		results = append(results, stepResult{Step: step, Receipt: receipt, Err: err})
		if mismatch := checkExpectation(step, err); mismatch != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, step.Name, mismatch)
		}
		s.log.Info().Str("step", step.Name).Str("op", step.Op).Str("status", string(receipt.Status)).AnErr("result", err).Msg("step done")
		if step.AdvanceSlots > 0 {
			s.bank.SetSlot(s.bank.Slot() + step.AdvanceSlots)
		}
	}
	return results, nil
}

func (s *simulator) runStep(ctx context.Context, step config.Step) (ledger.Receipt, error) {
	op, err := program.ParseOperation(step.Op)
	if err != nil {
		return ledger.Receipt{}, err
	}
	signer := s.names[step.Signer]

	var ix solana.Instruction
	switch {
	case op.IsTrade():
		receiver, err := s.receiver(step.Receiver)
		if err != nil {
			return ledger.Receipt{}, err
		}
		venueProgram, _, _ := op.Route()
		if step.VenueError != "" {
			stub := s.stubs[venueProgram.ProgramID]
			stub.FailWith(errors.New(step.VenueError))
			defer stub.FailWith(nil)
		}
		// Venue args: amount to rewrite, then a zero slippage bound.
		args := binary.LittleEndian.AppendUint64(nil, step.Amount)
		args = binary.LittleEndian.AppendUint64(args, 0)
		ix, err = program.NewTradeInstruction(s.router, op, program.TradeAccounts{
			Config:      s.config,
			FeePayer:    signer,
			FeeReceiver: receiver,
		}, solana.AccountMetaSlice{
			solana.NewAccountMeta(s.mint, false, false),
			solana.NewAccountMeta(signer, true, true),
		}, step.Amount, args)
		if err != nil {
			return ledger.Receipt{}, err
		}
	case op == program.OpRotateFeeWallet:
		ix = program.NewRotateFeeWalletInstruction(s.router, s.config, signer, s.names[step.NewWallet])
	case op == program.OpInitializeConfig:
		ix = program.NewInitializeInstruction(s.router, s.config, signer, uint8(step.Amount))
	case op == program.OpCheckExpiry:
		ix = program.NewCheckExpiryInstruction(s.router, step.LastValidSlot)
	case op == program.OpCreateAssociatedAccount:
		if ix, err = program.NewCreateAssociatedAccountInstruction(s.router, signer, signer, s.mint); err != nil {
			return ledger.Receipt{}, err
		}
	default:
		return ledger.Receipt{}, fmt.Errorf("no scenario builder for %s", op)
	}

	var signers []solana.PublicKey
	if !signer.IsZero() {
		signers = append(signers, signer)
	}
	return s.bank.Execute(ctx, ledger.Transaction{Signers: signers, Instructions: []solana.Instruction{ix}})
}

// receiver resolves a named account, defaulting to the current fee wallet.
func (s *simulator) receiver(name string) (solana.PublicKey, error) {
	if name != "" {
		return s.names[name], nil
	}
	cfg, err := s.feeConfig()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return cfg.FeeWallet, nil
}

func (s *simulator) feeConfig() (*program.FeeConfig, error) {
	acct, ok := s.bank.Account(s.config)
	if !ok {
		return nil, fmt.Errorf("config account %s missing", s.config)
	}
	return program.DecodeFeeConfig(acct.Data)
}

func checkExpectation(step config.Step, err error) error {
	if step.ExpectError == "" {
		if err != nil {
			return fmt.Errorf("unexpected failure: %w", err)
		}
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected %q, step succeeded", step.ExpectError)
	}
	var pe *program.ProgramError
	if errors.As(err, &pe) && pe.Name == step.ExpectError {
		return nil
	}
	if strings.Contains(err.Error(), step.ExpectError) {
		return nil
	}
	return fmt.Errorf("expected %q, got %w", step.ExpectError, err)
}
