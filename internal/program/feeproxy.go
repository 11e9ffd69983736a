package program

import (
	"context"
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"feeproxy-go/internal/metrics"
	"feeproxy-go/internal/runtime"
)

const (
	// tradePrefixAccounts is config, system program, fee payer, fee receiver.
	tradePrefixAccounts = 4
	amountLen           = 8
	// minTradePayload covers the router amount and the venue amount slot it rewrites.
	minTradePayload = 2 * amountLen
)

// proxyTrade charges the configured fee on a trade and forwards the rest of the
// request to venue. The fee transfer and the venue call settle together or not
// at all; rollback is the host's job.
func (p *Processor) proxyTrade(ctx context.Context, env runtime.Env, accounts []*runtime.AccountInfo, payload []byte, venue Venue, side Side) error {
	if err := requireAccounts(accounts, tradePrefixAccounts, "trade"); err != nil {
		return err
	}
	configAccount := accounts[0]
	systemAccount := accounts[1]
	feePayer := accounts[2]
	feeReceiver := accounts[3]
	venueAccounts := accounts[tradePrefixAccounts:]

	if !feePayer.IsSigner {
		return fmt.Errorf("%w: fee payer %s did not sign", ErrMissingAuthorization, feePayer.Key)
	}
	cfg, err := loadConfig(env, configAccount)
	if err != nil {
		return err
	}
	if !feeReceiver.Key.Equals(cfg.FeeWallet) {
		return fmt.Errorf("%w: receiver %s, configured %s", ErrRecipientMismatch, feeReceiver.Key, cfg.FeeWallet)
	}
	if len(payload) < amountLen {
		return fmt.Errorf("%w: trade payload is %d bytes", ErrMalformedPayload, len(payload))
	}
	if len(payload) < minTradePayload {
		return fmt.Errorf("%w: no venue amount after router amount (%d bytes)", ErrMalformedPayload, len(payload))
	}
	if !systemAccount.Key.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: expected system program, got %s", ErrIncorrectProgramID, systemAccount.Key)
	}

	amount := binary.LittleEndian.Uint64(payload[:amountLen])
	fee, remaining, err := ComputeFee(amount, cfg.FeeRate)
	if err != nil {
		return err
	}
	if feePayer.Lamports < fee {
		return fmt.Errorf("%w: payer holds %d lamports, fee is %d", ErrInsufficientFunds, feePayer.Lamports, fee)
	}

	transfer := system.NewTransferInstruction(fee, feePayer.Key, feeReceiver.Key).Build()
	if err := env.Invoke(ctx, transfer, []*runtime.AccountInfo{feePayer, feeReceiver, systemAccount}); err != nil {
		return err
	}

	p.log.Info().
		Str("venue", venue.Name).
		Str("side", side.String()).
		Uint64("amount", amount).
		Uint64("fee", fee).
		Uint64("remaining", remaining).
		Msg("fee charged")

	forwarded := ForwardedInstruction(venue.ProgramID, venue.Selector(side), payload, remaining, venueAccounts)
	if err := env.Invoke(ctx, forwarded, venueAccounts); err != nil {
		return err
	}
	metrics.FeesLamportsTotal.WithLabelValues(venue.Name).Add(float64(fee))
	return nil
}

// ForwardedInstruction rebuilds a venue call from a router trade payload:
// selector ‖ payload[8:], with the first venue u64 replaced by remaining. The
// result is exactly len(payload) bytes; payload must hold at least 16.
func ForwardedInstruction(programID solana.PublicKey, selector [8]byte, payload []byte, remaining uint64, venueAccounts []*runtime.AccountInfo) *solana.GenericInstruction {
	data := make([]byte, 0, len(payload))
	data = append(data, selector[:]...)
	data = append(data, payload[amountLen:]...)
	binary.LittleEndian.PutUint64(data[amountLen:minTradePayload], remaining)
	return solana.NewInstruction(programID, ToAccountMetas(venueAccounts), data)
}
