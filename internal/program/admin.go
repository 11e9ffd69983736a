package program

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"feeproxy-go/internal/metrics"
	"feeproxy-go/internal/runtime"
)

// initializeConfig writes the first fee config into a program-owned account and
// makes the signing admin the fee wallet. An account that already holds a
// record is never overwritten.
func (p *Processor) initializeConfig(env runtime.Env, accounts []*runtime.AccountInfo, payload []byte) error {
	if err := requireAccounts(accounts, 2, "initialize"); err != nil {
		return err
	}
	if len(payload) < 1 {
		return fmt.Errorf("%w: initialize needs a fee rate byte", ErrMalformedPayload)
	}
	configAccount, admin := accounts[0], accounts[1]
	if !admin.IsSigner {
		return fmt.Errorf("%w: admin %s did not sign", ErrMissingAuthorization, admin.Key)
	}
	rate := payload[0]
	if rate > MaxFeeRate {
		return fmt.Errorf("%w: %d", ErrInvalidFeeRate, rate)
	}
	if !configAccount.Owner.Equals(env.ProgramID()) {
		return fmt.Errorf("%w: config %s owned by %s", ErrMalformedState, configAccount.Key, configAccount.Owner)
	}
	if !configAccount.IsWritable {
		return fmt.Errorf("%w: config %s is read-only", ErrMalformedState, configAccount.Key)
	}
	if len(configAccount.Data) < ConfigSize {
		return fmt.Errorf("%w: config account holds %d bytes, need %d", ErrMalformedState, len(configAccount.Data), ConfigSize)
	}
	if holdsRecord(configAccount.Data) {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, configAccount.Key)
	}

	if err := EncodeFeeConfig(configAccount.Data, NewFeeConfig(rate, admin.Key)); err != nil {
		return err
	}
	p.log.Info().Str("config", configAccount.Key.String()).Uint8("fee_rate", rate).Str("fee_wallet", admin.Key.String()).Msg("config initialized")
	return nil
}

// rotateFeeWallet hands the fee wallet, and with it rotation authority, to a
// new identity. Only the current fee wallet may do this.
func (p *Processor) rotateFeeWallet(env runtime.Env, accounts []*runtime.AccountInfo, payload []byte) error {
	if len(payload) < solana.PublicKeyLength {
		return fmt.Errorf("%w: rotation needs a %d byte wallet, got %d", ErrMalformedPayload, solana.PublicKeyLength, len(payload))
	}
	newWallet := solana.PublicKeyFromBytes(payload[:solana.PublicKeyLength])

	if err := requireAccounts(accounts, 2, "rotate"); err != nil {
		return err
	}
	configAccount, admin := accounts[0], accounts[1]
	if !admin.IsSigner {
		return fmt.Errorf("%w: admin %s did not sign", ErrMissingAuthorization, admin.Key)
	}
	cfg, err := loadConfig(env, configAccount)
	if err != nil {
		return err
	}
	if !admin.Key.Equals(cfg.FeeWallet) {
		return fmt.Errorf("%w: %s is not the fee wallet", ErrAuthorizationDenied, admin.Key)
	}
	if !configAccount.IsWritable {
		return fmt.Errorf("%w: config %s is read-only", ErrMalformedState, configAccount.Key)
	}

	previous := cfg.FeeWallet
	cfg.FeeWallet = newWallet
	if err := EncodeFeeConfig(configAccount.Data, *cfg); err != nil {
		return err
	}
	metrics.WalletRotationsTotal.Inc()
	p.log.Info().Str("config", configAccount.Key.String()).Str("from", previous.String()).Str("to", newWallet.String()).Msg("fee wallet rotated")
	return nil
}
