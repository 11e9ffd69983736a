// Package client talks to a deployed router over Solana JSON-RPC.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/program"
)

// ErrAccountMissing is returned when an account does not exist on the cluster.
var ErrAccountMissing = errors.New("account not found")

type Client struct {
	RPC       *rpc.Client
	Owner     solana.PrivateKey
	Commit    rpc.CommitmentType
	ProgramID solana.PublicKey
	Log       zerolog.Logger
}

func NewClient(rpcURL string, programID solana.PublicKey, owner solana.PrivateKey, commit string) *Client {
	c := rpc.CommitmentConfirmed
	switch commit {
	case "processed":
		c = rpc.CommitmentProcessed
	case "finalized":
		c = rpc.CommitmentFinalized
	}
	return &Client{
		RPC:       rpc.New(rpcURL),
		Owner:     owner,
		Commit:    c,
		ProgramID: programID,
		Log:       zerolog.Nop(),
	}
}

// Send signs ixs with the owner, which also pays, and submits them as one transaction.
func (c *Client) Send(ctx context.Context, ixs ...solana.Instruction) (solana.Signature, error) {
	return c.SendWithSigners(ctx, nil, ixs...)
}

// SendWithSigners is Send for transactions that need keys besides the owner's.
func (c *Client) SendWithSigners(ctx context.Context, extra []solana.PrivateKey, ixs ...solana.Instruction) (sig solana.Signature, err error) {
	recent, err := c.RPC.GetLatestBlockhash(ctx, c.Commit)
	if err != nil {
		return sig, fmt.Errorf("latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(c.Owner.PublicKey()))
	if err != nil {
		return sig, fmt.Errorf("build tx: %w", err)
	}

	keys := append([]solana.PrivateKey{c.Owner}, extra...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if key.Equals(keys[i].PublicKey()) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return sig, fmt.Errorf("sign: %w", err)
	}

	sig, err = c.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.Commit,
	})
	if err != nil {
		return sig, fmt.Errorf("send: %w", err)
	}
	c.Log.Info().Str("sig", sig.String()).Int("instructions", len(ixs)).Msg("transaction sent")
	return sig, nil
}

// CreateConfig allocates a program-owned config account and initializes it with
// the owner as fee wallet, in a single transaction.
func (c *Client) CreateConfig(ctx context.Context, account solana.PrivateKey, feeRate uint8) (solana.Signature, error) {
	rent, err := c.RPC.GetMinimumBalanceForRentExemption(ctx, program.ConfigSize, c.Commit)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("rent exemption: %w", err)
	}
	create := system.NewCreateAccountInstruction(rent, program.ConfigSize, c.ProgramID, c.Owner.PublicKey(), account.PublicKey()).Build()
	initialize := program.NewInitializeInstruction(c.ProgramID, account.PublicKey(), c.Owner.PublicKey(), feeRate)
	return c.SendWithSigners(ctx, []solana.PrivateKey{account}, create, initialize)
}

// FetchConfig reads and decodes the fee config stored at addr.
func (c *Client) FetchConfig(ctx context.Context, addr solana.PublicKey) (*program.FeeConfig, error) {
	out, err := c.RPC.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.Commit,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountMissing, addr)
		}
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountMissing, addr)
	}
	if !c.ProgramID.IsZero() && !out.Value.Owner.Equals(c.ProgramID) {
		return nil, fmt.Errorf("%w: %s owned by %s", program.ErrMalformedState, addr, out.Value.Owner)
	}
	return program.DecodeFeeConfig(out.Value.Data.GetBinary())
}

// WatchConfig polls addr every interval and calls fn with the first config
// seen and again whenever the rate or wallet changes. It returns when ctx ends.
func (c *Client) WatchConfig(ctx context.Context, addr solana.PublicKey, every time.Duration, fn func(*program.FeeConfig)) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last *program.FeeConfig
	for {
		cfg, err := c.FetchConfig(ctx, addr)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn().Err(err).Str("config", addr.String()).Msg("fetch config")
		case last == nil || cfg.FeeRate != last.FeeRate || !cfg.FeeWallet.Equals(last.FeeWallet):
			last = cfg
			fn(cfg)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
