package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"feeproxy-go/internal/client"
	"feeproxy-go/internal/ledger"
	"feeproxy-go/internal/program"
	"feeproxy-go/internal/stream"
)

func (a *app) initCommand() *cobra.Command {
	var (
		rate        uint8
		keypairPath string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create and initialize a fee config account; the signer becomes fee wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			account := solana.NewWallet().PrivateKey
			if keypairPath != "" {
				if account, err = solana.PrivateKeyFromSolanaKeygenFile(keypairPath); err != nil {
					return fmt.Errorf("config keypair: %w", err)
				}
			}
			sig, err := c.CreateConfig(cmd.Context(), account, rate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config %s initialized at %d%% (tx %s)\n", account.PublicKey(), rate, sig)
			return nil
		},
	}
	cmd.Flags().Uint8Var(&rate, "rate", 0, "fee rate in percent, 0-100")
	cmd.Flags().StringVar(&keypairPath, "account-keypair", "", "keypair for the new config account (random if empty)")
	return cmd
}

func (a *app) rotateCommand() *cobra.Command {
	var account, newWallet string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Hand the fee wallet, and rotation rights, to a new address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			config, err := a.configAccount(account)
			if err != nil {
				return err
			}
			next, err := solana.PublicKeyFromBase58(newWallet)
			if err != nil {
				return fmt.Errorf("new wallet: %w", err)
			}
			sig, err := c.Send(cmd.Context(), program.NewRotateFeeWalletInstruction(c.ProgramID, config, c.Owner.PublicKey(), next))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fee wallet is now %s (tx %s)\n", next, sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "config account (defaults to program.config_account)")
	cmd.Flags().StringVar(&newWallet, "new-wallet", "", "address that will receive fees")
	_ = cmd.MarkFlagRequired("new-wallet")
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	var (
		account string
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the fee config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			config, err := a.configAccount(account)
			if err != nil {
				return err
			}
			report := func(cfg *program.FeeConfig) {
				layout := "v1"
				if cfg.Legacy() {
					layout = "legacy"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rate=%d%% wallet=%s layout=%s\n", cfg.FeeRate, cfg.FeeWallet, layout)
			}
			if watch {
				every := time.Duration(a.cfg.Cluster.PollInterval) * time.Millisecond
				if every <= 0 {
					every = 2 * time.Second
				}
				err := c.WatchConfig(cmd.Context(), config, every, report)
				if cmd.Context().Err() != nil {
					return nil
				}
				return err
			}
			cfg, err := c.FetchConfig(cmd.Context(), config)
			if err != nil {
				return err
			}
			report(cfg)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "config account (defaults to program.config_account)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling and print changes")
	return cmd
}

func (a *app) tradeCommand() *cobra.Command {
	var (
		account, opName, receiver, amount, args string
		venueAccounts                           []string
	)
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Send a trade through the router, paying the fee from the signer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := program.ParseOperation(opName)
			if err != nil {
				return err
			}
			units, err := parseTradeAmount(op, amount)
			if err != nil {
				return err
			}
			venueArgs, err := hex.DecodeString(strings.TrimPrefix(args, "0x"))
			if err != nil {
				return fmt.Errorf("venue args: %w", err)
			}
			metas, err := parseMetas(venueAccounts)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			config, err := a.configAccount(account)
			if err != nil {
				return err
			}
			feeReceiver, err := solana.PublicKeyFromBase58(receiver)
			if err != nil {
				return fmt.Errorf("receiver: %w", err)
			}

			ix, err := program.NewTradeInstruction(c.ProgramID, op, program.TradeAccounts{
				Config:      config,
				FeePayer:    c.Owner.PublicKey(),
				FeeReceiver: feeReceiver,
			}, metas, units, venueArgs)
			if err != nil {
				return err
			}
			sig, err := c.Send(cmd.Context(), ix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s for %s sent (tx %s)\n", op, formatTradeAmount(op, units), sig)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&account, "account", "", "config account (defaults to program.config_account)")
	flags.StringVar(&opName, "op", "pump-buy", "trade operation, see `feectl ops`")
	flags.StringVar(&receiver, "receiver", "", "fee wallet the fee is paid to")
	flags.StringVar(&amount, "amount", "", "amount the fee is charged on: SOL for buys, raw token units for sells")
	flags.StringVar(&args, "args", "", "hex venue arguments, starting with the u64 amount the router rewrites")
	flags.StringSliceVar(&venueAccounts, "venue-account", nil, "venue account as ADDRESS[:ws] (w writable, s signer); repeatable, in order")
	_ = cmd.MarkFlagRequired("receiver")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func sells(op program.Operation) bool {
	switch op {
	case program.OpPumpSell, program.OpPumpAMMSell, program.OpRaydiumSell:
		return true
	}
	return false
}

// parseTradeAmount reads buy amounts as SOL and sell amounts as raw token units.
func parseTradeAmount(op program.Operation, s string) (uint64, error) {
	if !sells(op) {
		return client.ParseSOL(s)
	}
	units, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sell amount %q: want raw token units: %w", s, err)
	}
	return units, nil
}

func formatTradeAmount(op program.Operation, units uint64) string {
	if sells(op) {
		return strconv.FormatUint(units, 10) + " token units"
	}
	return client.FormatSOL(units) + " SOL"
}

func (a *app) receiptsCommand() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Follow the simulator's receipt stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := stream.Follow(cmd.Context(), url, a.log, func(r ledger.Receipt) {
				line := fmt.Sprintf("%s slot=%d %s invocations=%d", r.ID, r.Slot, r.Status, len(r.Invocations))
				if r.Error != "" {
					line += " error=" + r.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://127.0.0.1:9103/receipts", "receipt stream websocket URL")
	return cmd
}

func opsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List router operations and their opcodes",
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, op := range program.Operations() {
				code, _ := op.Opcode()
				line := fmt.Sprintf("%-26s %x", op, code[:])
				if venue, side, ok := op.Route(); ok {
					selector := venue.Selector(side)
					line += fmt.Sprintf("  -> %s %s %x", venue.Name, venue.ProgramID, selector[:])
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

// parseMetas reads ADDRESS[:flags] where flags may contain w and s.
func parseMetas(values []string) (solana.AccountMetaSlice, error) {
	metas := make(solana.AccountMetaSlice, 0, len(values))
	for _, v := range values {
		addr, flags, _ := strings.Cut(v, ":")
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("venue account %q: %w", v, err)
		}
		metas = append(metas, solana.NewAccountMeta(key, strings.Contains(flags, "w"), strings.Contains(flags, "s")))
	}
	return metas, nil
}
