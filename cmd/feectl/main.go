package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"feeproxy-go/internal/client"
	"feeproxy-go/internal/config"
	"feeproxy-go/internal/util"
)

type app struct {
	configPath string
	rpcURL     string
	programID  string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "feectl",
		Short:        "Operate a fee-proxy router deployment",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "configs/feeproxy.yaml", "path to YAML config")
	flags.StringVar(&a.rpcURL, "rpc", "", "RPC endpoint (overrides config and FEEPROXY_RPC_URL)")
	flags.StringVar(&a.programID, "program", "", "router program id (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(
		a.initCommand(),
		a.rotateCommand(),
		a.showCommand(),
		a.tradeCommand(),
		a.receiptsCommand(),
		opsCommand(),
	)
	return root
}

// load reads the config file if present; flags and environment win over it.
func (a *app) load() error {
	cfg := &config.Config{}
	if _, err := os.Stat(a.configPath); err == nil {
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	cfg.Cluster.RpcURL = firstNonEmpty(a.rpcURL, os.Getenv("FEEPROXY_RPC_URL"), cfg.Cluster.RpcURL, "http://127.0.0.1:8899")
	cfg.Cluster.Commitment = firstNonEmpty(os.Getenv("FEEPROXY_COMMITMENT"), cfg.Cluster.Commitment)
	cfg.Program.ID = firstNonEmpty(a.programID, os.Getenv("FEEPROXY_PROGRAM_ID"), cfg.Program.ID)
	cfg.Wallet.KeyEnv = firstNonEmpty(cfg.Wallet.KeyEnv, "FEEPROXY_PRIVATE_KEY")
	cfg.App.LogLevel = firstNonEmpty(a.logLevel, cfg.App.LogLevel, "info")
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = util.NewLogger(cfg.App.LogLevel, true)
	return nil
}

func (a *app) client() (*client.Client, error) {
	if a.cfg.Program.ID == "" {
		return nil, fmt.Errorf("no program id: set program.id or --program")
	}
	programID, err := solana.PublicKeyFromBase58(a.cfg.Program.ID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	owner, err := client.LoadPrivateKey(a.cfg.Wallet.KeyEnv, a.cfg.Wallet.KeypairPath)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	c := client.NewClient(a.cfg.Cluster.RpcURL, programID, owner, a.cfg.Cluster.Commitment)
	c.Log = a.log
	return c, nil
}

// configAccount resolves --account, falling back to program.config_account.
func (a *app) configAccount(flag string) (solana.PublicKey, error) {
	addr := firstNonEmpty(flag, a.cfg.Program.ConfigAccount)
	if addr == "" {
		return solana.PublicKey{}, fmt.Errorf("no config account: set program.config_account or --account")
	}
	return solana.PublicKeyFromBase58(addr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
