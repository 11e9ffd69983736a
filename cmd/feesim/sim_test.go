package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"feeproxy-go/internal/config"
	"feeproxy-go/internal/ledger"
)

func TestBundledScenarioRuns(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "feesim.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	journal := ledger.NewJournal(64)
	sim, err := newSimulator(cfg, zerolog.Nop(), journal)
	if err != nil {
		t.Fatalf("newSimulator returned error: %v", err)
	}
	ctx := context.Background()
	if err := sim.bootstrap(ctx, cfg.Sim.Admin, cfg.Sim.FeeRate); err != nil {
		t.Fatalf("bootstrap returned error: %v", err)
	}
	results, err := sim.run(ctx, cfg.Sim.Scenario)
	if err != nil {
		t.Fatalf("scenario diverged: %v", err)
	}
	if len(results) != len(cfg.Sim.Scenario) {
		t.Fatalf("expected %d results, got %d", len(cfg.Sim.Scenario), len(results))
	}

	// 5% of 1_000_000 + 250_000_000 + 10_000_000 on top of the starting balance.
	want := uint64(1_000_000 + 50_000 + 12_500_000 + 500_000)
	if got := sim.bank.Balance(sim.names["treasury"]); got != want {
		t.Fatalf("expected treasury %d, got %d", want, got)
	}
	cfgNow, err := sim.feeConfig()
	if err != nil {
		t.Fatalf("feeConfig: %v", err)
	}
	if !cfgNow.FeeWallet.Equals(sim.names["cold"]) {
		t.Fatalf("expected cold wallet to hold the fee role")
	}
	// bootstrap plus every step.
	if n := len(journal.Snapshot()); n != len(cfg.Sim.Scenario)+1 {
		t.Fatalf("expected %d receipts, got %d", len(cfg.Sim.Scenario)+1, n)
	}
}

func TestScenarioStopsOnDivergence(t *testing.T) {
	cfg := &config.Config{Sim: config.Sim{
		FeeRate:  5,
		Accounts: []config.SimAccount{{Name: "admin"}, {Name: "trader", Lamports: 10}},
		Scenario: []config.Step{
			{Name: "broke", Op: "pump-buy", Signer: "trader", Amount: 1_000_000},
			{Name: "never", Op: "check-expiry"},
		},
	}}
	sim, err := newSimulator(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newSimulator returned error: %v", err)
	}
	if err := sim.bootstrap(context.Background(), "admin", 5); err != nil {
		t.Fatalf("bootstrap returned error: %v", err)
	}
	results, err := sim.run(context.Background(), cfg.Sim.Scenario)
	if err == nil {
		t.Fatalf("expected insufficient funds to stop the run")
	}
	if len(results) != 1 {
		t.Fatalf("expected run to stop after first step, got %d results", len(results))
	}
}
