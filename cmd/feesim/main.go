package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"feeproxy-go/internal/client"
	"feeproxy-go/internal/config"
	"feeproxy-go/internal/ledger"
	"feeproxy-go/internal/metrics"
	"feeproxy-go/internal/stream"
	"feeproxy-go/internal/util"
)

func main() {
	cfg, err := config.Load(getEnv("FEESIM_CONFIG", "configs/feesim.yaml"))
	if err != nil {
		boot := util.NewLogger("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel, cfg.App.PrettyLogs)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate config")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var servers []*http.Server
	if cfg.App.MetricsAddr != "" {
		servers = append(servers, metrics.Serve(cfg.App.MetricsAddr))
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	journalSize := cfg.Sim.JournalSize
	if journalSize <= 0 {
		journalSize = 256
	}
	journal := ledger.NewJournal(journalSize)
	recorders := []ledger.Recorder{journal}
	if cfg.Sim.ReceiptsPath != "" {
		jsonl, err := ledger.NewJSONLRecorder(cfg.Sim.ReceiptsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open receipts file")
		}
		defer jsonl.Close()
		recorders = append(recorders, jsonl)
	}
	if cfg.Sim.StreamAddr != "" {
		hub := newStreamServer(cfg.Sim.StreamAddr, log)
		defer hub.Close()
		servers = append(servers, hub.server)
		recorders = append(recorders, hub.Hub)
	}

	sim, err := newSimulator(cfg, log, recorders...)
	if err != nil {
		log.Fatal().Err(err).Msg("build simulator")
	}
	admin := cfg.Sim.Admin
	if admin == "" && len(cfg.Sim.Accounts) > 0 {
		admin = cfg.Sim.Accounts[0].Name
	}
	if err := sim.bootstrap(ctx, admin, cfg.Sim.FeeRate); err != nil {
		log.Fatal().Err(err).Msg("bootstrap")
	}

	results, err := sim.run(ctx, cfg.Sim.Scenario)
	if err != nil {
		log.Error().Err(err).Msg("scenario diverged")
	}
	summarize(log, sim, results)

	if len(servers) == 0 {
		return
	}
	log.Info().Msg("serving until interrupted")
	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Info().Msg("shutting down")
}

func summarize(log zerolog.Logger, sim *simulator, results []stepResult) {
	committed := 0
	for _, r := range results {
		if r.Receipt.Status == ledger.StatusCommitted {
			committed++
		}
	}
	event := log.Info().Int("steps", len(results)).Int("committed", committed)
	if cfg, err := sim.feeConfig(); err == nil {
		event = event.Str("fee_wallet", cfg.FeeWallet.String()).
			Str("fee_wallet_sol", client.FormatSOL(sim.bank.Balance(cfg.FeeWallet)))
	}
	event.Msg("scenario finished")
}

// streamServer serves a receipt Hub at /receipts.
type streamServer struct {
	*stream.Hub
	server *http.Server
}

func newStreamServer(addr string, log zerolog.Logger) *streamServer {
	hub := stream.NewHub(log)
	mux := http.NewServeMux()
	mux.Handle("/receipts", hub)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("receipt stream stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("receipt stream up")
	return &streamServer{Hub: hub, server: srv}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
