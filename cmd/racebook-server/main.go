package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/racebook/internal/auth"
	"github.com/lox/racebook/internal/race"
	"github.com/lox/racebook/internal/server"
	"github.com/lox/racebook/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"racebook.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	DataDir  string `short:"d" long:"data-dir" help:"Balance store directory (overrides config; empty for in-memory)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.DataDir != "" {
		cfg.Race.DataDir = CLI.DataDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting Racebook Server",
		"addr", cfg.GetServerAddress(),
		"owner", cfg.Race.Owner,
		"accounts", len(cfg.Accounts))

	balances, err := openBalanceStore(cfg.Race.DataDir)
	if err != nil {
		logger.Error("Failed to open balance store", "error", err, "dir", cfg.Race.DataDir)
		ctx.Exit(1)
	}
	defer balances.Close()

	engine := race.NewEngine(cfg.Race.Owner, balances, logger, quartz.NewReal())

	// Credit configured opening balances before accepting connections
	for _, account := range cfg.Accounts {
		if account.Balance == 0 {
			continue
		}
		if err := engine.Deposit(cfg.Race.Owner, account.Name, account.Balance); err != nil {
			logger.Error("Failed to credit opening balance", "error", err, "account", account.Name)
			ctx.Exit(1)
		}
		logger.Info("Credited opening balance", "account", account.Name, "balance", account.Balance)
	}

	var validator auth.Validator
	if tokens := cfg.TokenTable(); len(tokens) > 0 {
		validator = auth.NewStaticValidator(tokens)
	} else {
		logger.Warn("No account tokens configured, authentication disabled")
		validator = auth.NewNoopValidator()
	}

	metrics := server.NewMetrics()
	wsServer := server.NewServer(cfg.GetServerAddress(), metrics, validator, logger)
	raceService := server.NewRaceService(engine, wsServer, metrics, logger)
	wsServer.SetRaceService(raceService)

	// Serve until the listener fails or a shutdown signal arrives
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		return wsServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}

// balanceStore joins the engine's store interface with the closer the badger
// backend needs on shutdown.
type balanceStore interface {
	race.BalanceStore
	Close()
}

type memoryStore struct{ *store.MemoryStore }

func (memoryStore) Close() {}

type badgerStore struct{ *store.BadgerStore }

func (b badgerStore) Close() { _ = b.BadgerStore.Close() }

func openBalanceStore(dataDir string) (balanceStore, error) {
	if dataDir == "" {
		return memoryStore{store.NewMemoryStore()}, nil
	}
	bs, err := store.OpenBadger(dataDir)
	if err != nil {
		return nil, err
	}
	return badgerStore{bs}, nil
}
