// Taskgated is the taskgate HTTP daemon: it evaluates TaskSpec documents
// through the feasibility gate pipeline, runs capability-envelope sweeps,
// and persists every run in SQLite.
//
// Usage:
//
//	# Start with defaults
//	taskgated
//
//	# Load a config file and override the port
//	TASKGATE_SERVER_PORT=9000 taskgated --config taskgate.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskgate/internal/config"
	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/logging"
	"github.com/fyrsmithlabs/taskgate/internal/runstore"
	"github.com/fyrsmithlabs/taskgate/internal/server"
	"github.com/fyrsmithlabs/taskgate/internal/sweep"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskgated %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

// run wires config, logging, storage and the HTTP server, then blocks
// until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // best-effort on shutdown
	}()

	logger.Info("starting taskgated",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("store_path", cfg.Store.Path),
		zap.Int("sweep_workers", cfg.Sweep.Workers))

	store, err := runstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	eval := evidence.NewEvaluator()
	sampler := sweep.NewSampler(eval, cfg.Sweep.Workers)

	srv, err := server.New(eval, sampler, store, logger, &server.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		MaxSweepVariants: cfg.Sweep.MaxVariants,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
