package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/infrastructure/config"
	"github.com/openpublisher/openpublisher/internal/infrastructure/database"
	httpRouter "github.com/openpublisher/openpublisher/internal/interfaces/http"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// The worker runs the anchor reconciler on its own, for deployments that
// disable it inside the API servers.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, os.Getenv("OPENPUBLISHER_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger()
	log.Infow("starting anchor reconcile worker", "environment", env)

	if err := run(cfg, log); err != nil {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Interface) error {
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := httpRouter.NewContainer(ctx, database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close()

	reconcile := container.ReconcileAnchors()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	interval := cfg.Reconciler.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infow("running initial reconciliation")
	runOnce(ctx, reconcile, log)

	log.Infow("anchor reconcile worker started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			runOnce(ctx, reconcile, log)

		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig)

			finalCtx, finalCancel := context.WithTimeout(context.Background(), 30*time.Second)
			runOnce(finalCtx, reconcile, log)
			finalCancel()

			log.Infow("anchor reconcile worker stopped")
			return nil
		}
	}
}

func runOnce(ctx context.Context, uc usecases.ReconcileAnchorsExecutor, log logger.Interface) {
	result, err := uc.Execute(ctx)
	if err != nil {
		log.Errorw("anchor reconciliation failed", "error", err)
		return
	}
	if result.Skipped {
		log.Debugw("reconciliation skipped, lock held elsewhere")
		return
	}
	log.Infow("anchor reconciliation finished",
		"checked", result.Checked,
		"confirmed", result.Confirmed,
		"retried", result.Retried,
		"failed", result.Failed,
		"orphaned", result.Orphaned)
}
