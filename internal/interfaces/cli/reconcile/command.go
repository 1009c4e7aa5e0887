package reconcile

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openpublisher/openpublisher/internal/infrastructure/config"
	"github.com/openpublisher/openpublisher/internal/infrastructure/database"
	httpRouter "github.com/openpublisher/openpublisher/internal/interfaces/http"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

var (
	env        string
	configPath string
)

// NewCommand runs a single reconciliation pass over pending ledger anchors,
// for operators who run the reconciler from cron instead of in the server.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile pending ledger anchors once",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := httpRouter.NewContainer(ctx, database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close()

	result, err := container.ReconcileAnchors().Execute(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if result.Skipped {
		fmt.Println("Another instance holds the reconciler lock, nothing done")
		return nil
	}

	fmt.Printf("\nReconciliation Result:\n")
	fmt.Printf("  Checked:   %d\n", result.Checked)
	fmt.Printf("  Confirmed: %d\n", result.Confirmed)
	fmt.Printf("  Retried:   %d\n", result.Retried)
	fmt.Printf("  Failed:    %d\n", result.Failed)
	fmt.Printf("  Orphaned:  %d\n", result.Orphaned)
	fmt.Printf("  Pending:   %d\n", result.Pending)

	return nil
}
