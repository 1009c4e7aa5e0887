package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openpublisher/openpublisher/internal/interfaces/cli/migrate"
	"github.com/openpublisher/openpublisher/internal/interfaces/cli/reconcile"
	"github.com/openpublisher/openpublisher/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "openpublisher",
		Short: "OpenPublisher - manuscript workflow with ledger provenance",
		Long: `OpenPublisher runs the editorial workflow of a journal and anchors every
decision on an Ethereum-compatible ledger.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		reconcile.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
