package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Propledger database migration tool",
		Long: `Applies the SQL migrations under ./migrations to the ledger database.

Connection settings come from config.toml and PROPLEDGER_DATABASE_* environment
variables. A .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.migrationsPath, "path", "", "path to migrations directory (default: ./migrations)")
	rootCmd.PersistentFlags().StringVar(&app.databaseURL, "database-url", "", "postgres:// URL; overrides the configured connection")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		upCmd(app),
		downCmd(app),
		stepCmd(app),
		gotoCmd(app),
		versionCmd(app),
		forceCmd(app),
		createCmd(app),
		listCmd(app),
	)
	return rootCmd
}
