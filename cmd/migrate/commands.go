package main

import (
	"fmt"
	"strconv"

	"github.com/propledger/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func upCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Up()
		},
	}
}

func downCmd(a *app) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("down drops every ledger table; rerun with --confirm")
			}
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Down()
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm rolling back every migration")
	return cmd
}

func stepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "step <n>",
		Short: "Apply n migrations (positive = up, negative = down)",
		Example: `  migrate step 1
  migrate step -- -1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Steps(n)
		},
	}
}

func gotoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version number %q", args[0])
			}
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.GoTo(uint(version))
		},
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				a.log.Info("No migrations applied")
				return nil
			}
			a.log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
			return nil
		},
	}
}

func forceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Force the recorded version without running migrations",
		Long:  "Clears the dirty flag after a failed migration has been repaired by hand.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version number %q", args[0])
			}
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer m.Close()

			a.log.Warn("Forcing migration version", zap.Int("version", version))
			return m.Force(version)
		},
	}
}

func createCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new up/down migration file pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(a.migrationsPath, args[0], description)
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			a.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := migration.ListMigrations(a.migrationsPath)
			if err != nil {
				return fmt.Errorf("failed to list migrations: %w", err)
			}
			if len(migrations) == 0 {
				a.log.Info("No migrations found")
				return nil
			}
			for _, name := range migrations {
				fmt.Fprintln(cmd.OutOrStdout(), "  -", name)
			}
			return nil
		},
	}
}
