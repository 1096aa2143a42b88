package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operator commands for the propledger billing, metering and lease ledger",
		Long: `ledgerctl reads and repairs ledger state of one account.

Connection settings come from config.toml and PROPLEDGER_* environment
variables. A .env file in the working directory is loaded first. Results are
written to stdout as JSON; logs go to stderr.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.accountFlag, "account", "", "account id (default $"+AccountEnv+")")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "configuration file (default: config.toml search)")
	rootCmd.PersistentFlags().BoolVar(&a.compact, "compact", false, "print JSON on one line")

	rootCmd.AddCommand(
		billCmd(a),
		paymentsCmd(a),
		consumptionCmd(a),
		readingsCmd(a),
		leaseCmd(a),
		eventsCmd(a),
	)
	return rootCmd
}

func (a *app) print(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !a.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

// optionalID parses a flag value, returning nil when it is unset
func optionalID(kind, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(kind, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// optionalDate parses a YYYY-MM-DD flag value, returning nil when it is unset
func optionalDate(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", flag, raw)
	}
	return &d, nil
}

func requiredDate(flag, raw string) (time.Time, error) {
	d, err := optionalDate(flag, raw)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, fmt.Errorf("--%s is required", flag)
	}
	return *d, nil
}
