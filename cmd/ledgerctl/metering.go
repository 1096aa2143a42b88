package main

import (
	"fmt"
	"os"

	appmetering "github.com/propledger/backend/internal/application/metering"
	"github.com/spf13/cobra"
)

func consumptionCmd(a *app) *cobra.Command {
	var meter, submeter, from, to string
	cmd := &cobra.Command{
		Use:   "consumption",
		Short: "Compute the consumption of a meter series between two days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q appmetering.ConsumptionQuery
			var err error
			if q.MeterID, err = parseID("meter", meter); err != nil {
				return err
			}
			if q.SubmeterID, err = optionalID("submeter", submeter); err != nil {
				return err
			}
			if q.StartDate, err = requiredDate("from", from); err != nil {
				return err
			}
			if q.EndDate, err = requiredDate("to", to); err != nil {
				return err
			}
			resp, err := a.svc.readings.CalculateConsumption(a.context(cmd), a.accountID, q)
			if err != nil {
				return err
			}
			return a.print(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&meter, "meter", "", "meter id (required)")
	cmd.Flags().StringVar(&submeter, "submeter", "", "submeter id; omit for the meter's own series")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("meter")
	return cmd
}

func readingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readings",
		Short: "Manage meter readings",
	}
	cmd.AddCommand(readingsImportCmd(a))
	return cmd
}

func readingsImportCmd(a *app) *cobra.Command {
	var opts appmetering.ReadingImportOptions
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Record the meter readings of a CSV file",
		Long: `Records one reading per CSV row. Required columns: meter_id, reading_value,
reading_date. Optional columns: submeter_id, consumption, entered_by_user_id.
Rows apply in reading-date order; rejected rows are reported and skipped.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				in = f
			}
			result, err := a.svc.readings.ImportReadings(a.context(cmd), a.accountID, in, opts)
			if err != nil {
				return err
			}
			if err := a.print(cmd, result); err != nil {
				return err
			}
			if result.ErrorRows > 0 {
				return fmt.Errorf("%d of %d rows rejected", result.ErrorRows, result.TotalRows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate the file without recording readings")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "stop reading after this many rows (default 10000)")
	cmd.Flags().IntVar(&opts.MaxErrors, "max-errors", 0, "report at most this many row errors (default 100)")
	return cmd
}
