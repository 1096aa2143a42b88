package main

import (
	appbilling "github.com/propledger/backend/internal/application/billing"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/spf13/cobra"
)

func billCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Inspect bills",
	}
	cmd.AddCommand(billShowCmd(a), billListCmd(a))
	return cmd
}

func billShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <bill-id>",
		Short: "Show a bill with its linked charges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("bill", args[0])
			if err != nil {
				return err
			}
			bill, err := a.svc.bills.GetBill(a.context(cmd), a.accountID, id)
			if err != nil {
				return err
			}
			return a.print(cmd, bill)
		},
	}
}

func billListCmd(a *app) *cobra.Command {
	var (
		tenant, unit, status, from, to string
		page                            appshared.PageRequest
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, newest period first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := appbilling.BillListFilter{PageRequest: page, Status: status}
			var err error
			if filter.TenantID, err = optionalID("tenant", tenant); err != nil {
				return err
			}
			if filter.UnitID, err = optionalID("unit", unit); err != nil {
				return err
			}
			if filter.PeriodFrom, err = optionalDate("from", from); err != nil {
				return err
			}
			if filter.PeriodTo, err = optionalDate("to", to); err != nil {
				return err
			}
			bills, err := a.svc.bills.ListBills(a.context(cmd), a.accountID, filter)
			if err != nil {
				return err
			}
			return a.print(cmd, bills)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "only bills of this tenant")
	cmd.Flags().StringVar(&unit, "unit", "", "only bills of this unit")
	cmd.Flags().StringVar(&status, "status", "", "unpaid, partially_paid or paid")
	cmd.Flags().StringVar(&from, "from", "", "only periods ending on or after this day")
	cmd.Flags().StringVar(&to, "to", "", "only periods starting on or before this day")
	pageFlags(cmd, &page)
	return cmd
}

func pageFlags(cmd *cobra.Command, page *appshared.PageRequest) {
	cmd.Flags().IntVar(&page.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "page size (default from configuration)")
}
