package main

import (
	appbilling "github.com/propledger/backend/internal/application/billing"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/spf13/cobra"
)

func paymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect payments",
	}
	cmd.AddCommand(paymentsListCmd(a))
	return cmd
}

func paymentsListCmd(a *app) *cobra.Command {
	var page appshared.PageRequest
	cmd := &cobra.Command{
		Use:   "list <bill-id>",
		Short: "List the payments of a bill, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			billID, err := parseID("bill", args[0])
			if err != nil {
				return err
			}
			payments, err := a.svc.payments.ListPayments(a.context(cmd), a.accountID,
				appbilling.PaymentListFilter{PageRequest: page, BillID: billID})
			if err != nil {
				return err
			}
			return a.print(cmd, payments)
		},
	}
	pageFlags(cmd, &page)
	return cmd
}
