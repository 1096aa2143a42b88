package main

import (
	appleasing "github.com/propledger/backend/internal/application/leasing"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/spf13/cobra"
)

func leaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect and end leases",
	}
	cmd.AddCommand(leaseListCmd(a), leaseTerminateCmd(a))
	return cmd
}

func leaseListCmd(a *app) *cobra.Command {
	var (
		unit, tenant, status string
		year                 int
		page                 appshared.PageRequest
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := appleasing.LeaseListFilter{PageRequest: page, Status: status}
			var err error
			if filter.UnitID, err = optionalID("unit", unit); err != nil {
				return err
			}
			if filter.TenantID, err = optionalID("tenant", tenant); err != nil {
				return err
			}
			if cmd.Flags().Changed("year") {
				filter.Year = &year
			}
			leases, err := a.svc.leases.GetAllLeases(a.context(cmd), a.accountID, filter)
			if err != nil {
				return err
			}
			return a.print(cmd, leases)
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "only leases of this unit")
	cmd.Flags().StringVar(&tenant, "tenant", "", "only leases of this tenant")
	cmd.Flags().StringVar(&status, "status", "", "active or terminated")
	cmd.Flags().IntVar(&year, "year", 0, "only leases numbered in this year")
	pageFlags(cmd, &page)
	return cmd
}

func leaseTerminateCmd(a *app) *cobra.Command {
	var moveOut, notes string
	cmd := &cobra.Command{
		Use:   "terminate <lease-id>",
		Short: "End an active lease and vacate its unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("lease", args[0])
			if err != nil {
				return err
			}
			var req appleasing.TerminateLeaseRequest
			if req.MoveOutDate, err = optionalDate("move-out", moveOut); err != nil {
				return err
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			lease, err := a.svc.leases.TerminateLease(a.context(cmd), a.accountID, id, req)
			if err != nil {
				return err
			}
			return a.print(cmd, lease)
		},
	}
	cmd.Flags().StringVar(&moveOut, "move-out", "", "move-out day, YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "replace the lease notes")
	return cmd
}
