package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func eventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the outbox of recorded domain events",
	}
	cmd.AddCommand(eventsPendingCmd(a), eventsShowCmd(a), eventsAckCmd(a), eventsStatsCmd(a))
	return cmd
}

func eventsPendingCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List undelivered events, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.svc.outbox.ListPending(a.context(cmd), a.accountID, limit)
			if err != nil {
				return err
			}
			return a.print(cmd, entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	return cmd
}

func eventsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <aggregate-id>",
		Short: "List every event raised by a bill, payment, reading or lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("aggregate", args[0])
			if err != nil {
				return err
			}
			entries, err := a.svc.outbox.ListForAggregate(a.context(cmd), a.accountID, id)
			if err != nil {
				return err
			}
			return a.print(cmd, entries)
		},
	}
}

func eventsAckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <event-id>...",
		Short: "Mark events as delivered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, len(args))
			for i, raw := range args {
				id, err := parseID("event", raw)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			n, err := a.svc.outbox.Acknowledge(a.context(cmd), a.accountID, ids)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]int64{"acknowledged": n})
		},
	}
}

func eventsStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count events by delivery status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.svc.outbox.GetStats(a.context(cmd), a.accountID)
			if err != nil {
				return err
			}
			return a.print(cmd, stats)
		},
	}
}
