package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect the spreadsheet sync queue",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Cleanup()

			s, err := store.Store.SyncQueueStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending=%d processing=%d completed=%d failed=%d\n",
				s.Pending, s.Processing, s.Completed, s.Failed)
			return nil
		},
	}

	retry := &cobra.Command{
		Use:   "retry",
		Short: "Requeue all failed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Cleanup()

			before, err := store.Store.SyncQueueStats(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Store.RetryFailedSyncs(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d failed items\n", before.Failed)
			return nil
		},
	}

	cmd.AddCommand(stats, retry)
	return cmd
}
