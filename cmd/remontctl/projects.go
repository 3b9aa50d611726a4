package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"remont/internal/sheets"
)

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo renovation project",
		Long: `Creates a sample apartment renovation with planned section budgets,
a few expenses and competing electrical estimates. Every run creates a new
project; the generated id is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, store, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Cleanup()

			p, err := tracker.SeedDemo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %s (%s)\n", p.ID, p.Name)
			return nil
		},
	}
}

func newProjectsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, store, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Cleanup()

			projects, err := tracker.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBUDGET\tSPENT\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.BudgetPlanned, p.BudgetSpent, humanize.Time(p.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

func newBudgetCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "budget <project-id>",
		Short: "Print a project's budget summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, store, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Cleanup()

			p, err := tracker.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := tracker.BudgetSummary(cmd.Context(), p.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}

			fmt.Fprintf(out, "%s\n", p.Name)
			fmt.Fprintf(out, "  target:      %s\n", b.Target)
			fmt.Fprintf(out, "  planned:     %s\n", b.Planned)
			fmt.Fprintf(out, "  spent:       %s (%d%%)\n", b.Spent, b.Percentage)
			fmt.Fprintf(out, "  remaining:   %s\n", b.Remaining)
			fmt.Fprintf(out, "  unallocated: %s\n", b.Unallocated)
			if b.OverBudget {
				fmt.Fprintln(out, "  OVER BUDGET")
			}
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SECTION\tPLANNED\tSPENT\tDIFF\tCONTRACTOR")
			for _, s := range b.Sections {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s (%d%%)\t%s\n",
					sheets.SectionLabel(s.Type), s.Planned, s.Actual, s.Diff, s.DiffPercent, s.Contractor)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
