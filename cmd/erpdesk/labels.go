package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"erpdesk/internal/app"
	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/itemlabel"
)

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Item label price operations",
	}
	cmd.AddCommand(newLabelsSyncCmd(), newLabelsHistoryCmd())
	return cmd
}

func newLabelsSyncCmd() *cobra.Command {
	var (
		user          string
		dryRun        bool
		createMissing bool
		concurrency   int
	)

	cmd := &cobra.Command{
		Use:   "sync [label...]",
		Short: "Push label row prices to their Item Price records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := commandContext(cmd.Context(), user, nil)
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := cfg.Sync()
			opts.DryRun = dryRun
			if cmd.Flags().Changed("create-missing") {
				opts.CreateMissing = createMissing
			}
			if concurrency > 0 {
				opts.Concurrency = concurrency
			}

			for _, name := range args {
				report, err := a.Labels.SyncLabel(ctx, name, opts)
				if err != nil {
					return err
				}
				printSyncReport(cmd.OutOrStdout(), report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User recorded in the price journal")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute outcomes without writing")
	cmd.Flags().BoolVar(&createMissing, "create-missing", false, "Create price records that do not exist (default SYNC_CREATE_MISSING)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel price lookups (default SYNC_CONCURRENCY)")
	return cmd
}

func printSyncReport(out io.Writer, report *itemlabel.SyncReport) {
	title := report.Label
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "%4s %-14s %-20s %-20s %-10s %10s %10s %s\n", "IDX", "ROW", "ITEM", "PRICE LIST", "OUTCOME", "OLD", "NEW", "ERROR")
	for _, r := range report.Rows {
		old, rate := "-", "-"
		if r.OldRate != nil {
			old = r.OldRate.String()
		}
		if r.NewRate != nil {
			rate = r.NewRate.String()
		}
		fmt.Fprintf(out, "%4d %-14s %-20s %-20s %-10s %10s %10s %s\n",
			r.Idx, truncate(r.Row, 14), truncate(orDash(r.ItemCode), 20), truncate(orDash(r.PriceList), 20),
			r.Outcome, old, rate, r.Error)
	}
	fmt.Fprintf(out, "updated %d, created %d, failed %d\n\n",
		report.Count(itemlabel.OutcomeUpdated), report.Count(itemlabel.OutcomeCreated), report.Count(itemlabel.OutcomeFailed))
}

func newLabelsHistoryCmd() *cobra.Command {
	var filter audit.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List price writes from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for the price journal")
			}
			ctx := commandContext(cmd.Context(), "", nil)
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Journal.List(ctx, filter)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Label, "label", "", "Only this label")
	cmd.Flags().StringVar(&filter.ItemCode, "item", "", "Only this item code")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum entries")
	return cmd
}

func printHistory(out io.Writer, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No price writes found.")
		return
	}
	fmt.Fprintf(out, "%-20s %-14s %-12s %-20s %10s %10s %s\n", "WHEN", "ACTION", "LABEL", "ITEM", "OLD", "NEW", "USER")
	for _, e := range entries {
		old := "-"
		if e.OldRate != nil {
			old = e.OldRate.String()
		}
		fmt.Fprintf(out, "%-20s %-14s %-12s %-20s %10s %10s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, truncate(e.Label, 12), truncate(e.ItemCode, 20),
			old, e.NewRate.String(), orDash(e.User))
	}
}
