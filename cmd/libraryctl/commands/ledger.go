package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/domain"

	"github.com/spf13/cobra"
)

var (
	// Fine flags
	fineAt   string
	fineRate int64
)

// overdueCmd lists overdue loans
var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue loans with live fines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		svc := container(cfg, db)
		loans, total, err := svc.Dashboard.ListOverdue(ctx, 0, 0)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(map[string]interface{}{"total": total, "loans": loans})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BORROW\tBOOK\tPATRON\tCONTACT\tDUE\tDAYS\tFINE")
		loc := cfg.Location()
		for _, l := range loans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				l.Borrow.ID, l.Borrow.BookTitle, l.Borrow.PatronName, l.Borrow.PatronContact,
				l.Borrow.DueDate.In(loc).Format(domain.DateLayout), l.DaysOverdue, l.Fine)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d overdue loan(s)\n", total)
		return nil
	},
}

// reconcileCmd recomputes counters
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute patron and book counters from the loan ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := container(cfg, db).Loans.ReconcileCounters(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(report)
		}
		for _, c := range report.PatronCorrections {
			fmt.Printf("patron %s: borrowed_count %d -> %d\n", c.PatronID, c.From, c.To)
		}
		fmt.Printf("%d patron(s) corrected, %d book(s) clamped\n", len(report.PatronCorrections), report.BooksClamped)
		return nil
	},
}

// fineCmd calculates a fine without touching the database
var fineCmd = &cobra.Command{
	Use:   "fine DUE_DATE",
	Short: "Calculate a fine for a due date",
	Long: `Calculate the fine owed for a loan due on DUE_DATE (YYYY-MM-DD).

Examples:
  libraryctl fine 2026-03-01                     # Fine as of now
  libraryctl fine 2026-03-01 --at 2026-03-10     # Fine as of a given day
  libraryctl fine 2026-03-01 --rate 5000         # Override FINE_RATE_PER_DAY`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		return runFine(cmd, cfg, args[0])
	},
}

func runFine(cmd *cobra.Command, cfg *config.Config, dueValue string) error {
	rate := cfg.Library.FineRatePerDay
	if cmd.Flags().Changed("rate") {
		rate = fineRate
	}
	policy := domain.NewFinePolicy(rate, cfg.Location())

	due, err := domain.ParseDueDate(dueValue, policy.Location)
	if err != nil {
		return err
	}
	at := time.Now()
	if fineAt != "" {
		if at, err = time.ParseInLocation(domain.DateLayout, fineAt, policy.Location); err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	quote := policy.Calculate(due, at)
	if jsonOutput {
		return printJSON(quote)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d day(s) overdue, fine %d (rate %d/day)\n", quote.DaysOverdue, quote.Amount, policy.RatePerDay)
	return nil
}

func init() {
	fineCmd.Flags().StringVar(&fineAt, "at", "", "Reference date (YYYY-MM-DD), default now")
	fineCmd.Flags().Int64Var(&fineRate, "rate", domain.DefaultFineRatePerDay, "Fine per overdue day")

	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(fineCmd)
}
