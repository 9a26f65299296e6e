package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/models"
)

// EntriesOptions holds flags for the entries command.
type EntriesOptions struct {
	*RootOptions
	UserID int64
	From   string
	To     string
}

// NewEntriesCommand creates the entries command.
func NewEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries in a date range",
		Long: `List the user's ledger entries dated between --from and --to, inclusive.
The range defaults to the current month up to today.

Example:
  lifeledger entries --user 42 --from 2024-01-01 --to 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntries(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user ID (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "first date, YYYY-MM-DD (default start of this month)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type entriesReport struct {
	From    string        `json:"from"`
	To      string        `json:"to"`
	Entries []entryReport `json:"entries"`
	Income  string        `json:"income"`
	Expense string        `json:"expense"`
}

type entryReport struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	RuleID   string `json:"rule_id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
}

func runEntries(cmd *cobra.Command, opts *EntriesOptions) error {
	e, err := opts.load()
	if err != nil {
		return err
	}
	today, err := opts.today(e.loc)
	if err != nil {
		return err
	}

	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if opts.From != "" {
		if from, err = models.ParseDate(opts.From); err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --from %q: expected YYYY-MM-DD", opts.From))
		}
	}
	to := today
	if opts.To != "" {
		if to, err = models.ParseDate(opts.To); err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --to %q: expected YYYY-MM-DD", opts.To))
		}
	}
	if to.Before(from) {
		return NewExitError(ExitCommandError, "--to is before --from")
	}

	store, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store, e.log)

	entries, err := store.ListEntries(cmd.Context(), opts.UserID, from, to)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list entries", err)
	}

	report := entriesReport{
		From:    models.FormatDate(from),
		To:      models.FormatDate(to),
		Entries: make([]entryReport, 0, len(entries)),
	}
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range entries {
		r := entryReport{
			ID:       tx.TransactionID.String(),
			Date:     models.FormatDate(tx.TransactionDate),
			Name:     tx.Description,
			Type:     string(tx.Type),
			Amount:   tx.Amount.StringFixed(2),
			Category: tx.Category,
			Status:   string(tx.Status),
		}
		if tx.RecurrenceID != nil {
			r.RuleID = tx.RecurrenceID.String()
		}
		report.Entries = append(report.Entries, r)

		if tx.Type == models.TransactionTypeIncome {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	report.Income = income.StringFixed(2)
	report.Expense = expense.StringFixed(2)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(report, func(w io.Writer) {
		if len(report.Entries) == 0 {
			fmt.Fprintf(w, "no entries from %s to %s\n", report.From, report.To)
			return
		}
		for _, r := range report.Entries {
			fmt.Fprintf(w, "%s  %-8s %10s  %s (%s)\n", r.Date, r.Type, r.Amount, r.Name, r.Status)
		}
		fmt.Fprintf(w, "income %s, expense %s\n", report.Income, report.Expense)
	})
}
