package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	UserID int64
	Count  int
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show upcoming entries and monthly commitments without writing",
		Long: `List the next due dates across the user's active rules and the monthly
income and expense they add up to. Nothing is written.

Example:
  lifeledger preview --user 42 -n 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user ID (required)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 10, "number of upcoming entries")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type previewReport struct {
	Upcoming []dueReport `json:"upcoming"`
	Income   string      `json:"monthly_income"`
	Expense  string      `json:"monthly_expense"`
	Net      string      `json:"monthly_net"`
}

type dueReport struct {
	Date   string `json:"date"`
	RuleID string `json:"rule_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, "--count must be positive")
	}
	e, err := opts.load()
	if err != nil {
		return err
	}
	today, err := opts.today(e.loc)
	if err != nil {
		return err
	}

	store, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store, e.log)

	rules, err := store.ActiveRules(cmd.Context(), opts.UserID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list rules", err)
	}

	totals := recurrence.Totals(rules)
	report := previewReport{
		Upcoming: []dueReport{},
		Income:   totals.Income.StringFixed(2),
		Expense:  totals.Expense.StringFixed(2),
		Net:      totals.Net.StringFixed(2),
	}
	for _, d := range recurrence.Schedule(rules, today, opts.Count) {
		report.Upcoming = append(report.Upcoming, dueReport{
			Date:   models.FormatDate(d.Date),
			RuleID: d.Rule.ID.String(),
			Name:   d.Rule.Name,
			Type:   string(d.Rule.Type),
			Amount: d.Rule.Amount.StringFixed(2),
		})
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(report, func(w io.Writer) {
		if len(report.Upcoming) == 0 {
			fmt.Fprintln(w, "nothing upcoming")
		}
		for _, d := range report.Upcoming {
			fmt.Fprintf(w, "%s  %-8s %10s  %s\n", d.Date, d.Type, d.Amount, d.Name)
		}
		fmt.Fprintf(w, "monthly: income %s, expense %s, net %s\n", report.Income, report.Expense, report.Net)
	})
}
