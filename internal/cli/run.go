package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	UserID int64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate due entries for a user",
		Long: `Generate every ledger entry that has come due for the user's active
recurring rules, up to the catch-up limit per rule.

Running twice on the same day generates nothing the second time.

Example:
  lifeledger run --user 42
  lifeledger run --user 42 --today 2024-05-15 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeneration(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user ID (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runGeneration(cmd *cobra.Command, opts *RunOptions) error {
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

	res := e.engine(store).Run(cmd.Context(), opts.UserID, today)
	return writeRunResult(cmd.OutOrStdout(), opts.Format, res)
}

type runReport struct {
	RunID     string       `json:"run_id"`
	UserID    int64        `json:"user_id"`
	Today     string       `json:"today"`
	Generated int          `json:"generated"`
	Rules     []ruleReport `json:"rules"`
	Errors    []string     `json:"errors,omitempty"`
	Warning   string       `json:"warning,omitempty"`
}

type ruleReport struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Dates   []string `json:"dates"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Stop    string   `json:"stop"`
}

func newRunReport(res recurrence.Result) runReport {
	report := runReport{
		RunID:     res.RunID.String(),
		UserID:    res.UserID,
		Today:     models.FormatDate(res.Today),
		Generated: res.Generated,
		Rules:     make([]ruleReport, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		dates := make([]string, len(o.Dates))
		for i, d := range o.Dates {
			dates[i] = models.FormatDate(d)
		}
		report.Rules = append(report.Rules, ruleReport{
			ID:      o.RuleID.String(),
			Name:    o.Name,
			Dates:   dates,
			Created: o.Created,
			Skipped: o.Skipped,
			Stop:    string(o.Stop),
		})
	}
	for _, e := range res.Errors {
		report.Errors = append(report.Errors, e.Error())
	}
	if res.Warning != nil {
		report.Warning = res.Warning.Error()
	}
	return report
}

// writeRunResult prints res. A run with a warning or failed rules still
// prints its report and then exits with ExitFailure.
func writeRunResult(w io.Writer, format string, res recurrence.Result) error {
	out := &OutputFormatter{Format: format, Writer: w}
	report := newRunReport(res)
	text := func(w io.Writer) { printRunText(w, report) }

	if !res.Failed() {
		return out.Success(report, text)
	}

	failure := NewExitError(ExitFailure, fmt.Sprintf("%d rule(s) failed", len(res.Errors)))
	if res.Warning != nil {
		failure = WrapExitError(ExitFailure, "run skipped", res.Warning)
	}
	if err := out.Partial(report, failure, text); err != nil {
		return err
	}
	return failure
}

func printRunText(w io.Writer, r runReport) {
	if r.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", r.Warning)
		return
	}
	fmt.Fprintf(w, "%s: generated %d entries for user %d\n", r.Today, r.Generated, r.UserID)
	for _, rule := range r.Rules {
		if len(rule.Dates) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %d created, %d already present (%s)\n", rule.Name, rule.Created, rule.Skipped, rule.Stop)
		for _, d := range rule.Dates {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}
