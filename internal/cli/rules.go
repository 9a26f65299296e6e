package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
	"github.com/hray3182/lifeledger/internal/rrule"
)

// RulesOptions holds flags shared by the rules subcommands.
type RulesOptions struct {
	*RootOptions
	UserID int64
}

// NewRulesCommand creates the rules command and its subcommands.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage recurring rules",
	}
	cmd.PersistentFlags().Int64Var(&opts.UserID, "user", 0, "user ID (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(newRulesListCommand(opts))
	cmd.AddCommand(newRulesAddCommand(opts))
	cmd.AddCommand(newRulesSetActiveCommand(opts, "pause", false))
	cmd.AddCommand(newRulesSetActiveCommand(opts, "resume", true))

	return cmd
}

type ruleView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Amount         string  `json:"amount"`
	Category       string  `json:"category,omitempty"`
	Frequency      string  `json:"frequency"`
	DueDay         *int    `json:"due_day,omitempty"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date,omitempty"`
	MaxOccurrences *int    `json:"max_occurrences,omitempty"`
	GeneratedCount int     `json:"generated_count"`
	LastGenerated  *string `json:"last_generated,omitempty"`
	Active         bool    `json:"active"`
	RRule          string  `json:"rrule"`
	Description    string  `json:"description"`
}

func newRuleView(rule *models.RecurrenceRule) ruleView {
	v := ruleView{
		ID:             rule.ID.String(),
		Name:           rule.Name,
		Type:           string(rule.Type),
		Amount:         rule.Amount.StringFixed(2),
		Category:       rule.Category,
		Frequency:      string(rule.Frequency),
		DueDay:         rule.DueDay,
		StartDate:      models.FormatDate(rule.StartDate),
		MaxOccurrences: rule.MaxOccurrences,
		GeneratedCount: rule.GeneratedCount,
		Active:         rule.Active,
		Description:    rrule.Describe(rule),
	}
	if rule.EndDate != nil {
		s := models.FormatDate(*rule.EndDate)
		v.EndDate = &s
	}
	if rule.LastGenerated != nil {
		s := models.FormatDate(*rule.LastGenerated)
		v.LastGenerated = &s
	}
	if s, err := rrule.String(rule); err == nil {
		v.RRule = s
	}
	return v
}

func newRulesListCommand(opts *RulesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the user's rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, e.log)

			rules, err := store.ListRules(cmd.Context(), opts.UserID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list rules", err)
			}

			views := make([]ruleView, 0, len(rules))
			for _, rule := range rules {
				views = append(views, newRuleView(rule))
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no rules")
				}
				for _, v := range views {
					state := "active"
					if !v.Active {
						state = "paused"
					}
					fmt.Fprintf(w, "%s  %-8s %10s  %s (%s, %s)\n", v.ID, v.Type, v.Amount, v.Name, v.Description, state)
				}
			})
		},
	}
}

type addRuleFlags struct {
	name     string
	amount   string
	ruleType string
	category string
	freq     string
	dueDay   int
	start    string
	end      string
	max      int
	rrule    string
	noRun    bool
}

func newRulesAddCommand(opts *RulesOptions) *cobra.Command {
	f := &addRuleFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule and generate its past due entries",
		Long: `Add a recurring rule. Unless --no-run is given, entries that are already
due are generated right away.

Example:
  lifeledger rules add --user 42 --name Rent --amount 1200 --type expense \
    --frequency monthly --due-day 31 --start 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			today, err := opts.today(e.loc)
			if err != nil {
				return err
			}
			rule, err := f.rule(cmd, opts.UserID, today)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid rule", err)
			}

			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, e.log)

			if err := store.CreateRule(cmd.Context(), rule); err != nil {
				return WrapExitError(ExitCommandError, "failed to create rule", err)
			}
			e.log.Info().Str("rule_id", rule.ID.String()).Int64("user_id", rule.UserID).Msg("created recurrence rule")

			if f.noRun {
				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(newRuleView(rule), func(w io.Writer) {
					fmt.Fprintf(w, "added %s (%s)\n", rule.Name, rule.ID)
				})
			}
			return generateAfterCreate(cmd.Context(), cmd.OutOrStdout(), opts.RootOptions, e, store, opts.UserID)
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "rule name (required)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount per occurrence (required)")
	cmd.Flags().StringVar(&f.ruleType, "type", string(models.TransactionTypeExpense), "expense or income")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.freq, "frequency", string(models.FrequencyMonthly), "daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&f.dueDay, "due-day", 0, "day of month for monthly rules")
	cmd.Flags().StringVar(&f.start, "start", "", "first date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().IntVar(&f.max, "max", 0, "maximum number of occurrences")
	cmd.Flags().StringVar(&f.rrule, "rrule", "", "schedule as an RRULE line, instead of --frequency, --due-day, --end and --max")
	cmd.Flags().BoolVar(&f.noRun, "no-run", false, "do not generate entries now")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (f *addRuleFlags) rule(cmd *cobra.Command, userID int64, today time.Time) (*models.RecurrenceRule, error) {
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", models.ErrInvalidRule, f.amount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", models.ErrInvalidRule)
	}

	rule := &models.RecurrenceRule{
		UserID:    userID,
		Name:      f.name,
		Amount:    amount,
		Type:      models.TransactionType(f.ruleType),
		Category:  f.category,
		Frequency: models.Frequency(f.freq),
		Active:    true,
	}
	if f.dueDay != 0 {
		day := f.dueDay
		rule.DueDay = &day
	}
	if f.max != 0 {
		limit := f.max
		rule.MaxOccurrences = &limit
	}

	if f.start == "" {
		rule.StartDate = today
	} else if rule.StartDate, err = models.ParseDate(f.start); err != nil {
		return nil, fmt.Errorf("%w: invalid start %q", models.ErrInvalidRule, f.start)
	}
	if f.end != "" {
		end, err := models.ParseDate(f.end)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end %q", models.ErrInvalidRule, f.end)
		}
		rule.EndDate = &end
	}

	if f.rrule != "" {
		for _, name := range []string{"frequency", "due-day", "end", "max"} {
			if cmd.Flags().Changed(name) {
				return nil, fmt.Errorf("%w: --rrule cannot be combined with --%s", models.ErrInvalidRule, name)
			}
		}
		if err := rrule.Apply(rule, f.rrule); err != nil {
			return nil, err
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func newRulesSetActiveCommand(opts *RulesOptions, use string, active bool) *cobra.Command {
	short := "Pause a rule"
	if active {
		short = "Resume a rule"
	}
	return &cobra.Command{
		Use:   use + " <rule-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid rule id", err)
			}
			e, err := opts.load()
			if err != nil {
				return err
			}
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, e.log)

			if err := store.SetActive(cmd.Context(), id, opts.UserID, active); err != nil {
				return WrapExitError(ExitCommandError, "failed to update rule", err)
			}
			rule, err := store.GetRule(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load rule", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(newRuleView(rule), func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", use+"d", rule.Name)
			})
		},
	}
}

// generateAfterCreate runs the engine for userID once new rules are stored.
func generateAfterCreate(ctx context.Context, w io.Writer, opts *RootOptions, e *env, store recurrence.Store, userID int64) error {
	today, err := opts.today(e.loc)
	if err != nil {
		return err
	}
	res := e.engine(store).Run(ctx, userID, today)
	return writeRunResult(w, opts.Format, res)
}
