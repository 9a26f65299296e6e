package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/ruleset"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	NoRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <rules.yaml>",
		Short: "Import rules from a YAML file",
		Long: `Import recurring rules from a YAML file. The whole file is validated
and then stored in one transaction, so either every rule is imported or none
is. Entries that are already due are then generated for every user in the
file, unless --no-run is given.

Example:
  lifeledger import ./rules.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.NoRun, "no-run", false, "do not generate entries after importing")

	return cmd
}

type importReport struct {
	Imported int         `json:"imported"`
	RuleIDs  []string    `json:"rule_ids"`
	Runs     []runReport `json:"runs,omitempty"`
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	e, err := opts.load()
	if err != nil {
		return err
	}
	rules, err := ruleset.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
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

	if err := store.CreateRules(cmd.Context(), rules); err != nil {
		return WrapExitError(ExitCommandError, "failed to import rules", err)
	}

	report := importReport{RuleIDs: []string{}}
	users := map[int64]bool{}
	for _, rule := range rules {
		report.Imported++
		report.RuleIDs = append(report.RuleIDs, rule.ID.String())
		users[rule.UserID] = true
	}
	e.log.Info().Int("rules", report.Imported).Str("file", path).Msg("imported recurrence rules")

	var failed error
	if !opts.NoRun {
		userIDs := make([]int64, 0, len(users))
		for id := range users {
			userIDs = append(userIDs, id)
		}
		sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

		engine := e.engine(store)
		for _, userID := range userIDs {
			res := engine.Run(cmd.Context(), userID, today)
			report.Runs = append(report.Runs, newRunReport(res))
			if res.Failed() && failed == nil {
				failed = NewExitError(ExitFailure, fmt.Sprintf("generation failed for user %d", userID))
			}
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	text := func(w io.Writer) {
		fmt.Fprintf(w, "imported %d rules from %s\n", report.Imported, path)
		for _, r := range report.Runs {
			printRunText(w, r)
		}
	}
	if failed != nil {
		if err := out.Partial(report, failed, text); err != nil {
			return err
		}
		return failed
	}
	return out.Success(report, text)
}
