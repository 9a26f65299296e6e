package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/bot"
)

// NewBotCommand creates the bot command.
func NewBotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the Telegram bot",
		Long: `Start the Telegram bot. /start brings the user's recurring entries up
to date; new rules generate their due entries right after they are added.

Requires TELEGRAM_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.load()
			if err != nil {
				return err
			}
			if e.cfg.TelegramToken == "" {
				return NewExitError(ExitCommandError, "TELEGRAM_TOKEN is required")
			}

			ctx := cmd.Context()
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, e.log)

			b, err := bot.New(e.cfg.TelegramToken, store, e.engine(store), e.loc, e.log)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start bot", err)
			}

			e.log.Info().Str("driver", e.cfg.StoreDriver).Msg("starting bot")
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return WrapExitError(ExitFailure, "bot error", err)
			}
			e.log.Info().Msg("shutting down")
			return nil
		},
	}
}
