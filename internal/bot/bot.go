package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hray3182/lifeledger/internal/bot/handlers"
	"github.com/hray3182/lifeledger/internal/ledger"
	"github.com/hray3182/lifeledger/internal/recurrence"
	"github.com/hray3182/lifeledger/internal/scheduler"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	trigger  *scheduler.Trigger
	log      zerolog.Logger
}

// New connects to Telegram. Recurrence runs go through a trigger owned by the
// bot so that /start and background runs for one user never overlap.
func New(token string, store ledger.Store, engine scheduler.Runner, loc *time.Location, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	var h *handlers.Handlers
	trigger := scheduler.New(engine,
		scheduler.WithLocation(loc),
		scheduler.WithLogger(log),
		scheduler.WithResultHandler(func(res recurrence.Result) { h.ReportRun(res) }),
	)
	h = handlers.New(api, store, trigger, log)

	return &Bot{
		api:      api,
		handlers: h,
		trigger:  trigger,
		log:      log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.Info().Str("account", b.api.Self.UserName).Msg("authorized on telegram")

	go b.trigger.Start(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
