package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hray3182/lifeledger/internal/format"
	"github.com/hray3182/lifeledger/internal/ledger"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Trigger starts recurrence runs. *scheduler.Trigger implements it.
type Trigger interface {
	SessionStart(ctx context.Context, userID int64) recurrence.Result
	Notify(userID int64) bool
	Today() time.Time
}

type Handlers struct {
	api     Sender
	store   ledger.Store
	trigger Trigger
	log     zerolog.Logger
}

func New(api Sender, store ledger.Store, trigger Trigger, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:     api,
		store:   store,
		trigger: trigger,
		log:     log,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	// Ensure user exists
	if err := h.store.EnsureUser(ctx, msg.From.ID, msg.From.UserName); err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to register user")
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.sendText(msg.Chat.ID, helpText)
	case "recurring":
		h.handleRecurring(ctx, msg)
	case "upcoming":
		h.handleUpcoming(ctx, msg)
	case "commitments":
		h.handleCommitments(ctx, msg)
	case "addrecurring":
		h.handleAddRecurring(ctx, msg)
	case "pause":
		h.handleSetActive(ctx, msg, false)
	case "resume":
		h.handleSetActive(ctx, msg, true)
	default:
		h.sendText(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

// HandleMessage answers plain text. Only commands change the ledger.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.sendText(msg.Chat.ID, "I only understand commands. Use /help to see them.")
}

// handleStart is the session start: it brings the user's ledger up to date
// before greeting them.
func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	res := h.trigger.SessionStart(ctx, msg.From.ID)
	h.send(msg.Chat.ID, startMessage(msg.From.FirstName, res))
}

// ReportRun tells the user about a background run. Runs that changed nothing
// stay silent.
func (h *Handlers) ReportRun(res recurrence.Result) {
	if res.Generated == 0 && !res.Failed() {
		return
	}
	// Private chats share the user's ID.
	h.send(res.UserID, runMessage(res))
}

func (h *Handlers) sendText(chatID int64, text string) {
	var b format.Builder
	h.send(chatID, b.Text(text).Result())
}

func (h *Handlers) send(chatID int64, parsed format.ParseResult) {
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}
