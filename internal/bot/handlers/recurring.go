package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

const (
	defaultUpcoming = 5
	maxUpcoming     = 20
)

func (h *Handlers) handleRecurring(ctx context.Context, msg *tgbotapi.Message) {
	rules, err := h.store.ListRules(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to list rules")
		h.sendText(msg.Chat.ID, "Could not load your recurring rules, please try again later.")
		return
	}
	h.send(msg.Chat.ID, rulesMessage(rules, h.trigger.Today()))
}

func (h *Handlers) handleUpcoming(ctx context.Context, msg *tgbotapi.Message) {
	n := defaultUpcoming
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		v, err := strconv.Atoi(args)
		if err != nil || v < 1 {
			h.sendText(msg.Chat.ID, "Usage: /upcoming [n]")
			return
		}
		n = min(v, maxUpcoming)
	}

	rules, err := h.store.ActiveRules(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to list active rules")
		h.sendText(msg.Chat.ID, "Could not load your recurring rules, please try again later.")
		return
	}
	h.send(msg.Chat.ID, upcomingMessage(recurrence.Schedule(rules, h.trigger.Today(), n)))
}

func (h *Handlers) handleCommitments(ctx context.Context, msg *tgbotapi.Message) {
	rules, err := h.store.ListRules(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to list rules")
		h.sendText(msg.Chat.ID, "Could not load your recurring rules, please try again later.")
		return
	}
	h.send(msg.Chat.ID, commitmentsMessage(recurrence.Totals(rules)))
}

func (h *Handlers) handleAddRecurring(ctx context.Context, msg *tgbotapi.Message) {
	rule, err := parseAddRecurring(msg.CommandArguments(), h.trigger.Today())
	if err != nil {
		h.sendText(msg.Chat.ID, "⚠️ "+err.Error()+"\n\nUsage: /addrecurring <expense|income> <amount> <frequency[:day]> <start|today> <name>")
		return
	}
	rule.UserID = msg.From.ID

	if err := h.store.CreateRule(ctx, rule); err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to create rule")
		h.sendText(msg.Chat.ID, "Could not save the rule, please try again later.")
		return
	}
	h.log.Info().Str("rule_id", rule.ID.String()).Int64("user_id", rule.UserID).Msg("created recurrence rule")

	h.send(msg.Chat.ID, createdMessage(rule))
	h.trigger.Notify(rule.UserID)
}

func (h *Handlers) handleSetActive(ctx context.Context, msg *tgbotapi.Message, active bool) {
	cmd := "pause"
	if active {
		cmd = "resume"
	}
	index, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || index < 1 {
		h.sendText(msg.Chat.ID, fmt.Sprintf("Usage: /%s <n>, where n is the number shown by /recurring", cmd))
		return
	}

	rules, err := h.store.ListRules(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to list rules")
		h.sendText(msg.Chat.ID, "Could not load your recurring rules, please try again later.")
		return
	}
	if index > len(rules) {
		h.sendText(msg.Chat.ID, fmt.Sprintf("There is no rule %d. See /recurring.", index))
		return
	}

	rule := rules[index-1]
	if err := h.store.SetActive(ctx, rule.ID, msg.From.ID, active); err != nil {
		h.log.Error().Err(err).Str("rule_id", rule.ID.String()).Msg("failed to update rule")
		h.sendText(msg.Chat.ID, "Could not update the rule, please try again later.")
		return
	}

	if active {
		h.sendText(msg.Chat.ID, "▶️ Resumed "+rule.Name)
		h.trigger.Notify(msg.From.ID)
		return
	}
	h.sendText(msg.Chat.ID, "⏸ Paused "+rule.Name)
}

// parseAddRecurring reads "<type> <amount> <frequency[:day]> <start> <name>".
// The start may be "today".
func parseAddRecurring(args string, today time.Time) (*models.RecurrenceRule, error) {
	fields := strings.Fields(args)
	if len(fields) < 5 {
		return nil, errors.New("not enough arguments")
	}

	rule := &models.RecurrenceRule{
		Type:   models.TransactionType(strings.ToLower(fields[0])),
		Name:   strings.Join(fields[4:], " "),
		Active: true,
	}
	if !rule.Type.Valid() {
		return nil, fmt.Errorf("type must be expense or income, got %q", fields[0])
	}

	amount, err := decimal.NewFromString(fields[1])
	if err != nil || amount.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q", fields[1])
	}
	rule.Amount = amount

	freq, day, hasDay := strings.Cut(strings.ToLower(fields[2]), ":")
	rule.Frequency = models.Frequency(freq)
	if !rule.Frequency.Valid() {
		return nil, fmt.Errorf("frequency must be daily, weekly, monthly or yearly, got %q", freq)
	}
	if hasDay {
		if rule.Frequency != models.FrequencyMonthly {
			return nil, errors.New("a due day only applies to monthly rules")
		}
		d, err := strconv.Atoi(day)
		if err != nil || d < 1 || d > 31 {
			return nil, fmt.Errorf("due day must be between 1 and 31, got %q", day)
		}
		rule.DueDay = &d
	}

	if strings.EqualFold(fields[3], "today") {
		rule.StartDate = today
	} else {
		start, err := models.ParseDate(fields[3])
		if err != nil {
			return nil, fmt.Errorf("start must be YYYY-MM-DD or today, got %q", fields[3])
		}
		rule.StartDate = start
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}
