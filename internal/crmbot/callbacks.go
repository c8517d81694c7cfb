package crmbot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ronoray/hungry-times-bot/internal/crmapi"
	"github.com/ronoray/hungry-times-bot/internal/telegram"
)

// Button data is "<action>_<crm message id>". noop marks an already
// handled card and only needs an empty ack.
var callbackActions = map[string]struct {
	transition string
	ack        string
}{
	"sent": {crmapi.ActionSent, "Marked sent"},
	"nowa": {crmapi.ActionNoWhatsApp, "No WhatsApp"},
	"skip": {crmapi.ActionSkip, "Skipped"},
}

func parseCallbackData(data string) (action string, id int64, ok bool) {
	data = strings.TrimSpace(data)
	if data == "noop" {
		return "noop", 0, true
	}
	i := strings.LastIndexByte(data, '_')
	if i <= 0 || i == len(data)-1 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(data[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return data[:i], id, true
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if !b.authorized(cb.From) {
		slog.Warn("unauthorized_callback", "from", telegram.DisplayName(cb.From))
		b.ack(ctx, cb.ID, "unauthorized")
		return
	}

	action, id, ok := parseCallbackData(cb.Data)
	if !ok {
		b.ack(ctx, cb.ID, "unknown action")
		return
	}
	if action == "noop" {
		b.ack(ctx, cb.ID, "")
		return
	}
	act, ok := callbackActions[action]
	if !ok {
		b.ack(ctx, cb.ID, "unknown action")
		return
	}

	slog.Info("callback_action", "action", action, "crm_message_id", id)

	// Mutation failures go through the ack channel only; the card and
	// its buttons stay usable for a retry.
	if err := b.backend.TransitionMessage(ctx, id, act.transition); err != nil {
		slog.Error("callback_transition_error", "action", action, "crm_message_id", id, "error", err)
		b.ack(ctx, cb.ID, truncate(err.Error(), 190))
		return
	}
	b.ack(ctx, cb.ID, act.ack)

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	done := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: "✓ done", CallbackData: "noop"},
	}}}
	if err := b.chat.EditMessageReplyMarkup(ctx, chatID, cb.Message.MessageID, done); err != nil {
		slog.Warn("callback_edit_error", "chat_id", chatID, "error", err)
	}

	// Chain straight into the next pending message.
	b.handleNext(ctx, chatID)
}

func (b *Bot) ack(ctx context.Context, callbackID, text string) {
	if err := b.chat.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		slog.Warn("callback_ack_error", "error", err)
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
