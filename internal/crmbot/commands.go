package crmbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ronoray/hungry-times-bot/internal/telegram"
)

const defaultKPIDays = 7

const campaignLimit = 15

var knownSegments = []string{"vip", "regular", "lapsed", "dormant", "new"}

// analyticsTrigger decides when free text gets analytics JSON injected
// as model context.
var analyticsTrigger = regexp.MustCompile(`(?i)analytics|sales|revenue`)

const helpText = `*Hungry Times Bot*

/test - website health and today's orders
/analytics - last 7 days at a glance
/kpi [days] - KPI dashboard (default 7)
/segments - customer segment sizes
/campaign <segment> - generate an offer campaign
/next - review the next pending WhatsApp message
/crm - outreach stats
/reset - clear chat memory
/id - show this chat's ids

Anything else goes to the assistant.`

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// normalizeSlashCommand lowercases a leading /command and strips a
// @BotName suffix. Non-commands normalize to "".
func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func (b *Bot) handleMessage(ctx context.Context, m *telegram.Message) {
	if m.Chat == nil {
		return
	}
	chatID := m.Chat.ID

	if !b.authorized(m.From) {
		slog.Warn("unauthorized_chat", "chat_id", chatID, "from", telegram.DisplayName(m.From))
		b.reply(ctx, chatID, "unauthorized")
		return
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	userID := m.From.ID

	cmdWord, rest := splitCommand(text)
	cmd := normalizeSlashCommand(cmdWord)
	if cmd == "" {
		b.handleFreeText(ctx, chatID, userID, text)
		return
	}

	slog.Info("command_dispatched", "chat_id", chatID, "command", cmd)

	switch cmd {
	case "/start", "/help":
		b.reply(ctx, chatID, helpText)
	case "/id":
		b.reply(ctx, chatID, fmt.Sprintf("chat_id=%d user_id=%d", chatID, userID))
	case "/test":
		b.handleTest(ctx, chatID)
	case "/analytics":
		b.handleAnalytics(ctx, chatID)
	case "/kpi":
		b.handleKPI(ctx, chatID, rest)
	case "/reset":
		b.store.Reset(userID)
		b.reply(ctx, chatID, "ok (reset)")
	case "/segments":
		b.handleSegments(ctx, chatID)
	case "/campaign":
		b.handleCampaign(ctx, chatID, rest)
	case "/next":
		b.handleNext(ctx, chatID)
	case "/crm":
		b.handleCRMStats(ctx, chatID)
	default:
		b.reply(ctx, chatID, "unknown command, see /start")
	}
}

func (b *Bot) handleTest(ctx context.Context, chatID int64) {
	health, err := b.backend.WebsiteHealth(ctx)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.WebsiteHealth(health))
}

func (b *Bot) handleAnalytics(ctx context.Context, chatID int64) {
	a, err := b.backend.Analytics(ctx, defaultKPIDays)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.Analytics(a, defaultKPIDays))
}

func (b *Bot) handleKPI(ctx context.Context, chatID int64, arg string) {
	days := defaultKPIDays
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			b.reply(ctx, chatID, "usage: /kpi [days]")
			return
		}
		days = n
	}
	kpi, err := b.backend.KPI(ctx, days)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.KPI(kpi, days))
}

func (b *Bot) handleSegments(ctx context.Context, chatID int64) {
	segments, err := b.backend.Segments(ctx)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.Segments(segments))
}

func (b *Bot) handleCampaign(ctx context.Context, chatID int64, arg string) {
	segment := strings.ToLower(strings.TrimSpace(arg))
	if segment == "" {
		b.reply(ctx, chatID, "usage: /campaign <segment>\nsegments: "+strings.Join(knownSegments, ", "))
		return
	}
	camp, err := b.backend.GenerateCampaign(ctx, segment, campaignLimit)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.Campaign(camp))
}

func (b *Bot) handleNext(ctx context.Context, chatID int64) {
	msgs, err := b.backend.PendingMessages(ctx, 1)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(msgs) == 0 {
		b.reply(ctx, chatID, "all caught up, no pending messages ✅")
		return
	}

	m := msgs[0]
	if err := b.chat.SendMessageWithKeyboard(ctx, chatID, b.format.PendingMessage(m), pendingKeyboard(m.ID)); err != nil {
		slog.Error("telegram_send_error", "chat_id", chatID, "error", err)
	}
}

func pendingKeyboard(id int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: "✅ Sent", CallbackData: fmt.Sprintf("sent_%d", id)},
		{Text: "🚫 No WhatsApp", CallbackData: fmt.Sprintf("nowa_%d", id)},
		{Text: "⏭ Skip", CallbackData: fmt.Sprintf("skip_%d", id)},
	}}}
}

func (b *Bot) handleCRMStats(ctx context.Context, chatID int64) {
	stats, err := b.backend.CRMStats(ctx)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, b.format.CRMStats(stats))
}

// handleFreeText forwards the message to the assistant. Analytics
// context is best-effort decoration; its failure never blocks the
// model call.
func (b *Bot) handleFreeText(ctx context.Context, chatID, userID int64, text string) {
	prompt := text
	if analyticsTrigger.MatchString(text) {
		a, err := b.backend.Analytics(ctx, defaultKPIDays)
		if err != nil {
			slog.Warn("analytics_context_skipped", "error", err)
		} else if raw, err := json.Marshal(a); err == nil {
			prompt = text + "\n\nCurrent analytics (last 7 days):\n" + string(raw)
		}
	}
	b.reply(ctx, chatID, b.assistant.Ask(ctx, userID, prompt))
}
