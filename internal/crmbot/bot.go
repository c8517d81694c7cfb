// Package crmbot relays operator commands from Telegram to the Hungry
// Times backend and the LLM assistant.
package crmbot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ronoray/hungry-times-bot/internal/convstore"
	"github.com/ronoray/hungry-times-bot/internal/crmapi"
	"github.com/ronoray/hungry-times-bot/internal/telegram"
)

// ChatAPI is the slice of the Telegram client the bot drives. It is an
// interface so handler tests can capture outbound traffic.
type ChatAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, kb *telegram.InlineKeyboardMarkup) error
}

type Config struct {
	Chat      ChatAPI
	Backend   *crmapi.Client
	Assistant *Assistant
	Store     *convstore.Store

	// Allowed is the operator allow-list. Empty rejects everyone;
	// there is no open mode for a bot that mutates CRM state.
	Allowed map[int64]bool

	PollTimeout time.Duration
	Format      *Formatter
}

type Bot struct {
	chat        ChatAPI
	backend     *crmapi.Client
	assistant   *Assistant
	store       *convstore.Store
	allowed     map[int64]bool
	pollTimeout time.Duration
	format      *Formatter
}

func New(cfg Config) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.Format == nil {
		cfg.Format = NewFormatter("", "")
	}
	return &Bot{
		chat:        cfg.Chat,
		backend:     cfg.Backend,
		assistant:   cfg.Assistant,
		store:       cfg.Store,
		allowed:     cfg.Allowed,
		pollTimeout: cfg.PollTimeout,
		format:      cfg.Format,
	}
}

// Run long-polls until ctx is cancelled. Updates are handled on their
// own goroutines; in-flight handlers are awaited before returning.
func (b *Bot) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, next, err := b.chat.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if telegram.IsPollTimeout(err) {
				slog.Debug("poll_timeout")
				continue
			}
			slog.Error("poll_error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			u := u
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, u)
			}()
		}
	}
}

// handleUpdate is the outer boundary: a panicking handler must not
// take the poll loop down with it.
func (b *Bot) handleUpdate(ctx context.Context, u telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler_panic", "update_id", u.UpdateID, "panic", r)
			if chatID := updateChatID(u); chatID != 0 {
				_ = b.chat.SendMessage(ctx, chatID, "⚠️ something went wrong, please retry")
			}
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func updateChatID(u telegram.Update) int64 {
	if u.Message != nil && u.Message.Chat != nil {
		return u.Message.Chat.ID
	}
	if u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil {
		return u.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// authorized is fail-closed: a missing sender is rejected like an
// unknown one.
func (b *Bot) authorized(from *telegram.User) bool {
	return from != nil && b.allowed[from.ID]
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.chat.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("telegram_send_error", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	b.reply(ctx, chatID, "⚠️ "+err.Error())
}
