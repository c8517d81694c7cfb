package crmbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/ronoray/hungry-times-bot/internal/convstore"
	"github.com/ronoray/hungry-times-bot/llm"
)

// Assistant is the free-text path: capped history plus a fixed system
// prompt, one completion per message.
type Assistant struct {
	Client    llm.Client
	Model     string
	MaxTokens int
	System    string
	Store     *convstore.Store
	Timeout   time.Duration
}

// Ask always returns displayable text. On failure the user turn stays
// in history and the error comes back as a warning string.
func (a *Assistant) Ask(ctx context.Context, userID int64, text string) string {
	a.Store.Append(userID, llm.Message{Role: "user", Content: text})

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	res, err := a.Client.Chat(ctx, llm.Request{
		Model:     a.Model,
		System:    a.System,
		Messages:  a.Store.Get(userID),
		MaxTokens: a.MaxTokens,
	})
	if err != nil {
		slog.Error("llm_chat_error", "user_id", userID, "error", err)
		return "⚠️ assistant unavailable: " + err.Error()
	}

	a.Store.Append(userID, llm.Message{Role: "assistant", Content: res.Text})
	slog.Info("llm_chat",
		"user_id", userID,
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
		"duration", res.Duration,
	)
	return res.Text
}
