package crmbot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ronoray/hungry-times-bot/internal/convstore"
	"github.com/ronoray/hungry-times-bot/llm"
)

func TestAskSendsSystemPromptAndCappedHistory(t *testing.T) {
	t.Parallel()

	ll := &fakeLLM{}
	a := &Assistant{
		Client:    ll,
		Model:     "test-model",
		MaxTokens: 256,
		System:    "be useful",
		Store:     convstore.New(4),
	}

	for i := 0; i < 3; i++ {
		a.Ask(context.Background(), 1, fmt.Sprintf("question %d", i))
	}

	last := ll.reqs[len(ll.reqs)-1]
	if last.Model != "test-model" || last.System != "be useful" || last.MaxTokens != 256 {
		t.Fatalf("request = %+v", last)
	}
	if len(last.Messages) > 4 {
		t.Fatalf("history len = %d, want capped at 4", len(last.Messages))
	}
	// cap 4 after two exchanges plus the new user turn: the oldest
	// exchange is partially gone.
	if got := last.Messages[len(last.Messages)-1].Content; got != "question 2" {
		t.Fatalf("newest turn = %q, want question 2", got)
	}
}

func TestAskFailureKeepsUserTurn(t *testing.T) {
	t.Parallel()

	ll := &fakeLLM{fn: func(ctx context.Context, req llm.Request) (llm.Result, error) {
		return llm.Result{}, fmt.Errorf("rate limited")
	}}
	store := convstore.New(convstore.DefaultMaxTurns)
	a := &Assistant{Client: ll, Model: "m", Store: store}

	got := a.Ask(context.Background(), 9, "hello")

	if !strings.Contains(got, "⚠️ assistant unavailable") || !strings.Contains(got, "rate limited") {
		t.Fatalf("got %q", got)
	}
	turns := store.Get(9)
	if len(turns) != 1 || turns[0].Role != "user" {
		t.Fatalf("turns = %+v, want only the user turn", turns)
	}
}

func TestAskAppendsAssistantTurn(t *testing.T) {
	t.Parallel()

	ll := &fakeLLM{fn: func(ctx context.Context, req llm.Request) (llm.Result, error) {
		return llm.Result{Text: "fine, thanks"}, nil
	}}
	store := convstore.New(convstore.DefaultMaxTurns)
	a := &Assistant{Client: ll, Model: "m", Store: store}

	if got := a.Ask(context.Background(), 9, "how are you"); got != "fine, thanks" {
		t.Fatalf("got %q", got)
	}
	turns := store.Get(9)
	if len(turns) != 2 || turns[1].Role != "assistant" || turns[1].Content != "fine, thanks" {
		t.Fatalf("turns = %+v", turns)
	}
}
