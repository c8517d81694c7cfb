package main

import (
	"fmt"
	"strings"

	"github.com/ronoray/hungry-times-bot/llm"
	anthropicProvider "github.com/ronoray/hungry-times-bot/providers/anthropic"
	openaiProvider "github.com/ronoray/hungry-times-bot/providers/openai"
)

type llmClientConfig struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string
}

// llmClientFromConfig resolves the provider and its default model. The
// endpoint override only applies to the OpenAI-compatible provider.
func llmClientFromConfig(cfg llmClientConfig) (llm.Client, string, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	model := strings.TrimSpace(cfg.Model)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "anthropic":
		if model == "" {
			model = "claude-3-5-sonnet-20241022"
		}
		return anthropicProvider.New(apiKey), model, nil
	case "openai":
		if model == "" {
			model = "gpt-4o"
		}
		return openaiProvider.New(strings.TrimSpace(cfg.Endpoint), apiKey), model, nil
	default:
		return nil, "", fmt.Errorf("unknown llm.provider %q (expected anthropic|openai)", cfg.Provider)
	}
}
