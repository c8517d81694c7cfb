package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.allowed_operator_ids", []string{})
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)

	// Backend API
	viper.SetDefault("backend.base_url", "http://localhost:3000")
	viper.SetDefault("backend.api_key", "")

	// LLM
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.max_tokens", 500)
	viper.SetDefault("llm.request_timeout", 90*time.Second)

	// Bot behavior
	viper.SetDefault("bot.locale", "en-IN")
	viper.SetDefault("bot.currency", "₹")
	viper.SetDefault("bot.history_max_turns", 10)
	viper.SetDefault("bot.persona_file", "")
	viper.SetDefault("bot.health_addr", "")
}
