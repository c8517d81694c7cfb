package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ronoray/hungry-times-bot/internal/convstore"
	"github.com/ronoray/hungry-times-bot/internal/crmapi"
	"github.com/ronoray/hungry-times-bot/internal/crmbot"
	"github.com/ronoray/hungry-times-bot/internal/logutil"
	"github.com/ronoray/hungry-times-bot/internal/persona"
	"github.com/ronoray/hungry-times-bot/internal/telegram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram operator bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or HUNGRY_TIMES_TELEGRAM_BOT_TOKEN)")
			}

			allowed, err := parseOperatorIDs(flagOrViperStringArray(cmd, "telegram-allowed-operator-id", "telegram.allowed_operator_ids"))
			if err != nil {
				return err
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if len(allowed) == 0 {
				logger.Warn("empty_operator_allowlist", "hint", "every sender is rejected until telegram.allowed_operator_ids is set")
			}

			client, model, err := llmClientFromConfig(llmClientConfig{
				Provider: flagOrViperString(cmd, "llm-provider", "llm.provider"),
				Endpoint: flagOrViperString(cmd, "llm-endpoint", "llm.endpoint"),
				APIKey:   flagOrViperString(cmd, "llm-api-key", "llm.api_key"),
				Model:    flagOrViperString(cmd, "llm-model", "llm.model"),
			})
			if err != nil {
				return err
			}

			prof, err := persona.Load(strings.TrimSpace(flagOrViperString(cmd, "persona-file", "bot.persona_file")))
			if err != nil {
				return err
			}

			maxTurns := flagOrViperInt(cmd, "history-max-turns", "bot.history_max_turns")
			store := convstore.New(maxTurns)

			backend := crmapi.New(nil,
				flagOrViperString(cmd, "backend-base-url", "backend.base_url"),
				flagOrViperString(cmd, "backend-api-key", "backend.api_key"),
			)

			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 30 * time.Second
			}

			api := telegram.New(&http.Client{Timeout: pollTimeout + 30*time.Second}, "", token)

			me, err := api.GetMe(cmd.Context())
			if err != nil {
				return fmt.Errorf("verify bot token: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr := strings.TrimSpace(flagOrViperString(cmd, "health-addr", "bot.health_addr")); addr != "" {
				startHealthListener(ctx, logger, addr)
			}

			locale := flagOrViperString(cmd, "locale", "bot.locale")
			currency := flagOrViperString(cmd, "currency", "bot.currency")

			logger.Info("bot_start",
				"bot_username", me.Username,
				"bot_id", me.ID,
				"poll_timeout", pollTimeout.String(),
				"backend_base_url", flagOrViperString(cmd, "backend-base-url", "backend.base_url"),
				"llm_provider", flagOrViperString(cmd, "llm-provider", "llm.provider"),
				"llm_model", model,
				"operators", len(allowed),
				"locale", locale,
			)

			bot := crmbot.New(crmbot.Config{
				Chat:    api,
				Backend: backend,
				Assistant: &crmbot.Assistant{
					Client:    client,
					Model:     model,
					MaxTokens: viper.GetInt("llm.max_tokens"),
					System:    prof.SystemPrompt(),
					Store:     store,
					Timeout:   viper.GetDuration("llm.request_timeout"),
				},
				Store:       store,
				Allowed:     allowed,
				PollTimeout: pollTimeout,
				Format:      crmbot.NewFormatter(locale, currency),
			})

			err = bot.Run(ctx)
			logger.Info("bot_stop")
			return err
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("telegram-allowed-operator-id", nil, "Operator id(s) allowed to use the bot (repeatable, comma separation allowed). Empty rejects everyone.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().String("backend-base-url", "http://localhost:3000", "Base URL of the restaurant analytics/CRM backend.")
	cmd.Flags().String("backend-api-key", "", "API key sent as X-Api-Key to the backend.")
	cmd.Flags().String("llm-provider", "anthropic", "LLM provider: anthropic|openai.")
	cmd.Flags().String("llm-api-key", "", "LLM API key.")
	cmd.Flags().String("llm-model", "", "LLM model (empty uses the provider default).")
	cmd.Flags().String("llm-endpoint", "", "OpenAI-compatible endpoint override.")
	cmd.Flags().String("persona-file", "", "Markdown persona profile for the assistant system prompt.")
	cmd.Flags().String("locale", "en-IN", "BCP 47 locale for number formatting in replies.")
	cmd.Flags().String("currency", "₹", "Currency symbol used in replies.")
	cmd.Flags().Int("history-max-turns", 10, "Max conversation turns kept per operator.")
	cmd.Flags().String("health-addr", "", "Bind address for the /healthz endpoint (empty disables).")

	return cmd
}

// parseOperatorIDs accepts repeated values and comma-separated lists,
// which is how the ids arrive from env vars.
func parseOperatorIDs(entries []string) (map[int64]bool, error) {
	allowed := make(map[int64]bool)
	for _, entry := range entries {
		for _, s := range strings.Split(entry, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid telegram.allowed_operator_ids entry %q: %w", s, err)
			}
			allowed[id] = true
		}
	}
	return allowed, nil
}

func startHealthListener(ctx context.Context, logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health_listen_error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
