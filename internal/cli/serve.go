package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/reflectbot/reflectbot/internal/adapter"
	"github.com/reflectbot/reflectbot/internal/analysis"
	"github.com/reflectbot/reflectbot/internal/bot"
	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
	"github.com/reflectbot/reflectbot/internal/session"
	"github.com/reflectbot/reflectbot/internal/speech"
)

func newServeCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot until interrupted",
		Long: `Start the long-polling Telegram bot.

Credentials come from the config file (see 'reflectbot setup') or from the
BOT_TOKEN, OPEN_API_KEY and ALLOWED_USER_IDS environment variables.

Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(cfg.AllowedUsers) == 0 {
				log.Println("serve: no allowed user IDs configured; the bot will deny everyone")
			}

			store := diary.New(cfg.DataDir)
			if err := store.Bootstrap(); err != nil {
				return err
			}

			apiKey := cfg.Keys.OpenRouter
			if cfg.Model.Provider == adapter.ProviderClaude {
				apiKey = cfg.Keys.Anthropic
			}
			model, err := adapter.New(cfg.Model.Provider, apiKey, cfg.Model.Name)
			if err != nil {
				return err
			}

			// Prompt trimming is an optimization; run without it if the
			// encoding cannot be loaded.
			tok, err := analysis.NewTokenizer()
			if err != nil {
				log.Printf("serve: tokenizer unavailable, prompts will not be trimmed: %v", err)
				tok = nil
			}

			api, err := tgbotapi.NewBotAPI(cfg.Keys.Telegram)
			if err != nil {
				return fmt.Errorf("serve: telegram login: %w", err)
			}

			renderer := speech.NewRenderer(speech.GoogleTTS{Language: cfg.Speech.Language})
			mgr := session.NewManager(cfg, bot.NewTransport(api), model, store, renderer, tok)
			b := bot.New(api, cfg, mgr, store)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("serve: data dir %s, model %s via %s", cfg.DataDir, cfg.Model.Name, cfg.Model.Provider)
			return b.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	return cmd
}
