package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reflectbot/reflectbot/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time configuration",
		Long:  "Configure the Telegram token, model provider API key, and allowed users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Welcome to Reflectbot! Let's configure your journaling bot.")
			fmt.Println()

			cfg := config.Default()

			fmt.Print("Telegram bot token (from @BotFather): ")
			if token := readLineBuf(reader); token != "" {
				cfg.Keys.Telegram = token
			}

			fmt.Println()
			fmt.Println("Which language-model provider should analyze entries?")
			fmt.Println("  [1] OpenRouter (any hosted model)")
			fmt.Println("  [2] Claude (Anthropic, direct)")
			fmt.Print("> ")

			switch strings.TrimSpace(readLineBuf(reader)) {
			case "2":
				cfg.Model.Provider = "claude"
				cfg.Model.Name = "claude-sonnet-4-6"
				fmt.Print("Enter your Anthropic API key (or press Enter to set ANTHROPIC_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.Anthropic = key
				}
			default:
				cfg.Model.Provider = "openrouter"
				fmt.Print("Enter your OpenRouter API key (or press Enter to set OPEN_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.OpenRouter = key
				}
				fmt.Printf("Model identifier (press Enter for %s): ", cfg.Model.Name)
				if model := readLineBuf(reader); model != "" {
					cfg.Model.Name = model
				}
			}

			fmt.Println()
			fmt.Print("Allowed Telegram user IDs (comma-separated): ")
			if ids := readLineBuf(reader); ids != "" {
				for _, id := range strings.Split(ids, ",") {
					if id = strings.TrimSpace(id); id != "" {
						cfg.AllowedUsers = append(cfg.AllowedUsers, id)
					}
				}
			}

			fmt.Println()
			fmt.Printf("Data directory (press Enter for %s): ", cfg.DataDir)
			if dir := readLineBuf(reader); dir != "" {
				cfg.DataDir = dir
			}

			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			path, _ := config.Path()
			fmt.Printf("Configuration saved to %s\n", path)
			fmt.Println("Run `reflectbot serve` to start the bot.")

			return nil
		},
	}
}

// readLineBuf reads a trimmed line from a bufio.Reader.
func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
