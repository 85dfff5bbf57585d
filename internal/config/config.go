// Package config manages the bot configuration, loaded from
// ~/.config/reflectbot/config.toml with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all process-wide settings. It is constructed once at startup
// and passed explicitly into every component; nothing reads it ambiently.
type Config struct {
	DataDir      string       `toml:"data_dir"`
	AllowedUsers []string     `toml:"allowed_users"`
	Keys         KeysConfig   `toml:"keys"`
	Model        ModelConfig  `toml:"model"`
	Speech       SpeechConfig `toml:"speech"`
}

type KeysConfig struct {
	Telegram   string `toml:"telegram"`
	OpenRouter string `toml:"openrouter"`
	Anthropic  string `toml:"anthropic"`
}

// ModelConfig selects the language-model provider and bounds each call.
type ModelConfig struct {
	Provider       string `toml:"provider"` // "openrouter" or "claude"
	Name           string `toml:"name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PromptBudget   int    `toml:"prompt_budget"` // max prompt tokens before trimming
}

type SpeechConfig struct {
	Language string `toml:"language"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		DataDir: "DATA",
		Model: ModelConfig{
			Provider:       "openrouter",
			Name:           "openai/gpt-3.5-turbo",
			TimeoutSeconds: 60,
			PromptBudget:   12000,
		},
		Speech: SpeechConfig{
			Language: "en",
		},
	}
}

// Path returns the location of the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reflectbot", "config.toml"), nil
}

// Load reads the config file, applying defaults for any missing values and
// letting environment variables override credentials and the allow-list.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: load: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables on top of cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Keys.Telegram = v
	}
	if v := os.Getenv("OPEN_API_KEY"); v != "" {
		cfg.Keys.OpenRouter = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("REFLECTBOT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ALLOWED_USER_IDS"); v != "" {
		cfg.AllowedUsers = splitIDs(v)
	}
}

// splitIDs parses a comma-separated allow-list, dropping empty items.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Authorized reports whether the given user ID is on the allow-list.
// An empty allow-list authorizes nobody.
func (c Config) Authorized(userID int64) bool {
	id := strconv.FormatInt(userID, 10)
	for _, allowed := range c.AllowedUsers {
		if allowed == id {
			return true
		}
	}
	return false
}

// Validate reports the first missing credential.
func (c Config) Validate() error {
	if c.Keys.Telegram == "" {
		return fmt.Errorf("config: telegram bot token is not set (BOT_TOKEN)")
	}
	switch c.Model.Provider {
	case "openrouter":
		if c.Keys.OpenRouter == "" {
			return fmt.Errorf("config: OpenRouter API key is not set (OPEN_API_KEY)")
		}
	case "claude":
		if c.Keys.Anthropic == "" {
			return fmt.Errorf("config: Anthropic API key is not set (ANTHROPIC_API_KEY)")
		}
	default:
		return fmt.Errorf("config: unknown model provider %q; valid providers: openrouter, claude", c.Model.Provider)
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
