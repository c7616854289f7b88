package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Load loads config from the default path (~/.tickbot/config.json).
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromFile(filepath.Join(home, ".tickbot", "config.json"))
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	expandStorePath(cfg)

	return cfg, nil
}

// applyEnvOverrides applies TICKBOT_-prefixed environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"TICKBOT_PROVIDER_NAME":          &cfg.Provider.Name,
		"TICKBOT_PROVIDER_APIKEY":        &cfg.Provider.APIKey,
		"TICKBOT_PROVIDER_BASEURL":       &cfg.Provider.BaseURL,
		"TICKBOT_AGENT_MODEL":            &cfg.Agent.Model,
		"TICKBOT_SCHEDULER_NAME":         &cfg.Scheduler.Name,
		"TICKBOT_SCHEDULER_GROUP":        &cfg.Scheduler.Group,
		"TICKBOT_SCHEDULER_TIMEZONE":     &cfg.Scheduler.Timezone,
		"TICKBOT_NOTIFY_TELEGRAM_TOKEN":  &cfg.Notify.Telegram.Token,
		"TICKBOT_NOTIFY_SLACK_BOTTOKEN":  &cfg.Notify.Slack.BotToken,
		"TICKBOT_NOTIFY_SLACK_CHANNEL":   &cfg.Notify.Slack.Channel,
		"TICKBOT_NOTIFY_DISCORD_TOKEN":   &cfg.Notify.Discord.Token,
		"TICKBOT_NOTIFY_DISCORD_CHANNEL": &cfg.Notify.Discord.ChannelID,
		"TICKBOT_NOTIFY_WEBHOOK_URL":     &cfg.Notify.Webhook.URL,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}

	if val := os.Getenv("TICKBOT_NOTIFY_TELEGRAM_CHATID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notify.Telegram.ChatID = id
		}
	}
}

// expandStorePath expands a leading ~ in the schedule store path.
func expandStorePath(cfg *Config) {
	sp := cfg.Scheduler.StorePath
	if len(sp) >= 2 && sp[0] == '~' && sp[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Scheduler.StorePath = filepath.Join(home, sp[2:])
		}
	}
}
