package config

// Config is the top-level configuration
type Config struct {
	Provider  ProviderConfig  `json:"provider"`
	Agent     AgentConfig     `json:"agent"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notify    NotifyConfig    `json:"notify"`
	Gateway   GatewayConfig   `json:"gateway"`
}

// ProviderConfig selects and authenticates the LLM backend.
type ProviderConfig struct {
	Name    string `json:"name"` // "openai", "anthropic", or any OpenAI-compatible
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
}

type AgentConfig struct {
	Model             string  `json:"model"`
	MaxTokens         int     `json:"maxTokens"`
	Temperature       float64 `json:"temperature"`
	MaxToolIterations int     `json:"maxToolIterations"`
	SystemPromptFile  string  `json:"systemPromptFile"`
}

// SchedulerConfig identifies the schedule this agent rewrites. Name is
// required for the scheduling tool to work; Group defaults to "default".
type SchedulerConfig struct {
	Name         string `json:"name"`
	Group        string `json:"group"`
	Timezone     string `json:"timezone"`
	StorePath    string `json:"storePath"`
	PollInterval string `json:"pollInterval"` // Go duration, e.g. "15s"
}

// NotifyConfig lists completion-notification endpoints. All are
// optional; with none configured, notifications are a logged no-op.
type NotifyConfig struct {
	Telegram TelegramNotifyConfig `json:"telegram"`
	Slack    SlackNotifyConfig    `json:"slack"`
	Discord  DiscordNotifyConfig  `json:"discord"`
	Webhook  WebhookNotifyConfig  `json:"webhook"`
}

type TelegramNotifyConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chatId"`
}

type SlackNotifyConfig struct {
	BotToken string `json:"botToken"`
	Channel  string `json:"channel"`
}

type DiscordNotifyConfig struct {
	Token     string `json:"token"`
	ChannelID string `json:"channelId"`
}

type WebhookNotifyConfig struct {
	URL string `json:"url"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name: "openai",
		},
		Agent: AgentConfig{
			MaxTokens:         4096,
			MaxToolIterations: 40,
		},
		Scheduler: SchedulerConfig{
			Group:        "default",
			Timezone:     "Asia/Tokyo",
			StorePath:    "~/.tickbot/schedules.json",
			PollInterval: "15s",
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}
