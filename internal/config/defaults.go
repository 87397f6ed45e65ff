package config

// Defaults returns the configuration written by `fatwabot init`. The provider
// API key and the Telegram token are deliberately left to the environment;
// validation refuses to start the gateway until they are present.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			DefaultProvider:       "together",
			RequestTimeoutSeconds: 30,
			MaxConcurrentMessages: 5,
		},
		Providers: map[string]ProviderConfig{
			"together": {
				Enabled:     true,
				Style:       StyleCompletion,
				APIBase:     "https://api.together.xyz",
				APIKey:      "${TOGETHER_API_KEY:-}",
				Model:       "togethercomputer/llama-2-70b-chat",
				MaxTokens:   512,
				Temperature: 0.3,
			},
			"openai": {
				Enabled:     false,
				Style:       StyleChat,
				APIBase:     "https://api.openai.com/v1",
				APIKey:      "${OPENAI_API_KEY:-}",
				Model:       "gpt-4o-mini",
				MaxTokens:   512,
				Temperature: 0.3,
			},
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Enabled: false,
				Token:   "${TELEGRAM_BOT_TOKEN:-}",
			},
			CLI: CLIConfig{
				Enabled: true,
			},
		},
		Instructions: InstructionsConfig{
			Path: "~/.fatwabot/instructions.yaml",
		},
		Audit: AuditConfig{
			Enabled:       true,
			DBPath:        "~/.fatwabot/audit.db",
			RetentionDays: 90,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Addr:     "127.0.0.1:9091",
			Endpoint: "/metrics",
		},
	}
}
