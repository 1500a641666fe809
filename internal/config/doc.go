// Package config handles configuration loading, saving, and schema definition.
package config

// Config is the top-level steamlark configuration.
// Uses json tags in camelCase to match the JSON config file format.
type Config struct {
	Feishu FeishuConfig `json:"feishu"`
	LLM    LLMConfig    `json:"llm"`
	Server ServerConfig `json:"server"`
	Redis  RedisConfig  `json:"redis"`

	// PersonasFile points to an optional personas.yaml that overrides
	// the built-in prompt modes.
	PersonasFile string `json:"personasFile,omitempty"`
}

// FeishuConfig holds the Feishu/Lark app credentials.
type FeishuConfig struct {
	AppID     string `json:"appId"`
	AppSecret string `json:"appSecret"`
	// APIBase overrides the Feishu open platform base URL (tests, private
	// deployments). Empty means https://open.feishu.cn.
	APIBase string `json:"apiBase,omitempty"`
}

// LLMConfig holds the chat-completion endpoint settings.
type LLMConfig struct {
	APIKey      string  `json:"apiKey"`
	APIBase     string  `json:"apiBase,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// Workers and QueueSize bound the background task pool.
	Workers   int `json:"workers,omitempty"`
	QueueSize int `json:"queueSize,omitempty"`
}

// RedisConfig holds optional Redis settings for the event dedup guard.
type RedisConfig struct {
	URL      string `json:"url,omitempty"` // redis://host:port
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Workers:   8,
			QueueSize: 64,
		},
	}
}
