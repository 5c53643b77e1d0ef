package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	DeepSeek    ProviderConfig
	HuggingFace ProviderConfig
	Upstream    UpstreamConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level string
}

// ProviderConfig describes one hosted inference endpoint.
type ProviderConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

type UpstreamConfig struct {
	Timeout string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
		Log: LogConfig{
			Level: "info",
		},
		DeepSeek: ProviderConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-chat",
		},
		HuggingFace: ProviderConfig{
			BaseURL: "https://api-inference.huggingface.co",
			Model:   "facebook/bart-large-mnli",
		},
		Upstream: UpstreamConfig{
			Timeout: "30s",
		},
	}
}

// Load reads configuration from the YAML file at
// $XDG_CONFIG_HOME/threatpulse/config.yaml, then applies environment
// overrides (THREATPULSE_*). API keys come only from the environment.
//
// A missing API key is not fatal; the provider that needs it fails at call
// time and analysis falls back to the next one.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	if cfg.DeepSeek.APIKey == "" {
		fmt.Fprintln(os.Stderr, "[WARN] DeepSeek API key is not set (THREATPULSE_DEEPSEEK_API_KEY or DEEPSEEK_API_KEY); chat analysis will fall back to classification.")
	}
	if cfg.HuggingFace.APIKey == "" {
		fmt.Fprintln(os.Stderr, "[WARN] Hugging Face API key is not set (THREATPULSE_HUGGINGFACE_API_KEY or HUGGINGFACE_API_KEY).")
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func Validate(cfg Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if _, err := cfg.UpstreamTimeout(); err != nil {
		return err
	}
	return nil
}

// UpstreamTimeout parses Upstream.Timeout.
func (c Config) UpstreamTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid upstream.timeout %q: %w", c.Upstream.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid upstream.timeout %q: must be positive", c.Upstream.Timeout)
	}
	return d, nil
}

// Addr is the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
