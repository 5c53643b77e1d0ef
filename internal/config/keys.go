package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	aliases []string // fallback env vars, consulted when env is unset
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "THREATPULSE_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "THREATPULSE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "log.level", typ: kString, env: "THREATPULSE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "deepseek.base_url", typ: kString, env: "THREATPULSE_DEEPSEEK_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.DeepSeek.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.DeepSeek.BaseURL },
	},
	{
		key: "deepseek.model", typ: kString, env: "THREATPULSE_DEEPSEEK_MODEL",
		apply:   func(cfg *Config, v any) { cfg.DeepSeek.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.DeepSeek.Model },
	},
	{
		key: "deepseek.api_key", typ: kString, env: "THREATPULSE_DEEPSEEK_API_KEY",
		aliases: []string{"DEEPSEEK_API_KEY"},
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.DeepSeek.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.DeepSeek.APIKey },
	},
	{
		key: "huggingface.base_url", typ: kString, env: "THREATPULSE_HUGGINGFACE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.HuggingFace.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.HuggingFace.BaseURL },
	},
	{
		key: "huggingface.model", typ: kString, env: "THREATPULSE_HUGGINGFACE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.HuggingFace.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.HuggingFace.Model },
	},
	{
		key: "huggingface.api_key", typ: kString, env: "THREATPULSE_HUGGINGFACE_API_KEY",
		aliases: []string{"HUGGINGFACE_API_KEY"},
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.HuggingFace.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.HuggingFace.APIKey },
	},
	{
		key: "upstream.timeout", typ: kString, env: "THREATPULSE_UPSTREAM_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Upstream.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Upstream.Timeout },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		name, raw := lookupEnv(s)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", name, raw, err)
			}
		}
	}
}

func lookupEnv(s keySpec) (string, string) {
	for _, name := range append([]string{s.env}, s.aliases...) {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return name, v
		}
	}
	return "", ""
}
