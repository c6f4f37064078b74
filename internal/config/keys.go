package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "PORTAL_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.driver", typ: kString, env: "PORTAL_STORAGE_DRIVER",
		apply:   func(cfg *Config, v any) { cfg.Storage.Driver = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Driver },
	},
	{
		key: "storage.data_dir", typ: kString, env: "PORTAL_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "store.latency", typ: kDuration, env: "PORTAL_STORE_LATENCY",
		apply:   func(cfg *Config, v any) { cfg.Store.Latency = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Store.Latency },
	},
	{
		key: "list.page_size", typ: kInt, env: "PORTAL_LIST_PAGE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.List.PageSize = v.(int) },
		extract: func(cfg Config) any { return cfg.List.PageSize },
	},
	{
		key: "list.page_delay", typ: kDuration, env: "PORTAL_LIST_PAGE_DELAY",
		apply:   func(cfg *Config, v any) { cfg.List.PageDelay = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.List.PageDelay },
	},
	{
		key: "list.search_debounce", typ: kDuration, env: "PORTAL_LIST_SEARCH_DEBOUNCE",
		apply:   func(cfg *Config, v any) { cfg.List.SearchDebounce = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.List.SearchDebounce },
	},
	{
		key: "list.locale", typ: kString, env: "PORTAL_LIST_LOCALE",
		apply:   func(cfg *Config, v any) { cfg.List.Locale = v.(string) },
		extract: func(cfg Config) any { return cfg.List.Locale },
	},
	{
		key: "api.token", typ: kString, env: "PORTAL_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "PORTAL_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
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
			if ok {
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
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if d, err := time.ParseDuration(v); err == nil {
					s.apply(cfg, d)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
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
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
