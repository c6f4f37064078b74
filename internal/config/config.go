package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Store   StoreConfig
	List    ListConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	// Driver is one of sqlite, file or memory.
	Driver  string
	DataDir string
}

type StoreConfig struct {
	// Latency is the simulated round trip of every store operation.
	Latency time.Duration
}

type ListConfig struct {
	PageSize       int
	PageDelay      time.Duration
	SearchDebounce time.Duration
	Locale         string
}

type APIConfig struct {
	// Token enables bearer authentication on the HTTP API when non-empty.
	Token string
}

type LogConfig struct {
	Level string
}

// SlogLevel maps Level onto slog. Unknown values mean Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			Driver:  "sqlite",
			DataDir: defaultDataDir(),
		},
		Store: StoreConfig{
			Latency: 300 * time.Millisecond,
		},
		List: ListConfig{
			PageSize:       12,
			PageDelay:      400 * time.Millisecond,
			SearchDebounce: 150 * time.Millisecond,
			Locale:         "en-US",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load layers defaults, the config.json document in configDir and PORTAL_*
// environment variables, in that order. The API token falls back to the
// macOS Keychain, or to secrets.json in the data directory elsewhere.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

const (
	secretService = "portal"
	tokenAccount  = "api_token"
)

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// An unset token is valid and disables auth, so a keychain miss is not an error.
	if cfg.API.Token == "" {
		if tok, err := kc.Get(secretService, tokenAccount); err == nil && tok != "" {
			cfg.API.Token = tok
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.Driver {
	case "sqlite", "file", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be sqlite, file or memory", c.Storage.Driver))
	}
	if c.Storage.Driver != "memory" && c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}
	if c.List.PageSize < 1 {
		errs = append(errs, fmt.Errorf("list.page_size must be positive, got %d", c.List.PageSize))
	}
	for key, d := range map[string]time.Duration{
		"store.latency":        c.Store.Latency,
		"list.page_delay":      c.List.PageDelay,
		"list.search_debounce": c.List.SearchDebounce,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, d))
		}
	}
	return errors.Join(errs...)
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
