package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// mapBackend is an in-memory ConfigBackend.
type mapBackend map[string]any

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, errors.New("not a string")
	}
	return s, true, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, true, errors.New("not an int")
	}
	return i, true, nil
}

func (m mapBackend) SetString(key, val string) error {
	m[key] = val
	return nil
}

func (m mapBackend) SetInt(key string, val int) error {
	m[key] = val
	return nil
}

func (m mapBackend) Delete(key string) error {
	delete(m, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{}, mockKeychain{err: errors.New("no keychain")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
	if cfg.Store.Latency != 300*time.Millisecond {
		t.Errorf("Store.Latency = %s, want 300ms", cfg.Store.Latency)
	}
	if cfg.List.PageSize != 12 {
		t.Errorf("List.PageSize = %d, want 12", cfg.List.PageSize)
	}
	if cfg.List.PageDelay != 400*time.Millisecond {
		t.Errorf("List.PageDelay = %s, want 400ms", cfg.List.PageDelay)
	}
	if cfg.List.SearchDebounce != 150*time.Millisecond {
		t.Errorf("List.SearchDebounce = %s, want 150ms", cfg.List.SearchDebounce)
	}
	if cfg.List.Locale != "en-US" {
		t.Errorf("List.Locale = %q, want en-US", cfg.List.Locale)
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
}

// TestBackendValues verifies that every non-secret key is read from the backend.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := mapBackend{
		"server.port":          5000,
		"storage.driver":       "file",
		"storage.data_dir":     "/tmp/portal-test",
		"store.latency":        "0s",
		"list.page_size":       20,
		"list.page_delay":      "1s",
		"list.search_debounce": "50ms",
		"list.locale":          "de-DE",
		"log.level":            "debug",
		"api.token":            "ignored",
	}
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.DataDir != "/tmp/portal-test" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Store.Latency != 0 {
		t.Errorf("Store.Latency = %s", cfg.Store.Latency)
	}
	if cfg.List.PageSize != 20 || cfg.List.PageDelay != time.Second || cfg.List.SearchDebounce != 50*time.Millisecond {
		t.Errorf("List = %+v", cfg.List)
	}
	if cfg.List.Locale != "de-DE" {
		t.Errorf("List.Locale = %q", cfg.List.Locale)
	}
	if cfg.API.Token != "" {
		t.Errorf("secret read from backend: %q", cfg.API.Token)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTAL_SERVER_PORT", "6000")
	t.Setenv("PORTAL_STORE_LATENCY", "10ms")
	t.Setenv("PORTAL_API_TOKEN", "env-token")

	cfg, err := loadWith(mapBackend{"server.port": 5000}, mockKeychain{value: "keychain-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Store.Latency != 10*time.Millisecond {
		t.Errorf("Store.Latency = %s", cfg.Store.Latency)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want env-token", cfg.API.Token)
	}
}

// TestBadEnvKeepsDefault verifies unparsable env values fall back to defaults.
func TestBadEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTAL_LIST_PAGE_SIZE", "many")
	t.Setenv("PORTAL_LIST_PAGE_DELAY", "soon")

	cfg, err := loadWith(mapBackend{}, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.List.PageSize != 12 || cfg.List.PageDelay != 400*time.Millisecond {
		t.Errorf("List = %+v", cfg.List)
	}
}

// TestKeychainFallback verifies the secret store is consulted when no token is in env.
func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{}, mockKeychain{value: "keychain-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "keychain-secret" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "keychain-secret")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	_, err := loadWith(mapBackend{
		"server.port":    0,
		"storage.driver": "postgres",
		"list.page_size": 0,
	}, mockKeychain{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "storage.driver", "list.page_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	cfg := defaults()
	cfg.Storage.Driver = "memory"
	cfg.Storage.DataDir = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory driver needs no data dir: %v", err)
	}
}

func TestSetKey(t *testing.T) {
	b := mapBackend{}
	var secret string
	setSecret := func(service, account, value string) error {
		if service != "portal" || account != "api_token" {
			t.Errorf("secret stored under %s/%s", service, account)
		}
		secret = value
		return nil
	}

	if err := setKeyWith(b, setSecret, "list.page_size", "30"); err != nil {
		t.Fatal(err)
	}
	if b["list.page_size"] != 30 {
		t.Errorf("page size = %v", b["list.page_size"])
	}
	if err := setKeyWith(b, setSecret, "store.latency", "1s"); err != nil {
		t.Fatal(err)
	}
	if err := setKeyWith(b, setSecret, "store.latency", "slow"); err == nil {
		t.Error("expected invalid duration error")
	}
	if err := setKeyWith(b, setSecret, "list.page_size", "x"); err == nil {
		t.Error("expected invalid integer error")
	}
	if err := setKeyWith(b, setSecret, "api.token", "s3cret"); err != nil || secret != "s3cret" {
		t.Errorf("secret = %q, err %v", secret, err)
	}
	if _, ok := b["api.token"]; ok {
		t.Error("secret written to the plain backend")
	}
	if err := setKeyWith(b, setSecret, "nope", "1"); err == nil {
		t.Error("expected unknown key error")
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.API.Token = "s3cret"
	for _, ki := range ShowAll(cfg) {
		if ki.Key == "api.token" && (ki.Value == "s3cret" || !ki.Secret) {
			t.Errorf("token shown as %+v", ki)
		}
		if ki.Key == "server.port" && ki.Value != "4100" {
			t.Errorf("server.port = %q", ki.Value)
		}
	}
	if len(ValidKeys()) != len(specs) {
		t.Error("ValidKeys misses keys")
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "verbose": "INFO"} {
		if got := (LogConfig{Level: in}).SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
