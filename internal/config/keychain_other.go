//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Without a system keychain, secrets live in a 0600 JSON file in the data
// directory, shaped {"<service>": {"<account>": "<secret>"}}.
func secretsFilePath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

// secretPath escapes gjson path syntax in the service and account names.
func secretPath(service, account string) string {
	esc := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return esc.Replace(service) + "." + esc.Replace(account)
}

func keychainGet(service, account string) ([]byte, error) {
	data, err := os.ReadFile(secretsFilePath())
	if err != nil {
		return nil, fmt.Errorf("keychain not available: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing secrets file: invalid JSON")
	}
	r := gjson.GetBytes(data, secretPath(service, account))
	if r.Type != gjson.String {
		return nil, fmt.Errorf("no secret for account %q in service %q", account, service)
	}
	return []byte(r.Str), nil
}

func keychainSet(service, account, value string) error {
	p := secretsFilePath()

	secrets := make(map[string]map[string]string)
	if data, err := os.ReadFile(p); err == nil {
		if err := json.Unmarshal(data, &secrets); err != nil {
			return fmt.Errorf("parsing secrets file: %w", err)
		}
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = strings.TrimSpace(value)

	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(p, out, 0o600)
}
