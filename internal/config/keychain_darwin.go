//go:build darwin

package config

import (
	"bytes"
	"fmt"
	"os/exec"
)

func keychainGet(service, account string) ([]byte, error) {
	out, err := exec.Command("security", "find-generic-password", "-s", service, "-a", account, "-w").Output()
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s from keychain: %w", service, account, err)
	}
	return bytes.TrimSpace(out), nil
}

// keychainSet upserts the item (-U) so repeated writes replace the token.
func keychainSet(service, account, value string) error {
	if err := exec.Command("security", "add-generic-password", "-U", "-s", service, "-a", account, "-w", value).Run(); err != nil {
		return fmt.Errorf("writing %s/%s to keychain: %w", service, account, err)
	}
	return nil
}
