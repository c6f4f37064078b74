package config

import (
	"fmt"
	"strconv"
	"time"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	Secret bool
}

// ShowAll returns all config key/value pairs from the current config.
// Secret values are masked.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		v := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			v = mask(v)
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  v,
			Secret: s.secret,
		})
	}
	return result
}

func mask(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "********"
}

// SetKey writes a config key to the platform backend. Secret keys go to the
// platform secret store instead.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), keychainSet, key, value)
}

func setKeyWith(b ConfigBackend, setSecret func(service, account, value string) error, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return setSecret(secretService, tokenAccount, value)
		}
		switch s.typ {
		case kString:
			return b.SetString(key, value)
		case kInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			return b.SetInt(key, i)
		case kDuration:
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid duration value for %s: %w", key, err)
			}
			return b.SetString(key, value)
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
