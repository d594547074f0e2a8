package config

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "nova"
	keyringAPIKey  = "api_key"
)

// StoreAPIKey saves the oracle API key in the OS keyring.
func StoreAPIKey(value string) error {
	if err := keyring.Set(keyringService, keyringAPIKey, value); err != nil {
		return fmt.Errorf("storing in keyring: %w", err)
	}
	return nil
}

// KeyringAPIKey returns the stored key, or "" when none is stored or the
// keyring is unavailable.
func KeyringAPIKey() string {
	val, err := keyring.Get(keyringService, keyringAPIKey)
	if err != nil {
		return ""
	}
	return val
}

// DeleteAPIKey removes the stored key.
func DeleteAPIKey() error {
	return keyring.Delete(keyringService, keyringAPIKey)
}

// ResolveAPIKey applies the keyring, environment, config priority and
// updates cfg in place. It reports where the key came from.
func ResolveAPIKey(cfg *Config, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if val := KeyringAPIKey(); val != "" {
		cfg.Oracle.APIKey = val
		logger.Debug("API key loaded from OS keyring")
		return "keyring"
	}
	if cfg.Oracle.APIKey != "" && !IsEnvReference(cfg.Oracle.APIKey) {
		logger.Debug("API key loaded from config/env")
		return "config"
	}
	cfg.Oracle.APIKey = ""
	logger.Warn("no API key found. Set one with: nova config set-key")
	return ""
}
