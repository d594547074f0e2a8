package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the oracle API key.
const APIKeyEnv = "NOVA_API_KEY"

// Load reads the config at path, or the first file found by
// FindConfigFile when path is empty. With no file, defaults are returned.
// .env files are loaded first and ${VAR} references expanded.
func Load(path string) (*Config, string, error) {
	loadEnvFiles()

	if path == "" {
		path = FindConfigFile()
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("reading config file: %w", err)
		}
		cfg, err = Parse([]byte(expandEnvVars(string(data))))
		if err != nil {
			return nil, "", err
		}
		if mode, open := openPermissions(path); open {
			slog.Warn("nova config is readable by other users; it may hold the oracle API key",
				"path", path,
				"mode", fmt.Sprintf("%04o", mode),
				"fix", "chmod 600 "+path+" or move the key with 'nova config set-key'",
			)
		}
	}

	resolveSecrets(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Parse overlays YAML on the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions. API keys are never
// written in clear when they came from the environment or the keyring.
func Save(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.Oracle.APIKey = persistedAPIKey(cfg.Oracle.APIKey, cfg.Oracle.Provider)

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FindConfigFile searches the standard locations.
func FindConfigFile() string {
	candidates := []string{
		"nova.yaml",
		"nova.yml",
		"config.yaml",
		"configs/nova.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// IsEnvReference reports whether s is an unexpanded variable reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "$")
}

// ---------- Internal ----------

func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		// godotenv.Load does not overwrite variables already set.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars expands $VAR, ${VAR} and ${VAR:-fallback}. A reference to an
// unset variable without a fallback is left as ${VAR} so resolveSecrets can
// still recognize it.
func expandEnvVars(input string) string {
	return os.Expand(input, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		if !isEnvName(name) {
			// $1, $$ and friends are not variables; keep them as written.
			return "$" + ref
		}
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if hasFallback {
			return fallback
		}
		return "${" + name + "}"
	})
}

func isEnvName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// resolveSecrets fills an empty or unexpanded API key from the environment.
func resolveSecrets(cfg *Config) {
	if cfg.Oracle.APIKey != "" && !IsEnvReference(cfg.Oracle.APIKey) {
		return
	}
	cfg.Oracle.APIKey = ""
	for _, name := range apiKeyEnvVars(cfg.Oracle.Provider) {
		if key := os.Getenv(name); key != "" {
			cfg.Oracle.APIKey = key
			return
		}
	}
}

// apiKeyEnvVars lists the variables consulted for provider, most specific
// first.
func apiKeyEnvVars(provider string) []string {
	if strings.EqualFold(provider, "openai") || strings.EqualFold(provider, "openai-compatible") {
		return []string{APIKeyEnv, "OPENAI_API_KEY", "GOOGLE_API_KEY"}
	}
	return []string{APIKeyEnv, "GOOGLE_API_KEY", "OPENAI_API_KEY"}
}

// persistedAPIKey is what Save writes for key. A key that came from one of
// the oracle variables becomes a reference to it, and a key held in the OS
// keyring is not written at all.
func persistedAPIKey(key, provider string) string {
	if key == "" || IsEnvReference(key) {
		return key
	}
	for _, name := range apiKeyEnvVars(provider) {
		if os.Getenv(name) == key {
			return "${" + name + "}"
		}
	}
	if KeyringAPIKey() == key {
		return ""
	}
	return key
}

// openPermissions reports whether the config at path is readable by group
// or others. Windows ACLs are not reflected in the mode bits and are
// skipped.
func openPermissions(path string) (fs.FileMode, bool) {
	if runtime.GOOS == "windows" {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	mode := info.Mode().Perm()
	return mode, mode&0o044 != 0
}
