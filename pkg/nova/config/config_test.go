package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/jholhewres/nova/pkg/nova/agent"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

func TestParseOverlaysDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
name: Jarvis
oracle:
  provider: openai
  model: gpt-4o
shell:
  timeout: 5s
  extra_allowed:
    linux: [sleep]
apps:
  aliases:
    linux:
      editor:
        - kind: executable
          value: code
audit:
  retention_days: 7
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "Jarvis" || cfg.Oracle.Provider != agent.ProviderOpenAI || cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Shell.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Shell.Timeout)
	}
	if cfg.Shell.MaxOutputBytes != sandbox.DefaultConfig().MaxOutputBytes {
		t.Errorf("max output lost default: %d", cfg.Shell.MaxOutputBytes)
	}
	if got := cfg.Shell.ExtraAllowed[sandbox.PlatformLinux]; len(got) != 1 || got[0] != "sleep" {
		t.Errorf("extra_allowed = %v", cfg.Shell.ExtraAllowed)
	}
	if got := cfg.Apps.Aliases[sandbox.PlatformLinux]["editor"]; len(got) != 1 || got[0].Value != "code" {
		t.Errorf("aliases = %v", cfg.Apps.Aliases)
	}
	if cfg.Audit.Retention() != 7*24*time.Hour || cfg.Audit.PruneSchedule != "@daily" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.Oracle.MaxToolRounds != 8 {
		t.Errorf("max_tool_rounds = %d", cfg.Oracle.MaxToolRounds)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults"},
		{name: "bad provider", mutate: func(c *Config) { c.Oracle.Provider = "llama" }, wantErr: "unknown provider"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "negative retention", mutate: func(c *Config) { c.Audit.RetentionDays = -1 }, wantErr: "retention_days"},
		{name: "negative timeout", mutate: func(c *Config) { c.Shell.Timeout = -time.Second }, wantErr: "shell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.ProjectRoot = t.TempDir()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				if !filepath.IsAbs(cfg.ProjectRoot) {
					t.Errorf("project root not absolute: %s", cfg.ProjectRoot)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nova.yaml")
	t.Setenv("NOVA_TEST_USER", "Ada")
	t.Setenv(APIKeyEnv, "from-env")
	data := "user_name: ${NOVA_TEST_USER}\nproject_root: " + dir + "\noracle:\n  api_key: ${NOVA_API_KEY}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, used, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used != path {
		t.Errorf("path = %q", used)
	}
	if cfg.UserName != "Ada" || cfg.Oracle.APIKey != "from-env" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadUnsetReferenceFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nova.yaml")
	t.Setenv(APIKeyEnv, "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	data := "project_root: " + dir + "\noracle:\n  api_key: ${NOVA_UNSET_FOR_TEST}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Oracle.APIKey != "google-key" {
		t.Errorf("api key = %q", cfg.Oracle.APIKey)
	}
}

func TestSaveWritesReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nova.yaml")
	t.Setenv(APIKeyEnv, "secret")

	cfg := DefaultConfig()
	cfg.Oracle.APIKey = "secret"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") || !strings.Contains(string(data), "${NOVA_API_KEY}") {
		t.Errorf("saved config leaks key:\n%s", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.Shell.Timeout != cfg.Shell.Timeout {
		t.Errorf("timeout = %v", back.Shell.Timeout)
	}
}

func TestResolveAPIKeyPriority(t *testing.T) {
	keyring.MockInit()

	cfg := DefaultConfig()
	cfg.Oracle.APIKey = "from-config"
	if src := ResolveAPIKey(cfg, nil); src != "config" || cfg.Oracle.APIKey != "from-config" {
		t.Errorf("source = %q key = %q", src, cfg.Oracle.APIKey)
	}

	if err := StoreAPIKey("from-keyring"); err != nil {
		t.Fatalf("StoreAPIKey: %v", err)
	}
	if src := ResolveAPIKey(cfg, nil); src != "keyring" || cfg.Oracle.APIKey != "from-keyring" {
		t.Errorf("source = %q key = %q", src, cfg.Oracle.APIKey)
	}

	if err := DeleteAPIKey(); err != nil {
		t.Fatalf("DeleteAPIKey: %v", err)
	}
	cfg.Oracle.APIKey = "${NOVA_API_KEY}"
	if src := ResolveAPIKey(cfg, nil); src != "" || cfg.Oracle.APIKey != "" {
		t.Errorf("source = %q key = %q", src, cfg.Oracle.APIKey)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NOVA_TEST_MODEL", "gemini-2.5-pro")
	t.Setenv("NOVA_TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{in: "model: ${NOVA_TEST_MODEL}", want: "model: gemini-2.5-pro"},
		{in: "model: $NOVA_TEST_MODEL", want: "model: gemini-2.5-pro"},
		{in: "level: ${NOVA_TEST_UNSET:-warn}", want: "level: warn"},
		{in: "level: ${NOVA_TEST_EMPTY:-info}", want: "level: info"},
		{in: "api_key: ${NOVA_TEST_UNSET}", want: "api_key: ${NOVA_TEST_UNSET}"},
		{in: "api_key: $NOVA_TEST_UNSET", want: "api_key: ${NOVA_TEST_UNSET}"},
		{in: "price: $5 and $$", want: "price: $5 and $$"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPersistedAPIKey(t *testing.T) {
	keyring.MockInit()
	t.Setenv(APIKeyEnv, "")
	t.Setenv("OPENAI_API_KEY", "sk-from-openai-env")

	if got := persistedAPIKey("sk-from-openai-env", agent.ProviderOpenAI); got != "${OPENAI_API_KEY}" {
		t.Errorf("env key persisted as %q", got)
	}

	if err := StoreAPIKey("from-keyring"); err != nil {
		t.Fatal(err)
	}
	defer DeleteAPIKey()
	if got := persistedAPIKey("from-keyring", agent.ProviderGemini); got != "" {
		t.Errorf("keyring key persisted as %q", got)
	}

	if got := persistedAPIKey("typed-in-config", agent.ProviderGemini); got != "typed-in-config" {
		t.Errorf("config key persisted as %q", got)
	}
}

func TestOpenPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits do not reflect windows ACLs")
	}
	t.Parallel()
	dir := t.TempDir()

	private := filepath.Join(dir, "private.yaml")
	shared := filepath.Join(dir, "shared.yaml")
	if err := os.WriteFile(private, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shared, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(shared, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, open := openPermissions(private); open {
		t.Error("0600 file reported as open")
	}
	if mode, open := openPermissions(shared); !open || mode != 0o644 {
		t.Errorf("0644 file: mode %04o open %v", mode, open)
	}
	if _, open := openPermissions(filepath.Join(dir, "missing.yaml")); open {
		t.Error("missing file reported as open")
	}
}
