package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// cleanEnv isolates a test from the caller's PLACEMENT_* variables and any
// .env or config.yaml on the host.
func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "PLACEMENT_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := cleanEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected default API URL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("Expected default poll interval 30s, got %s", cfg.PollInterval)
	}
	if cfg.SessionStore != StoreFile {
		t.Errorf("Expected file store, got %s", cfg.SessionStore)
	}
	if want := filepath.Join(dir, "placement"); cfg.ConfigDir != want {
		t.Errorf("Expected config dir %s, got %s", want, cfg.ConfigDir)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := cleanEnv(t)
	writeFile(t, filepath.Join(dir, "placement", "config.yaml"), `
api_url: https://yaml.example.com/api
poll_interval: 10s
offer_cache_ttl: 5m
`)
	t.Setenv("PLACEMENT_POLL_INTERVAL", "45")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "https://yaml.example.com/api" {
		t.Errorf("Expected YAML API URL, got %s", cfg.APIURL)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("Expected env to win with 45s, got %s", cfg.PollInterval)
	}
	if cfg.OfferCacheTTL != 5*time.Minute {
		t.Errorf("Expected 5m from YAML, got %s", cfg.OfferCacheTTL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := cleanEnv(t)
	writeFile(t, filepath.Join(dir, ".env"), "PLACEMENT_API_URL=https://dotenv.example.com/api\nPLACEMENT_PROFILE=work\n")
	t.Setenv("PLACEMENT_PROFILE", "real")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "https://dotenv.example.com/api" {
		t.Errorf("Expected .env API URL, got %s", cfg.APIURL)
	}
	if cfg.Profile != "real" {
		t.Errorf("Expected real env to beat .env, got %s", cfg.Profile)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := cleanEnv(t)

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}

	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "session_store: memory\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.SessionStore != StoreMemory {
		t.Errorf("Expected memory store, got %s", cfg.SessionStore)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{"bad scheme", map[string]string{"PLACEMENT_API_URL": "ftp://x"}, ""},
		{"unknown store", map[string]string{"PLACEMENT_SESSION_STORE": "etcd"}, ""},
		{"redis without url", map[string]string{"PLACEMENT_SESSION_STORE": "redis"}, ""},
		{"tiny poll", map[string]string{"PLACEMENT_POLL_INTERVAL": "10ms"}, ""},
		{"bad yaml duration", nil, "http_timeout: soon\n"},
		{"bad yaml", nil, "api_url: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.yaml != "" {
				writeFile(t, filepath.Join(dir, "placement", "config.yaml"), tt.yaml)
			}
			if _, err := Load(""); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoad_Ephemeral(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PLACEMENT_SESSION_STORE", "redis")
	t.Setenv("PLACEMENT_EPHEMERAL", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.SessionStore != StoreMemory {
		t.Errorf("Expected ephemeral to force memory store, got %s", cfg.SessionStore)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"15", 15 * time.Second},
		{"garbage", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PLACEMENT_TEST_DURATION", tt.value)
			if got := getEnvDuration("PLACEMENT_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
