package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/statusboard/internal/config"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func clearAlertEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ALERT_EMAIL", "SMTP_HOST", "SMTP_PORT", "SMTP_SECURE", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM"} {
		t.Setenv(k, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearAlertEnv(t)
	path := writeTemp(t, `
interval: "30s"
targets:
  - name: "backoffice"
    endpoint: "https://backoffice.example.com"
    method: "get"
    expected_status: 204
    timeout: "3s"
    headers:
      Authorization: "Bearer token"
  - name: "api"
    endpoint: "http://api.example.com/health"
server:
  address: ":9090"
storage:
  path: "test.db"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Interval != 30*time.Second {
		t.Errorf("expected interval 30s, got %v", cfg.Interval)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(cfg.Targets))
	}
	bo := cfg.Targets[0]
	if bo.Method != "GET" {
		t.Errorf("expected method normalized to GET, got %q", bo.Method)
	}
	if bo.ExpectedStatus != 204 {
		t.Errorf("expected status 204, got %d", bo.ExpectedStatus)
	}
	if bo.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", bo.Timeout)
	}
	if bo.Headers["Authorization"] != "Bearer token" {
		t.Errorf("expected Authorization header, got %v", bo.Headers)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("expected address :9090, got %q", cfg.Server.Address)
	}
	if cfg.Storage.Path != "test.db" {
		t.Errorf("expected storage path test.db, got %q", cfg.Storage.Path)
	}
	if cfg.Alerts.Enabled() {
		t.Error("expected alerts disabled without ALERT_EMAIL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAlertEnv(t)
	path := writeTemp(t, `
targets:
  - name: "api"
    endpoint: "https://example.com"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Interval != 60*time.Second {
		t.Errorf("expected default interval 60s, got %v", cfg.Interval)
	}
	tg := cfg.Targets[0]
	if tg.Method != "GET" {
		t.Errorf("expected default method GET, got %q", tg.Method)
	}
	if tg.ExpectedStatus != 200 {
		t.Errorf("expected default expected_status 200, got %d", tg.ExpectedStatus)
	}
	if tg.Timeout != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", tg.Timeout)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Storage.Path != "statusboard.db" {
		t.Errorf("expected default storage path, got %q", cfg.Storage.Path)
	}
	if cfg.Alerts.SMTP.Port != 587 {
		t.Errorf("expected default SMTP port 587, got %d", cfg.Alerts.SMTP.Port)
	}
}

func TestLoad_AlertsFromEnv(t *testing.T) {
	clearAlertEnv(t)
	t.Setenv("ALERT_EMAIL", "ops@example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_SECURE", "true")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_FROM", "status@example.com")

	path := writeTemp(t, `
targets:
  - name: "api"
    endpoint: "https://example.com"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := cfg.Alerts
	if !a.Enabled() || a.Email != "ops@example.com" {
		t.Errorf("expected alerts enabled for ops@example.com, got %+v", a)
	}
	if a.SMTP.Host != "smtp.example.com" || a.SMTP.Port != 465 || !a.SMTP.Secure {
		t.Errorf("unexpected SMTP settings: %+v", a.SMTP)
	}
	if a.SMTP.User != "mailer" || a.SMTP.Password != "secret" || a.SMTP.From != "status@example.com" {
		t.Errorf("unexpected SMTP credentials: %+v", a.SMTP)
	}
}

func TestLoad_InvalidSMTPPort(t *testing.T) {
	clearAlertEnv(t)
	t.Setenv("SMTP_PORT", "not-a-port")
	path := writeTemp(t, `
targets:
  - name: "api"
    endpoint: "https://example.com"
`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "SMTP_PORT") {
		t.Fatalf("expected SMTP_PORT error, got %v", err)
	}
}

func TestLoad_AlertEmailWithoutHost(t *testing.T) {
	clearAlertEnv(t)
	t.Setenv("ALERT_EMAIL", "ops@example.com")
	path := writeTemp(t, `
targets:
  - name: "api"
    endpoint: "https://example.com"
`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Fatalf("expected SMTP_HOST error, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no targets", `targets: []`, "at least one target"},
		{"bad yaml", "targets: [", "parsing config"},
		{"missing name", `
targets:
  - endpoint: "https://example.com"
`, "name is required"},
		{"duplicate name", `
targets:
  - name: "a"
    endpoint: "https://example.com"
  - name: "a"
    endpoint: "https://example.org"
`, "duplicate target name"},
		{"missing endpoint", `
targets:
  - name: "a"
`, "endpoint is required"},
		{"relative endpoint", `
targets:
  - name: "a"
    endpoint: "example.com/health"
`, "absolute http(s) URL"},
		{"bad method", `
targets:
  - name: "a"
    endpoint: "https://example.com"
    method: "DELETE"
`, "invalid method"},
		{"bad timeout", `
targets:
  - name: "a"
    endpoint: "https://example.com"
    timeout: "soon"
`, "invalid timeout"},
		{"zero timeout", `
targets:
  - name: "a"
    endpoint: "https://example.com"
    timeout: "0s"
`, "timeout must be positive"},
		{"negative timeout", `
targets:
  - name: "a"
    endpoint: "https://example.com"
    timeout: "-2s"
`, "timeout must be positive"},
		{"bad interval", `
interval: "often"
targets:
  - name: "a"
    endpoint: "https://example.com"
`, "invalid interval"},
		{"negative interval", `
interval: "-1s"
targets:
  - name: "a"
    endpoint: "https://example.com"
`, "interval must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadDotenv(t *testing.T) {
	t.Setenv("STATUSBOARD_DOTENV_TEST", "")
	os.Unsetenv("STATUSBOARD_DOTENV_TEST")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STATUSBOARD_DOTENV_TEST=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := config.LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("STATUSBOARD_DOTENV_TEST"); got != "loaded" {
		t.Errorf("expected variable loaded from .env, got %q", got)
	}
}

func TestLoadDotenv_MissingFile(t *testing.T) {
	if err := config.LoadDotenv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected nil error for missing .env, got %v", err)
	}
}
