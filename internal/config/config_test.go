package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadHostConfigOverlaysDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
name = "bench-host"
admin_token = " s3cret "
stream_idle_timeout = "90s"
characteristics = [" 12345678-1234-5678-1234-56789ABCDEF1 ", ""]
`)
	cfg, err := LoadHostConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := gatt.DefaultHostConfig()
	if cfg.Host.Name != "bench-host" {
		t.Fatalf("name got=%q", cfg.Host.Name)
	}
	if cfg.Host.StreamIdleTimeout != 90*time.Second {
		t.Fatalf("idle timeout got=%v", cfg.Host.StreamIdleTimeout)
	}
	if cfg.Host.SweepInterval != def.SweepInterval || cfg.Host.AdminListenAddr != def.AdminListenAddr {
		t.Fatalf("undefined keys should keep defaults: %+v", cfg.Host)
	}
	if len(cfg.Host.Characteristics) != 1 || cfg.Host.Characteristics[0] != "12345678-1234-5678-1234-56789abcdef1" {
		t.Fatalf("characteristics got=%v", cfg.Host.Characteristics)
	}
	if cfg.AdminToken != "s3cret" {
		t.Fatalf("admin token got=%q", cfg.AdminToken)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level got=%q", cfg.LogLevel)
	}
}

func TestLoadHostConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad duration":   `sweep_interval = "soon"`,
		"zero sweep":     `sweep_interval = "0s"`,
		"empty name":     `name = "  "`,
		"unknown key":    `listen = ":1"`,
		"bad log level":  `log_level = "loud"`,
		"malformed toml": `name = `,
	}
	for name, body := range cases {
		if _, err := LoadHostConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWriteTemplateRoundTrips(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := LoadHostConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := gatt.DefaultHostConfig()
	if cfg.Host.Name != def.Name || cfg.Host.StreamIdleTimeout != def.StreamIdleTimeout {
		t.Fatalf("template drifted from defaults: %+v", cfg.Host)
	}
	if len(cfg.Host.Characteristics) != 9 {
		t.Fatalf("expected 9 characteristics, got %d", len(cfg.Host.Characteristics))
	}
}

func TestTemplateDocumentsAdminToken(t *testing.T) {
	b, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "# bearer token for DELETE /streams/:peer") {
		t.Fatalf("template missing admin_token comment:\n%s", out)
	}
	if !strings.Contains(out, "admin_token =") {
		t.Fatalf("template missing admin_token key:\n%s", out)
	}
}
