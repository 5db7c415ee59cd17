package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/session"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Addr != "127.0.0.1:8443" {
		t.Errorf("addr = %q, want loopback", cfg.Addr)
	}
	if cfg.Sync.Interval != 5*time.Minute || cfg.Search.Normalize != "kana" || !cfg.MCP.Enabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `addr: ":9000"
api:
  base_url: "https://api.example.com"
  timeout: 10s
sync:
  interval: 1m
mcp:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REBEAUTY_API_BASE_URL", "https://override.example.com")
	t.Setenv("REBEAUTY_TOKEN", "tok")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.API.BaseURL != "https://override.example.com" {
		t.Errorf("env should override file, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second || cfg.Sync.Interval != time.Minute {
		t.Errorf("durations not parsed: %v %v", cfg.API.Timeout, cfg.Sync.Interval)
	}
	if cfg.MCP.Enabled {
		t.Error("mcp.enabled from file ignored")
	}
	if cfg.API.Attempts != 3 || cfg.LogLevel != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.API.Token != "tok" {
		t.Errorf("token = %q", cfg.API.Token)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("addr: [\n"), 0o644)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_RejectsNonPositive(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"zero interval in file", "sync:\n  interval: 0s\n", nil, "sync.interval"},
		{"negative interval in file", "sync:\n  interval: -1m\n", nil, "sync.interval"},
		{"zero interval from env", "", map[string]string{"REBEAUTY_SYNC_INTERVAL": "0s"}, "sync.interval"},
		{"zero timeout", "api:\n  timeout: 0s\n", nil, "api.timeout"},
		{"zero attempts", "api:\n  attempts: 0\n", nil, "api.attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_ConsoleFromEnv(t *testing.T) {
	t.Setenv("REBEAUTY_CONSOLE_TOKEN", "s3cret")
	t.Setenv("REBEAUTY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Console.Token != "s3cret" {
		t.Errorf("token = %q", cfg.Console.Token)
	}
	if len(cfg.Console.AllowedOrigins) != 2 || cfg.Console.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.Console.AllowedOrigins)
	}
}

func TestCheckExposure(t *testing.T) {
	tests := []struct {
		addr  string
		token string
		ok    bool
	}{
		{"127.0.0.1:8443", "", true},
		{"localhost:8443", "", true},
		{"[::1]:8443", "", true},
		{":8443", "", false},
		{"0.0.0.0:8443", "", false},
		{"192.168.1.10:8443", "", false},
		{":8443", "s3cret", true},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.Addr = tt.addr
		cfg.Console.Token = tt.token
		if err := cfg.checkExposure(); (err == nil) != tt.ok {
			t.Errorf("addr %q token %q: err = %v, want ok=%v", tt.addr, tt.token, err, tt.ok)
		}
	}
}

func TestStaleToken(t *testing.T) {
	now := time.Now()
	if staleToken(&session.Session{}, now) {
		t.Error("logged-out session reported as expired token")
	}
	if staleToken(session.New("opaque", nil), now) {
		t.Error("opaque token never expires client-side")
	}
}
