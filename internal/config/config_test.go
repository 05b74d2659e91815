package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sheetctl/internal/config"
	"sheetctl/internal/testsupport"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SHEETCTL_SERVER",
		"SHEETCTL_TIMEOUT",
		"SHEETCTL_LOG_FILE",
		"SHEETCTL_LOG_LEVEL",
		"SHEETCTL_STATE_DIR",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, homeDir, content string) {
	t.Helper()
	path := filepath.Join(homeDir, ".config", "sheetctl", "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.URL != config.DefaultServerURL {
		t.Errorf("URL = %q, expected %q", cfg.Server.URL, config.DefaultServerURL)
	}
	if cfg.Server.Timeout.Duration != config.DefaultTimeout {
		t.Errorf("Timeout = %s, expected %s", cfg.Server.Timeout, config.DefaultTimeout)
	}
	if cfg.Log.Level != config.DefaultLogLevel {
		t.Errorf("Level = %q, expected %q", cfg.Log.Level, config.DefaultLogLevel)
	}
	if cfg.Log.File != "" {
		t.Errorf("File = %q, expected empty", cfg.Log.File)
	}
}

func TestLoad_File(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	writeConfigFile(t, homeDir, `
[server]
url = "https://sheets.example.com/api"
timeout = "30s"

[log]
file = "/tmp/sheetctl.log"
level = "debug"
`)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.URL != "https://sheets.example.com/api" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %s, expected 30s", cfg.Server.Timeout)
	}
	if cfg.Log.File != "/tmp/sheetctl.log" {
		t.Errorf("File = %q", cfg.Log.File)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, expected debug", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	writeConfigFile(t, homeDir, `
[server]
url = "https://file.example.com/api"
`)
	t.Setenv("SHEETCTL_SERVER", "https://env.example.com/api")
	t.Setenv("SHEETCTL_TIMEOUT", "5s")
	t.Setenv("SHEETCTL_LOG_LEVEL", "warn")
	t.Setenv("SHEETCTL_STATE_DIR", "/tmp/sheetctl-state")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.URL != "https://env.example.com/api" {
		t.Errorf("URL = %q, expected env value", cfg.Server.URL)
	}
	if cfg.Server.Timeout.Duration != 5*time.Second {
		t.Errorf("Timeout = %s, expected 5s", cfg.Server.Timeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, expected warn", cfg.Log.Level)
	}
	if cfg.StateDir != "/tmp/sheetctl-state" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	writeConfigFile(t, homeDir, `[server`)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	writeConfigFile(t, homeDir, `
[server]
timeout = "fast"
`)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestLoad_NonPositiveTimeout(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	clearConfigEnv(t)

	writeConfigFile(t, homeDir, `
[server]
timeout = "0s"
`)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearConfigEnv(t)
	t.Setenv("SHEETCTL_LOG_LEVEL", "loud")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
