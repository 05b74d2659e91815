package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_DisabledWithoutFile(t *testing.T) {
	logger, closer, err := Setup("", "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer()

	// Must not panic or write anywhere.
	logger.Info().Msg("discarded")
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetctl.log")

	logger, closer, err := Setup(path, "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Str("slug", "groceries").Msg("page loaded")
	closer()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "page loaded") {
		t.Errorf("log file missing message: %q", string(data))
	}
	if !strings.Contains(string(data), "groceries") {
		t.Errorf("log file missing field: %q", string(data))
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetctl.log")

	logger, closer, err := Setup(path, "error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Msg("too quiet")
	logger.Error().Msg("loud enough")
	closer()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if strings.Contains(string(data), "too quiet") {
		t.Error("info line written at error level")
	}
	if !strings.Contains(string(data), "loud enough") {
		t.Error("error line missing")
	}
}

func TestSetup_RejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetctl.log")

	if _, _, err := Setup(path, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetup_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetctl.log")

	for _, msg := range []string{"first run", "second run"} {
		logger, closer, err := Setup(path, "info")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "first run") || !strings.Contains(string(data), "second run") {
		t.Errorf("log file missing appended lines: %q", string(data))
	}
}
