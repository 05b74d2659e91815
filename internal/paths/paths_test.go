package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLocationsFollowHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"state dir", DefaultStateDir, filepath.Join(home, ".local", "state", "sheetctl")},
		{"config file", DefaultConfigPath, filepath.Join(home, ".config", "sheetctl", "config.toml")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolveWithDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ResolveWithDefault("/custom/state", DefaultStateDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/custom/state" {
		t.Fatalf("override ignored, got %s", got)
	}

	got, err = ResolveWithDefault("", DefaultStateDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".local", "state", "sheetctl"); got != want {
		t.Fatalf("fallback: got %s, want %s", got, want)
	}

	failing := func() (string, error) { return "", os.ErrNotExist }
	if _, err := ResolveWithDefault("", failing); err != os.ErrNotExist {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
