package state

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())

	st, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load empty state: %v", err)
	}
	if st == nil {
		t.Fatal("expected non-nil state")
	}
	if st.Server != "" {
		t.Errorf("expected empty server, got %q", st.Server)
	}
	if len(st.Cookies) != 0 {
		t.Errorf("expected 0 cookie hosts, got %d", len(st.Cookies))
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	st := &State{
		Server: "http://localhost:8000/api",
		Cookies: map[string][]Cookie{
			"localhost": {
				{Name: "sessionid", Value: "s3ss", Path: "/", HTTPOnly: true},
				{Name: "csrftoken", Value: "tok123", Path: "/", Expires: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
	}
	if err := store.Save(st); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if diff := cmp.Diff(st, loaded); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SaveKeepsFilePrivate(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Save(&State{Server: "http://localhost:8000"}); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("failed to stat state file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("state file mode = %o, want 0600", perm)
	}
}

func TestStore_SaveSkipsUnchangedContent(t *testing.T) {
	store := NewStore(t.TempDir())
	st := &State{Server: "http://localhost:8000"}

	if err := store.Save(st); err != nil {
		t.Fatalf("first save: %v", err)
	}
	before, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat after first save: %v", err)
	}

	// A rewrite would replace the inode via rename.
	if err := store.Save(st); err != nil {
		t.Fatalf("second save: %v", err)
	}
	after, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat after second save: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged state was rewritten")
	}
}

func TestStore_LoadRejectsCorruptFile(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}
