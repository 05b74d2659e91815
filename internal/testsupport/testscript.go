package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"sheetctl/internal/apitest"
	"sheetctl/todo"
)

var (
	buildOnce    sync.Once
	sheetctlPath string
	buildErr     error
)

// BuildSheetctl builds the sheetctl binary once and returns its path.
func BuildSheetctl(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "sheetctl-bin-")
		if err != nil {
			buildErr = err
			return
		}

		sheetctlPath = filepath.Join(binDir, "sheetctl")
		cmd := exec.Command("go", "build", "-o", sheetctlPath, "./cmd/sheetctl")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build sheetctl: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return sheetctlPath
}

type serverKey struct{}

// SetupScriptEnv builds the binary, isolates HOME, and starts a fake
// sheet server for the script to talk to. The server is reachable to
// custom commands through the script's value store.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("SHEETCTL", BuildSheetctl(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	fake := apitest.NewServer()
	srv := httptest.NewServer(fake)
	env.Defer(srv.Close)
	env.Setenv("SHEETCTL_SERVER", srv.URL)
	env.Values[serverKey{}] = fake
	return nil
}

func scriptServer(ts *testscript.TestScript) *apitest.Server {
	fake, ok := ts.Value(serverKey{}).(*apitest.Server)
	if !ok {
		ts.Fatalf("script environment has no fake server")
	}
	return fake
}

// CmdSeedUser registers an account on the fake server.
func CmdSeedUser(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("seeduser does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: seeduser USERNAME EMAIL PASSWORD")
	}

	scriptServer(ts).SeedUser(args[0], args[1], args[2])
}

// CmdSeedPage creates a page with a small fixed grid on the fake server.
func CmdSeedPage(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("seedpage does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: seedpage OWNER_EMAIL NAME")
	}

	scriptServer(ts).SeedPage(args[0], args[1],
		[]string{"Task", "Owner"},
		[][]string{
			{"Design review", "ana"},
			{"Ship beta", "bo"},
		})
}

// CmdSeedTodo creates a todo over a seeded page and stores its id in an
// env var.
func CmdSeedTodo(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("seedtodo does not support negation")
	}
	if len(args) != 4 {
		ts.Fatalf("usage: seedtodo CREATOR_EMAIL PAGE_SLUG NAME VAR")
	}

	detail := scriptServer(ts).SeedTodo(args[0], args[1], args[2], false)
	ts.Setenv(args[3], detail.ID)
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdTodoID finds a todo by name in a JSON listing and stores its id.
func CmdTodoID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("todoid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: todoid FILE NAME VAR")
	}

	var items []todo.Todo
	data := ts.ReadFile(args[0])
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse todo list: %v", err)
	}

	name := args[1]
	for _, item := range items {
		if item.Name == name {
			ts.Setenv(args[2], item.ID)
			return
		}
	}

	ts.Fatalf("todo named %q not found", name)
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
