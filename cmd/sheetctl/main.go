// Package main implements the sheetctl CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sheetctl/api"
	"sheetctl/internal/config"
	"sheetctl/internal/logging"
	"sheetctl/internal/paths"
	"sheetctl/internal/state"
	"sheetctl/notify"
	"sheetctl/session"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "sheetctl",
	Short:        "Sheetctl - collaborative sheets from the terminal",
	SilenceUsage: true,
}

var rootServer string

func init() {
	rootCmd.PersistentFlags().StringVar(&rootServer, "server", "", "Server base URL (overrides config and SHEETCTL_SERVER)")
}

// app bundles the per-invocation wiring: merged config, persisted cookie
// state, and the API client with its session manager.
type app struct {
	cfg      *config.Config
	store    *state.Store
	state    *state.State
	jar      *state.Jar
	client   *api.Client
	sessions *session.Manager
	feed     *notify.Feed
	closeLog func()
}

// openApp loads config and state and connects the client. Callers must
// Close the app so cookie changes reach the state file.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	serverURL := cfg.Server.URL
	if rootServer != "" {
		serverURL = rootServer
	}

	stateDir, err := paths.ResolveWithDefault(cfg.StateDir, paths.DefaultStateDir)
	if err != nil {
		return nil, err
	}
	store := state.NewStore(stateDir)
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	jar := state.NewJar(st)

	logger, closeLog, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	client, err := api.New(serverURL,
		api.WithJar(jar),
		api.WithTimeout(cfg.Server.Timeout.Duration),
		api.WithLogger(logger),
	)
	if err != nil {
		closeLog()
		return nil, err
	}

	feed := notify.NewFeed()
	return &app{
		cfg:      cfg,
		store:    store,
		state:    st,
		jar:      jar,
		client:   client,
		sessions: session.NewManager(client, feed),
		feed:     feed,
		closeLog: closeLog,
	}, nil
}

// Close persists the cookie jar when it changed. Safe to defer: a failed
// save is reported on stderr rather than lost.
func (a *app) Close() {
	if a.jar.Dirty() {
		a.state.Server = a.client.BaseURL()
		a.state.Cookies = a.jar.Export()
		if err := a.store.Save(a.state); err != nil {
			fmt.Fprintf(os.Stderr, "warning: session state not saved: %v\n", err)
		}
	}
	a.closeLog()
}
