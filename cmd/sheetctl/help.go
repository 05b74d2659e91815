package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sheetctl/internal/markdown"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	Args:  cobra.ArbitraryArgs,
	RunE:  runHelp,
}

var helpGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the usage guide",
	Args:  cobra.NoArgs,
	RunE:  runHelpGuide,
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
	helpCmd.AddCommand(helpGuideCmd)
}

func runHelp(cmd *cobra.Command, args []string) error {
	root := cmd.Root()
	if len(args) == 0 {
		return root.Help()
	}

	target, _, err := root.Find(args)
	if err != nil || target == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Unknown help topic %q\n", strings.Join(args, " "))
		return root.Help()
	}

	return target.Help()
}

const guideLineWidth = 80

const usageGuide = `# Sheetctl

Sheetctl talks to a sheet server. Pages are small spreadsheets with
named columns and ordered rows; todos are checklists layered on top of
a page, one status per row.

## Getting started

    sheetctl auth register
    sheetctl auth login
    sheetctl page create "Roadmap"
    sheetctl page edit roadmap

The session cookie is stored under ~/.local/state/sheetctl and reused
until you sign out with ` + "`sheetctl auth logout`" + `.

## Pages

- ` + "`page list`" + ` shows every page you can read.
- ` + "`page show <slug>`" + ` prints the grid.
- ` + "`page edit <slug>`" + ` opens the grid in $EDITOR as a TOML
  document. Saving the file and quitting uploads the whole grid as a
  new version; an unchanged file uploads nothing.
- ` + "`page versions <slug>`" + ` lists the saved versions.

Only the page owner can save edits. Everyone signed in can read.

## Todos

- ` + "`todo create <name> --page <slug>`" + ` starts a checklist over a
  page. Add ` + "`--personal`" + ` to keep it out of other users' lists.
- ` + "`todo show <todo>`" + ` prints the page rows with their statuses.
- ` + "`todo set-status <todo> <row> <status>`" + ` marks a row. Rows are
  addressed by their 1-based index or row id; statuses are not
  started, in progress, and completed.

Todos reference rows by id, so they follow page edits: a reordered row
keeps its status, a deleted row drops out of the checklist.

## Interactive mode

` + "`sheetctl tui`" + ` opens a terminal UI with a pages tab and a todos
tab. Press ? inside it for the key reference.

## Configuration

Settings load from ~/.config/sheetctl/config.toml and the environment:

- SHEETCTL_SERVER or --server picks the server (default
  http://localhost:8000/api).
- SHEETCTL_TIMEOUT sets the request timeout.
- SHEETCTL_LOG_FILE and SHEETCTL_LOG_LEVEL control the debug log.
- SHEETCTL_STATE_DIR moves the session state directory.
`

func runHelpGuide(cmd *cobra.Command, args []string) error {
	rendered := markdown.SafeRender(guideLineWidth, 0, []byte(usageGuide))
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rendered)
	return err
}
