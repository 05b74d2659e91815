package main

import (
	"github.com/spf13/cobra"

	"sheetctl/internal/sheettui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and edit sheets interactively",
	Long: `Browse and edit sheets interactively.

The terminal UI has a pages tab and a todos tab. Press ? inside it
for the key reference.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return sheettui.Run(cmd.Context(), a.client, a.sessions, a.feed)
}
