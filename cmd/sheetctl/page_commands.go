package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sheetctl/internal/editor"
	"sheetctl/internal/validation"
	"sheetctl/page"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Manage sheet pages",
}

// page list
var pageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages",
	Args:  cobra.NoArgs,
	RunE:  runPageList,
}

var pageListJSON bool

// page show
var pageShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a page's grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageShow,
}

var pageShowJSON bool

// page create
var pageCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageCreate,
}

// page rename
var pageRenameCmd = &cobra.Command{
	Use:   "rename <slug> <name>",
	Short: "Rename a page",
	Args:  cobra.ExactArgs(2),
	RunE:  runPageRename,
}

// page delete
var pageDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a page with its versions and todos",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageDelete,
}

var pageDeleteForce bool

// page edit
var pageEditCmd = &cobra.Command{
	Use:   "edit <slug>",
	Short: "Edit a page's grid in $EDITOR",
	Long: `Edit a page's grid in $EDITOR.

The grid is rendered as a TOML document with one table per column and
row. Reorder, add, or delete tables to restructure the page; the whole
grid is saved in one step when the editor exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runPageEdit,
}

var pageEditMessage string

// page versions
var pageVersionsCmd = &cobra.Command{
	Use:   "versions <slug>",
	Short: "List a page's saved versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageVersions,
}

var pageVersionsJSON bool

func init() {
	rootCmd.AddCommand(pageCmd)
	pageCmd.AddCommand(pageListCmd, pageShowCmd, pageCreateCmd, pageRenameCmd, pageDeleteCmd, pageEditCmd, pageVersionsCmd)
	addMessageFlagAliases(pageEditCmd)

	// page list flags
	pageListCmd.Flags().BoolVar(&pageListJSON, "json", false, "Output as JSON")

	// page show flags
	pageShowCmd.Flags().BoolVar(&pageShowJSON, "json", false, "Output as JSON")

	// page delete flags
	pageDeleteCmd.Flags().BoolVar(&pageDeleteForce, "force", false, "Skip the confirmation prompt")

	// page edit flags
	pageEditCmd.Flags().StringVarP(&pageEditMessage, "message", "m", "", "Commit message for the version log")

	// page versions flags
	pageVersionsCmd.Flags().BoolVar(&pageVersionsJSON, "json", false, "Output as JSON")
}

func runPageList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pages, err := a.client.ListPages(cmd.Context())
	if err != nil {
		return err
	}

	if pageListJSON {
		return encodeJSONToStdout(pages)
	}
	printPageTable(pages, time.Now())
	return nil
}

func runPageShow(cmd *cobra.Command, args []string) error {
	slug := args[0]
	if err := validation.ValidateSlug(slug); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.client.GetPageData(cmd.Context(), slug)
	if err != nil {
		return err
	}

	if pageShowJSON {
		return encodeJSONToStdout(data)
	}
	fmt.Print(formatPageDetail(data))
	return nil
}

func runPageCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := validation.ValidateName(name, page.MaxNameLength); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.client.CreatePage(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Printf("Created page %s (%s)\n", info.Name, info.Slug)
	return nil
}

func runPageRename(cmd *cobra.Command, args []string) error {
	slug, name := args[0], args[1]
	if err := validation.ValidateSlug(slug); err != nil {
		return err
	}
	if err := validation.ValidateName(name, page.MaxNameLength); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.client.RenamePage(cmd.Context(), slug, name)
	if err != nil {
		return err
	}
	fmt.Printf("Renamed page %s to %s\n", info.Slug, info.Name)
	return nil
}

func runPageDelete(cmd *cobra.Command, args []string) error {
	slug := args[0]
	if err := validation.ValidateSlug(slug); err != nil {
		return err
	}

	confirmed, err := confirmAction(fmt.Sprintf("Delete page %s with its versions and todos?", slug), pageDeleteForce)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.client.DeletePage(cmd.Context(), slug); err != nil {
		return err
	}
	fmt.Printf("Deleted page %s\n", slug)
	return nil
}

func runPageEdit(cmd *cobra.Command, args []string) error {
	slug := args[0]
	if err := validation.ValidateSlug(slug); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ed := page.NewEditor(a.client, a.feed, slug)
	if err := ed.Load(cmd.Context()); err != nil {
		return err
	}

	parsed, err := editor.EditPage(ed.Canonical())
	if err != nil {
		return err
	}

	if err := ed.EnterEdit(); err != nil {
		return err
	}
	if err := ed.ReplaceBuffer(parsed.ToColumns(), parsed.ToRows()); err != nil {
		return err
	}
	if !ed.Dirty() {
		_ = ed.Cancel()
		fmt.Println("No changes.")
		return nil
	}
	if err := ed.Save(cmd.Context(), pageEditMessage); err != nil {
		return err
	}
	fmt.Printf("Saved page %s\n", slug)
	return nil
}

func runPageVersions(cmd *cobra.Command, args []string) error {
	slug := args[0]
	if err := validation.ValidateSlug(slug); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	versions, err := a.client.ListVersions(cmd.Context(), slug)
	if err != nil {
		return err
	}

	if pageVersionsJSON {
		return encodeJSONToStdout(versions)
	}
	printVersionTable(versions, time.Now())
	return nil
}
