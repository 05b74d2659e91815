package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sheetctl/internal/validation"
	"sheetctl/todo"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage todos derived from pages",
}

// todo list
var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Args:  cobra.NoArgs,
	RunE:  runTodoList,
}

var todoListJSON bool

// todo show
var todoShowCmd = &cobra.Command{
	Use:   "show <todo>",
	Short: "Show a todo's combined rows and statuses",
	Long: `Show a todo's combined rows and statuses.

The todo is matched by slug, full id, or unique id prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runTodoShow,
}

var todoShowJSON bool

// todo create
var todoCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a todo from a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoCreate,
}

var (
	todoCreatePage     string
	todoCreatePersonal bool
)

// todo delete
var todoDeleteCmd = &cobra.Command{
	Use:   "delete <todo>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoDelete,
}

var todoDeleteForce bool

// todo set-status
var todoSetStatusCmd = &cobra.Command{
	Use:   "set-status <todo> <row> <status>",
	Short: "Set the status of one row",
	Long: `Set the status of one row.

The row is a 1-based index into the todo's rows or a row id. Valid
statuses are not started, in progress, and completed.`,
	Args: cobra.ExactArgs(3),
	RunE: runTodoSetStatus,
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoListCmd, todoShowCmd, todoCreateCmd, todoDeleteCmd, todoSetStatusCmd)

	// todo list flags
	todoListCmd.Flags().BoolVar(&todoListJSON, "json", false, "Output as JSON")

	// todo show flags
	todoShowCmd.Flags().BoolVar(&todoShowJSON, "json", false, "Output as JSON")

	// todo create flags
	todoCreateCmd.Flags().StringVar(&todoCreatePage, "page", "", "Source page slug (required)")
	todoCreateCmd.Flags().BoolVar(&todoCreatePersonal, "personal", false, "Make the todo visible to its creator only")

	// todo delete flags
	todoDeleteCmd.Flags().BoolVar(&todoDeleteForce, "force", false, "Skip the confirmation prompt")
}

func runTodoList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	todos, err := a.client.ListTodos(cmd.Context())
	if err != nil {
		return err
	}

	if todoListJSON {
		return encodeJSONToStdout(todos)
	}
	printTodoTable(todos, time.Now())
	return nil
}

func runTodoShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := resolveTodo(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	overlay := todo.NewOverlay(a.client, a.feed, item.ID)
	if err := overlay.Load(cmd.Context()); err != nil {
		return err
	}

	if todoShowJSON {
		return encodeJSONToStdout(overlay.Detail())
	}
	fmt.Print(formatTodoDetail(overlay))
	return nil
}

func runTodoCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := validation.ValidateName(name, todo.MaxNameLength); err != nil {
		return err
	}
	if todoCreatePage == "" {
		return fmt.Errorf("a source page is required (use --page)")
	}
	if err := validation.ValidateSlug(todoCreatePage); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.client.CreateTodo(cmd.Context(), todo.CreateInput{
		Name:       name,
		PageSlug:   todoCreatePage,
		IsPersonal: todoCreatePersonal,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created todo %s (%s)\n", created.Name, created.Slug)
	return nil
}

func runTodoDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := resolveTodo(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	confirmed, err := confirmAction(fmt.Sprintf("Delete todo %s?", item.Slug), todoDeleteForce)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := a.client.DeleteTodo(cmd.Context(), item.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted todo %s\n", item.Slug)
	return nil
}

func runTodoSetStatus(cmd *cobra.Command, args []string) error {
	status, err := todo.ParseStatus(args[2])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := resolveTodo(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	overlay := todo.NewOverlay(a.client, a.feed, item.ID)
	if err := overlay.Load(cmd.Context()); err != nil {
		return err
	}
	rowID, err := resolveOverlayRow(overlay, args[1])
	if err != nil {
		return err
	}

	if _, err := a.client.UpdateTodoStatus(cmd.Context(), item.ID, rowID, status); err != nil {
		return err
	}
	fmt.Printf("Set row %s to %s\n", args[1], status.Label())
	return nil
}

// resolveTodo finds a todo by slug, full id, or unique id prefix.
func resolveTodo(ctx context.Context, a *app, key string) (todo.Todo, error) {
	todos, err := a.client.ListTodos(ctx)
	if err != nil {
		return todo.Todo{}, err
	}

	for _, item := range todos {
		if item.Slug == key || item.ID == key {
			return item, nil
		}
	}

	var matches []todo.Todo
	for _, item := range todos {
		if strings.HasPrefix(item.ID, key) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return todo.Todo{}, fmt.Errorf("no todo matches %q", key)
	}
	return todo.Todo{}, fmt.Errorf("%d todos match %q, use the slug or full id", len(matches), key)
}

// resolveOverlayRow turns a 1-based index or row id into a row id.
func resolveOverlayRow(overlay *todo.Overlay, key string) (string, error) {
	items := overlay.Items()
	if len(items) == 0 {
		return "", fmt.Errorf("the todo has no rows")
	}

	if index, err := strconv.Atoi(key); err == nil {
		if index < 1 || index > len(items) {
			return "", fmt.Errorf("row %d is out of range (1-%d)", index, len(items))
		}
		return items[index-1].RowID, nil
	}
	for _, item := range items {
		if item.RowID == key {
			return item.RowID, nil
		}
	}
	return "", fmt.Errorf("no row matches %q", key)
}
