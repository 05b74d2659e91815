package api

import (
	"context"
	"fmt"
	"net/url"

	"sheetctl/todo"
)

// ListTodos returns every todo list visible to the signed-in user.
func (c *Client) ListTodos(ctx context.Context) ([]todo.Todo, error) {
	return listAll[todo.Todo](ctx, c, "/todos/")
}

// CreateTodo creates a todo list from a source page. Every page row gets a
// status entry starting at NOT_STARTED.
func (c *Client) CreateTodo(ctx context.Context, input todo.CreateInput) (*todo.Detail, error) {
	var detail todo.Detail
	if err := c.post(ctx, "/todos/", input, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetTodo returns one todo list with its status entries.
func (c *Client) GetTodo(ctx context.Context, id string) (*todo.Detail, error) {
	var detail todo.Detail
	if err := c.get(ctx, fmt.Sprintf("/todos/%s/", url.PathEscape(id)), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteTodo removes a todo list. The source page is untouched.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/todos/%s/", url.PathEscape(id)))
}

// UpdateTodoStatus sets one row's status and returns the stored entry.
func (c *Client) UpdateTodoStatus(ctx context.Context, id, rowID string, status todo.Status) (*todo.StatusEntry, error) {
	var entry todo.StatusEntry
	payload := map[string]todo.Status{"status": status}
	path := fmt.Sprintf("/todos/%s/status/%s/", url.PathEscape(id), url.PathEscape(rowID))
	if err := c.patch(ctx, path, payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
