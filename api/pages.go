package api

import (
	"context"
	"fmt"
	"net/url"

	"sheetctl/page"
)

// ListPages returns every page visible to the signed-in user.
func (c *Client) ListPages(ctx context.Context) ([]page.Info, error) {
	return listAll[page.Info](ctx, c, "/pages/")
}

// CreatePage creates an empty page and returns it. The server derives the
// slug from the name.
func (c *Client) CreatePage(ctx context.Context, name string) (*page.Info, error) {
	var info page.Info
	payload := map[string]string{"name": name}
	if err := c.post(ctx, "/pages/", payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPage returns one page's metadata.
func (c *Client) GetPage(ctx context.Context, slug string) (*page.Info, error) {
	var info page.Info
	if err := c.get(ctx, fmt.Sprintf("/pages/%s/", url.PathEscape(slug)), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RenamePage changes a page's name. The slug stays fixed.
func (c *Client) RenamePage(ctx context.Context, slug, name string) (*page.Info, error) {
	var info page.Info
	payload := map[string]string{"name": name}
	if err := c.patch(ctx, fmt.Sprintf("/pages/%s/", url.PathEscape(slug)), payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeletePage removes a page and everything under it.
func (c *Client) DeletePage(ctx context.Context, slug string) error {
	return c.delete(ctx, fmt.Sprintf("/pages/%s/", url.PathEscape(slug)))
}

// GetPageData returns a page's full grid: columns in order and rows with
// positional cells.
func (c *Client) GetPageData(ctx context.Context, slug string) (*page.Data, error) {
	var data page.Data
	if err := c.get(ctx, fmt.Sprintf("/pages/%s/data/", url.PathEscape(slug)), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SavePage replaces a page's grid with the payload in one transaction. Rows
// and columns with nil IDs are created server-side.
func (c *Client) SavePage(ctx context.Context, slug string, payload page.SavePayload) error {
	return c.post(ctx, fmt.Sprintf("/pages/%s/save/", url.PathEscape(slug)), payload, nil)
}

// UpdateColumnWidths persists column widths without touching page content.
func (c *Client) UpdateColumnWidths(ctx context.Context, slug string, updates []page.WidthUpdate) error {
	payload := map[string][]page.WidthUpdate{"updates": updates}
	return c.post(ctx, fmt.Sprintf("/pages/%s/columns/width/", url.PathEscape(slug)), payload, nil)
}

// ListVersions returns a page's save history, newest first.
func (c *Client) ListVersions(ctx context.Context, slug string) ([]page.Version, error) {
	return listAll[page.Version](ctx, c, fmt.Sprintf("/pages/%s/versions/", url.PathEscape(slug)))
}
