package onedrive

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DriveGateway = (*Connector)(nil)

// Connector browses and transfers OneDrive and SharePoint files via
// Microsoft Graph.
type Connector struct {
	client *microsoft.Client
}

// New creates a new OneDrive connector.
func New(client *microsoft.Client) *Connector {
	return &Connector{client: client}
}

// drivePath addresses a drive; an empty ID is the user's own OneDrive.
func drivePath(driveID string) string {
	if driveID == "" {
		return "/me/drive"
	}
	return "/drives/" + url.PathEscape(driveID)
}

// rootPath addresses a path relative to the drive root.
func rootPath(driveID, path string) string {
	escaped := microsoft.EscapePath(path)
	if escaped == "" {
		return drivePath(driveID) + "/root"
	}
	return drivePath(driveID) + "/root:/" + escaped + ":"
}

func itemPath(driveID, itemID string) string {
	return drivePath(driveID) + "/items/" + url.PathEscape(itemID)
}

// MyDrive returns the user's OneDrive.
func (c *Connector) MyDrive(ctx context.Context) (*domain.Drive, error) {
	var d Drive
	if err := c.client.Get(ctx, microsoft.ServiceFiles, "/me/drive", nil, &d); err != nil {
		return nil, fmt.Errorf("get drive: %w", err)
	}
	out := d.ToDomain()
	return &out, nil
}

// ListDrives lists drives the user can reach, SharePoint libraries included.
func (c *Connector) ListDrives(ctx context.Context) ([]domain.Drive, error) {
	raw, err := microsoft.ListAll[Drive](ctx, c.client, microsoft.ServiceFiles, "/me/drives", nil)
	if err != nil {
		return nil, fmt.Errorf("list drives: %w", err)
	}
	out := make([]domain.Drive, len(raw))
	for i := range raw {
		out[i] = raw[i].ToDomain()
	}
	return out, nil
}

// Children lists a folder addressed by path.
func (c *Connector) Children(ctx context.Context, driveID, path string) ([]domain.DriveItem, error) {
	var endpoint string
	if microsoft.EscapePath(path) == "" {
		endpoint = drivePath(driveID) + "/root/children"
	} else {
		endpoint = rootPath(driveID, path) + "/children"
	}
	return c.list(ctx, endpoint, "list "+displayPath(path))
}

// ChildrenByID lists a folder addressed by item ID.
func (c *Connector) ChildrenByID(ctx context.Context, driveID, itemID string) ([]domain.DriveItem, error) {
	return c.list(ctx, itemPath(driveID, itemID)+"/children", "list folder")
}

// Search finds items by name or content.
func (c *Connector) Search(ctx context.Context, driveID, query string) ([]domain.DriveItem, error) {
	q := url.PathEscape(strings.ReplaceAll(query, "'", "''"))
	return c.list(ctx, drivePath(driveID)+"/root/search(q='"+q+"')", "search")
}

func (c *Connector) list(ctx context.Context, endpoint, what string) ([]domain.DriveItem, error) {
	query := url.Values{"$top": {"200"}}
	raw, err := microsoft.ListAll[DriveItem](ctx, c.client, microsoft.ServiceFiles, endpoint, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	out := make([]domain.DriveItem, len(raw))
	for i := range raw {
		out[i] = raw[i].ToDomain()
	}
	logger.Debug("onedrive: %s returned %d items", what, len(out))
	return out, nil
}

// GetItem fetches item metadata by ID.
func (c *Connector) GetItem(ctx context.Context, driveID, itemID string) (*domain.DriveItem, error) {
	return c.get(ctx, itemPath(driveID, itemID))
}

// GetItemByPath fetches item metadata by path.
func (c *Connector) GetItemByPath(ctx context.Context, driveID, path string) (*domain.DriveItem, error) {
	return c.get(ctx, rootPath(driveID, path))
}

func (c *Connector) get(ctx context.Context, endpoint string) (*domain.DriveItem, error) {
	var item DriveItem
	if err := c.client.Get(ctx, microsoft.ServiceFiles, endpoint, nil, &item); err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	out := item.ToDomain()
	return &out, nil
}

// Download streams a file's content into w.
func (c *Connector) Download(ctx context.Context, driveID, itemID string, w io.Writer) (int64, error) {
	n, err := c.client.Download(ctx, microsoft.ServiceFiles, itemPath(driveID, itemID)+"/content", w)
	if err != nil {
		return n, fmt.Errorf("download: %w", err)
	}
	return n, nil
}

// Upload writes content to path with a simple (single request) upload.
// Without overwrite an existing file yields domain.ErrConflict.
func (c *Connector) Upload(
	ctx context.Context,
	driveID, path string,
	content []byte,
	overwrite bool,
) (*domain.DriveItem, error) {
	behaviour := "fail"
	if overwrite {
		behaviour = "replace"
	}
	query := url.Values{"@microsoft.graph.conflictBehavior": {behaviour}}

	var item DriveItem
	endpoint := rootPath(driveID, path) + "/content"
	if err := c.client.PutContent(ctx, microsoft.ServiceFiles, endpoint, query,
		"application/octet-stream", content, &item); err != nil {
		return nil, fmt.Errorf("upload %s: %w", displayPath(path), err)
	}
	out := item.ToDomain()
	return &out, nil
}

func displayPath(p string) string {
	return "/" + strings.Trim(p, "/")
}
