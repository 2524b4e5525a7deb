package outlook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.MailGateway = (*Connector)(nil)

// pageSize is the $top used for message pages. Graph caps it at 1000 but
// larger pages slow the first response.
const pageSize = 50

// epoch anchors $filter so it can be combined with $orderby=receivedDateTime.
var epoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Connector reads and sends Outlook mail via Microsoft Graph.
type Connector struct {
	client *microsoft.Client
}

// New creates a new Outlook connector.
func New(client *microsoft.Client) *Connector {
	return &Connector{client: client}
}

// ListMessages lists messages in a folder. folderID may be a well-known
// name such as "inbox". Pages are read until q.Limit messages are collected,
// or every page when no limit is set.
func (c *Connector) ListMessages(ctx context.Context, folderID string, q domain.MessageQuery) ([]domain.Message, error) {
	if folderID == "" {
		folderID = "inbox"
	}

	query := url.Values{
		"$select": {listFields},
		"$top":    {strconv.Itoa(pageSize)},
	}

	// Graph rejects $filter and $orderby together with $search, so a search
	// filters read state and date locally.
	localFilter := q.Search != "" && (q.Unread != nil || !q.Since.IsZero())
	if q.Search != "" {
		query.Set("$search", strconv.Quote(q.Search))
	} else {
		if filter := buildFilter(q); filter != "" {
			query.Set("$filter", filter)
		}
		query.Set("$orderby", "receivedDateTime desc")
	}

	want := q.Limit
	if localFilter {
		want = 0
	}

	path := "/me/mailFolders/" + url.PathEscape(folderID) + "/messages"
	raw, err := microsoft.ListAtLeast[Message](ctx, c.client, microsoft.ServiceMail, path, query, want)
	if err != nil {
		return nil, fmt.Errorf("list messages in %s: %w", folderID, err)
	}

	out := make([]domain.Message, 0, len(raw))
	for i := range raw {
		msg := raw[i].ToDomain()
		if localFilter && !matches(msg, q) {
			continue
		}
		out = append(out, msg)
	}
	logger.Debug("outlook: %d messages from %s", len(out), folderID)
	return out, nil
}

// buildFilter renders the OData filter. receivedDateTime leads because
// Graph requires $orderby properties to appear first in $filter.
func buildFilter(q domain.MessageQuery) string {
	if q.Unread == nil && q.Since.IsZero() {
		return ""
	}
	since := epoch
	if !q.Since.IsZero() {
		since = q.Since
	}
	parts := []string{"receivedDateTime ge " + microsoft.ODataTime(since)}
	if q.Unread != nil {
		parts = append(parts, "isRead eq "+strconv.FormatBool(!*q.Unread))
	}
	return strings.Join(parts, " and ")
}

func matches(msg domain.Message, q domain.MessageQuery) bool {
	if q.Unread != nil && msg.IsRead == *q.Unread {
		return false
	}
	if !q.Since.IsZero() && msg.ReceivedAt.Before(q.Since) {
		return false
	}
	return true
}

// GetMessage fetches a message with its body and attachment metadata.
func (c *Connector) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	query := url.Values{
		"$select": {listFields + ",bccRecipients,body"},
		"$expand": {"attachments($select=id,name,contentType,size,isInline)"},
	}

	var m Message
	if err := c.client.Get(ctx, microsoft.ServiceMail, "/me/messages/"+url.PathEscape(id), query, &m); err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	msg := m.ToDomain()
	return &msg, nil
}

// GetMIME downloads the RFC 5322 form of a message.
func (c *Connector) GetMIME(ctx context.Context, id string) ([]byte, error) {
	raw, err := c.client.GetRaw(ctx, microsoft.ServiceMail, "/me/messages/"+url.PathEscape(id)+"/$value")
	if err != nil {
		return nil, fmt.Errorf("download message %s: %w", id, err)
	}
	return raw, nil
}

// SendMail sends a message through /me/sendMail.
func (c *Connector) SendMail(ctx context.Context, mail domain.OutgoingMail) error {
	if len(mail.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", domain.ErrInvalidInput)
	}
	if err := c.client.Post(ctx, microsoft.ServiceMail, "/me/sendMail", newSendMailRequest(mail), nil); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// MoveMessage moves a message and returns the ID it has in the new folder.
func (c *Connector) MoveMessage(ctx context.Context, id, destinationFolderID string) (string, error) {
	body := map[string]string{"destinationId": destinationFolderID}

	var moved Message
	path := "/me/messages/" + url.PathEscape(id) + "/move"
	if err := c.client.Post(ctx, microsoft.ServiceMail, path, body, &moved); err != nil {
		return "", fmt.Errorf("move message: %w", err)
	}
	if moved.ID == "" {
		return "", errors.New("move message: response carried no message ID")
	}
	return moved.ID, nil
}

// SetRead updates a message's read state.
func (c *Connector) SetRead(ctx context.Context, id string, read bool) error {
	body := map[string]bool{"isRead": read}
	if err := c.client.Patch(ctx, microsoft.ServiceMail, "/me/messages/"+url.PathEscape(id), body, nil); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// ListFolders lists every mail folder, descending into child folders.
// Nested folders are named by their path, such as "Projects/Alpha".
func (c *Connector) ListFolders(ctx context.Context) ([]domain.MailFolder, error) {
	return c.listFolders(ctx, "/me/mailFolders", "")
}

func (c *Connector) listFolders(ctx context.Context, path, prefix string) ([]domain.MailFolder, error) {
	query := url.Values{"$top": {"100"}}
	folders, err := microsoft.ListAll[MailFolder](ctx, c.client, microsoft.ServiceMail, path, query)
	if err != nil {
		return nil, fmt.Errorf("list mail folders: %w", err)
	}

	var out []domain.MailFolder
	for i := range folders {
		f := &folders[i]
		name := f.DisplayName
		if prefix != "" {
			name = prefix + "/" + name
		}
		out = append(out, f.ToDomain(name))

		if f.ChildFolderCount > 0 {
			children, err := c.listFolders(ctx, "/me/mailFolders/"+url.PathEscape(f.ID)+"/childFolders", name)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
	}
	return out, nil
}
