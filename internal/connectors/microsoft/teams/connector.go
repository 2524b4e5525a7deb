package teams

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.ChatGateway = (*Connector)(nil)

// maxPage is the largest $top Graph accepts for chats and chat messages.
const maxPage = 50

// Connector reads and sends Teams chat messages via Microsoft Graph.
type Connector struct {
	client *microsoft.Client
}

// New creates a new Teams connector.
func New(client *microsoft.Client) *Connector {
	return &Connector{client: client}
}

func pageSize(top int) string {
	if top <= 0 || top > maxPage {
		top = maxPage
	}
	return strconv.Itoa(top)
}

// ListChats lists chats, most recently active first, reading pages until
// top chats are collected. A non-positive top reads every page.
func (c *Connector) ListChats(ctx context.Context, top int) ([]domain.Chat, error) {
	query := url.Values{
		"$expand":  {"members"},
		"$orderby": {"lastMessagePreview/createdDateTime desc"},
		"$top":     {pageSize(top)},
	}
	raw, err := microsoft.ListAtLeast[Chat](ctx, c.client, microsoft.ServiceChat, "/me/chats", query, top)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	raw = microsoft.ApplyLimit(raw, top)

	out := make([]domain.Chat, len(raw))
	for i := range raw {
		out[i] = raw[i].ToDomain()
	}
	return out, nil
}

// ListMessages returns up to top user messages of a chat, oldest first.
// A non-zero since keeps only messages created after it.
func (c *Connector) ListMessages(
	ctx context.Context,
	chatID string,
	top int,
	since time.Time,
) ([]domain.ChatMessage, error) {
	query := url.Values{
		"$top":     {pageSize(top)},
		"$orderby": {"createdDateTime desc"},
	}
	if !since.IsZero() {
		query.Set("$filter", "createdDateTime gt "+microsoft.ODataTime(since))
	}

	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	raw, err := microsoft.ListAtLeast[ChatMessage](ctx, c.client, microsoft.ServiceChat, path, query, top)
	if err != nil {
		return nil, fmt.Errorf("read chat messages: %w", err)
	}

	out := make([]domain.ChatMessage, 0, len(raw))
	skipped := 0
	for i := range raw {
		if raw[i].IsSystem() {
			skipped++
			continue
		}
		out = append(out, raw[i].ToDomain(chatID))
	}
	if skipped > 0 {
		logger.Debug("teams: skipped %d system messages in chat %s", skipped, chatID)
	}
	out = microsoft.ApplyLimit(out, top)
	slices.Reverse(out)
	return out, nil
}

// SendMessage posts a plain-text message to a chat.
func (c *Connector) SendMessage(ctx context.Context, chatID, content string) (*domain.ChatMessage, error) {
	req := sendMessageRequest{Body: microsoft.ItemBody{ContentType: "text", Content: content}}

	var msg ChatMessage
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.client.Post(ctx, microsoft.ServiceChat, path, req, &msg); err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}
	out := msg.ToDomain(chatID)
	return &out, nil
}
