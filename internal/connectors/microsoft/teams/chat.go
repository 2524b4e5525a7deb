package teams

import (
	"strings"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// messageTypeUser is the messageType of messages written by people.
// System events (members added, topic changed) carry other values.
const messageTypeUser = "message"

// Chat is the Graph chat resource with $expand=members.
type Chat struct {
	ID                  string              `json:"id"`
	Topic               string              `json:"topic"`
	ChatType            string              `json:"chatType"`
	WebURL              string              `json:"webUrl"`
	LastUpdatedDateTime string              `json:"lastUpdatedDateTime"`
	Members             []Member            `json:"members"`
	LastMessagePreview  *LastMessagePreview `json:"lastMessagePreview,omitempty"`
}

// Member is a conversation member.
type Member struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	UserID      string `json:"userId"`
}

// LastMessagePreview is the preview Graph attaches to a chat.
type LastMessagePreview struct {
	CreatedDateTime string             `json:"createdDateTime"`
	Body            microsoft.ItemBody `json:"body"`
}

// ChatMessage is the Graph chatMessage resource.
type ChatMessage struct {
	ID              string             `json:"id"`
	ChatID          string             `json:"chatId"`
	MessageType     string             `json:"messageType"`
	CreatedDateTime string             `json:"createdDateTime"`
	From            *From              `json:"from,omitempty"`
	Body            microsoft.ItemBody `json:"body"`
}

// From identifies a message sender.
type From struct {
	User *struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user,omitempty"`
	Application *struct {
		DisplayName string `json:"displayName"`
	} `json:"application,omitempty"`
}

// IsSystem reports whether the message is a system event.
func (m *ChatMessage) IsSystem() bool {
	return m.MessageType != "" && m.MessageType != messageTypeUser
}

// ToDomain converts a Graph chat. DisplayName is the topic when set, else
// every member's name; callers that know the signed-in user narrow it.
func (c *Chat) ToDomain() domain.Chat {
	out := domain.Chat{
		ID:       c.ID,
		Topic:    c.Topic,
		ChatType: c.ChatType,
		WebURL:   c.WebURL,
		Members:  make([]domain.ChatMember, 0, len(c.Members)),
	}
	for _, m := range c.Members {
		out.Members = append(out.Members, domain.ChatMember{
			Name:   m.DisplayName,
			Email:  strings.ToLower(m.Email),
			UserID: m.UserID,
		})
	}
	if p := c.LastMessagePreview; p != nil {
		out.LastMessageAt = microsoft.MustParseDateTime(p.CreatedDateTime)
		out.LastMessagePreview = p.Body.BodyText()
	}
	if out.LastMessageAt.IsZero() {
		out.LastMessageAt = microsoft.MustParseDateTime(c.LastUpdatedDateTime)
	}
	out.DisplayName = c.Topic
	if out.DisplayName == "" {
		names := make([]string, 0, len(c.Members))
		for _, m := range c.Members {
			names = append(names, m.DisplayName)
		}
		out.DisplayName = strings.Join(names, ", ")
	}
	return out
}

// ToDomain converts a Graph chat message, stripping HTML from the body.
func (m *ChatMessage) ToDomain(chatID string) domain.ChatMessage {
	out := domain.ChatMessage{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Content:     strings.TrimSpace(m.Body.BodyText()),
		ContentType: strings.ToLower(m.Body.ContentType),
		CreatedAt:   microsoft.MustParseDateTime(m.CreatedDateTime),
		MessageType: m.MessageType,
		From:        "Unknown",
	}
	if out.ChatID == "" {
		out.ChatID = chatID
	}
	if m.From != nil {
		switch {
		case m.From.User != nil && m.From.User.DisplayName != "":
			out.From = m.From.User.DisplayName
		case m.From.Application != nil && m.From.Application.DisplayName != "":
			out.From = m.From.Application.DisplayName
		}
	}
	return out
}

type sendMessageRequest struct {
	Body microsoft.ItemBody `json:"body"`
}
