package domain

import (
	"strings"
	"time"
)

// ChatMember is a participant of a Teams chat.
type ChatMember struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Chat is a Teams chat snapshot.
type Chat struct {
	ID                 string       `json:"id"`
	Topic              string       `json:"topic,omitempty"`
	ChatType           string       `json:"chat_type"`
	Members            []ChatMember `json:"members"`
	LastMessageAt      time.Time    `json:"last_message_datetime,omitempty"`
	LastMessagePreview string       `json:"last_message_preview,omitempty"`
	WebURL             string       `json:"web_url,omitempty"`
	DisplayName        string       `json:"display_name"`
}

// HasMember reports whether any member's name or email contains query.
func (c Chat) HasMember(query string) bool {
	q := strings.ToLower(query)
	for _, m := range c.Members {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Email), q) {
			return true
		}
	}
	return false
}

// ChatMessage is one message in a chat.
type ChatMessage struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"`
	From        string    `json:"from"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_datetime"`
	MessageType string    `json:"message_type,omitempty"`
	ChatName    string    `json:"chat_name,omitempty"`
}

// ChatQuery filters a chat listing.
type ChatQuery struct {
	Count int
	With  string
	Since time.Time
}
