package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultChatCount bounds chat and message listings without a count.
const DefaultChatCount = 50

// ChatService reads, searches and sends Teams chat messages.
type ChatService struct {
	chats  driven.ChatGateway
	people driving.ContactService
	users  driven.UserDirectory

	meOnce sync.Once
	me     *domain.UserInfo
}

// NewChatService creates a chat service. people and users are optional;
// they sharpen --with matching and chat display names.
func NewChatService(
	chats driven.ChatGateway,
	people driving.ContactService,
	users driven.UserDirectory,
) *ChatService {
	return &ChatService{chats: chats, people: people, users: users}
}

func countOrDefault(n int) int {
	if n <= 0 {
		return DefaultChatCount
	}
	return n
}

// ListChats lists recent chats. q.With keeps chats whose topic or members
// match; q.Since keeps chats active since then.
func (s *ChatService) ListChats(ctx context.Context, q domain.ChatQuery) ([]domain.Chat, error) {
	chats, err := s.chats.ListChats(ctx, countOrDefault(q.Count))
	if err != nil {
		return nil, err
	}

	me := s.currentUser(ctx)
	var emails map[string]bool
	if q.With != "" {
		emails = s.matchingEmails(ctx, q.With)
	}

	out := make([]domain.Chat, 0, len(chats))
	for _, c := range chats {
		if q.With != "" && !chatMatches(c, q.With, emails) {
			continue
		}
		if !q.Since.IsZero() && (c.LastMessageAt.IsZero() || c.LastMessageAt.Before(q.Since)) {
			continue
		}
		c.DisplayName = chatDisplayName(c, me)
		out = append(out, c)
	}
	return out, nil
}

// ResolveChat finds the one chat matching with.
func (s *ChatService) ResolveChat(ctx context.Context, with string) (*domain.Chat, error) {
	if strings.TrimSpace(with) == "" {
		return nil, fmt.Errorf("%w: a chat ID or user is required", domain.ErrInvalidInput)
	}
	chats, err := s.ListChats(ctx, domain.ChatQuery{Count: DefaultChatCount, With: with})
	if err != nil {
		return nil, err
	}
	switch len(chats) {
	case 0:
		return nil, fmt.Errorf("%w: no chat found with %q", domain.ErrNotFound, with)
	case 1:
		return &chats[0], nil
	}
	names := make([]string, len(chats))
	for i, c := range chats {
		names[i] = c.ID + ": " + c.DisplayName
	}
	return nil, fmt.Errorf("%w: multiple chats found with %q: %s",
		domain.ErrInvalidInput, with, strings.Join(names, "; "))
}

// ReadMessages returns the latest count messages of a chat, oldest first.
func (s *ChatService) ReadMessages(
	ctx context.Context,
	chatID string,
	count int,
	since time.Time,
) ([]domain.ChatMessage, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("%w: chat ID is required", domain.ErrInvalidInput)
	}
	return s.chats.ListMessages(ctx, chatID, countOrDefault(count), since)
}

// SendMessage posts a plain-text message.
func (s *ChatService) SendMessage(ctx context.Context, chatID, content string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("%w: chat ID is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}
	return s.chats.SendMessage(ctx, chatID, content)
}

// SearchMessages scans the latest messages of recent chats for query.
// Graph has no chat message search, so matching is local and
// case-insensitive.
func (s *ChatService) SearchMessages(ctx context.Context, query string, q domain.ChatQuery) ([]domain.ChatMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", domain.ErrInvalidInput)
	}
	chats, err := s.ListChats(ctx, domain.ChatQuery{Count: DefaultChatCount, With: q.With})
	if err != nil {
		return nil, err
	}

	limit := countOrDefault(q.Count)
	var out []domain.ChatMessage
	for _, c := range chats {
		msgs, err := s.chats.ListMessages(ctx, c.ID, DefaultChatCount, q.Since)
		if err != nil {
			return nil, fmt.Errorf("search chat %s: %w", c.DisplayName, err)
		}
		for _, m := range msgs {
			if !containsFold(m.Content, query) {
				continue
			}
			m.ChatName = c.DisplayName
			out = append(out, m)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// matchingEmails resolves with through the people directory. Failures
// only narrow matching to names and topics.
func (s *ChatService) matchingEmails(ctx context.Context, with string) map[string]bool {
	emails := map[string]bool{}
	if looksLikeEmail(with) {
		emails[strings.ToLower(with)] = true
	}
	if s.people == nil {
		return emails
	}
	people, err := s.people.Search(ctx, with)
	if err != nil {
		logger.Debug("chat: people lookup for %q failed: %v", with, err)
		return emails
	}
	for _, p := range people {
		emails[p.Email] = true
	}
	return emails
}

func (s *ChatService) currentUser(ctx context.Context) *domain.UserInfo {
	if s.users == nil {
		return nil
	}
	s.meOnce.Do(func() {
		me, err := s.users.Me(ctx)
		if err != nil {
			logger.Debug("chat: could not look up signed-in user: %v", err)
			return
		}
		s.me = me
	})
	return s.me
}

func chatMatches(c domain.Chat, with string, emails map[string]bool) bool {
	if containsFold(c.Topic, with) {
		return true
	}
	for _, m := range c.Members {
		if emails[strings.ToLower(m.Email)] || containsFold(m.Name, with) {
			return true
		}
	}
	return false
}

// chatDisplayName is the topic, else the other members' names.
func chatDisplayName(c domain.Chat, me *domain.UserInfo) string {
	if c.Topic != "" {
		return c.Topic
	}
	var names []string
	for _, m := range c.Members {
		if me != nil && (m.UserID == me.ID || (me.Email() != "" && strings.EqualFold(m.Email, me.Email()))) {
			continue
		}
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	if len(names) == 0 {
		return "Unknown Chat"
	}
	return strings.Join(names, ", ")
}
