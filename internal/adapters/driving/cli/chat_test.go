package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

func testChats() []domain.Chat {
	return []domain.Chat{
		{
			ID:          "19:abc@unq.gbl.spaces",
			ChatType:    "oneOnOne",
			DisplayName: "Quinn Parker",
			Members:     []domain.ChatMember{{Name: "Quinn Parker", Email: "quinn@contoso.com"}},
		},
		{
			ID:          "19:team@thread.v2",
			ChatType:    "group",
			DisplayName: "Release crew",
			Members:     []domain.ChatMember{{Name: "Ann Lee", Email: "ann@contoso.com"}},
		},
	}
}

func TestChatList(t *testing.T) {
	// Given
	chat := &mockChat{chats: testChats()}

	// When
	out, _, err := runCLI(t, &Services{Chat: chat}, "", "chat", "list")

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "Quinn Parker")
	assert.Contains(t, out, "19:team@thread.v2")
	assert.Contains(t, out, "2 chats.")
}

func TestChatList_EmptyWith(t *testing.T) {
	out, _, err := runCLI(t, &Services{Chat: &mockChat{}}, "", "chat", "list", "--with", "nobody")

	require.NoError(t, err)
	assert.Contains(t, out, `No chats found with "nobody".`)
}

func TestChatRead(t *testing.T) {
	// Given
	chat := &mockChat{
		chats: testChats(),
		messages: []domain.ChatMessage{
			{From: "Quinn Parker", Content: "Ship it?\nTests are green.", CreatedAt: time.Now()},
			{Content: "system message"},
		},
	}

	// When
	out, _, err := runCLI(t, &Services{Chat: chat}, "", "chat", "read", "--with", "quinn")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "quinn", chat.resolved)
	assert.Contains(t, out, "Quinn Parker")
	assert.Contains(t, out, "  Ship it?\n  Tests are green.")
	assert.Contains(t, out, "Unknown")
}

func TestChatRead_NeedsTarget(t *testing.T) {
	_, _, err := runCLI(t, &Services{Chat: &mockChat{}}, "", "chat", "read")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatSend(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		wantTo string
	}{
		{"by chat id", []string{"--chat", "19:explicit", "-m", "hello"}, "19:explicit"},
		{"by member", []string{"--to", "ann@contoso.com", "-m", "hello"}, "19:team@thread.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			chat := &mockChat{chats: testChats()}

			// When
			out, _, err := runCLI(t, &Services{Chat: chat}, "", append([]string{"chat", "send"}, tt.args...)...)

			// Then
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, chat.sentTo)
			assert.Equal(t, "hello", chat.sent)
			assert.Contains(t, out, "Message sent")
		})
	}
}

func TestChatSend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no target", args: []string{"-m", "hi"}},
		{name: "both targets", args: []string{"--chat", "x", "--to", "y", "-m", "hi"}},
		{name: "no message", args: []string{"--chat", "x"}},
		{name: "unknown member", args: []string{"--to", "nobody", "-m", "hi"}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChat{chats: testChats()}

			_, _, err := runCLI(t, &Services{Chat: chat}, "", append([]string{"chat", "send"}, tt.args...)...)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, chat.sent)
		})
	}
}

func TestChatSearch(t *testing.T) {
	// Given
	chat := &mockChat{messages: []domain.ChatMessage{
		{From: "Ann Lee", ChatName: "Release crew", Content: "the deploy\nis done"},
	}}

	// When
	out, _, err := runCLI(t, &Services{Chat: chat}, "", "chat", "search", "deploy")

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, `Search results for "deploy" (1 found)`)
	assert.Contains(t, out, "Release crew - Ann Lee")
	assert.Contains(t, out, "the deploy is done")
}
