package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
)

type mockTokenProvider struct{}

func (mockTokenProvider) GetToken(context.Context) (string, error) { return "test-token", nil }

func newTestConnector(t *testing.T, h http.HandlerFunc) *Connector {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(microsoft.NewClient(srv.URL, mockTokenProvider{}))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func chatJSON(id, topic string, members ...string) map[string]any {
	ms := make([]map[string]any, 0, len(members))
	for _, m := range members {
		ms = append(ms, map[string]any{"displayName": m, "email": m + "@Example.com", "userId": "u-" + m})
	}
	return map[string]any{
		"id":       id,
		"topic":    topic,
		"chatType": "group",
		"members":  ms,
		"lastMessagePreview": map[string]any{
			"createdDateTime": "2024-05-01T10:00:00Z",
			"body":            map[string]any{"contentType": "html", "content": "<p>see you</p>"},
		},
	}
}

func TestConnector_ListChats(t *testing.T) {
	// Given
	var base string
	calls := 0
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/me/chats", r.URL.Path)
		if calls == 1 {
			assert.Equal(t, "members", r.URL.Query().Get("$expand"))
			assert.Equal(t, "lastMessagePreview/createdDateTime desc", r.URL.Query().Get("$orderby"))
			assert.Equal(t, "3", r.URL.Query().Get("$top"))
			writeJSON(t, w, map[string]any{
				"value":           []any{chatJSON("c1", "Launch", "ann", "bob"), chatJSON("c2", "", "ann", "cid")},
				"@odata.nextLink": base + "/me/chats?page=2",
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"value":           []any{chatJSON("c3", "", "dan"), chatJSON("c4", "", "eve")},
			"@odata.nextLink": base + "/me/chats?page=3",
		})
	})
	base = conn.client.BaseURL()

	// When
	chats, err := conn.ListChats(context.Background(), 3)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, chats, 3)
	assert.Equal(t, "Launch", chats[0].DisplayName)
	assert.Equal(t, "ann, cid", chats[1].DisplayName)
	assert.Equal(t, "ann@example.com", chats[0].Members[0].Email)
	assert.Equal(t, "see you", chats[0].LastMessagePreview)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), chats[0].LastMessageAt)
}

func TestConnector_ListMessages(t *testing.T) {
	// Given
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/19:abc@thread.v2/messages", r.URL.Path)
		assert.Equal(t, "createdDateTime gt 2024-05-01T00:00:00Z", r.URL.Query().Get("$filter"))
		assert.Equal(t, "createdDateTime desc", r.URL.Query().Get("$orderby"))
		writeJSON(t, w, map[string]any{"value": []map[string]any{
			{
				"id": "m3", "messageType": "message", "createdDateTime": "2024-05-01T12:00:00Z",
				"from": map[string]any{"user": map[string]any{"displayName": "Ann"}},
				"body": map[string]any{"contentType": "html", "content": "<div>third &amp; last</div>"},
			},
			{"id": "sys", "messageType": "systemEventMessage", "createdDateTime": "2024-05-01T11:30:00Z"},
			{
				"id": "m2", "messageType": "message", "createdDateTime": "2024-05-01T11:00:00Z",
				"from": map[string]any{"application": map[string]any{"displayName": "Bot"}},
				"body": map[string]any{"contentType": "text", "content": "second"},
			},
			{
				"id": "m1", "messageType": "message", "createdDateTime": "2024-05-01T10:00:00Z",
				"body": map[string]any{"contentType": "text", "content": "first"},
			},
		}})
	})

	// When
	msgs, err := conn.ListMessages(context.Background(), "19:abc@thread.v2", 2, since)

	// Then
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].ID)
	assert.Equal(t, "Bot", msgs[0].From)
	assert.Equal(t, "m3", msgs[1].ID)
	assert.Equal(t, "third & last", msgs[1].Content)
	assert.Equal(t, "19:abc@thread.v2", msgs[1].ChatID)
}

func TestConnector_SendMessage(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text", body.Body.ContentType)
		assert.Equal(t, "hello", body.Body.Content)
		writeJSON(t, w, map[string]any{
			"id": "new", "messageType": "message", "createdDateTime": "2024-05-01T12:00:00Z",
			"body": map[string]any{"contentType": "text", "content": "hello"},
		})
	})

	msg, err := conn.SendMessage(context.Background(), "c1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "new", msg.ID)
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, "Unknown", msg.From)
}

func TestChatMessage_IsSystem(t *testing.T) {
	tests := []struct {
		messageType string
		want        bool
	}{
		{messageType: "message", want: false},
		{messageType: "", want: false},
		{messageType: "systemEventMessage", want: true},
		{messageType: "unknownFutureValue", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.messageType, func(t *testing.T) {
			m := ChatMessage{MessageType: tt.messageType}
			assert.Equal(t, tt.want, m.IsSystem())
		})
	}
}
