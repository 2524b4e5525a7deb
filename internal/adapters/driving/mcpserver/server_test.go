package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	auth       *mockAuth
	mail       *mockMail
	calendar   *mockCalendar
	chat       *mockChat
	files      *mockFiles
	contacts   *mockContacts
	recordings *mockRecordings
	session    *mcp.ClientSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })

	f := &fixture{
		auth: &mockAuth{status: &domain.AuthStatus{
			Authenticated: true,
			Account:       "ann@contoso.com",
			ExpiresAt:     fixedNow.Add(time.Hour),
		}},
		mail:     &mockMail{},
		calendar: &mockCalendar{},
		chat:     &mockChat{},
		files:    &mockFiles{},
		contacts: &mockContacts{people: []domain.Person{
			{Name: "Ann Lee", Email: "ann@contoso.com", Source: domain.SourceContact},
		}},
		recordings: &mockRecordings{},
	}
	holder := config.NewHolder(&config.Config{
		ClientID:  "app-123",
		Scopes:    []string{"https://graph.microsoft.com/User.Read", "offline_access"},
		TokenFile: "/home/ann/.config/o365/tokens.json",
		MailDir:   "/home/ann/.mail/office365",
		GraphURL:  config.DefaultGraphURL,
		Path:      "/home/ann/.config/o365/config",
	})
	srv := New(Services{
		Auth:       f.auth,
		Mail:       f.mail,
		Calendar:   f.calendar,
		Chat:       f.chat,
		Files:      f.files,
		Contacts:   f.contacts,
		Recordings: f.recordings,
		Config:     holder,
	}, "test")

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := srv.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	f.session = cs
	return f
}

// call invokes a tool and decodes its JSON text payload.
func (f *fixture) call(t *testing.T, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := f.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out), text.Text)
	return out, res.IsError
}

func errorOf(t *testing.T, payload map[string]any) (code int, message, suggestion string) {
	t.Helper()
	body, ok := payload["error"].(map[string]any)
	require.True(t, ok, "expected error payload, got %v", payload)
	code = int(body["code"].(float64))
	message, _ = body["message"].(string)
	if data, ok := body["data"].(map[string]any); ok {
		suggestion, _ = data["suggestion"].(string)
	}
	return code, message, suggestion
}

func TestServer_ListsAllTools(t *testing.T) {
	// Given
	f := newFixture(t)

	// When
	res, err := f.session.ListTools(context.Background(), &mcp.ListToolsParams{})

	// Then
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"read_emails", "get_email_content", "send_email",
		"list_calendar_events", "create_calendar_event", "delete_calendar_event",
		"list_onedrive_files", "search_onedrive", "download_onedrive_file", "upload_onedrive_file",
		"list_teams_chats", "read_chat_messages", "send_chat_message", "search_teams_messages",
		"search_contacts", "list_contacts",
		"list_recordings", "search_recordings", "download_recording", "get_recording_transcript",
	}, names)
}

func TestReadEmails_Defaults(t *testing.T) {
	// Given
	f := newFixture(t)
	f.mail.messages = []domain.Message{{ID: "m1", Subject: "Hello"}}

	// When
	out, isErr := f.call(t, "read_emails", nil)

	// Then
	assert.False(t, isErr)
	assert.Equal(t, "success", out["status"])
	assert.EqualValues(t, 1, out["count"])
	assert.Equal(t, "Inbox", f.mail.lastQuery.Folder)
	assert.Equal(t, defaultEmailLimit, f.mail.lastQuery.Limit)
	assert.Nil(t, f.mail.lastQuery.Unread)
}

func TestReadEmails_UnreadLimit(t *testing.T) {
	// Given
	f := newFixture(t)
	for i := range 12 {
		f.mail.messages = append(f.mail.messages, domain.Message{ID: fmt.Sprintf("m%02d", i)})
	}

	// When
	out, isErr := f.call(t, "read_emails", map[string]any{"unread": true, "limit": 5, "since": "2 days ago"})

	// Then
	require.False(t, isErr)
	assert.EqualValues(t, 5, out["count"])
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 5)
	assert.Equal(t, "m00", msgs[0].(map[string]any)["id"])
	require.NotNil(t, f.mail.lastQuery.Unread)
	assert.True(t, *f.mail.lastQuery.Unread)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), f.mail.lastQuery.Since)
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		args       map[string]any
		setup      func(f *fixture)
		code       int
		suggestion string
	}{
		{
			name:       "invalid since",
			tool:       "read_emails",
			args:       map[string]any{"since": "the other day"},
			code:       CodeInvalidParams,
			suggestion: "check the command arguments",
		},
		{
			name:       "auth required",
			tool:       "read_emails",
			setup:      func(f *fixture) { f.mail.err = fmt.Errorf("refresh failed: %w", domain.ErrAuthRequired) },
			code:       CodeAuth,
			suggestion: "o365 auth login",
		},
		{
			name: "not found",
			tool: "get_email_content",
			args: map[string]any{"message_id": "missing"},
			code: CodeNotFound,
		},
		{
			name:  "permission",
			tool:  "list_onedrive_files",
			setup: func(f *fixture) { f.files.err = fmt.Errorf("list: %w", domain.ErrPermission) },
			code:  CodePermission,
		},
		{
			name:  "rate limited",
			tool:  "list_recordings",
			setup: func(f *fixture) { f.recordings.err = domain.ErrRateLimited },
			code:  CodeRateLimited,
		},
		{
			name:  "conflict",
			tool:  "upload_onedrive_file",
			args:  map[string]any{"source_path": "/tmp/a.txt", "dest_path": "Docs"},
			setup: func(f *fixture) { f.files.err = fmt.Errorf("%w: Docs/a.txt", domain.ErrConflict) },
			code:  CodeInvalidParams,
		},
		{
			name:  "other",
			tool:  "delete_calendar_event",
			args:  map[string]any{"event_id": "ev1"},
			setup: func(f *fixture) { f.calendar.err = fmt.Errorf("graph returned 500") },
			code:  CodeServer,
		},
		{
			name: "no transcript",
			tool: "get_recording_transcript",
			args: map[string]any{"recording_id": "r1"},
			code: CodeNotFound,
		},
		{
			name: "bad duration",
			tool: "create_calendar_event",
			args: map[string]any{"title": "Sync", "start_time": "tomorrow 14:00", "duration": "forever"},
			code: CodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			// When
			out, isErr := f.call(t, tt.tool, tt.args)

			// Then
			assert.True(t, isErr)
			code, message, suggestion := errorOf(t, out)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, message)
			if tt.suggestion != "" {
				assert.Contains(t, suggestion, tt.suggestion)
			}
		})
	}
}

func TestSendEmail_HTMLDefault(t *testing.T) {
	tests := []struct {
		name   string
		isHTML any
		want   bool
	}{
		{"default", nil, true},
		{"explicit html", true, true},
		{"plain text", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			f := newFixture(t)
			args := map[string]any{"to": []string{"bob@contoso.com"}, "subject": "Hi", "body": "<p>Hi</p>"}
			if tt.isHTML != nil {
				args["is_html"] = tt.isHTML
			}

			// When
			out, isErr := f.call(t, "send_email", args)

			// Then
			require.False(t, isErr, out)
			require.Len(t, f.mail.sent, 1)
			assert.Equal(t, tt.want, f.mail.sent[0].IsHTML)
			assert.True(t, f.mail.sent[0].SaveToSentItems)
			assert.Contains(t, out["message"], "bob@contoso.com")
		})
	}
}

func TestEventRange(t *testing.T) {
	today := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		in        listEventsInput
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "default week ahead",
			wantStart: today,
			wantEnd:   today.AddDate(0, 0, 7),
		},
		{
			name:      "days ahead",
			in:        listEventsInput{DaysAhead: 3},
			wantStart: today,
			wantEnd:   today.AddDate(0, 0, 3),
		},
		{
			name:      "today to today covers the day",
			in:        listEventsInput{StartDate: "today", EndDate: "today"},
			wantStart: today,
			wantEnd:   today.AddDate(0, 0, 1),
		},
		{
			name:      "absolute end date is inclusive",
			in:        listEventsInput{StartDate: "2025-01-16", EndDate: "2025-01-20"},
			wantStart: today.AddDate(0, 0, 1),
			wantEnd:   today.AddDate(0, 0, 6),
		},
		{
			name:      "relative end is in the future",
			in:        listEventsInput{EndDate: "2 days"},
			wantStart: today,
			wantEnd:   fixedNow.Add(48 * time.Hour),
		},
		{
			name:    "end before start",
			in:      listEventsInput{StartDate: "tomorrow", EndDate: "yesterday"},
			wantErr: true,
		},
		{
			name:    "bad start",
			in:      listEventsInput{StartDate: "someday"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := eventRange(tt.in, fixedNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestCreateCalendarEvent(t *testing.T) {
	// Given
	f := newFixture(t)

	// When
	out, isErr := f.call(t, "create_calendar_event", map[string]any{
		"title":              "Design review",
		"start_time":         "tomorrow 14:00",
		"required_attendees": []string{"ann@contoso.com"},
	})

	// Then
	require.False(t, isErr, out)
	require.Len(t, f.calendar.created, 1)
	ev := f.calendar.created[0]
	assert.Equal(t, "Design review", ev.Subject)
	assert.Equal(t, time.Date(2025, 1, 16, 14, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Hour, ev.Duration)
	assert.True(t, ev.OnlineMeeting)
	assert.Equal(t, []string{"ann@contoso.com"}, ev.Required)
	assert.Equal(t, "ev-new", out["event"].(map[string]any)["id"])
}

func TestFileTools(t *testing.T) {
	// Given
	f := newFixture(t)
	f.files.items = []domain.DriveItem{{ID: "i1", Name: "report.pdf", Type: domain.ItemFile}}

	// When
	listed, _ := f.call(t, "list_onedrive_files", nil)
	found, _ := f.call(t, "search_onedrive", map[string]any{"query": "report", "file_type": "pdf"})
	downloaded, _ := f.call(t, "download_onedrive_file", map[string]any{"item_id": "i1", "dest_path": "/tmp/out"})

	// Then
	assert.EqualValues(t, 1, listed["count"])
	assert.Equal(t, "/", f.files.lastQuery.Path)
	assert.False(t, f.files.lastQuery.Recursive)

	assert.EqualValues(t, 1, found["count"])
	assert.Equal(t, "pdf", f.files.lastSearch.Type)
	assert.Equal(t, defaultCount, f.files.lastSearch.Count)

	assert.Equal(t, "i1", f.files.lastDownload.ItemID)
	assert.Equal(t, "/tmp/out", downloaded["file"].(map[string]any)["path"])
}

func TestChatTools(t *testing.T) {
	// Given
	f := newFixture(t)
	f.chat.chats = []domain.Chat{{ID: "c1", DisplayName: "Ann Lee"}}
	f.chat.messages = []domain.ChatMessage{{ID: "m1", Content: "ship it"}}

	// When
	chats, _ := f.call(t, "list_teams_chats", nil)
	msgs, _ := f.call(t, "read_chat_messages", map[string]any{"chat_id": "c1", "since": "1 day ago"})
	results, _ := f.call(t, "search_teams_messages", map[string]any{"query": "ship", "count": 5})
	sent, isErr := f.call(t, "send_chat_message", map[string]any{"chat_id": "c1", "content": "done"})

	// Then
	assert.EqualValues(t, 1, chats["count"])
	assert.Len(t, chats["chats"], 1)
	assert.EqualValues(t, 1, msgs["count"])
	assert.Equal(t, defaultCount, f.chat.lastCount)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), f.chat.lastSince)
	assert.Len(t, results["results"], 1)
	assert.Equal(t, 5, f.chat.lastQuery.Count)
	assert.False(t, isErr)
	assert.Equal(t, "done", sent["message"].(map[string]any)["content"])
}

func TestContactTools(t *testing.T) {
	// Given
	f := newFixture(t)

	// When
	searched, _ := f.call(t, "search_contacts", map[string]any{"query": "ann"})
	listed, _ := f.call(t, "list_contacts", nil)

	// Then
	assert.Len(t, searched["users"], 1)
	assert.EqualValues(t, 1, listed["count"])
	assert.Len(t, listed["contacts"], 1)
}

func TestRecordingTools(t *testing.T) {
	// Given
	f := newFixture(t)
	f.recordings.recordings = []domain.Recording{{
		DriveItem:   domain.DriveItem{ID: "r1", Name: "Weekly Sync.mp4"},
		MeetingName: "Weekly Sync",
	}}
	f.recordings.transcript = &domain.Transcript{
		RecordingID: "r1",
		Name:        "Weekly Sync.vtt",
		Raw:         "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n<v Ann>Hello\n",
		Entries:     []domain.TranscriptEntry{{Start: "00:00:01.000", End: "00:00:02.000", Speaker: "Ann", Text: "Hello"}},
	}

	// When
	listed, _ := f.call(t, "list_recordings", map[string]any{"since": "1 week ago"})
	searched, _ := f.call(t, "search_recordings", map[string]any{"query": "sync", "count": 3})
	transcript, isErr := f.call(t, "get_recording_transcript", map[string]any{"recording_id": "r1"})
	_, missingDest := f.call(t, "download_recording", map[string]any{"recording_id": "r1", "dest_path": " "})

	// Then
	assert.EqualValues(t, 1, listed["count"])
	assert.EqualValues(t, 1, searched["count"])
	assert.Equal(t, "sync", f.recordings.lastQuery.Query)
	assert.Equal(t, 3, f.recordings.lastQuery.Count)

	require.False(t, isErr)
	assert.EqualValues(t, 1, transcript["count"])
	assert.Equal(t, "[00:00:01.000] Ann: Hello\n", transcript["text"])
	assert.Contains(t, transcript["vtt"], "WEBVTT")

	assert.True(t, missingDest)
}

func TestResources(t *testing.T) {
	// Given
	f := newFixture(t)
	f.mail.messages = []domain.Message{{ID: "m1", Subject: "Unread one"}}
	f.calendar.events = []domain.Event{{ID: "e1", Subject: "Standup"}}
	ctx := context.Background()

	// When
	cfgRes, err := f.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: ConfigURI})
	require.NoError(t, err)
	mailRes, err := f.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: UnreadMailURI})
	require.NoError(t, err)
	calRes, err := f.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: TodayCalendarURI})
	require.NoError(t, err)

	// Then
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(cfgRes.Contents[0].Text), &cfg))
	assert.Equal(t, "app-123", cfg["client_id"])
	assert.Equal(t, "not set", cfg["tenant"])
	assert.Equal(t, true, cfg["authenticated"])
	assert.Equal(t, "ann@contoso.com", cfg["account"])

	assert.Contains(t, mailRes.Contents[0].Text, "Unread one")
	require.NotNil(t, f.mail.lastQuery.Unread)
	assert.True(t, *f.mail.lastQuery.Unread)

	assert.Contains(t, calRes.Contents[0].Text, "Standup")
	assert.Contains(t, calRes.Contents[0].Text, `"date": "2025-01-15"`)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), f.calendar.lastQuery.Start)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), f.calendar.lastQuery.End)
}

func TestPrompts(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]string
		contains string
	}{
		{"check_unread_emails", nil, "read_emails tool with unread=true"},
		{"todays_schedule", nil, `start_date="today"`},
		{"search_recent_chats", map[string]string{"query": "quarterly budget"}, "quarterly budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			f := newFixture(t)

			// When
			res, err := f.session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: tt.name, Arguments: tt.args})

			// Then
			require.NoError(t, err)
			require.Len(t, res.Messages, 1)
			text, ok := res.Messages[0].Content.(*mcp.TextContent)
			require.True(t, ok)
			assert.Contains(t, text.Text, tt.contains)
		})
	}
}
