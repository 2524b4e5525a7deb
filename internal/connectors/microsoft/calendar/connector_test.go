package calendar

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
	"github.com/custodia-labs/o365-cli/internal/core/domain"
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

func TestConnector_CalendarView(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var base string
	calls := 0
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			assert.Equal(t, "/me/calendarView", r.URL.Path)
			assert.Equal(t, "2024-03-04T00:00:00Z", r.URL.Query().Get("startDateTime"))
			assert.Equal(t, "2024-03-05T00:00:00Z", r.URL.Query().Get("endDateTime"))
			assert.Equal(t, "start/dateTime", r.URL.Query().Get("$orderby"))
			writeJSON(t, w, map[string]any{
				"value": []map[string]any{{
					"id":        "ev1",
					"subject":   "Standup",
					"start":     map[string]any{"dateTime": "2024-03-04T09:00:00.0000000", "timeZone": "UTC"},
					"end":       map[string]any{"dateTime": "2024-03-04T09:15:00.0000000", "timeZone": "UTC"},
					"location":  map[string]any{"displayName": "Room 1"},
					"organizer": map[string]any{"emailAddress": map[string]any{"name": "Ann", "address": "ann@example.com"}},
					"attendees": []any{map[string]any{
						"type":         "required",
						"status":       map[string]any{"response": "accepted"},
						"emailAddress": map[string]any{"name": "Bob", "address": "bob@example.com"},
					}},
					"isOnlineMeeting": true,
					"onlineMeeting":   map[string]any{"joinUrl": "https://teams.example/join"},
				}},
				"@odata.nextLink": base + "/me/calendarView?page=2",
			})
			return
		}
		writeJSON(t, w, map[string]any{"value": []map[string]any{{
			"id":    "ev2",
			"start": map[string]any{"dateTime": "2024-03-04T13:00:00", "timeZone": "UTC"},
			"end":   map[string]any{"dateTime": "2024-03-04T14:00:00", "timeZone": "UTC"},
		}}})
	})
	base = conn.client.BaseURL()

	events, err := conn.CalendarView(context.Background(), "", start, end)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].Subject)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, 15*time.Minute, events[0].Duration())
	assert.Equal(t, "Room 1", events[0].Location)
	assert.Equal(t, "ann@example.com", events[0].Organizer.Address)
	assert.Equal(t, "https://teams.example/join", events[0].OnlineMeetingURL)
	require.Len(t, events[0].Attendees, 1)
	assert.Equal(t, "accepted", events[0].Attendees[0].Response)
	assert.Equal(t, "(No subject)", events[1].Subject)
}

func TestConnector_CalendarView_SharedCalendar(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/calendars/cal-42/calendarView", r.URL.Path)
		writeJSON(t, w, map[string]any{"value": []any{}})
	})

	events, err := conn.CalendarView(context.Background(), "cal-42", time.Now(), time.Now().Add(time.Hour))

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConnector_CreateEvent(t *testing.T) {
	var got createEventRequest
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{
			"id":      "new-ev",
			"subject": got.Subject,
			"start":   got.Start,
			"end":     got.End,
		})
	})

	start := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	ev, err := conn.CreateEvent(context.Background(), domain.NewEvent{
		Subject:       "Planning",
		Start:         start,
		Duration:      90 * time.Minute,
		Required:      []string{"bob@example.com"},
		Optional:      []string{"carol@example.com"},
		Description:   "Agenda",
		Location:      "Room 2",
		OnlineMeeting: true,
		TransactionID: "tx-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-ev", ev.ID)
	assert.Equal(t, start.Add(90*time.Minute), ev.End)
	assert.Equal(t, "2024-03-05T14:00:00", got.Start.DateTime)
	assert.Equal(t, "2024-03-05T15:30:00", got.End.DateTime)
	assert.Equal(t, "teamsForBusiness", got.OnlineMeetingProvider)
	assert.Equal(t, "tx-1", got.TransactionID)
	require.Len(t, got.Attendees, 2)
	assert.Equal(t, domain.AttendeeRequired, got.Attendees[0].Type)
	assert.Equal(t, domain.AttendeeOptional, got.Attendees[1].Type)
	assert.Equal(t, "Agenda", got.Body.Content)
}

func TestConnector_DeleteEvent(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/me/events/ev1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, conn.DeleteEvent(context.Background(), "ev1"))
}

func TestConnector_DeleteEvent_NotFound(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := conn.DeleteEvent(context.Background(), "gone")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConnector_ListCalendars(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"value": []map[string]any{
			{"id": "c1", "name": "Calendar", "owner": map[string]any{"name": "Me", "address": "me@example.com"}, "canEdit": true},
			{"id": "c2", "name": "Quinn", "owner": map[string]any{"name": "Quinn", "address": "quinn@example.com"}},
		}})
	})

	cals, err := conn.ListCalendars(context.Background())

	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.Equal(t, "quinn@example.com", cals[1].Owner.Address)
	assert.True(t, cals[0].CanEdit)
}
