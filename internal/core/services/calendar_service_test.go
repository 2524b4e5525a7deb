package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

func newTestCalendarService(cal *mockCalendar) *CalendarService {
	people := NewContactService(&mockContacts{people: []domain.Person{
		{Name: "Bob Ray", Email: "bob@contoso.com"},
	}}, cal)
	s := NewCalendarService(cal, people)
	s.now = func() time.Time { return time.Date(2024, 6, 5, 15, 30, 0, 0, time.Local) }
	s.newID = func() string { return "txn-1" }
	return s
}

func TestCalendarService_ListEvents_DefaultWindow(t *testing.T) {
	cal := &mockCalendar{}
	s := newTestCalendarService(cal)

	_, err := s.ListEvents(context.Background(), domain.EventQuery{})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local), cal.viewStart)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local), cal.viewEnd)
	assert.Empty(t, cal.viewCalID)
}

func TestCalendarService_ListEvents_InvalidRange(t *testing.T) {
	s := newTestCalendarService(&mockCalendar{})
	start := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	_, err := s.ListEvents(context.Background(), domain.EventQuery{Start: start, End: start.Add(-time.Hour)})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCalendarService_ListEvents_SharedCalendar(t *testing.T) {
	cal := &mockCalendar{calendars: []domain.Calendar{
		{ID: "mine", Owner: domain.Recipient{Address: "me@contoso.com"}},
		{ID: "bobs", Owner: domain.Recipient{Name: "Bob Ray", Address: "Bob@Contoso.com"}},
	}}
	s := newTestCalendarService(cal)

	tests := []struct {
		user string
	}{
		{user: "bob"},
		{user: "bob@contoso.com"},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			cal.viewCalID = ""
			_, err := s.ListEvents(context.Background(), domain.EventQuery{User: tt.user})
			require.NoError(t, err)
			assert.Equal(t, "bobs", cal.viewCalID)
		})
	}

	_, err := s.ListEvents(context.Background(), domain.EventQuery{User: "carol@contoso.com"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCalendarService_CreateEvent(t *testing.T) {
	cal := &mockCalendar{}
	s := newTestCalendarService(cal)
	start := time.Date(2024, 6, 6, 14, 0, 0, 0, time.UTC)

	ev, err := s.CreateEvent(context.Background(), domain.NewEvent{Subject: "Review", Start: start})

	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), ev.End)
	require.Len(t, cal.created, 1)
	assert.Equal(t, "txn-1", cal.created[0].TransactionID)
	assert.Equal(t, DefaultEventDuration, cal.created[0].Duration)
}

func TestCalendarService_CreateEvent_Validation(t *testing.T) {
	s := newTestCalendarService(&mockCalendar{})
	start := time.Date(2024, 6, 6, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ev   domain.NewEvent
	}{
		{name: "no title", ev: domain.NewEvent{Start: start}},
		{name: "no start", ev: domain.NewEvent{Subject: "x"}},
		{name: "negative duration", ev: domain.NewEvent{Subject: "x", Start: start, Duration: -time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEvent(context.Background(), tt.ev)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestCalendarService_DeleteEvent(t *testing.T) {
	cal := &mockCalendar{}
	s := newTestCalendarService(cal)

	require.NoError(t, s.DeleteEvent(context.Background(), "ev1"))
	assert.Equal(t, []string{"ev1"}, cal.deleted)
	assert.True(t, errors.Is(s.DeleteEvent(context.Background(), ""), domain.ErrInvalidInput))
}
