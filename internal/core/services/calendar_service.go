package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
	"github.com/custodia-labs/o365-cli/internal/timeexpr"
)

// Ensure CalendarService implements the interface.
var _ driving.CalendarService = (*CalendarService)(nil)

// DefaultDaysAhead is the window listed when no end is given.
const DefaultDaysAhead = 7

// DefaultEventDuration is used when a new event has no duration.
const DefaultEventDuration = time.Hour

// CalendarService lists and edits events in the user's calendar and in
// calendars shared with them.
type CalendarService struct {
	calendar driven.CalendarGateway
	people   driving.ContactService
	now      func() time.Time
	newID    func() string
}

// NewCalendarService creates a calendar service. people resolves --user
// arguments and may be nil when only email addresses are used.
func NewCalendarService(calendar driven.CalendarGateway, people driving.ContactService) *CalendarService {
	return &CalendarService{
		calendar: calendar,
		people:   people,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ListEvents lists event occurrences between q.Start and q.End. A zero
// start means today; a zero end means DefaultDaysAhead days after start.
func (s *CalendarService) ListEvents(ctx context.Context, q domain.EventQuery) ([]domain.Event, error) {
	start := q.Start
	if start.IsZero() {
		start = timeexpr.StartOfDay(s.now())
	}
	end := q.End
	if end.IsZero() {
		end = start.AddDate(0, 0, DefaultDaysAhead)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s",
			domain.ErrInvalidInput, end.Format(time.DateTime), start.Format(time.DateTime))
	}

	calendarID := ""
	if q.User != "" {
		id, err := s.sharedCalendar(ctx, q.User)
		if err != nil {
			return nil, err
		}
		calendarID = id
	}
	return s.calendar.CalendarView(ctx, calendarID, start, end)
}

// sharedCalendar finds the calendar owned by user among /me/calendars.
func (s *CalendarService) sharedCalendar(ctx context.Context, user string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(user))
	if !looksLikeEmail(email) {
		if s.people == nil {
			return "", fmt.Errorf("%w: %q is not an email address", domain.ErrInvalidInput, user)
		}
		p, err := s.people.Resolve(ctx, user)
		if err != nil {
			return "", err
		}
		email = p.Email
	}

	cals, err := s.calendar.ListCalendars(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cals {
		if strings.EqualFold(c.Owner.Address, email) {
			logger.Debug("calendar: using calendar %q of %s", c.Name, email)
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no shared calendar from %s; ask them to share it with you", domain.ErrNotFound, email)
}

// ListCalendars lists calendars visible to the user.
func (s *CalendarService) ListCalendars(ctx context.Context) ([]domain.Calendar, error) {
	return s.calendar.ListCalendars(ctx)
}

// CreateEvent creates an event in the default calendar. A transaction ID
// is generated when missing so a retried request cannot create a duplicate.
func (s *CalendarService) CreateEvent(ctx context.Context, ev domain.NewEvent) (*domain.Event, error) {
	if strings.TrimSpace(ev.Subject) == "" {
		return nil, fmt.Errorf("%w: event title is required", domain.ErrInvalidInput)
	}
	if ev.Start.IsZero() {
		return nil, fmt.Errorf("%w: event start is required", domain.ErrInvalidInput)
	}
	if ev.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInput)
	}
	if ev.Duration == 0 {
		ev.Duration = DefaultEventDuration
	}
	if ev.TransactionID == "" {
		ev.TransactionID = s.newID()
	}
	return s.calendar.CreateEvent(ctx, ev)
}

// DeleteEvent deletes an event.
func (s *CalendarService) DeleteEvent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: event ID is required", domain.ErrInvalidInput)
	}
	return s.calendar.DeleteEvent(ctx, id)
}
