package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.CalendarGateway = (*Connector)(nil)

// Connector reads and edits Outlook calendars via Microsoft Graph.
type Connector struct {
	client *microsoft.Client
}

// New creates a new calendar connector.
func New(client *microsoft.Client) *Connector {
	return &Connector{client: client}
}

// CalendarView lists event occurrences overlapping [start, end), expanding
// recurring series. An empty calendarID reads the default calendar.
func (c *Connector) CalendarView(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	path := "/me/calendarView"
	if calendarID != "" {
		path = "/me/calendars/" + url.PathEscape(calendarID) + "/calendarView"
	}
	query := url.Values{
		"startDateTime": {microsoft.ODataTime(start)},
		"endDateTime":   {microsoft.ODataTime(end)},
		"$orderby":      {"start/dateTime"},
		"$select":       {eventFields},
		"$top":          {"100"},
	}

	raw, err := microsoft.ListAll[Event](ctx, c.client, microsoft.ServiceCalendar, path, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	for i := range raw {
		raw[i].CalendarID = calendarID
		events = append(events, raw[i].ToDomain())
	}
	logger.Debug("microsoft-calendar: %d events between %s and %s", len(events),
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	return events, nil
}

// ListCalendars lists calendars visible to the user, shared ones included.
func (c *Connector) ListCalendars(ctx context.Context) ([]domain.Calendar, error) {
	query := url.Values{"$select": {"id,name,owner,canEdit"}}

	raw, err := microsoft.ListAll[Calendar](ctx, c.client, microsoft.ServiceCalendar, "/me/calendars", query)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	out := make([]domain.Calendar, len(raw))
	for i := range raw {
		out[i] = raw[i].ToDomain()
	}
	return out, nil
}

// CreateEvent creates an event in the default calendar.
func (c *Connector) CreateEvent(ctx context.Context, ev domain.NewEvent) (*domain.Event, error) {
	var created Event
	if err := c.client.Post(ctx, microsoft.ServiceCalendar, "/me/events", newCreateEventRequest(ev), &created); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	out := created.ToDomain()
	return &out, nil
}

// DeleteEvent deletes an event by ID.
func (c *Connector) DeleteEvent(ctx context.Context, id string) error {
	if err := c.client.Delete(ctx, microsoft.ServiceCalendar, "/me/events/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
