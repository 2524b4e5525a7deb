package calendar

import (
	"time"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// Event represents an Outlook calendar event from the Graph API.
type Event struct {
	ID              string                      `json:"id"`
	Subject         string                      `json:"subject"`
	BodyPreview     string                      `json:"bodyPreview"`
	Start           *microsoft.DateTimeTimeZone `json:"start,omitempty"`
	End             *microsoft.DateTimeTimeZone `json:"end,omitempty"`
	Location        *Location                   `json:"location,omitempty"`
	Organiser       *microsoft.Recipient        `json:"organizer,omitempty"` //nolint:misspell // Microsoft API field name
	Attendees       []Attendee                  `json:"attendees,omitempty"`
	WebLink         string                      `json:"webLink"`
	IsCancelled     bool                        `json:"isCancelled"`
	IsAllDay        bool                        `json:"isAllDay"`
	ShowAs          string                      `json:"showAs"`
	IsOnlineMeeting bool                        `json:"isOnlineMeeting"`
	OnlineMeeting   *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting,omitempty"`
	CalendarID string `json:"-"`
}

// Location contains location information.
type Location struct {
	DisplayName string `json:"displayName"`
}

// Attendee represents an event attendee.
type Attendee struct {
	Type string `json:"type"`
	Status *struct {
		Response string `json:"response"`
	} `json:"status,omitempty"`
	EmailAddress microsoft.EmailAddress `json:"emailAddress"`
}

// Calendar is the Graph calendar resource.
type Calendar struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Owner   microsoft.EmailAddress `json:"owner"`
	CanEdit bool                   `json:"canEdit"`
}

// eventFields is the $select used for calendar views.
const eventFields = "id,subject,bodyPreview,start,end,location,organizer,attendees,webLink," +
	"isCancelled,isAllDay,showAs,isOnlineMeeting,onlineMeeting"

// ToDomain converts a Graph event.
func (e *Event) ToDomain() domain.Event {
	ev := domain.Event{
		ID:              e.ID,
		Subject:         e.Subject,
		IsAllDay:        e.IsAllDay,
		BodyPreview:     e.BodyPreview,
		IsOnlineMeeting: e.IsOnlineMeeting,
		WebLink:         e.WebLink,
		ShowAs:          e.ShowAs,
		IsCancelled:     e.IsCancelled,
		CalendarID:      e.CalendarID,
	}
	if e.Subject == "" {
		ev.Subject = "(No subject)"
	}
	ev.Start = parseEventTime(e.Start)
	ev.End = parseEventTime(e.End)
	if e.Location != nil {
		ev.Location = e.Location.DisplayName
	}
	if e.Organiser != nil {
		ev.Organizer = e.Organiser.ToDomain()
	}
	if e.OnlineMeeting != nil {
		ev.OnlineMeetingURL = e.OnlineMeeting.JoinURL
	}
	for _, a := range e.Attendees {
		att := domain.Attendee{
			Name:    a.EmailAddress.Name,
			Address: a.EmailAddress.Address,
			Type:    a.Type,
		}
		if a.Status != nil {
			att.Response = a.Status.Response
		}
		ev.Attendees = append(ev.Attendees, att)
	}
	return ev
}

func parseEventTime(dt *microsoft.DateTimeTimeZone) time.Time {
	if dt == nil {
		return time.Time{}
	}
	t, err := dt.Time()
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToDomain converts a Graph calendar.
func (c *Calendar) ToDomain() domain.Calendar {
	return domain.Calendar{
		ID:      c.ID,
		Name:    c.Name,
		Owner:   domain.Recipient{Name: c.Owner.Name, Address: c.Owner.Address},
		CanEdit: c.CanEdit,
	}
}

// createEventRequest is the body of POST /me/events.
type createEventRequest struct {
	Subject               string                     `json:"subject"`
	Start                 microsoft.DateTimeTimeZone `json:"start"`
	End                   microsoft.DateTimeTimeZone `json:"end"`
	Body                  *microsoft.ItemBody        `json:"body,omitempty"`
	Location              *Location                  `json:"location,omitempty"`
	Attendees             []newAttendee              `json:"attendees,omitempty"`
	IsOnlineMeeting       bool                       `json:"isOnlineMeeting"`
	OnlineMeetingProvider string                     `json:"onlineMeetingProvider,omitempty"`
	TransactionID         string                     `json:"transactionId,omitempty"`
}

type newAttendee struct {
	EmailAddress microsoft.EmailAddress `json:"emailAddress"`
	Type         string                 `json:"type"`
}

func newCreateEventRequest(ev domain.NewEvent) createEventRequest {
	req := createEventRequest{
		Subject:       ev.Subject,
		Start:         microsoft.NewDateTimeTimeZone(ev.Start),
		End:           microsoft.NewDateTimeTimeZone(ev.Start.Add(ev.Duration)),
		TransactionID: ev.TransactionID,
	}
	if ev.Description != "" {
		req.Body = &microsoft.ItemBody{ContentType: "text", Content: ev.Description}
	}
	if ev.Location != "" {
		req.Location = &Location{DisplayName: ev.Location}
	}
	for _, addr := range ev.Required {
		req.Attendees = append(req.Attendees, newAttendee{
			EmailAddress: microsoft.EmailAddress{Address: addr},
			Type:         domain.AttendeeRequired,
		})
	}
	for _, addr := range ev.Optional {
		req.Attendees = append(req.Attendees, newAttendee{
			EmailAddress: microsoft.EmailAddress{Address: addr},
			Type:         domain.AttendeeOptional,
		})
	}
	if ev.OnlineMeeting {
		req.IsOnlineMeeting = true
		req.OnlineMeetingProvider = "teamsForBusiness"
	}
	return req
}
