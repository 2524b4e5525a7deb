package domain

import "time"

// Attendee types.
const (
	AttendeeRequired = "required"
	AttendeeOptional = "optional"
	AttendeeResource = "resource"
)

// Attendee is an event participant.
type Attendee struct {
	Name     string `json:"name,omitempty"`
	Address  string `json:"email"`
	Type     string `json:"type"`
	Response string `json:"response,omitempty"`
}

// Event is a calendar event snapshot.
type Event struct {
	ID               string     `json:"id"`
	Subject          string     `json:"subject"`
	Start            time.Time  `json:"start"`
	End              time.Time  `json:"end"`
	IsAllDay         bool       `json:"is_all_day"`
	Location         string     `json:"location,omitempty"`
	Organizer        Recipient  `json:"organizer"`
	Attendees        []Attendee `json:"attendees,omitempty"`
	BodyPreview      string     `json:"body_preview,omitempty"`
	IsOnlineMeeting  bool       `json:"is_online_meeting"`
	OnlineMeetingURL string     `json:"online_meeting_url,omitempty"`
	WebLink          string     `json:"web_link,omitempty"`
	ShowAs           string     `json:"show_as,omitempty"`
	IsCancelled      bool       `json:"is_cancelled,omitempty"`
	CalendarID       string     `json:"calendar_id,omitempty"`
}

// Duration returns the event length.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Calendar is a calendar visible to the signed-in user.
type Calendar struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Owner   Recipient `json:"owner"`
	CanEdit bool      `json:"can_edit"`
}

// NewEvent describes an event to create.
type NewEvent struct {
	Subject       string
	Start         time.Time
	Duration      time.Duration
	Required      []string
	Optional      []string
	Description   string
	Location      string
	OnlineMeeting bool
	TransactionID string
}

// EventQuery selects a calendar window.
type EventQuery struct {
	Start time.Time
	End   time.Time
	// User selects another user's shared calendar by name or email.
	User string
}
