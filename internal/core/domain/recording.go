package domain

import (
	"strings"
	"time"
)

// Recording is a Teams meeting recording stored in OneDrive.
type Recording struct {
	DriveItem
	MeetingName   string    `json:"meeting_name"`
	RecordedAt    time.Time `json:"recorded_datetime"`
	Organizer     string    `json:"organizer,omitempty"`
	HasTranscript bool      `json:"has_transcript"`
	TranscriptID  string    `json:"transcript_id,omitempty"`
}

// RecordingQuery filters a recording listing.
type RecordingQuery struct {
	Query     string
	Since     time.Time
	Before    time.Time
	Count     int
	Organizer string
}

// TranscriptEntry is one cue of a meeting transcript.
type TranscriptEntry struct {
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// Transcript is a parsed meeting transcript.
type Transcript struct {
	RecordingID string            `json:"recording_id"`
	Name        string            `json:"name"`
	Raw         string            `json:"-"`
	Entries     []TranscriptEntry `json:"entries"`
}

// Text renders the transcript as plain text, one cue per line.
func (t *Transcript) Text(timestamps, speakers bool) string {
	var b strings.Builder
	for _, e := range t.Entries {
		if timestamps {
			b.WriteString("[" + e.Start + "] ")
		}
		if speakers && e.Speaker != "" {
			b.WriteString(e.Speaker + ": ")
		}
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
