package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/logger"
	"github.com/custodia-labs/o365-cli/internal/timeexpr"
)

// Tool defaults.
const (
	defaultEmailLimit = 10
	defaultDaysAhead  = 7
	defaultDuration   = "1h"
	defaultCount      = 50
)

// now is replaced in tests.
var now = time.Now

// addTool registers a typed handler. A returned error becomes an error
// result rather than a protocol error.
func addTool[In any](s *Server, name, description string, h func(context.Context, In) (*mcp.CallToolResult, error)) {
	mcp.AddTool(s.server, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			start := time.Now()
			res, err := h(ctx, in)
			if err != nil {
				logger.Warn("mcp: %s failed: %v", name, err)
				return failure(err), nil, nil
			}
			logger.Debug("mcp: %s done in %s", name, time.Since(start).Round(time.Millisecond))
			return res, nil, nil
		})
}

func (s *Server) registerTools() {
	addTool(s, "read_emails", "Read emails from a mailbox folder, newest first.", s.readEmails)
	addTool(s, "get_email_content", "Get the full content of an email by ID, including body and attachments.", s.getEmailContent)
	addTool(s, "send_email", "Send an email.", s.sendEmail)

	addTool(s, "list_calendar_events", "List calendar events in a date range.", s.listCalendarEvents)
	addTool(s, "create_calendar_event", "Create a calendar event, by default as a Teams meeting.", s.createCalendarEvent)
	addTool(s, "delete_calendar_event", "Delete a calendar event by ID.", s.deleteCalendarEvent)

	addTool(s, "list_onedrive_files", "List files and folders in OneDrive or SharePoint.", s.listOneDriveFiles)
	addTool(s, "search_onedrive", "Search OneDrive and SharePoint files by name or content.", s.searchOneDrive)
	addTool(s, "download_onedrive_file", "Download a OneDrive or SharePoint file to a local path.", s.downloadOneDriveFile)
	addTool(s, "upload_onedrive_file", "Upload a local file into a OneDrive or SharePoint folder.", s.uploadOneDriveFile)

	addTool(s, "list_teams_chats", "List recent Teams chats.", s.listTeamsChats)
	addTool(s, "read_chat_messages", "Read messages from a Teams chat, oldest first.", s.readChatMessages)
	addTool(s, "send_chat_message", "Send a plain text message to a Teams chat.", s.sendChatMessage)
	addTool(s, "search_teams_messages", "Search messages in recent Teams chats.", s.searchTeamsMessages)

	addTool(s, "search_contacts", "Search contacts and shared calendar owners by name or email.", s.searchContacts)
	addTool(s, "list_contacts", "List contacts and shared calendar owners.", s.listContacts)

	addTool(s, "list_recordings", "List Teams meeting recordings, newest first.", s.listRecordings)
	addTool(s, "search_recordings", "Search Teams meeting recordings by meeting name or keywords.", s.searchRecordings)
	addTool(s, "download_recording", "Download a Teams meeting recording.", s.downloadRecording)
	addTool(s, "get_recording_transcript", "Get the transcript of a Teams meeting recording.", s.getRecordingTranscript)
}

// parseSince parses an optional past time expression.
func parseSince(name, expr string) (time.Time, error) {
	if strings.TrimSpace(expr) == "" {
		return time.Time{}, nil
	}
	t, err := timeexpr.Parse(expr, now())
	if err != nil {
		return time.Time{}, invalidParam(name, err)
	}
	return t, nil
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// Mail.

type readEmailsInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"mail folder name (default Inbox)"`
	Unread bool   `json:"unread,omitempty" jsonschema:"only unread emails"`
	Since  string `json:"since,omitempty" jsonschema:"only emails since this time, e.g. 2 days ago or 2025-01-15"`
	Search string `json:"search,omitempty" jsonschema:"search query to filter emails"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of emails (default 10)"`
}

func (s *Server) readEmails(ctx context.Context, in readEmailsInput) (*mcp.CallToolResult, error) {
	since, err := parseSince("since", in.Since)
	if err != nil {
		return nil, err
	}
	q := domain.MessageQuery{
		Folder: in.Folder,
		Since:  since,
		Search: in.Search,
		Limit:  orDefault(in.Limit, defaultEmailLimit),
	}
	if q.Folder == "" {
		q.Folder = "Inbox"
	}
	if in.Unread {
		unread := true
		q.Unread = &unread
	}
	msgs, err := s.svc.Mail.ListMessages(ctx, q)
	if err != nil {
		return nil, err
	}
	return list("messages", msgs), nil
}

type getEmailInput struct {
	MessageID string `json:"message_id" jsonschema:"email message ID"`
}

func (s *Server) getEmailContent(ctx context.Context, in getEmailInput) (*mcp.CallToolResult, error) {
	msg, err := s.svc.Mail.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	return object("message", msg), nil
}

type sendEmailInput struct {
	To      []string `json:"to" jsonschema:"recipient email addresses"`
	Subject string   `json:"subject" jsonschema:"email subject"`
	Body    string   `json:"body" jsonschema:"email body"`
	Cc      []string `json:"cc,omitempty" jsonschema:"Cc email addresses"`
	Bcc     []string `json:"bcc,omitempty" jsonschema:"Bcc email addresses"`
	IsHTML  *bool    `json:"is_html,omitempty" jsonschema:"whether the body is HTML (default true)"`
}

func (s *Server) sendEmail(ctx context.Context, in sendEmailInput) (*mcp.CallToolResult, error) {
	mail := domain.OutgoingMail{
		To:              in.To,
		Cc:              in.Cc,
		Bcc:             in.Bcc,
		Subject:         in.Subject,
		Body:            in.Body,
		IsHTML:          in.IsHTML == nil || *in.IsHTML,
		SaveToSentItems: true,
	}
	if err := s.svc.Mail.Send(ctx, mail); err != nil {
		return nil, err
	}
	return object("message", fmt.Sprintf("Email sent to %s", strings.Join(in.To, ", "))), nil
}

// Calendar.

type listEventsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"start, e.g. today, tomorrow or 2025-01-15 (default today)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"end, e.g. 2025-01-20 or 7 days; a bare date includes that whole day"`
	DaysAhead int    `json:"days_ahead,omitempty" jsonschema:"days after the start when end_date is not given (default 7)"`
}

func (s *Server) listCalendarEvents(ctx context.Context, in listEventsInput) (*mcp.CallToolResult, error) {
	start, end, err := eventRange(in, now())
	if err != nil {
		return nil, err
	}
	events, err := s.svc.Calendar.ListEvents(ctx, domain.EventQuery{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return list("events", events), nil
}

// eventRange resolves the list_calendar_events window. An end that falls
// on midnight covers the whole day it names.
func eventRange(in listEventsInput, ref time.Time) (time.Time, time.Time, error) {
	start := timeexpr.StartOfDay(ref)
	if strings.TrimSpace(in.StartDate) != "" {
		t, err := timeexpr.Parse(in.StartDate, ref)
		if err != nil {
			return time.Time{}, time.Time{}, invalidParam("start_date", err)
		}
		start = t
	}

	end := start.AddDate(0, 0, orDefault(in.DaysAhead, defaultDaysAhead))
	if strings.TrimSpace(in.EndDate) != "" {
		t, err := timeexpr.ParseFuture(in.EndDate, ref)
		if err != nil {
			return time.Time{}, time.Time{}, invalidParam("end_date", err)
		}
		if t.Equal(timeexpr.StartOfDay(t)) {
			t = t.AddDate(0, 0, 1)
		}
		end = t
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidInput)
	}
	return start, end, nil
}

type createEventInput struct {
	Title             string   `json:"title" jsonschema:"event title"`
	StartTime         string   `json:"start_time" jsonschema:"start, e.g. tomorrow 14:00 or 2025-01-15 14:00"`
	Duration          string   `json:"duration,omitempty" jsonschema:"duration, e.g. 30m, 1h or 1h30m (default 1h)"`
	RequiredAttendees []string `json:"required_attendees,omitempty" jsonschema:"required attendee emails or names"`
	OptionalAttendees []string `json:"optional_attendees,omitempty" jsonschema:"optional attendee emails or names"`
	Description       string   `json:"description,omitempty" jsonschema:"event description"`
	Location          string   `json:"location,omitempty" jsonschema:"event location"`
	OnlineMeeting     *bool    `json:"online_meeting,omitempty" jsonschema:"create a Teams meeting (default true)"`
}

func (s *Server) createCalendarEvent(ctx context.Context, in createEventInput) (*mcp.CallToolResult, error) {
	start, err := timeexpr.ParseFuture(in.StartTime, now())
	if err != nil {
		return nil, invalidParam("start_time", err)
	}
	durExpr := in.Duration
	if strings.TrimSpace(durExpr) == "" {
		durExpr = defaultDuration
	}
	dur, err := timeexpr.ParseDuration(durExpr)
	if err != nil {
		return nil, invalidParam("duration", err)
	}

	ev, err := s.svc.Calendar.CreateEvent(ctx, domain.NewEvent{
		Subject:       in.Title,
		Start:         start,
		Duration:      dur,
		Required:      in.RequiredAttendees,
		Optional:      in.OptionalAttendees,
		Description:   in.Description,
		Location:      in.Location,
		OnlineMeeting: in.OnlineMeeting == nil || *in.OnlineMeeting,
	})
	if err != nil {
		return nil, err
	}
	return object("event", ev), nil
}

type deleteEventInput struct {
	EventID string `json:"event_id" jsonschema:"calendar event ID"`
}

func (s *Server) deleteCalendarEvent(ctx context.Context, in deleteEventInput) (*mcp.CallToolResult, error) {
	if err := s.svc.Calendar.DeleteEvent(ctx, in.EventID); err != nil {
		return nil, err
	}
	return object("event_id", in.EventID), nil
}

// Files.

type listFilesInput struct {
	Path      string `json:"path,omitempty" jsonschema:"folder path (default /)"`
	DriveID   string `json:"drive_id,omitempty" jsonschema:"drive ID (default your OneDrive)"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"list subfolders recursively"`
}

func (s *Server) listOneDriveFiles(ctx context.Context, in listFilesInput) (*mcp.CallToolResult, error) {
	p := in.Path
	if p == "" {
		p = "/"
	}
	items, err := s.svc.Files.List(ctx, domain.FileQuery{Path: p, DriveID: in.DriveID, Recursive: in.Recursive})
	if err != nil {
		return nil, err
	}
	return list("files", items), nil
}

type searchFilesInput struct {
	Query    string `json:"query" jsonschema:"file name or content to search for"`
	FileType string `json:"file_type,omitempty" jsonschema:"extension filter, e.g. pdf or xlsx"`
	Count    int    `json:"count,omitempty" jsonschema:"maximum number of results (default 50)"`
}

func (s *Server) searchOneDrive(ctx context.Context, in searchFilesInput) (*mcp.CallToolResult, error) {
	items, err := s.svc.Files.Search(ctx, domain.FileSearch{
		Query: in.Query,
		Type:  in.FileType,
		Count: orDefault(in.Count, defaultCount),
	})
	if err != nil {
		return nil, err
	}
	return list("files", items), nil
}

type downloadFileInput struct {
	ItemID   string `json:"item_id" jsonschema:"file item ID from list or search"`
	DestPath string `json:"dest_path" jsonschema:"local destination file or directory"`
	DriveID  string `json:"drive_id,omitempty" jsonschema:"drive ID (default your OneDrive)"`
}

func (s *Server) downloadOneDriveFile(ctx context.Context, in downloadFileInput) (*mcp.CallToolResult, error) {
	res, err := s.svc.Files.Download(ctx, domain.DownloadRequest{ItemID: in.ItemID, Dest: in.DestPath, DriveID: in.DriveID})
	if err != nil {
		return nil, err
	}
	return object("file", res), nil
}

type uploadFileInput struct {
	SourcePath string `json:"source_path" jsonschema:"local file to upload"`
	DestPath   string `json:"dest_path" jsonschema:"remote destination folder"`
	DriveID    string `json:"drive_id,omitempty" jsonschema:"drive ID (default your OneDrive)"`
	Overwrite  bool   `json:"overwrite,omitempty" jsonschema:"replace an existing remote file"`
}

func (s *Server) uploadOneDriveFile(ctx context.Context, in uploadFileInput) (*mcp.CallToolResult, error) {
	res, err := s.svc.Files.Upload(ctx, domain.UploadRequest{
		Source:    in.SourcePath,
		Dest:      in.DestPath,
		DriveID:   in.DriveID,
		Overwrite: in.Overwrite,
	})
	if err != nil {
		return nil, err
	}
	return object("file", res), nil
}

// Chat.

type listChatsInput struct {
	Count int `json:"count,omitempty" jsonschema:"maximum number of chats (default 50)"`
}

func (s *Server) listTeamsChats(ctx context.Context, in listChatsInput) (*mcp.CallToolResult, error) {
	chats, err := s.svc.Chat.ListChats(ctx, domain.ChatQuery{Count: orDefault(in.Count, defaultCount)})
	if err != nil {
		return nil, err
	}
	return list("chats", chats), nil
}

type readChatInput struct {
	ChatID string `json:"chat_id" jsonschema:"chat ID from list_teams_chats"`
	Count  int    `json:"count,omitempty" jsonschema:"maximum number of messages (default 50)"`
	Since  string `json:"since,omitempty" jsonschema:"only messages since this time, e.g. 1 day ago"`
}

func (s *Server) readChatMessages(ctx context.Context, in readChatInput) (*mcp.CallToolResult, error) {
	since, err := parseSince("since", in.Since)
	if err != nil {
		return nil, err
	}
	msgs, err := s.svc.Chat.ReadMessages(ctx, in.ChatID, orDefault(in.Count, defaultCount), since)
	if err != nil {
		return nil, err
	}
	return list("messages", msgs), nil
}

type sendChatInput struct {
	ChatID  string `json:"chat_id" jsonschema:"chat ID from list_teams_chats"`
	Content string `json:"content" jsonschema:"message text"`
}

func (s *Server) sendChatMessage(ctx context.Context, in sendChatInput) (*mcp.CallToolResult, error) {
	msg, err := s.svc.Chat.SendMessage(ctx, in.ChatID, in.Content)
	if err != nil {
		return nil, err
	}
	return object("message", msg), nil
}

type searchChatInput struct {
	Query string `json:"query" jsonschema:"text to search for"`
	Count int    `json:"count,omitempty" jsonschema:"maximum number of results (default 50)"`
	Since string `json:"since,omitempty" jsonschema:"only messages since this time, e.g. 1 week ago"`
}

func (s *Server) searchTeamsMessages(ctx context.Context, in searchChatInput) (*mcp.CallToolResult, error) {
	since, err := parseSince("since", in.Since)
	if err != nil {
		return nil, err
	}
	msgs, err := s.svc.Chat.SearchMessages(ctx, in.Query, domain.ChatQuery{Count: orDefault(in.Count, defaultCount), Since: since})
	if err != nil {
		return nil, err
	}
	return list("results", msgs), nil
}

// Contacts.

type searchContactsInput struct {
	Query string `json:"query" jsonschema:"name or email to search for"`
}

func (s *Server) searchContacts(ctx context.Context, in searchContactsInput) (*mcp.CallToolResult, error) {
	people, err := s.svc.Contacts.Search(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	return list("users", people), nil
}

func (s *Server) listContacts(ctx context.Context, _ struct{}) (*mcp.CallToolResult, error) {
	people, err := s.svc.Contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	return list("contacts", people), nil
}

// Recordings.

type listRecordingsInput struct {
	Since string `json:"since,omitempty" jsonschema:"only recordings since this time, e.g. 1 week ago"`
	Count int    `json:"count,omitempty" jsonschema:"maximum number of recordings (default 50)"`
}

func (s *Server) listRecordings(ctx context.Context, in listRecordingsInput) (*mcp.CallToolResult, error) {
	since, err := parseSince("since", in.Since)
	if err != nil {
		return nil, err
	}
	recs, err := s.svc.Recordings.List(ctx, domain.RecordingQuery{Since: since, Count: orDefault(in.Count, defaultCount)})
	if err != nil {
		return nil, err
	}
	return list("recordings", recs), nil
}

type searchRecordingsInput struct {
	Query string `json:"query" jsonschema:"meeting name or keywords"`
	Count int    `json:"count,omitempty" jsonschema:"maximum number of recordings (default 50)"`
}

func (s *Server) searchRecordings(ctx context.Context, in searchRecordingsInput) (*mcp.CallToolResult, error) {
	recs, err := s.svc.Recordings.Search(ctx, domain.RecordingQuery{Query: in.Query, Count: orDefault(in.Count, defaultCount)})
	if err != nil {
		return nil, err
	}
	return list("recordings", recs), nil
}

type downloadRecordingInput struct {
	RecordingID string `json:"recording_id" jsonschema:"recording ID from list or search"`
	DestPath    string `json:"dest_path" jsonschema:"local destination directory"`
	Filename    string `json:"filename,omitempty" jsonschema:"local file name (default the recording name)"`
}

func (s *Server) downloadRecording(ctx context.Context, in downloadRecordingInput) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(in.DestPath) == "" {
		return nil, fmt.Errorf("%w: dest_path is required", domain.ErrInvalidInput)
	}
	res, err := s.svc.Recordings.Download(ctx, in.RecordingID, in.DestPath, in.Filename)
	if err != nil {
		return nil, err
	}
	return object("file", res), nil
}

type transcriptInput struct {
	RecordingID string `json:"recording_id" jsonschema:"recording ID from list or search"`
}

func (s *Server) getRecordingTranscript(ctx context.Context, in transcriptInput) (*mcp.CallToolResult, error) {
	tr, err := s.svc.Recordings.Transcript(ctx, in.RecordingID)
	if err != nil {
		return nil, err
	}
	return textResult(map[string]any{
		"status":       "success",
		"recording_id": tr.RecordingID,
		"name":         tr.Name,
		"count":        len(tr.Entries),
		"entries":      tr.Entries,
		"text":         tr.Text(true, true),
		"vtt":          tr.Raw,
	}), nil
}
