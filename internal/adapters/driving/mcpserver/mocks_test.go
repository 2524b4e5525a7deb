package mcpserver

import (
	"context"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

type mockAuth struct {
	status *domain.AuthStatus
	err    error
}

func (m *mockAuth) Login(context.Context, func(domain.DeviceCode)) (*domain.AuthStatus, error) {
	return m.status, m.err
}

func (m *mockAuth) Refresh(context.Context) (*domain.AuthStatus, error) { return m.status, m.err }

func (m *mockAuth) Status(context.Context) (*domain.AuthStatus, error) { return m.status, m.err }

func (m *mockAuth) Logout() error { return nil }

type mockMail struct {
	messages  []domain.Message
	err       error
	lastQuery domain.MessageQuery
	sent      []domain.OutgoingMail
}

func (m *mockMail) ListMessages(_ context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	out := m.messages
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *mockMail) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return &m.messages[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMail) Send(_ context.Context, mail domain.OutgoingMail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *mockMail) ListFolders(context.Context) ([]domain.MailFolder, error) { return nil, nil }

func (m *mockMail) Archive(context.Context, []string, bool) ([]domain.MessageAction, error) {
	return nil, nil
}

func (m *mockMail) MarkRead(context.Context, []string, bool) ([]domain.MessageAction, error) {
	return nil, nil
}

type mockCalendar struct {
	events    []domain.Event
	lastQuery domain.EventQuery
	created   []domain.NewEvent
	deleted   []string
	err       error
}

func (m *mockCalendar) ListEvents(_ context.Context, q domain.EventQuery) ([]domain.Event, error) {
	m.lastQuery = q
	return m.events, m.err
}

func (m *mockCalendar) ListCalendars(context.Context) ([]domain.Calendar, error) { return nil, nil }

func (m *mockCalendar) CreateEvent(_ context.Context, ev domain.NewEvent) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, ev)
	return &domain.Event{
		ID:              "ev-new",
		Subject:         ev.Subject,
		Start:           ev.Start,
		End:             ev.Start.Add(ev.Duration),
		IsOnlineMeeting: ev.OnlineMeeting,
	}, nil
}

func (m *mockCalendar) DeleteEvent(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockChat struct {
	chats     []domain.Chat
	messages  []domain.ChatMessage
	lastQuery domain.ChatQuery
	lastSince time.Time
	lastCount int
}

func (m *mockChat) ListChats(_ context.Context, q domain.ChatQuery) ([]domain.Chat, error) {
	m.lastQuery = q
	return m.chats, nil
}

func (m *mockChat) ResolveChat(context.Context, string) (*domain.Chat, error) {
	return nil, domain.ErrNotFound
}

func (m *mockChat) ReadMessages(_ context.Context, _ string, count int, since time.Time) ([]domain.ChatMessage, error) {
	m.lastCount, m.lastSince = count, since
	return m.messages, nil
}

func (m *mockChat) SendMessage(_ context.Context, chatID, content string) (*domain.ChatMessage, error) {
	return &domain.ChatMessage{ID: "m-new", ChatID: chatID, Content: content}, nil
}

func (m *mockChat) SearchMessages(_ context.Context, _ string, q domain.ChatQuery) ([]domain.ChatMessage, error) {
	m.lastQuery = q
	return m.messages, nil
}

type mockFiles struct {
	items        []domain.DriveItem
	lastQuery    domain.FileQuery
	lastSearch   domain.FileSearch
	lastDownload domain.DownloadRequest
	lastUpload   domain.UploadRequest
	err          error
}

func (m *mockFiles) ListDrives(context.Context) ([]domain.Drive, error) { return nil, nil }

func (m *mockFiles) ResolveDrive(context.Context, string) (*domain.Drive, error) { return nil, nil }

func (m *mockFiles) List(_ context.Context, q domain.FileQuery) ([]domain.DriveItem, error) {
	m.lastQuery = q
	return m.items, m.err
}

func (m *mockFiles) Search(_ context.Context, q domain.FileSearch) ([]domain.DriveItem, error) {
	m.lastSearch = q
	return m.items, m.err
}

func (m *mockFiles) Download(_ context.Context, req domain.DownloadRequest) (*domain.TransferResult, error) {
	m.lastDownload = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.TransferResult{ID: req.ItemID, Name: "a.txt", Path: req.Dest, Size: 5, SizeFormatted: "5 B"}, nil
}

func (m *mockFiles) Upload(_ context.Context, req domain.UploadRequest) (*domain.TransferResult, error) {
	m.lastUpload = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.TransferResult{Name: "a.txt", Path: req.Dest + "/a.txt", Size: 5, SizeFormatted: "5 B"}, nil
}

type mockContacts struct {
	people []domain.Person
}

func (m *mockContacts) List(context.Context) ([]domain.Person, error) { return m.people, nil }

func (m *mockContacts) Search(context.Context, string) ([]domain.Person, error) { return m.people, nil }

func (m *mockContacts) Resolve(context.Context, string) (*domain.Person, error) {
	return &m.people[0], nil
}

type mockRecordings struct {
	recordings []domain.Recording
	transcript *domain.Transcript
	lastQuery  domain.RecordingQuery
	err        error
}

func (m *mockRecordings) List(_ context.Context, q domain.RecordingQuery) ([]domain.Recording, error) {
	m.lastQuery = q
	return m.recordings, m.err
}

func (m *mockRecordings) Search(_ context.Context, q domain.RecordingQuery) ([]domain.Recording, error) {
	m.lastQuery = q
	return m.recordings, m.err
}

func (m *mockRecordings) Info(context.Context, string) (*domain.Recording, error) {
	return &m.recordings[0], nil
}

func (m *mockRecordings) Download(_ context.Context, id, dest, filename string) (*domain.TransferResult, error) {
	return &domain.TransferResult{ID: id, Name: filename, Path: dest + "/" + filename}, nil
}

func (m *mockRecordings) Transcript(context.Context, string) (*domain.Transcript, error) {
	if m.transcript == nil {
		return nil, domain.ErrNotFound
	}
	return m.transcript, nil
}
