package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// runCLI executes args against rootCmd with s injected and returns what was
// written to stdout and stderr. Flags are reset afterwards so tests do not
// leak state into each other.
func runCLI(t *testing.T, s *Services, stdin string, args ...string) (string, string, error) {
	t.Helper()

	saved := Services{
		Auth:       authService,
		Mail:       mailService,
		MailSync:   mailSyncService,
		Calendar:   calendarService,
		Chat:       chatService,
		Files:      fileService,
		Contacts:   contactService,
		Recordings: recordingService,
		Config:     configHolder,
		Close:      closeServices,
	}
	if s == nil {
		s = &Services{}
	}
	if s.Auth == nil {
		s.Auth = &mockAuth{}
	}
	SetServices(s)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		SetServices(&saved)
	})

	err := ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type mockAuth struct {
	status    *domain.AuthStatus
	err       error
	loggedOut bool
}

func (m *mockAuth) Login(_ context.Context, onCode func(domain.DeviceCode)) (*domain.AuthStatus, error) {
	onCode(domain.DeviceCode{UserCode: "ABCD-1234", VerificationURI: "https://microsoft.com/devicelogin"})
	return m.status, m.err
}

func (m *mockAuth) Refresh(context.Context) (*domain.AuthStatus, error) { return m.status, m.err }

func (m *mockAuth) Status(context.Context) (*domain.AuthStatus, error) {
	if m.status == nil && m.err == nil {
		return &domain.AuthStatus{}, nil
	}
	return m.status, m.err
}

func (m *mockAuth) Logout() error {
	m.loggedOut = true
	return m.err
}

type mockMail struct {
	folders []domain.MailFolder
	actions []domain.MessageAction
	sent    []domain.OutgoingMail
	dryRun  bool
	err     error
}

func (m *mockMail) ListMessages(context.Context, domain.MessageQuery) ([]domain.Message, error) {
	return nil, m.err
}

func (m *mockMail) GetMessage(context.Context, string) (*domain.Message, error) {
	return nil, domain.ErrNotFound
}

func (m *mockMail) Send(_ context.Context, mail domain.OutgoingMail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

func (m *mockMail) ListFolders(context.Context) ([]domain.MailFolder, error) { return m.folders, m.err }

func (m *mockMail) Archive(_ context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error) {
	return m.act(ids, dryRun)
}

func (m *mockMail) MarkRead(_ context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error) {
	return m.act(ids, dryRun)
}

func (m *mockMail) act(ids []string, dryRun bool) ([]domain.MessageAction, error) {
	m.dryRun = dryRun
	for _, id := range ids {
		m.actions = append(m.actions, domain.MessageAction{ID: id, Subject: "Subject " + id, DryRun: dryRun})
	}
	return m.actions, m.err
}

type mockMailSync struct {
	local     []domain.LocalMessage
	results   []domain.FolderSyncResult
	lastOpts  domain.SyncOptions
	lastQuery domain.LocalQuery
	opened    []string
}

func (m *mockMailSync) Sync(
	_ context.Context,
	opts domain.SyncOptions,
	progress func(domain.FolderSyncResult),
) ([]domain.FolderSyncResult, error) {
	m.lastOpts = opts
	for _, r := range m.results {
		progress(r)
	}
	return m.results, nil
}

func (m *mockMailSync) ListLocal(_ context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error) {
	m.lastQuery = q
	out := m.local
	if q.Count > 0 && len(out) > q.Count {
		out = out[:q.Count]
	}
	return out, nil
}

func (m *mockMailSync) OpenLocal(_ context.Context, id string, _ bool) (*domain.LocalMessageContent, error) {
	m.opened = append(m.opened, id)
	for _, msg := range m.local {
		if msg.ShortID == id {
			return &domain.LocalMessageContent{LocalMessage: msg, Body: "Body of " + msg.Subject}, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockCalendar struct {
	events    []domain.Event
	lastQuery domain.EventQuery
	created   []domain.NewEvent
	deleted   []string
}

func (m *mockCalendar) ListEvents(_ context.Context, q domain.EventQuery) ([]domain.Event, error) {
	m.lastQuery = q
	return m.events, nil
}

func (m *mockCalendar) ListCalendars(context.Context) ([]domain.Calendar, error) { return nil, nil }

func (m *mockCalendar) CreateEvent(_ context.Context, ev domain.NewEvent) (*domain.Event, error) {
	m.created = append(m.created, ev)
	return &domain.Event{ID: "ev-1", Subject: ev.Subject, Start: ev.Start, End: ev.Start.Add(ev.Duration)}, nil
}

func (m *mockCalendar) DeleteEvent(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockChat struct {
	chats    []domain.Chat
	messages []domain.ChatMessage
	resolved string
	sentTo   string
	sent     string
}

func (m *mockChat) ListChats(context.Context, domain.ChatQuery) ([]domain.Chat, error) {
	return m.chats, nil
}

func (m *mockChat) ResolveChat(_ context.Context, with string) (*domain.Chat, error) {
	m.resolved = with
	for i, c := range m.chats {
		if c.HasMember(with) {
			return &m.chats[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChat) ReadMessages(context.Context, string, int, time.Time) ([]domain.ChatMessage, error) {
	return m.messages, nil
}

func (m *mockChat) SendMessage(_ context.Context, chatID, content string) (*domain.ChatMessage, error) {
	m.sentTo, m.sent = chatID, content
	return &domain.ChatMessage{ID: "m-1", ChatID: chatID, Content: content}, nil
}

func (m *mockChat) SearchMessages(context.Context, string, domain.ChatQuery) ([]domain.ChatMessage, error) {
	return m.messages, nil
}

type mockFiles struct {
	drives       []domain.Drive
	items        []domain.DriveItem
	lastQuery    domain.FileQuery
	lastDownload domain.DownloadRequest
}

func (m *mockFiles) ListDrives(context.Context) ([]domain.Drive, error) { return m.drives, nil }

func (m *mockFiles) ResolveDrive(_ context.Context, nameOrID string) (*domain.Drive, error) {
	for i, d := range m.drives {
		if d.ID == nameOrID || strings.Contains(strings.ToLower(d.Name), strings.ToLower(nameOrID)) {
			return &m.drives[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockFiles) List(_ context.Context, q domain.FileQuery) ([]domain.DriveItem, error) {
	m.lastQuery = q
	return m.items, nil
}

func (m *mockFiles) Search(context.Context, domain.FileSearch) ([]domain.DriveItem, error) {
	return m.items, nil
}

func (m *mockFiles) Download(_ context.Context, req domain.DownloadRequest) (*domain.TransferResult, error) {
	m.lastDownload = req
	return &domain.TransferResult{Name: "a.txt", Path: "/tmp/a.txt", Size: 5, SizeFormatted: "5 B"}, nil
}

func (m *mockFiles) Upload(context.Context, domain.UploadRequest) (*domain.TransferResult, error) {
	return &domain.TransferResult{Name: "a.txt", Path: "/Docs/a.txt", Size: 5, SizeFormatted: "5 B"}, nil
}

type mockContacts struct {
	people []domain.Person
	err    error
}

func (m *mockContacts) List(context.Context) ([]domain.Person, error) { return m.people, m.err }

func (m *mockContacts) Search(context.Context, string) ([]domain.Person, error) { return m.people, m.err }

func (m *mockContacts) Resolve(context.Context, string) (*domain.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &m.people[0], nil
}

type mockRecordings struct {
	transcript *domain.Transcript
}

func (m *mockRecordings) List(context.Context, domain.RecordingQuery) ([]domain.Recording, error) {
	return nil, nil
}

func (m *mockRecordings) Search(context.Context, domain.RecordingQuery) ([]domain.Recording, error) {
	return nil, nil
}

func (m *mockRecordings) Info(_ context.Context, id string) (*domain.Recording, error) {
	return &domain.Recording{
		DriveItem:     domain.DriveItem{ID: id, Name: "Sync.mp4", SizeFormatted: "12.0 MB"},
		MeetingName:   "Sync",
		HasTranscript: m.transcript != nil,
	}, nil
}

func (m *mockRecordings) Download(context.Context, string, string, string) (*domain.TransferResult, error) {
	return &domain.TransferResult{}, nil
}

func (m *mockRecordings) Transcript(context.Context, string) (*domain.Transcript, error) {
	if m.transcript == nil {
		return nil, domain.ErrNotFound
	}
	return m.transcript, nil
}
