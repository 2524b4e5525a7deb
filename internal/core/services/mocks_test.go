package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// mockTokenStore keeps tokens in memory.
type mockTokenStore struct {
	mu      sync.Mutex
	tokens  *domain.TokenSet
	saved   int
	deleted bool
	saveErr error
}

func (m *mockTokenStore) Load() (*domain.TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return nil, domain.ErrAuthRequired
	}
	cp := *m.tokens
	return &cp, nil
}

func (m *mockTokenStore) Save(t *domain.TokenSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *t
	m.tokens = &cp
	m.saved++
	return nil
}

func (m *mockTokenStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
	m.deleted = true
	return nil
}

func (m *mockTokenStore) Path() string { return "/tmp/tokens.json" }

// mockOAuth counts refreshes.
type mockOAuth struct {
	mu         sync.Mutex
	refreshed  int
	refreshOut *domain.TokenSet
	refreshErr error
	loginOut   *domain.TokenSet
	loginErr   error
	delay      time.Duration
}

func (m *mockOAuth) DeviceLogin(_ context.Context, onCode func(domain.DeviceCode)) (*domain.TokenSet, error) {
	if onCode != nil {
		onCode(domain.DeviceCode{UserCode: "ABCD-1234", VerificationURI: "https://microsoft.com/devicelogin"})
	}
	return m.loginOut, m.loginErr
}

func (m *mockOAuth) Refresh(_ context.Context, _ string) (*domain.TokenSet, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	cp := *m.refreshOut
	return &cp, nil
}

// mockUsers returns a fixed user.
type mockUsers struct {
	me    *domain.UserInfo
	err   error
	calls int
}

func (m *mockUsers) Me(context.Context) (*domain.UserInfo, error) {
	m.calls++
	return m.me, m.err
}

// mockMail records mail gateway calls.
type mockMail struct {
	messages map[string][]domain.Message
	byID     map[string]*domain.Message
	mime     map[string][]byte
	folders  []domain.MailFolder
	sent     []domain.OutgoingMail
	moved    []string
	read     []string
	lastQ    domain.MessageQuery
	listErr  error
}

func (m *mockMail) ListMessages(_ context.Context, folderID string, q domain.MessageQuery) ([]domain.Message, error) {
	m.lastQ = q
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.messages[folderID], nil
}

func (m *mockMail) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	if msg, ok := m.byID[id]; ok {
		return msg, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockMail) GetMIME(_ context.Context, id string) ([]byte, error) {
	if raw, ok := m.mime[id]; ok {
		return raw, nil
	}
	return []byte("Subject: " + id + "\r\n\r\nbody\r\n"), nil
}

func (m *mockMail) SendMail(_ context.Context, mail domain.OutgoingMail) error {
	m.sent = append(m.sent, mail)
	return nil
}

func (m *mockMail) MoveMessage(_ context.Context, id, dest string) (string, error) {
	m.moved = append(m.moved, id+"->"+dest)
	return "new-" + id, nil
}

func (m *mockMail) SetRead(_ context.Context, id string, _ bool) error {
	m.read = append(m.read, id)
	return nil
}

func (m *mockMail) ListFolders(context.Context) ([]domain.MailFolder, error) {
	return m.folders, nil
}

// mockLocalStore is an in-memory mail mirror.
type mockLocalStore struct {
	msgs      []domain.LocalMessage
	delivered []string
	lastSync  map[string]time.Time
	recorded  map[string]int
	lastQuery domain.LocalQuery
	lookupErr error
}

func (m *mockLocalStore) Has(_ context.Context, graphID string) (bool, error) {
	for _, msg := range m.msgs {
		if msg.GraphID == graphID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLocalStore) Deliver(_ context.Context, folder, graphID string, _ []byte, seen bool) (*domain.LocalMessage, error) {
	msg := domain.LocalMessage{ShortID: fmt.Sprintf("%08x", len(m.msgs)+1), GraphID: graphID, Folder: folder, Seen: seen}
	m.msgs = append(m.msgs, msg)
	m.delivered = append(m.delivered, folder+"/"+graphID)
	return &msg, nil
}

func (m *mockLocalStore) List(_ context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error) {
	m.lastQuery = q
	out := m.msgs
	if q.Count > 0 && len(out) > q.Count {
		out = out[:q.Count]
	}
	return out, nil
}

func (m *mockLocalStore) Lookup(_ context.Context, id string) (*domain.LocalMessage, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for i := range m.msgs {
		if m.msgs[i].ShortID == id || m.msgs[i].GraphID == id {
			return &m.msgs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLocalStore) Read(_ context.Context, msg *domain.LocalMessage, _ bool) (*domain.LocalMessageContent, error) {
	return &domain.LocalMessageContent{LocalMessage: *msg, Body: "body of " + msg.GraphID}, nil
}

func (m *mockLocalStore) MarkSeen(_ context.Context, msg *domain.LocalMessage) error {
	msg.Seen = true
	return nil
}

func (m *mockLocalStore) Move(_ context.Context, msg *domain.LocalMessage, folder, newGraphID string) error {
	msg.Folder = folder
	msg.GraphID = newGraphID
	return nil
}

func (m *mockLocalStore) RecordSync(folder string, _ time.Time, count int) error {
	if m.recorded == nil {
		m.recorded = map[string]int{}
	}
	m.recorded[folder] = count
	return nil
}

func (m *mockLocalStore) LastSync(folder string) (time.Time, bool) {
	t, ok := m.lastSync[folder]
	return t, ok
}

func (m *mockLocalStore) Close() error { return nil }

// mockCalendar records calendar gateway calls.
type mockCalendar struct {
	calendars []domain.Calendar
	events    []domain.Event
	calErr    error
	viewCalID string
	viewStart time.Time
	viewEnd   time.Time
	created   []domain.NewEvent
	deleted   []string
}

func (m *mockCalendar) CalendarView(_ context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	m.viewCalID, m.viewStart, m.viewEnd = calendarID, start, end
	return m.events, nil
}

func (m *mockCalendar) ListCalendars(context.Context) ([]domain.Calendar, error) {
	return m.calendars, m.calErr
}

func (m *mockCalendar) CreateEvent(_ context.Context, ev domain.NewEvent) (*domain.Event, error) {
	m.created = append(m.created, ev)
	return &domain.Event{ID: "ev1", Subject: ev.Subject, Start: ev.Start, End: ev.Start.Add(ev.Duration)}, nil
}

func (m *mockCalendar) DeleteEvent(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// mockContacts returns fixed contacts.
type mockContacts struct {
	people []domain.Person
	err    error
}

func (m *mockContacts) ListContacts(context.Context) ([]domain.Person, error) {
	return m.people, m.err
}

// mockChats serves chats and per-chat messages.
type mockChats struct {
	chats    []domain.Chat
	messages map[string][]domain.ChatMessage
	lastTop  int
	sent     []string
}

func (m *mockChats) ListChats(_ context.Context, top int) ([]domain.Chat, error) {
	m.lastTop = top
	return m.chats, nil
}

func (m *mockChats) ListMessages(_ context.Context, chatID string, top int, _ time.Time) ([]domain.ChatMessage, error) {
	m.lastTop = top
	return m.messages[chatID], nil
}

func (m *mockChats) SendMessage(_ context.Context, chatID, content string) (*domain.ChatMessage, error) {
	m.sent = append(m.sent, chatID+":"+content)
	return &domain.ChatMessage{ID: "m-new", ChatID: chatID, Content: content}, nil
}

// mockDrive is an in-memory drive tree keyed by folder path and item ID.
type mockDrive struct {
	mine     domain.Drive
	drives   []domain.Drive
	children map[string][]domain.DriveItem
	byID     map[string]domain.DriveItem
	content  map[string]string
	search   []domain.DriveItem
	uploads  []string
}

func (m *mockDrive) MyDrive(context.Context) (*domain.Drive, error) {
	d := m.mine
	return &d, nil
}

func (m *mockDrive) ListDrives(context.Context) ([]domain.Drive, error) { return m.drives, nil }

func (m *mockDrive) Children(_ context.Context, _, path string) ([]domain.DriveItem, error) {
	items, ok := m.children["/"+strings.Trim(path, "/")]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return items, nil
}

func (m *mockDrive) ChildrenByID(_ context.Context, _, itemID string) ([]domain.DriveItem, error) {
	return m.children[itemID], nil
}

func (m *mockDrive) Search(context.Context, string, string) ([]domain.DriveItem, error) {
	return m.search, nil
}

func (m *mockDrive) GetItem(_ context.Context, _, itemID string) (*domain.DriveItem, error) {
	it, ok := m.byID[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (m *mockDrive) GetItemByPath(_ context.Context, _, path string) (*domain.DriveItem, error) {
	for _, it := range m.byID {
		if "/"+strings.Trim(path, "/") == strings.TrimSuffix(it.ParentPath, "/")+"/"+it.Name {
			return &it, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDrive) Download(_ context.Context, _, itemID string, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, m.content[itemID])
	return int64(n), err
}

func (m *mockDrive) Upload(_ context.Context, _, path string, content []byte, overwrite bool) (*domain.DriveItem, error) {
	m.uploads = append(m.uploads, path)
	if !overwrite && strings.Contains(path, "exists") {
		return nil, domain.ErrConflict
	}
	return &domain.DriveItem{ID: "up1", Name: path[strings.LastIndex(path, "/")+1:], Size: int64(len(content))}, nil
}
