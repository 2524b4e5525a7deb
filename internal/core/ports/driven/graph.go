package driven

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// MailGateway reaches Outlook mail through Graph. ListMessages reads whole
// pages until q.Limit messages are collected and may return more; callers
// apply the limit.
type MailGateway interface {
	ListMessages(ctx context.Context, folderID string, q domain.MessageQuery) ([]domain.Message, error)
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	GetMIME(ctx context.Context, id string) ([]byte, error)
	SendMail(ctx context.Context, mail domain.OutgoingMail) error
	// MoveMessage moves a message and returns its new ID.
	MoveMessage(ctx context.Context, id, destinationFolderID string) (string, error)
	SetRead(ctx context.Context, id string, read bool) error
	ListFolders(ctx context.Context) ([]domain.MailFolder, error)
}

// CalendarGateway reaches Outlook calendars through Graph.
type CalendarGateway interface {
	// CalendarView lists event occurrences in [start, end). An empty
	// calendarID means the default calendar.
	CalendarView(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error)
	ListCalendars(ctx context.Context) ([]domain.Calendar, error)
	CreateEvent(ctx context.Context, ev domain.NewEvent) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ChatGateway reaches Teams chats through Graph.
type ChatGateway interface {
	ListChats(ctx context.Context, top int) ([]domain.Chat, error)
	ListMessages(ctx context.Context, chatID string, top int, since time.Time) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, content string) (*domain.ChatMessage, error)
}

// DriveGateway reaches OneDrive and SharePoint document libraries.
type DriveGateway interface {
	MyDrive(ctx context.Context) (*domain.Drive, error)
	ListDrives(ctx context.Context) ([]domain.Drive, error)
	// Children lists a folder by path relative to the drive root.
	Children(ctx context.Context, driveID, path string) ([]domain.DriveItem, error)
	ChildrenByID(ctx context.Context, driveID, itemID string) ([]domain.DriveItem, error)
	Search(ctx context.Context, driveID, query string) ([]domain.DriveItem, error)
	GetItem(ctx context.Context, driveID, itemID string) (*domain.DriveItem, error)
	GetItemByPath(ctx context.Context, driveID, path string) (*domain.DriveItem, error)
	Download(ctx context.Context, driveID, itemID string, w io.Writer) (int64, error)
	// Upload writes content to path relative to the drive root.
	Upload(ctx context.Context, driveID, path string, content []byte, overwrite bool) (*domain.DriveItem, error)
}

// ContactGateway reaches Outlook contacts.
type ContactGateway interface {
	ListContacts(ctx context.Context) ([]domain.Person, error)
}
