// Package driving declares the services used by the CLI and the MCP server.
// Both surfaces call the same methods, so a CLI listing and an MCP tool
// result always carry the same data.
package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// AuthService manages the signed-in account.
type AuthService interface {
	Login(ctx context.Context, onCode func(domain.DeviceCode)) (*domain.AuthStatus, error)
	Refresh(ctx context.Context) (*domain.AuthStatus, error)
	Status(ctx context.Context) (*domain.AuthStatus, error)
	Logout() error
}

// MailService reads and sends mail through Graph.
type MailService interface {
	ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error)
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	Send(ctx context.Context, mail domain.OutgoingMail) error
	ListFolders(ctx context.Context) ([]domain.MailFolder, error)
	Archive(ctx context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error)
	MarkRead(ctx context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error)
}

// MailSyncService mirrors mail into the local Maildir and reads it back.
type MailSyncService interface {
	Sync(ctx context.Context, opts domain.SyncOptions, progress func(domain.FolderSyncResult)) ([]domain.FolderSyncResult, error)
	ListLocal(ctx context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error)
	OpenLocal(ctx context.Context, id string, preferHTML bool) (*domain.LocalMessageContent, error)
}

// CalendarService reads and edits calendar events.
type CalendarService interface {
	ListEvents(ctx context.Context, q domain.EventQuery) ([]domain.Event, error)
	ListCalendars(ctx context.Context) ([]domain.Calendar, error)
	CreateEvent(ctx context.Context, ev domain.NewEvent) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ChatService reads and sends Teams chat messages.
type ChatService interface {
	ListChats(ctx context.Context, q domain.ChatQuery) ([]domain.Chat, error)
	ResolveChat(ctx context.Context, with string) (*domain.Chat, error)
	ReadMessages(ctx context.Context, chatID string, count int, since time.Time) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, content string) (*domain.ChatMessage, error)
	SearchMessages(ctx context.Context, query string, q domain.ChatQuery) ([]domain.ChatMessage, error)
}

// FileService browses and transfers OneDrive files.
type FileService interface {
	ListDrives(ctx context.Context) ([]domain.Drive, error)
	ResolveDrive(ctx context.Context, nameOrID string) (*domain.Drive, error)
	List(ctx context.Context, q domain.FileQuery) ([]domain.DriveItem, error)
	Search(ctx context.Context, q domain.FileSearch) ([]domain.DriveItem, error)
	Download(ctx context.Context, req domain.DownloadRequest) (*domain.TransferResult, error)
	Upload(ctx context.Context, req domain.UploadRequest) (*domain.TransferResult, error)
}

// ContactService finds people known to the signed-in user.
type ContactService interface {
	List(ctx context.Context) ([]domain.Person, error)
	Search(ctx context.Context, query string) ([]domain.Person, error)
	Resolve(ctx context.Context, query string) (*domain.Person, error)
}

// RecordingService lists Teams meeting recordings and their transcripts.
type RecordingService interface {
	List(ctx context.Context, q domain.RecordingQuery) ([]domain.Recording, error)
	Search(ctx context.Context, q domain.RecordingQuery) ([]domain.Recording, error)
	Info(ctx context.Context, id string) (*domain.Recording, error)
	Download(ctx context.Context, id, dest, filename string) (*domain.TransferResult, error)
	Transcript(ctx context.Context, id string) (*domain.Transcript, error)
}
