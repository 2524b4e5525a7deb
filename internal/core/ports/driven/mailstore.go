package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// LocalMailStore is the on-disk mirror written by mail sync.
type LocalMailStore interface {
	// Has reports whether a Graph message is already stored.
	Has(ctx context.Context, graphID string) (bool, error)
	// Deliver stores a raw RFC 5322 message in folder.
	Deliver(ctx context.Context, folder, graphID string, raw []byte, seen bool) (*domain.LocalMessage, error)
	// List returns stored messages, newest first.
	List(ctx context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error)
	// Lookup finds a message by short ID or Graph ID. Returns domain.ErrNotFound.
	Lookup(ctx context.Context, id string) (*domain.LocalMessage, error)
	// Read parses a stored message.
	Read(ctx context.Context, msg *domain.LocalMessage, preferHTML bool) (*domain.LocalMessageContent, error)
	// MarkSeen sets the Maildir seen flag.
	MarkSeen(ctx context.Context, msg *domain.LocalMessage) error
	// Move relocates a message to another folder and records its new Graph ID.
	Move(ctx context.Context, msg *domain.LocalMessage, folder, newGraphID string) error
	// RecordSync stores the last sync time and count for a folder.
	RecordSync(folder string, at time.Time, count int) error
	// LastSync returns the last sync time for a folder.
	LastSync(folder string) (time.Time, bool)
	Close() error
}
