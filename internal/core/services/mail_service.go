package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure MailService implements the interface.
var _ driving.MailService = (*MailService)(nil)

// wellKnownFolders maps folder names to Graph well-known folder IDs.
var wellKnownFolders = map[string]string{
	"inbox":        "inbox",
	"sentitems":    "sentitems",
	"sent":         "sentitems",
	"drafts":       "drafts",
	"archive":      "archive",
	"deleteditems": "deleteditems",
	"trash":        "deleteditems",
	"junkemail":    "junkemail",
	"junk":         "junkemail",
	"outbox":       "outbox",
}

// archiveFolder is the local Maildir folder archived messages move to.
const archiveFolder = "Archive"

// MailService reads, sends and files Outlook mail. When a local store is
// configured, short IDs resolve through it and local copies follow
// archive and mark-read.
type MailService struct {
	mail  driven.MailGateway
	local driven.LocalMailStore
}

// NewMailService creates a mail service. local may be nil.
func NewMailService(mail driven.MailGateway, local driven.LocalMailStore) *MailService {
	return &MailService{mail: mail, local: local}
}

// ListMessages lists messages in q.Folder (default Inbox), newest first,
// capped at q.Limit after all needed pages are read.
func (s *MailService) ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	folderID, err := resolveMailFolder(ctx, s.mail, q.Folder)
	if err != nil {
		return nil, err
	}
	msgs, err := s.mail.ListMessages(ctx, folderID, q)
	if err != nil {
		return nil, err
	}
	return applyLimit(msgs, q.Limit), nil
}

// GetMessage returns a full message by Graph ID or short ID.
func (s *MailService) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	graphID, _, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mail.GetMessage(ctx, graphID)
}

// Send sends mail.
func (s *MailService) Send(ctx context.Context, mail domain.OutgoingMail) error {
	if len(mail.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(mail.Subject) == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	return s.mail.SendMail(ctx, mail)
}

// ListFolders lists every mail folder, child folders included.
func (s *MailService) ListFolders(ctx context.Context) ([]domain.MailFolder, error) {
	return s.mail.ListFolders(ctx)
}

// Archive moves messages to the Archive folder.
func (s *MailService) Archive(ctx context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error) {
	return s.each(ctx, ids, dryRun, func(graphID string, local *domain.LocalMessage) error {
		newID, err := s.mail.MoveMessage(ctx, graphID, "archive")
		if err != nil {
			return err
		}
		if local != nil {
			if err := s.local.Move(ctx, local, archiveFolder, newID); err != nil {
				return fmt.Errorf("move local copy: %w", err)
			}
		}
		return nil
	})
}

// MarkRead marks messages as read.
func (s *MailService) MarkRead(ctx context.Context, ids []string, dryRun bool) ([]domain.MessageAction, error) {
	return s.each(ctx, ids, dryRun, func(graphID string, local *domain.LocalMessage) error {
		if err := s.mail.SetRead(ctx, graphID, true); err != nil {
			return err
		}
		if local != nil {
			if err := s.local.MarkSeen(ctx, local); err != nil {
				return fmt.Errorf("flag local copy: %w", err)
			}
		}
		return nil
	})
}

// each resolves ids and applies fn to every message, stopping at the first
// failure. Actions completed before the failure are returned with it.
func (s *MailService) each(
	ctx context.Context,
	ids []string,
	dryRun bool,
	fn func(graphID string, local *domain.LocalMessage) error,
) ([]domain.MessageAction, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no message IDs given", domain.ErrInvalidInput)
	}

	actions := make([]domain.MessageAction, 0, len(ids))
	for _, id := range ids {
		graphID, local, err := s.resolveID(ctx, id)
		if err != nil {
			return actions, err
		}

		action := domain.MessageAction{ID: id, DryRun: dryRun, Local: local != nil}
		if local != nil {
			action.Subject = local.Subject
		} else if dryRun {
			msg, err := s.mail.GetMessage(ctx, graphID)
			if err != nil {
				return actions, err
			}
			action.Subject = msg.Subject
		}

		if !dryRun {
			if err := fn(graphID, local); err != nil {
				return actions, fmt.Errorf("message %s: %w", id, err)
			}
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// resolveID maps a short ID or Graph ID to a Graph ID plus the local copy
// when one exists.
func (s *MailService) resolveID(ctx context.Context, id string) (string, *domain.LocalMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil, fmt.Errorf("%w: empty message ID", domain.ErrInvalidInput)
	}
	if isShortID(id) {
		id = strings.ToLower(id)
	}
	if s.local == nil {
		if isShortID(id) {
			return "", nil, fmt.Errorf("%w: short ID %s needs a synced mail directory", domain.ErrNotFound, id)
		}
		return id, nil, nil
	}

	msg, err := s.local.Lookup(ctx, id)
	switch {
	case err == nil:
		return msg.GraphID, msg, nil
	case isShortID(id):
		return "", nil, err
	case !errors.Is(err, domain.ErrNotFound):
		logger.Debug("mail: local lookup of %s failed, using Graph only: %v", id, err)
	}
	return id, nil, nil
}

// resolveMailFolder maps a folder name to a Graph folder ID. Well-known
// names pass through; other names match a display name.
func resolveMailFolder(ctx context.Context, mail driven.MailGateway, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "inbox", nil
	}
	key := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if id, ok := wellKnownFolders[key]; ok {
		return id, nil
	}

	folders, err := mail.ListFolders(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve folder %q: %w", name, err)
	}
	for _, f := range folders {
		if strings.EqualFold(f.DisplayName, name) || f.ID == name {
			logger.Debug("mail: folder %q resolved to %s", name, f.ID)
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("%w: mail folder %q", domain.ErrNotFound, name)
}
