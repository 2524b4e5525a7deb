package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure MailSyncService implements the interface.
var _ driving.MailSyncService = (*MailSyncService)(nil)

// DefaultSyncFolders are synced when no folders are named.
var DefaultSyncFolders = []string{"Inbox", "SentItems", "Drafts"}

// Maildir folders used when the Inbox is split by Focused Inbox.
const (
	FocusedMaildir = "INBOX.Focused"
	OtherMaildir   = "INBOX.Other"
)

// MailSyncService mirrors Graph mail folders into the local Maildir and
// reads the mirror back.
type MailSyncService struct {
	mail  driven.MailGateway
	local driven.LocalMailStore
	now   func() time.Time
}

// NewMailSyncService creates a mail sync service.
func NewMailSyncService(mail driven.MailGateway, local driven.LocalMailStore) *MailSyncService {
	return &MailSyncService{mail: mail, local: local, now: time.Now}
}

// MaildirName maps a Graph folder name to its Maildir folder.
func MaildirName(folder string) string {
	if strings.EqualFold(folder, "inbox") {
		return "INBOX"
	}
	return strings.ReplaceAll(folder, "/", ".")
}

type syncTarget struct {
	name string
	id   string
}

// Sync downloads messages that are not yet in the local store. Without a
// count or since bound, a folder synced before resumes from its last sync.
func (s *MailSyncService) Sync(
	ctx context.Context,
	opts domain.SyncOptions,
	progress func(domain.FolderSyncResult),
) ([]domain.FolderSyncResult, error) {
	targets, err := s.targets(ctx, opts)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FolderSyncResult, 0, len(targets))
	for _, t := range targets {
		res, err := s.syncFolder(ctx, t, opts)
		if err != nil {
			return results, fmt.Errorf("sync %s: %w", t.name, err)
		}
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results, nil
}

func (s *MailSyncService) targets(ctx context.Context, opts domain.SyncOptions) ([]syncTarget, error) {
	if opts.All {
		folders, err := s.mail.ListFolders(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]syncTarget, 0, len(folders))
		for _, f := range folders {
			out = append(out, syncTarget{name: f.DisplayName, id: f.ID})
		}
		return out, nil
	}

	names := opts.Folders
	if len(names) == 0 {
		names = DefaultSyncFolders
	}
	out := make([]syncTarget, 0, len(names))
	for _, name := range names {
		id, err := resolveMailFolder(ctx, s.mail, name)
		if err != nil {
			return nil, err
		}
		out = append(out, syncTarget{name: name, id: id})
	}
	return out, nil
}

func (s *MailSyncService) syncFolder(
	ctx context.Context,
	t syncTarget,
	opts domain.SyncOptions,
) (domain.FolderSyncResult, error) {
	started := s.now()
	maildir := MaildirName(t.name)
	split := opts.FocusedInbox && maildir == "INBOX"

	res := domain.FolderSyncResult{Folder: t.name, Maildir: maildir}
	if split {
		res.Maildir = FocusedMaildir + ", " + OtherMaildir
	}

	q := domain.MessageQuery{Since: opts.Since, Limit: opts.Count}
	if q.Since.IsZero() && q.Limit <= 0 {
		if last, ok := s.local.LastSync(maildir); ok {
			q.Since = last
			logger.Debug("mail-sync: %s resuming from %s", t.name, last.Format(time.RFC3339))
		}
	}

	msgs, err := s.mail.ListMessages(ctx, t.id, q)
	if err != nil {
		return res, err
	}
	msgs = applyLimit(msgs, opts.Count)
	res.Fetched = len(msgs)

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		have, err := s.local.Has(ctx, m.ID)
		if err != nil {
			return res, err
		}
		if have {
			res.Skipped++
			continue
		}

		raw, err := s.mail.GetMIME(ctx, m.ID)
		if err != nil {
			return res, fmt.Errorf("download %s: %w", m.ID, err)
		}
		dest := maildir
		if split {
			dest = FocusedMaildir
			if strings.EqualFold(m.InferenceClassification, "other") {
				dest = OtherMaildir
			}
		}
		if _, err := s.local.Deliver(ctx, dest, m.ID, raw, m.IsRead); err != nil {
			return res, err
		}
		res.Downloaded++
	}

	if err := s.local.RecordSync(maildir, started, res.Downloaded); err != nil {
		logger.Warn("mail-sync: could not record sync state for %s: %v", maildir, err)
	}
	logger.Debug("mail-sync: %s fetched=%d skipped=%d downloaded=%d", t.name, res.Fetched, res.Skipped, res.Downloaded)
	return res, nil
}

// ListLocal lists messages in the local mirror, newest first.
func (s *MailSyncService) ListLocal(ctx context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error) {
	if q.Search != "" {
		if _, err := regexp.Compile("(?i)" + q.Search); err != nil {
			return nil, fmt.Errorf("%w: search pattern: %w", domain.ErrInvalidInput, err)
		}
	}
	switch q.Field {
	case "", "subject", "from", "to":
	default:
		return nil, fmt.Errorf("%w: search field must be subject, from or to", domain.ErrInvalidInput)
	}
	if q.Folder != "" {
		q.Folder = MaildirName(q.Folder)
	}
	return s.local.List(ctx, q)
}

// OpenLocal parses a local message. id is a short ID, a Graph ID, or a
// 1-based position in the newest-first listing.
func (s *MailSyncService) OpenLocal(ctx context.Context, id string, preferHTML bool) (*domain.LocalMessageContent, error) {
	msg, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.local.Read(ctx, msg, preferHTML)
}

func (s *MailSyncService) lookup(ctx context.Context, id string) (*domain.LocalMessage, error) {
	if n, err := strconv.Atoi(id); err == nil && len(id) < 8 {
		if n < 1 {
			return nil, fmt.Errorf("%w: message index starts at 1", domain.ErrInvalidInput)
		}
		msgs, err := s.local.List(ctx, domain.LocalQuery{Count: n})
		if err != nil {
			return nil, err
		}
		if len(msgs) < n {
			return nil, fmt.Errorf("%w: only %d local messages", domain.ErrNotFound, len(msgs))
		}
		return &msgs[n-1], nil
	}
	return s.local.Lookup(ctx, id)
}
