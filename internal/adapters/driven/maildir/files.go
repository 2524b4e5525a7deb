package maildir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Maildir subdirectories.
const (
	dirTmp = "tmp"
	dirNew = "new"
	dirCur = "cur"

	infoSep = ":2,"
)

func (s *Store) ensureFolder(folder string) (string, error) {
	dir := filepath.Join(s.root, folder)
	for _, sub := range []string{dirTmp, dirNew, dirCur} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return "", fmt.Errorf("create maildir %s: %w", folder, err)
		}
	}
	return dir, nil
}

// uniqueName returns a Maildir file name: {unix}.{uuid}.{host}.
func (s *Store) uniqueName() string {
	return fmt.Sprintf("%d.%s.%s", s.now().Unix(), uuid.NewString(), s.host)
}

// Deliver writes raw into folder through tmp and indexes it. Seen messages
// go straight to cur with the S flag; others land in new.
func (s *Store) Deliver(ctx context.Context, folder, graphID string, raw []byte, seen bool) (*domain.LocalMessage, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	dir, err := s.ensureFolder(folder)
	if err != nil {
		return nil, err
	}

	name := s.uniqueName()
	tmp := filepath.Join(dir, dirTmp, name)
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	final := filepath.Join(dir, dirNew, name)
	if seen {
		final = filepath.Join(dir, dirCur, name+infoSep+"S")
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("deliver message: %w", err)
	}

	hdr := parseHeader(raw)
	if hdr.date.IsZero() {
		hdr.date = s.now()
	}
	short, err := s.shortID(ctx, db, graphID)
	if err != nil {
		return nil, err
	}
	rel, _ := filepath.Rel(s.root, final)
	_, err = db.ExecContext(ctx, `INSERT INTO messages
        (short_id, graph_id, folder, path, subject, sender, recipients, date, seen)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		short, graphID, folder, filepath.ToSlash(rel), hdr.subject, hdr.from, hdr.to, hdr.date.Unix(), boolInt(seen))
	if err != nil {
		os.Remove(final)
		return nil, fmt.Errorf("index message: %w", err)
	}

	return &domain.LocalMessage{
		ShortID: short,
		GraphID: graphID,
		Folder:  folder,
		Path:    final,
		Subject: hdr.subject,
		From:    hdr.from,
		To:      hdr.to,
		Date:    hdr.date,
		Seen:    seen,
	}, nil
}

// splitInfo splits a Maildir file name into its unique part and flags.
func splitInfo(name string) (base, flags string) {
	base, flags, _ = strings.Cut(name, infoSep)
	return base, flags
}

func addFlag(flags string, flag rune) string {
	if strings.ContainsRune(flags, flag) {
		return flags
	}
	rs := []rune(flags + string(flag))
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	return string(rs)
}

// locate returns the current path of msg. Other Maildir clients may have
// moved it from new to cur or changed its flags.
func (s *Store) locate(msg *domain.LocalMessage) (string, error) {
	if _, err := os.Stat(msg.Path); err == nil {
		return msg.Path, nil
	}
	base, _ := splitInfo(filepath.Base(msg.Path))
	dir := filepath.Join(s.root, msg.Folder)
	for _, sub := range []string{dirCur, dirNew} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if b, _ := splitInfo(e.Name()); b == base {
				return filepath.Join(dir, sub, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("%w: message file for %s is missing", domain.ErrNotFound, msg.ShortID)
}

// MarkSeen moves msg into cur with the S flag.
func (s *Store) MarkSeen(ctx context.Context, msg *domain.LocalMessage) error {
	cur, err := s.locate(msg)
	if err != nil {
		return err
	}
	base, flags := splitInfo(filepath.Base(cur))
	target := filepath.Join(s.root, msg.Folder, dirCur, base+infoSep+addFlag(flags, 'S'))
	if target != cur {
		if err := os.Rename(cur, target); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
	}
	msg.Path = target
	msg.Seen = true
	return s.updateLocation(ctx, msg)
}

// Move relocates msg into folder, keeping its name and flags, and records
// newGraphID when set.
func (s *Store) Move(ctx context.Context, msg *domain.LocalMessage, folder, newGraphID string) error {
	cur, err := s.locate(msg)
	if err != nil {
		return err
	}
	dir, err := s.ensureFolder(folder)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(filepath.Dir(cur)), filepath.Base(cur))
	if err := os.Rename(cur, target); err != nil {
		return fmt.Errorf("move message: %w", err)
	}
	msg.Folder = folder
	msg.Path = target
	if newGraphID != "" {
		msg.GraphID = newGraphID
	}
	if err := s.updateLocation(ctx, msg); err != nil {
		if rerr := os.Rename(target, cur); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			logger.Warn("maildir: cannot restore %s: %v", cur, rerr)
		}
		return err
	}
	return nil
}
