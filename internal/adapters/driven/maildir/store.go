// Package maildir mirrors mail into Maildir folders under the configured
// mail directory.
//
// Message files follow the Maildir layout ({folder}/tmp, new, cur). A SQLite
// index at .o365/index.db maps short IDs to Graph IDs and file paths, and
// per-folder sync state is kept in .o365/state.toml. Nothing is created on
// disk until the store is first written to.
package maildir

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/filex"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.LocalMailStore = (*Store)(nil)

const (
	metaDir   = ".o365"
	indexFile = "index.db"
	stateFile = "state.toml"

	shortIDLen = 8
)

// Store is a Maildir mirror with a SQLite index.
type Store struct {
	root string
	host string
	now  func() time.Time

	once    sync.Once
	db      *sql.DB
	openErr error

	stateMu sync.Mutex
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{
		root: filex.ExpandHome(dir),
		host: hostname(),
		now:  time.Now,
	}
}

// Root returns the mail directory.
func (s *Store) Root() string {
	return s.root
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost"
	}
	h = strings.ReplaceAll(h, "/", `\057`)
	return strings.ReplaceAll(h, ":", `\072`)
}

// open creates the index on first use.
func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	s.once.Do(func() {
		dir := filepath.Join(s.root, metaDir)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.openErr = fmt.Errorf("create %s: %w", dir, err)
			return
		}
		db, err := sql.Open("sqlite", filepath.Join(dir, indexFile))
		if err != nil {
			s.openErr = fmt.Errorf("open sqlite: %w", err)
			return
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			s.openErr = fmt.Errorf("enable WAL: %w", err)
			return
		}
		if err := ensureSchema(ctx, db); err != nil {
			db.Close()
			s.openErr = err
			return
		}
		s.db = db
	})
	return s.db, s.openErr
}

// openExisting opens the index only when it is already on disk. It returns a
// nil DB before the first sync so reads leave the mail directory untouched.
func (s *Store) openExisting(ctx context.Context) (*sql.DB, error) {
	if !filex.Exists(filepath.Join(s.root, metaDir, indexFile)) {
		return nil, nil
	}
	return s.open(ctx)
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
            short_id TEXT PRIMARY KEY,
            graph_id TEXT NOT NULL UNIQUE,
            folder TEXT NOT NULL,
            path TEXT NOT NULL,
            subject TEXT NOT NULL DEFAULT '',
            sender TEXT NOT NULL DEFAULT '',
            recipients TEXT NOT NULL DEFAULT '',
            date INTEGER NOT NULL,
            seen INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_folder_date ON messages(folder, date);`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the index.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Has reports whether graphID is indexed.
func (s *Store) Has(ctx context.Context, graphID string) (bool, error) {
	db, err := s.openExisting(ctx)
	if err != nil || db == nil {
		return false, err
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM messages WHERE graph_id = ?;`, graphID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query message: %w", err)
	}
	return true, nil
}

// shortID derives a stable 8-hex-digit ID from the Graph ID, rehashing on
// the rare collision with another message.
func (s *Store) shortID(ctx context.Context, db *sql.DB, graphID string) (string, error) {
	seed := graphID
	for i := 0; ; i++ {
		sum := sha256.Sum256([]byte(seed))
		id := hex.EncodeToString(sum[:])[:shortIDLen]

		var owner string
		err := db.QueryRowContext(ctx, `SELECT graph_id FROM messages WHERE short_id = ?;`, id).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || owner == graphID {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("query short id: %w", err)
		}
		seed = fmt.Sprintf("%s#%d", graphID, i+1)
	}
}

const selectColumns = `SELECT short_id, graph_id, folder, path, subject, sender, recipients, date, seen FROM messages`

func (s *Store) scan(row interface{ Scan(...any) error }) (domain.LocalMessage, error) {
	var (
		m    domain.LocalMessage
		rel  string
		date int64
		seen int
	)
	if err := row.Scan(&m.ShortID, &m.GraphID, &m.Folder, &rel, &m.Subject, &m.From, &m.To, &date, &seen); err != nil {
		return m, err
	}
	m.Path = filepath.Join(s.root, rel)
	m.Date = time.Unix(date, 0)
	m.Seen = seen != 0
	return m, nil
}

// List returns indexed messages newest first. Search is a case-insensitive
// regular expression matched against q.Field, or subject, sender and
// recipients when no field is given.
func (s *Store) List(ctx context.Context, q domain.LocalQuery) ([]domain.LocalMessage, error) {
	var re *regexp.Regexp
	if q.Search != "" {
		var err error
		if re, err = regexp.Compile("(?i)" + q.Search); err != nil {
			return nil, fmt.Errorf("%w: search pattern: %w", domain.ErrInvalidInput, err)
		}
	}

	db, err := s.openExisting(ctx)
	if err != nil || db == nil {
		return nil, err
	}

	query := selectColumns + " WHERE 1 = 1"
	var args []any
	if q.Folder != "" {
		query += " AND folder = ?"
		args = append(args, q.Folder)
	}
	if !q.Since.IsZero() {
		query += " AND date >= ?"
		args = append(args, q.Since.Unix())
	}
	if q.Seen != nil {
		query += " AND seen = ?"
		args = append(args, boolInt(*q.Seen))
	}
	query += " ORDER BY date DESC, short_id;"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.LocalMessage
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if re != nil && !matches(re, m, q.Field) {
			continue
		}
		out = append(out, m)
		if q.Count > 0 && len(out) >= q.Count {
			break
		}
	}
	return out, rows.Err()
}

func matches(re *regexp.Regexp, m domain.LocalMessage, field string) bool {
	switch field {
	case "subject":
		return re.MatchString(m.Subject)
	case "from":
		return re.MatchString(m.From)
	case "to":
		return re.MatchString(m.To)
	}
	return re.MatchString(m.Subject) || re.MatchString(m.From) || re.MatchString(m.To)
}

// Lookup finds a message by short ID (any case) or Graph ID.
func (s *Store) Lookup(ctx context.Context, id string) (*domain.LocalMessage, error) {
	db, err := s.openExisting(ctx)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%w: no local message with ID %s (mail not synced yet)", domain.ErrNotFound, id)
	}
	row := db.QueryRowContext(ctx, selectColumns+` WHERE short_id = ? OR graph_id = ?;`, strings.ToLower(id), id)
	m, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no local message with ID %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup message: %w", err)
	}
	return &m, nil
}

func (s *Store) updateLocation(ctx context.Context, m *domain.LocalMessage) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(s.root, m.Path)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE messages SET graph_id = ?, folder = ?, path = ?, seen = ? WHERE short_id = ?;`,
		m.GraphID, m.Folder, filepath.ToSlash(rel), boolInt(m.Seen), m.ShortID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	logger.Debug("maildir: %s now at %s", m.ShortID, rel)
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
