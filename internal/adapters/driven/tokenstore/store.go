// Package tokenstore persists OAuth tokens as a JSON file readable only by
// the current user.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/filex"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TokenStore = (*Store)(nil)

const fileMode = 0o600

// Store reads and writes the token file.
type Store struct {
	path string
}

// New creates a store for the token file at path.
func New(path string) *Store {
	return &Store{path: filex.ExpandHome(path)}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the token file.
func (s *Store) Load() (*domain.TokenSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token file at %s", domain.ErrAuthRequired, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var tokens domain.TokenSet
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: token file %s is corrupt: %w", domain.ErrAuthRequired, s.path, err)
	}
	if tokens.AccessToken == "" && tokens.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s holds no tokens", domain.ErrAuthRequired, s.path)
	}
	return &tokens, nil
}

// Save replaces the token file atomically with mode 0600.
func (s *Store) Save(tokens *domain.TokenSet) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, data, fileMode); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	logger.Debug("tokenstore: saved tokens to %s", s.path)
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
