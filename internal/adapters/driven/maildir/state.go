package maildir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/o365-cli/internal/filex"
)

// syncState is the content of .o365/state.toml.
type syncState struct {
	Folders map[string]folderState `toml:"folders"`
}

type folderState struct {
	LastSync time.Time `toml:"last_sync"`
	Count    int       `toml:"count"`
}

func (s *Store) statePath() string {
	return filepath.Join(s.root, metaDir, stateFile)
}

func (s *Store) loadState() (*syncState, error) {
	st := &syncState{Folders: map[string]folderState{}}
	data, err := os.ReadFile(s.statePath())
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync state: %w", err)
	}
	if err := toml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.statePath(), err)
	}
	if st.Folders == nil {
		st.Folders = map[string]folderState{}
	}
	return st, nil
}

// RecordSync stores the sync time and the number of messages fetched for
// folder.
func (s *Store) RecordSync(folder string, at time.Time, count int) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	st, err := s.loadState()
	if err != nil {
		return err
	}
	st.Folders[folder] = folderState{LastSync: at.UTC().Truncate(time.Second), Count: count}
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}
	return filex.WriteFileAtomic(s.statePath(), data, 0o600)
}

// LastSync returns when folder was last synced.
func (s *Store) LastSync(folder string) (time.Time, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	st, err := s.loadState()
	if err != nil {
		return time.Time{}, false
	}
	fst, ok := st.Folders[folder]
	if !ok || fst.LastSync.IsZero() {
		return time.Time{}, false
	}
	return fst.LastSync, true
}
