package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/filex"
)

// Entry is one key of the config file.
type Entry struct {
	Section string
	Option  string
	Value   string
}

// Key returns the dotted "section.option" form.
func (e Entry) Key() string {
	return e.Section + "." + e.Option
}

// File edits the INI config file in place.
type File struct {
	path string
	ini  *ini.File
}

// OpenFile loads path for editing. A missing file yields an empty document.
func OpenFile(path string) (*File, error) {
	f := ini.Empty()
	if filex.Exists(path) {
		loaded, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		f = loaded
	}
	return &File{path: path, ini: f}, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// SplitKey splits "section.option" into its parts.
func SplitKey(key string) (section, option string, err error) {
	section, option, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || option == "" {
		return "", "", fmt.Errorf("%w: key %q must be in section.option form (e.g. auth.client_id)",
			domain.ErrInvalidInput, key)
	}
	return section, option, nil
}

// Get returns the value for key and whether it is set.
func (f *File) Get(key string) (string, bool, error) {
	section, option, err := SplitKey(key)
	if err != nil {
		return "", false, err
	}
	sec, err := f.ini.GetSection(section)
	if err != nil || !sec.HasKey(option) {
		return "", false, nil
	}
	return sec.Key(option).String(), true, nil
}

// Set assigns value to key, creating the section when needed.
func (f *File) Set(key, value string) error {
	section, option, err := SplitKey(key)
	if err != nil {
		return err
	}
	f.ini.Section(section).Key(option).SetValue(value)
	return nil
}

// Unset removes key and drops the section once empty. It reports whether the
// key existed.
func (f *File) Unset(key string) (bool, error) {
	section, option, err := SplitKey(key)
	if err != nil {
		return false, err
	}
	sec, err := f.ini.GetSection(section)
	if err != nil || !sec.HasKey(option) {
		return false, nil
	}
	sec.DeleteKey(option)
	if len(sec.Keys()) == 0 {
		f.ini.DeleteSection(section)
	}
	return true, nil
}

// Entries lists every key, sorted by section then option.
func (f *File) Entries() []Entry {
	var entries []Entry
	for _, sec := range f.ini.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		for _, k := range sec.Keys() {
			entries = append(entries, Entry{Section: sec.Name(), Option: k.Name(), Value: k.Value()})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Section != entries[j].Section {
			return entries[i].Section < entries[j].Section
		}
		return entries[i].Option < entries[j].Option
	})
	return entries
}

// Save writes the file atomically with mode 0600.
func (f *File) Save() error {
	var buf bytes.Buffer
	if _, err := f.ini.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := filex.WriteFileAtomic(f.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// EnsureExists creates an empty config file with mode 0600 when missing.
func EnsureExists(path string) error {
	if filex.Exists(path) {
		return os.Chmod(path, 0o600)
	}
	return filex.WriteFileAtomic(path, []byte(""), 0o600)
}

// IsSecret reports whether a key holds a credential that should be masked
// when listed.
func IsSecret(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "secret") || strings.Contains(k, "password")
}
