// Package fixture stores named expected results for regression comparison.
//
// A fixture is a rowset.RowSet recorded from a real run and saved as
// <dir>/<name>.json in the canonical rowset encoding. Once recorded it is
// read-only: tests Load it and compare it with the live query result.
package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/reserv/internal/rowset"
)

// Extension is the file suffix of every fixture.
const Extension = ".json"

var (
	// ErrNotFound is returned by Load when no fixture file exists.
	ErrNotFound = errors.New("fixture not found")

	// ErrInvalidName is returned for names that cannot be used as file names.
	ErrInvalidName = errors.New("invalid fixture name")
)

// validName keeps fixture names inside the store directory.
var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// Store reads and writes fixtures in a single directory.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir. The directory is created on the
// first Dump.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// ValidateName checks that name is usable as a fixture name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidName, name, validName)
	}
	return nil
}

// Path returns the file path of the named fixture.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+Extension)
}

// Load reads the named fixture.
func (s *Store) Load(name string) (*rowset.RowSet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (record it with --update)", ErrNotFound, s.Path(name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}

	rs, err := rowset.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return rs, nil
}

// Dump writes rs as the named fixture, replacing any previous content.
func (s *Store) Dump(name string, rs *rowset.RowSet) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := rowset.Encode(rs)
	if err != nil {
		return fmt.Errorf("failed to encode fixture %s: %w", name, err)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}

	// Write through a temp file so a failed dump never leaves half a fixture.
	tmp, err := os.CreateTemp(s.Dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp fixture: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named fixture has been recorded.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// List returns the names of all fixtures in the store, sorted.
// A missing directory yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), Extension)
		if ValidateName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
