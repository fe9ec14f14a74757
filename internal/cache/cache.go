// Package cache reads back the most recent structured export for the API.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bighogz/form4-sales/internal/export"
	"github.com/bighogz/form4-sales/internal/report"
)

// ErrNoData is returned when no export has been written yet.
var ErrNoData = eris.New("cache: no export available")

// Snapshot is the latest export and when it was written.
type Snapshot struct {
	UpdatedAt time.Time       `json:"last_updated"`
	Sales     []report.Record `json:"sales"`
}

// Store reads exports from a directory.
type Store struct {
	dir    string
	maxAge time.Duration
}

// New returns a Store over dir. A positive maxAge makes older exports stale.
func New(dir string, maxAge time.Duration) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, maxAge: maxAge}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, export.JSONName)
}

// Read loads the latest export. Stale exports are returned only when
// allowStale is set.
func (s *Store) Read(allowStale bool) (*Snapshot, error) {
	info, err := os.Stat(s.path())
	if os.IsNotExist(err) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: stat export")
	}
	if !allowStale && s.maxAge > 0 && time.Since(info.ModTime()) > s.maxAge {
		return nil, ErrNoData
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil, eris.Wrap(err, "cache: read export")
	}
	var sales []report.Record
	if err := json.Unmarshal(data, &sales); err != nil {
		return nil, eris.Wrap(err, "cache: decode export")
	}
	return &Snapshot{UpdatedAt: info.ModTime().UTC(), Sales: sales}, nil
}

// UpdatedAt returns the export's modification time, or nil when there is none.
func (s *Store) UpdatedAt() *time.Time {
	info, err := os.Stat(s.path())
	if err != nil {
		return nil
	}
	t := info.ModTime().UTC()
	return &t
}
