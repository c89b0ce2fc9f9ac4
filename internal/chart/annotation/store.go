// Package annotation persists and restores user-drawn trend lines, scoped
// per instrument code.
package annotation

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
)

const keyPrefix = "trendlines_"

// StorageKey returns the persisted key for an instrument code.
func StorageKey(code string) string {
	return keyPrefix + code
}

// Store owns the in-memory trend-line list for the currently selected
// instrument and mirrors it into the key-value store. Single writer: only
// one instrument is in focus at a time, so last-write-wins is enough.
//
// Interactive two-click creation is a separate extension point; the store
// only exposes Add/Remove/Clear and display of already existing lines.
type Store struct {
	kv    kv.Store
	log   *logger.Logger
	code  string
	lines []types.TrendLine
}

// NewStore creates a store bound to the given key-value backend.
func NewStore(store kv.Store, log *logger.Logger) *Store {
	return &Store{
		kv:  store,
		log: log,
	}
}

// Load switches the store to the given instrument and restores its persisted
// trend lines. A missing or malformed record resets the list to empty;
// corruption is recovered silently, never surfaced as a fatal error.
func (s *Store) Load(code string) {
	s.code = code
	s.lines = nil

	raw, ok, err := s.kv.Get(StorageKey(code))
	if err != nil {
		s.log.Warn("cannot read persisted trend lines", zap.String("code", code), zap.Error(err))

		return
	}

	if !ok {
		return
	}

	var lines []types.TrendLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.log.Warn("discarding malformed trend line record", zap.String("code", code), zap.Error(err))

		return
	}

	s.lines = lines
}

// Code returns the instrument the store is currently scoped to.
func (s *Store) Code() string {
	return s.code
}

// Lines returns a copy of the in-memory trend-line list.
func (s *Store) Lines() []types.TrendLine {
	out := make([]types.TrendLine, len(s.lines))
	copy(out, s.lines)

	return out
}

// Add appends a trend line and persists the resulting list.
func (s *Store) Add(line types.TrendLine) error {
	s.lines = append(s.lines, line)

	return s.persist()
}

// Remove deletes the trend line with the given id, if present. The remaining
// list is persisted only when non-empty; emptying by removal does not touch
// the persisted record.
func (s *Store) Remove(id string) error {
	kept := s.lines[:0]

	for _, l := range s.lines {
		if l.ID != id {
			kept = append(kept, l)
		}
	}

	s.lines = kept

	return s.persist()
}

// Clear empties the in-memory list and deletes the persisted record. The key
// is removed rather than written as an empty array so stale keys do not
// accumulate.
func (s *Store) Clear() error {
	s.lines = nil

	return s.kv.Delete(StorageKey(s.code))
}

func (s *Store) persist() error {
	if len(s.lines) == 0 {
		return nil
	}

	raw, err := json.Marshal(s.lines)
	if err != nil {
		return err
	}

	return s.kv.Set(StorageKey(s.code), string(raw))
}
