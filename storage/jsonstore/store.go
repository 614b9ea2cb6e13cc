package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
)

// Store persists all assignment records as a single JSON document, loaded and
// replaced as a whole. Writes are atomic (temp file + rename) and serialized
// by an advisory lock, so a reconciliation pass and a reminder pass can never
// interleave their read-modify-write cycles.
type Store struct {
	path   string
	logger core.Logger

	mu sync.Mutex
}

var _ assignment.Repository = (*Store)(nil)

func Open(path string, logger core.Logger) *Store {
	return &Store{path: path, logger: logger}
}

type document struct {
	Assignments []assignment.Assignment `json:"assignments"`
}

func (s *Store) LoadAll() ([]assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Update(fn func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}
	out, changed, err := fn(recs)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(out)
}

func (s *Store) load() ([]assignment.Assignment, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil // no data file yet
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt document loads as empty so the app stays available, but the
		// broken file is quarantined first and the corruption reported.
		s.quarantine(err)
		return nil, nil
	}
	return doc.Assignments, nil
}

func (s *Store) quarantine(parseErr error) {
	dst := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, dst); err != nil {
		s.logger.Error(fmt.Sprintf("quarantining corrupt store document: %v", err), err)
		return
	}
	s.logger.Warn(fmt.Sprintf("store document is corrupt, quarantined to %s", dst), parseErr)
}

func (s *Store) save(recs []assignment.Assignment) error {
	if recs == nil {
		recs = []assignment.Assignment{}
	}
	data, err := json.MarshalIndent(document{Assignments: recs}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling store document")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "replacing %s", s.path)
	}
	return nil
}
