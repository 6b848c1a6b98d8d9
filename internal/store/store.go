// Package store persists collected events. The file store keeps a
// JSON snapshot on disk and an index in memory, which is plenty for
// the volumes a per-locality collector produces.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"civiccal/internal/event"
)

// EventStore is what the collector needs from persistence.
type EventStore interface {
	Create(evt *event.Event) error
	Exists(id string) bool
}

// FileStore is a JSON-file backed EventStore safe for concurrent use.
type FileStore struct {
	mu     sync.Mutex
	path   string
	events map[string]*event.Event
}

// NewFileStore opens or creates a store at path. An existing snapshot
// is loaded; a missing one means an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, events: make(map[string]*event.Event)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading event store: %w", err)
	}

	var events []*event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing event store: %w", err)
	}
	for _, evt := range events {
		s.events[evt.ID] = evt
	}
	return s, nil
}

// Create stores a new event and writes the snapshot. Duplicate IDs are
// rejected so a re-collected feed cannot double-insert.
func (s *FileStore) Create(evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[evt.ID]; ok {
		return fmt.Errorf("event %s already exists", evt.ID)
	}
	s.events[evt.ID] = evt
	return s.flush()
}

// Exists reports whether an event ID is already stored.
func (s *FileStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[id]
	return ok
}

// All returns every stored event ordered by start time, then title.
func (s *FileStore) All() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*event.Event, 0, len(s.events))
	for _, evt := range s.events {
		out = append(out, evt)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Count returns the number of stored events.
func (s *FileStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// flush writes the snapshot. Callers hold the lock.
func (s *FileStore) flush() error {
	events := make([]*event.Event, 0, len(s.events))
	for _, evt := range s.events {
		events = append(events, evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing event store: %w", err)
	}
	return nil
}
