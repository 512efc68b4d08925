// Package store contains the in-process cache of analysis records keyed by
// the identifier assigned at upload time. Records are inserted once and never
// mutated afterwards; a restart loses all entries. There is no eviction, so
// the cache grows with every upload for the process lifetime — an accepted
// limitation, surfaced through Len rather than hidden.
package store

import (
	"sync"

	"drawlens/internal/model"
)

// AnalysisStore is the lookup port the Q&A responder and handlers depend on.
type AnalysisStore interface {
	// Put inserts the record for key, overwriting any existing entry.
	Put(key string, rec *model.AnalysisRecord)
	// Get returns the record for key, or false when the key was never inserted.
	Get(key string) (*model.AnalysisRecord, bool)
	// Has reports whether key is present.
	Has(key string) bool
	// Len returns the number of cached records.
	Len() int
}

// InMemory is a map-backed AnalysisStore safe for concurrent use. Records are
// inserted atomically as whole values; a Get racing a Put for the same key
// observes either absence or the complete record, never a partial write.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*model.AnalysisRecord
}

// NewInMemory creates an empty in-memory analysis store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*model.AnalysisRecord)}
}

func (s *InMemory) Put(key string, rec *model.AnalysisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
}

func (s *InMemory) Get(key string) (*model.AnalysisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

func (s *InMemory) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
