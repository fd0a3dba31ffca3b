// Package corpus keeps the documents a retrieval session has ingested.
package corpus

import (
	"sync"

	"scadarag/internal/domain"
)

// Storage is an in-memory, insertion-ordered document collection.
type Storage struct {
	mu   sync.RWMutex
	docs []domain.Document
	pos  map[string]int
}

func NewStorage() *Storage { return &Storage{pos: make(map[string]int)} }

// Upsert appends documents in order. A document whose ID is already stored
// replaces the earlier version in place.
func (s *Storage) Upsert(docs []domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if i, ok := s.pos[d.ID]; ok {
			s.docs[i] = d
			continue
		}
		s.pos[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
}

// Remove deletes the documents with the given IDs and reports how many were
// present.
func (s *Storage) Remove(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.pos[id]; ok {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := s.docs[:0]
	for _, d := range s.docs {
		if _, ok := drop[d.ID]; !ok {
			kept = append(kept, d)
		}
	}
	clear(s.docs[len(kept):])
	s.docs = kept
	s.reindex()
	return len(drop)
}

// Documents returns a copy of the stored documents in insertion order.
func (s *Storage) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.pos = make(map[string]int)
}

func (s *Storage) reindex() {
	s.pos = make(map[string]int, len(s.docs))
	for i, d := range s.docs {
		s.pos[d.ID] = i
	}
}
