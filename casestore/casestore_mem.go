package casestore

import (
	"context"
	"sync"
)

// MemCaseStore keeps cases and embeddings in process memory, with brute-force
// cosine search. Not persistent across restarts.
type MemCaseStore struct {
	mu    sync.RWMutex
	cases map[string]storedCase
}

var _ CaseStore = (*MemCaseStore)(nil)

func NewMemCaseStore() *MemCaseStore {
	return &MemCaseStore{
		cases: make(map[string]storedCase),
	}
}

func (s *MemCaseStore) Upsert(ctx context.Context, c ContentCase, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = storedCase{Case: c, Embedding: embedding}
	return nil
}

func (s *MemCaseStore) Get(ctx context.Context, id string) (*ContentCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.cases[id]
	if !ok {
		return nil, nil
	}
	out := sc.Case
	return &out, nil
}

func (s *MemCaseStore) Search(ctx context.Context, embedding []float32, params SearchParams) ([]SimilarCaseMatch, error) {
	s.mu.RLock()
	candidates := make([]storedCase, 0, len(s.cases))
	for _, sc := range s.cases {
		candidates = append(candidates, sc)
	}
	s.mu.RUnlock()
	return rankCases(candidates, embedding, params), nil
}

func (s *MemCaseStore) Stats(ctx context.Context) (StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := make([]storedCase, 0, len(s.cases))
	for _, sc := range s.cases {
		candidates = append(candidates, sc)
	}
	return statsOf(candidates), nil
}
