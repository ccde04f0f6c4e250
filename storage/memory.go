package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	evaluations map[string]Evaluation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.evaluations = make(map[string]Evaluation)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	run.Record.ForagingSeries = append([]float64(nil), run.Record.ForagingSeries...)
	run.Record.SearchSeries = append([]float64(nil), run.Record.SearchSeries...)
	s.runs[run.ID()] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns the runs of one evaluation, or every run when
// evaluationID is empty, oldest first.
func (s *MemoryStore) ListRuns(_ context.Context, evaluationID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	for _, run := range s.runs {
		if evaluationID == "" || run.EvaluationID == evaluationID {
			out = append(out, run)
		}
	}
	sortRuns(out)
	return out, nil
}

func (s *MemoryStore) SaveEvaluation(_ context.Context, eval Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.evaluations[eval.ID] = eval
	return nil
}

func (s *MemoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eval, ok := s.evaluations[id]
	return eval, ok, nil
}

func sortRuns(runs []Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].ID() < runs[j].ID()
	})
}
