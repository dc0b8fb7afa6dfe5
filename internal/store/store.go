// Package store holds the most recent analysis result.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/sozercan/image-verdict/apimodels"
)

type slot struct {
	result  *apimodels.AnalysisResult
	version uint64
}

// ResultStore is a single-slot holder of the latest AnalysisResult.
// Writes replace the slot wholesale; there is no merging of results.
type ResultStore struct {
	current atomic.Pointer[slot]

	mu        sync.Mutex // serializes writers and guards listeners
	listeners []func(*apimodels.AnalysisResult)
}

func New() *ResultStore {
	s := &ResultStore{}
	s.current.Store(&slot{})
	return s
}

// Load returns the current result and whether one is present.
func (s *ResultStore) Load() (*apimodels.AnalysisResult, bool) {
	cur := s.current.Load()
	return cur.result, cur.result != nil
}

// Version increases by one on every write, including clears.
func (s *ResultStore) Version() uint64 {
	return s.current.Load().version
}

// Replace publishes result as the latest one. A nil result clears the store.
func (s *ResultStore) Replace(result *apimodels.AnalysisResult) {
	s.mu.Lock()
	next := &slot{result: result, version: s.current.Load().version + 1}
	s.current.Store(next)
	listeners := append([]func(*apimodels.AnalysisResult){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
}

func (s *ResultStore) Clear() {
	s.Replace(nil)
}

// Subscribe registers fn to be called after every write with the new value.
func (s *ResultStore) Subscribe(fn func(*apimodels.AnalysisResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
