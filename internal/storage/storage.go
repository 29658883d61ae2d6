// Package storage holds per-run, in-memory scrape results so a URL listed
// more than once in a seed is fetched only once.
package storage

import (
	"context"
	"sync"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"golang.org/x/sync/singleflight"
)

// Entry is a stored scrape outcome. Failures are stored as well.
type Entry struct {
	Result *models.ScrapeResult
	Err    error
}

// ScrapeFunc fetches one URL.
type ScrapeFunc func(ctx context.Context, url string) (*models.ScrapeResult, error)

type ScrapeStore struct {
	entries map[string]Entry
	mu      sync.RWMutex
	group   singleflight.Group
}

func New() *ScrapeStore {
	return &ScrapeStore{
		entries: make(map[string]Entry),
	}
}

func (s *ScrapeStore) Get(url string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.entries[url]
	return e, exists
}

func (s *ScrapeStore) Set(url string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = e
}

func (s *ScrapeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Fetch returns the stored outcome for url, calling fn at most once per URL
// even when rows ask for it concurrently.
func (s *ScrapeStore) Fetch(ctx context.Context, url string, fn ScrapeFunc) (*models.ScrapeResult, error) {
	if e, ok := s.Get(url); ok {
		return e.Result, e.Err
	}

	v, _, _ := s.group.Do(url, func() (any, error) {
		if e, ok := s.Get(url); ok {
			return e, nil
		}
		result, err := fn(ctx, url)
		e := Entry{Result: result, Err: err}
		s.Set(url, e)
		return e, nil
	})

	e := v.(Entry)
	return e.Result, e.Err
}
