package dataset

import (
	"sync"
	"time"

	"salesdash/pkg/contracts/domain"
)

// Store holds the currently active dataset. An upload replaces the whole
// dataset atomically with last-write-wins semantics; readers always see
// either the previous complete dataset or the new one, never a mix.
type Store struct {
	mu       sync.RWMutex
	ds       *domain.Dataset
	source   string
	loadedAt time.Time
}

// Info describes the active dataset for health and status reporting.
type Info struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	MinDate  time.Time `json:"min_date"`
	MaxDate  time.Time `json:"max_date"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a new active dataset. Bounds travel with the dataset,
// so stale bounds from a previous load can never leak into filters.
func (s *Store) Replace(ds *domain.Dataset, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.source = source
	s.loadedAt = time.Now()
}

// Active returns the current dataset, or nil when nothing is loaded.
func (s *Store) Active() *domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Describe returns status information about the active dataset.
func (s *Store) Describe() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{Source: s.source, LoadedAt: s.loadedAt}
	if s.ds != nil {
		info.Rows = s.ds.Len()
		info.MinDate = s.ds.MinDate
		info.MaxDate = s.ds.MaxDate
	}
	return info
}
