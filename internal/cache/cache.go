// Package cache stores rendered map artifacts keyed by fingerprint, bounded
// by total stored bytes with least-recently-used eviction.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Artifact is one rendered image plus its metadata. Immutable after
// insertion; a re-render replaces it wholesale.
type Artifact struct {
	Fingerprint string
	Bytes       []byte
	ContentType string
	CreatedAt   time.Time
}

// Size is the artifact's contribution to the cache's byte budget.
func (a *Artifact) Size() int64 {
	return int64(len(a.Bytes))
}

// Config bounds the store.
type Config struct {
	// CapacityBytes is the byte budget across all artifacts.
	CapacityBytes int64
	// MaxEntries caps the entry count of the underlying LRU.
	MaxEntries int
	// MaxAge, when positive, turns entries older than it into misses.
	// Zero disables aging: a ridden route never changes.
	MaxAge time.Duration
	Logger *slog.Logger
}

// Store is a byte-bounded LRU artifact cache. The LRU core tracks recency
// and entry count; the store layers total-byte accounting on top and evicts
// oldest-first until the budget holds.
type Store struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, *Artifact]
	capacity int64
	used     atomic.Int64
	maxAge   time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New creates a store. Panics only on nonsensical configuration, mirroring
// the underlying LRU constructor.
func New(cfg Config) *Store {
	if cfg.CapacityBytes <= 0 {
		cfg.CapacityBytes = 64 << 20
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Store{
		capacity: cfg.CapacityBytes,
		maxAge:   cfg.MaxAge,
		log:      cfg.Logger.With("component", "cache"),
		now:      time.Now,
	}
	c, err := lru.NewWithEvict(cfg.MaxEntries, func(key string, a *Artifact) {
		s.used.Add(-a.Size())
	})
	if err != nil {
		panic(err)
	}
	s.lru = c
	return s
}

// Get returns the artifact for a fingerprint and refreshes its recency.
// Expired entries are removed and reported as a miss, never served stale.
func (s *Store) Get(fingerprint string) (*Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.lru.Get(fingerprint)
	if !ok {
		return nil, false
	}
	if s.expired(a) {
		s.lru.Remove(fingerprint)
		return nil, false
	}
	return a, true
}

// Put inserts or replaces an artifact and evicts least-recently-used
// entries until the byte budget holds again.
func (s *Store) Put(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.lru.Peek(a.Fingerprint); ok {
		s.used.Add(-prev.Size())
	}
	s.used.Add(a.Size())
	s.lru.Add(a.Fingerprint, a)
	s.evictOverBudget()
}

// Sweep removes expired entries and enforces the byte budget. The
// supervisor runs it periodically so a burst of inserts does not pay all
// eviction cost synchronously.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxAge > 0 {
		for _, key := range s.lru.Keys() {
			if a, ok := s.lru.Peek(key); ok && s.expired(a) {
				s.lru.Remove(key)
			}
		}
	}
	s.evictOverBudget()
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// UsedBytes returns the current total artifact bytes.
func (s *Store) UsedBytes() int64 {
	return s.used.Load()
}

func (s *Store) expired(a *Artifact) bool {
	return s.maxAge > 0 && s.now().Sub(a.CreatedAt) > s.maxAge
}

func (s *Store) evictOverBudget() {
	for s.used.Load() > s.capacity && s.lru.Len() > 0 {
		key, _, _ := s.lru.RemoveOldest()
		s.log.Debug("evicted artifact", "fingerprint", key)
	}
}
