package quotes

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
)

// shard owns the entries whose ID hashes to it, in load order.
type shard struct {
	mu      sync.RWMutex
	entries []*Entry
	byID    map[string]*Entry
}

// generation is one complete corpus. Replace swaps generations so readers
// never see a half-loaded corpus.
type generation struct {
	shards []*shard
	next   atomic.Int64
	size   atomic.Int64
}

func newGeneration(numShards int) *generation {
	g := &generation{shards: make([]*shard, numShards)}
	for i := range g.shards {
		g.shards[i] = &shard{byID: make(map[string]*Entry)}
	}
	return g
}

// Store is a sharded in-memory quote corpus, safe for concurrent use.
type Store struct {
	numShards int
	gen       atomic.Pointer[generation]
	logger    *slog.Logger
}

// NewStore creates an empty store with numShards shards (at least one).
func NewStore(numShards int) *Store {
	if numShards < 1 {
		numShards = 1
	}
	s := &Store{
		numShards: numShards,
		logger:    slog.Default().With("component", "quote-store"),
	}
	s.gen.Store(newGeneration(numShards))
	return s
}

// ShardFor maps a quote ID to its shard with 32-bit FNV-1a.
func (s *Store) ShardFor(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(s.numShards))
}

// Add stores q. IDs must be unique within the store.
func (s *Store) Add(q Quote) error {
	return s.add(s.gen.Load(), q)
}

func (s *Store) add(g *generation, q Quote) error {
	if q.ID == "" {
		return fmt.Errorf("%w: quote id is required", apperrors.ErrInvalidInput)
	}
	sh := g.shards[s.ShardFor(q.ID)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.byID[q.ID]; exists {
		return fmt.Errorf("%w: duplicate quote id %q", apperrors.ErrInvalidInput, q.ID)
	}
	e := newEntry(q, int(g.next.Add(1)-1))
	sh.entries = append(sh.entries, e)
	sh.byID[q.ID] = e
	g.size.Add(1)
	return nil
}

// Replace atomically swaps the whole corpus for quotes. Quotes with
// duplicate IDs after the first are skipped and counted.
func (s *Store) Replace(quotes []Quote) (skipped int) {
	g := newGeneration(s.numShards)
	for _, q := range quotes {
		if err := s.add(g, q); err != nil {
			s.logger.Warn("skipping quote", "id", q.ID, "error", err)
			skipped++
		}
	}
	s.gen.Store(g)
	s.logger.Info("corpus replaced", "quotes", g.size.Load(), "skipped", skipped, "shards", s.numShards)
	return skipped
}

// Get returns the entry with the given ID.
func (s *Store) Get(id string) (*Entry, error) {
	g := s.gen.Load()
	sh := g.shards[s.ShardFor(id)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrQuoteNotFound, id)
	}
	return e, nil
}

// Shards returns a point-in-time copy of every shard's entries, in load
// order within each shard.
func (s *Store) Shards() [][]*Entry {
	g := s.gen.Load()
	out := make([][]*Entry, len(g.shards))
	for i, sh := range g.shards {
		sh.mu.RLock()
		out[i] = append([]*Entry(nil), sh.entries...)
		sh.mu.RUnlock()
	}
	return out
}

// ShardSizes returns the number of quotes in each shard.
func (s *Store) ShardSizes() []int {
	g := s.gen.Load()
	sizes := make([]int, len(g.shards))
	for i, sh := range g.shards {
		sh.mu.RLock()
		sizes[i] = len(sh.entries)
		sh.mu.RUnlock()
	}
	return sizes
}

// All returns every entry in load order.
func (s *Store) All() []*Entry {
	shards := s.Shards()
	all := make([]*Entry, 0, s.Len())
	for _, entries := range shards {
		all = append(all, entries...)
	}
	sortByOrdinal(all)
	return all
}

// NumShards returns the shard count fixed at construction.
func (s *Store) NumShards() int {
	return s.numShards
}

// Len returns the number of stored quotes.
func (s *Store) Len() int {
	return int(s.gen.Load().size.Load())
}

// Reset drops every quote.
func (s *Store) Reset() {
	s.gen.Store(newGeneration(s.numShards))
}

func sortByOrdinal(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Ordinal < entries[j].Ordinal
	})
}
