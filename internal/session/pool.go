package session

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FieldsGetter builds the field set for a new session; it may perform I/O
// (e.g. decoding a signed token) per §4.7.
type FieldsGetter func(ctx context.Context) (map[string]Field, error)

// PoolConfig configures eviction thresholds (§3, §4.7, §8's
// "pool.size() <= SESSION_POOL_MAX" invariant).
type PoolConfig struct {
	Max               int
	RemoveBatchSize   int
	InactiveThreshold time.Duration
}

// DefaultPoolConfig mirrors commonly-seen defaults in the teacher's cache
// sizing (ten thousand entries, evict in batches of fifty).
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Max: 10000, RemoveBatchSize: 50, InactiveThreshold: 30 * time.Minute}
}

// Pool is the process-wide session cache (§3, §4.7, §5). It is backed by an
// LRU cache sized generously above Max so that our own batch-eviction logic
// — not the LRU's own single-entry eviction — decides when and how many
// entries to drop; the LRU only supplies O(1) lookup/recency-ordered
// removal via RemoveOldest.
type Pool struct {
	cfg PoolConfig

	mu    sync.Mutex
	cache *lru.Cache[string, *Session]
}

// NewPool constructs a Pool. Backing capacity is Max+RemoveBatchSize+1 so the
// LRU never auto-evicts ahead of our own Upsert-driven batch eviction.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Max <= 0 {
		cfg.Max = DefaultPoolConfig().Max
	}
	if cfg.RemoveBatchSize <= 0 {
		cfg.RemoveBatchSize = DefaultPoolConfig().RemoveBatchSize
	}
	cache, err := lru.New[string, *Session](cfg.Max + cfg.RemoveBatchSize + 1)
	if err != nil {
		return nil, err
	}
	return &Pool{cfg: cfg, cache: cache}, nil
}

// Upsert implements §4.7's upsert contract: return the cached session on
// hit (bumping last-used), otherwise build a fresh one via getter, store
// it, and evict the oldest RemoveBatchSize entries if the pool now exceeds
// Max.
func (p *Pool) Upsert(ctx context.Context, id string, getter FieldsGetter) (*Session, error) {
	p.mu.Lock()
	if existing, ok := p.cache.Get(id); ok {
		p.mu.Unlock()
		if existing.isExpired(ctx) {
			existing.destroy()
			p.mu.Lock()
			p.cache.Remove(id)
			p.mu.Unlock()
		} else {
			existing.touch()
			return existing, nil
		}
	} else {
		p.mu.Unlock()
	}

	fields, err := getter(ctx)
	if err != nil {
		return nil, err
	}
	s := newSession(id, fields)

	p.mu.Lock()
	p.cache.Add(id, s)
	if p.cache.Len() > p.cfg.Max {
		p.evictBatchLocked()
	}
	p.mu.Unlock()

	return s, nil
}

// evictBatchLocked evicts up to RemoveBatchSize oldest entries. Callers
// must hold p.mu.
func (p *Pool) evictBatchLocked() {
	for i := 0; i < p.cfg.RemoveBatchSize && p.cache.Len() > 0; i++ {
		_, victim, ok := p.cache.RemoveOldest()
		if !ok {
			return
		}
		victim.destroy()
	}
}

// Size returns the current number of cached sessions.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Len()
}

// Sweep removes sessions that are expired or inactive beyond the
// configured threshold (§4.7 "Cleanup sweep"). It is the pool's only
// "solitary writer" besides Upsert (§5).
func (p *Pool) Sweep(ctx context.Context) {
	p.mu.Lock()
	keys := p.cache.Keys()
	sessions := make([]*Session, 0, len(keys))
	for _, k := range keys {
		if s, ok := p.cache.Peek(k); ok {
			sessions = append(sessions, s)
		}
	}
	p.mu.Unlock()

	for _, s := range sessions {
		if s.isExpired(ctx) || s.isInactive(p.cfg.InactiveThreshold) {
			s.destroy()
			p.mu.Lock()
			p.cache.Remove(s.ID)
			p.mu.Unlock()
		}
	}
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled. It
// is the "periodic task (implementation-defined trigger)" named in §4.7.
func (p *Pool) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Sweep(ctx)
			}
		}
	}()
}
