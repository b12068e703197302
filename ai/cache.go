package ai

// Bound says how a cached score relates to the true value of its node.
type Bound uint8

const (
	BoundExact Bound = iota + 1
	// BoundLower: the node failed high, the true value is at least the score.
	BoundLower
	// BoundUpper: the node failed low, the true value is at most the score.
	BoundUpper
)

// CacheKey identifies a search node. The same grid with a different depth
// left or a different side to move is a different node.
type CacheKey struct {
	Signature  uint64
	Depth      int
	Maximizing bool
}

type CacheEntry struct {
	Score float64
	Bound Bound
}

type CacheStats struct {
	Lookups uint64 `json:"lookups"`
	Hits    uint64 `json:"hits"`
	Stores  uint64 `json:"stores"`
	Resets  uint64 `json:"resets"`
	Entries int    `json:"entries"`
}

// Cache is the transposition table of a single agent. It is not safe for
// concurrent use and is never shared between agents.
type Cache struct {
	table      map[CacheKey]CacheEntry
	maxEntries int

	lookups uint64
	hits    uint64
	stores  uint64
	resets  uint64
}

// NewCache returns an empty cache. maxEntries <= 0 means unbounded.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		table:      make(map[CacheKey]CacheEntry),
		maxEntries: maxEntries,
	}
}

// Lookup returns the raw entry for k.
func (c *Cache) Lookup(k CacheKey) (CacheEntry, bool) {
	e, ok := c.table[k]
	return e, ok
}

// probe returns a score usable for the window (alpha, beta). Exact entries
// always are; bounds only when they already prove the cutoff.
func (c *Cache) probe(k CacheKey, alpha, beta float64) (float64, bool) {
	c.lookups++
	e, ok := c.table[k]
	if !ok {
		return 0, false
	}
	switch {
	case e.Bound == BoundExact,
		e.Bound == BoundLower && e.Score >= beta,
		e.Bound == BoundUpper && e.Score <= alpha:
		c.hits++
		return e.Score, true
	}
	return 0, false
}

// Store records score for k. Once the table holds maxEntries it is cleared
// before the insert.
func (c *Cache) Store(k CacheKey, score float64, b Bound) {
	if _, exists := c.table[k]; !exists && c.maxEntries > 0 && len(c.table) >= c.maxEntries {
		c.Reset()
	}
	c.table[k] = CacheEntry{Score: score, Bound: b}
	c.stores++
}

// Reset drops every entry. Counters other than resets are kept.
func (c *Cache) Reset() {
	clear(c.table)
	c.resets++
}

func (c *Cache) Len() int { return len(c.table) }

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Lookups: c.lookups,
		Hits:    c.hits,
		Stores:  c.stores,
		Resets:  c.resets,
		Entries: len(c.table),
	}
}

// boundFor classifies a fail-soft result searched with window (alpha, beta).
func boundFor(score, alpha, beta float64) Bound {
	switch {
	case score <= alpha:
		return BoundUpper
	case score >= beta:
		return BoundLower
	}
	return BoundExact
}
