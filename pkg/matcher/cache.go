package matcher

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"pmatch/pkg/compiler"
	"pmatch/pkg/parser"
)

// expectedPatterns sizes the raw key filter. Past this many raw texts the
// false positive rate climbs, but lookups stay correct.
const expectedPatterns = 1 << 16

// Cache memoizes compiled patterns twice: by the raw text a caller passed
// and by canonical form, so texts that differ only in spacing or quoting
// share one procedure. Entries are never evicted.
type Cache struct {
	mu        sync.RWMutex
	raw       map[string]*compiler.Procedure
	canonical map[string]*compiler.Procedure
	seen      *bloom.BloomFilter

	group singleflight.Group

	compiles      atomic.Int64
	rawHits       atomic.Int64
	canonicalHits atomic.Int64

	observer Observer
}

func NewCache() *Cache {
	return &Cache{
		raw:       make(map[string]*compiler.Procedure),
		canonical: make(map[string]*compiler.Procedure),
		seen:      bloom.NewWithEstimates(expectedPatterns, 1e-4),
		observer:  nopObserver{},
	}
}

func (c *Cache) lookupRaw(text string) (*compiler.Procedure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.seen.TestString(text) {
		return nil, false
	}
	p, ok := c.raw[text]
	return p, ok
}

// Get returns the procedure for text, compiling it on first use. Concurrent
// first requests for the same text share a single parse and compile.
func (c *Cache) Get(text string) (*compiler.Procedure, error) {
	if p, ok := c.lookupRaw(text); ok {
		c.rawHits.Add(1)
		c.observer.CacheLookup(LevelRaw)
		return p, nil
	}

	v, err, _ := c.group.Do(text, func() (interface{}, error) {
		if p, ok := c.lookupRaw(text); ok {
			return p, nil
		}
		return c.load(text)
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.Procedure), nil
}

func (c *Cache) load(text string) (*compiler.Procedure, error) {
	root, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	p, ok := c.canonical[root.Canonical]
	c.mu.RUnlock()

	if ok {
		c.canonicalHits.Add(1)
		c.observer.CacheLookup(LevelCanonical)
	} else {
		c.observer.CacheLookup(LevelMiss)
		start := time.Now()
		if p, err = compiler.Compile(root); err != nil {
			return nil, err
		}
		c.compiles.Add(1)
		c.observer.Compiled(time.Since(start))
		log.Debug().Str("pattern", root.Canonical).Msg("compiled pattern")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another raw text with the same canonical form may have won the race.
	if existing, ok := c.canonical[root.Canonical]; ok {
		p = existing
	} else {
		c.canonical[root.Canonical] = p
	}
	c.raw[text] = p
	c.seen.AddString(text)
	return p, nil
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Raw:           len(c.raw),
		Canonical:     len(c.canonical),
		Compiles:      c.compiles.Load(),
		RawHits:       c.rawHits.Load(),
		CanonicalHits: c.canonicalHits.Load(),
	}
}
