// Package glyphcache caches rendered glyph images, outlines and paths.
//
// Entries are grouped in segments, one per Key (a strike plus what is being
// rendered). Every entry of every segment sits on one least-recently-used
// list and the cache evicts from its tail while its byte size exceeds the
// budget. A segment disappears with its last entry; the rasterizer of a
// strike is closed when the last segment of that strike goes away.
//
// Rasterization runs outside the cache lock. Two goroutines missing on the
// same glyph may both rasterize it; the first to insert wins and the other
// result is discarded.
package glyphcache

import (
	"image/color"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gogpu/typeset/shape"
)

// Config holds cache configuration.
type Config struct {
	// MaxBytes is the byte budget. Default: 1/8 of the Go soft memory
	// limit, or 64 MiB when no limit is set.
	MaxBytes int64

	// NewRasterizer creates strike rasterizers. Default: NewRasterizer.
	NewRasterizer RasterizerFactory
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxBytes:      defaultBudget(),
		NewRasterizer: NewRasterizer,
	}
}

func defaultBudget() int64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 64 << 20
	}
	return limit / 8
}

// Stats is a snapshot of cache statistics.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Insertions uint64
	Entries    int
	Segments   int
	Bytes      int64
}

type entry struct {
	seg   *segment
	id    shape.GlyphID
	glyph glyph
	cost  int64

	prev, next *entry
}

type segment struct {
	key     Key
	entries map[shape.GlyphID]*entry
	raster  *rasterHandle
}

// rasterHandle is the reference-counted rasterizer of a strike. Segments
// and in-flight rasterizations hold references.
type rasterHandle struct {
	strike  Strike
	factory RasterizerFactory
	refs    int

	createOnce sync.Once
	closeOnce  sync.Once
	r          Rasterizer
	err        error
}

func (h *rasterHandle) rasterizer() (Rasterizer, error) {
	h.createOnce.Do(func() {
		h.r, h.err = h.factory(h.strike)
	})
	return h.r, h.err
}

func (h *rasterHandle) close() {
	h.closeOnce.Do(func() {
		// Consume createOnce so a closed handle never creates.
		h.createOnce.Do(func() {})
		if h.r == nil {
			return
		}
		if err := h.r.Close(); err != nil {
			slogger().Warn("glyphcache: close rasterizer", "err", err)
		}
	})
}

// Cache is a byte-budgeted glyph cache. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	cfg      Config
	segments map[Key]*segment
	rasters  map[Strike]*rasterHandle
	lru      entry // sentinel: lru.next is the most recently used entry
	size     int64
	count    int

	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	insertions atomic.Uint64
}

// New returns a cache with the default configuration.
func New() *Cache {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns a cache with the given configuration. Zero fields
// take their defaults.
func NewWithConfig(cfg Config) *Cache {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultBudget()
	}
	if cfg.NewRasterizer == nil {
		cfg.NewRasterizer = NewRasterizer
	}
	c := &Cache{
		cfg:      cfg,
		segments: make(map[Key]*segment),
		rasters:  make(map[Strike]*rasterHandle),
	}
	c.lru.next = &c.lru
	c.lru.prev = &c.lru
	return c
}

// GlyphImage returns the alpha mask of a glyph. The result is nil or empty
// when the glyph has no visual.
func (c *Cache) GlyphImage(s Strike, id shape.GlyphID) *Bitmap {
	return load(c, DataKey(s), id, bitmapLoaded,
		func(g *glyph) *Bitmap { return g.bitmap },
		func(g *glyph, b *Bitmap) { g.bitmap = b },
		func(r Rasterizer) (*Bitmap, error) { return r.Bitmap(id) },
		nil,
	)
}

// ColoredGlyphImage returns the glyph image tinted with fg as a
// premultiplied *image.RGBA.
func (c *Cache) ColoredGlyphImage(s Strike, id shape.GlyphID, fg color.Color) *Bitmap {
	key := ColorKey(s, fg)
	rgba := [4]uint8{key.Color.R, key.Color.G, key.Color.B, key.Color.A}
	return load(c, key, id, bitmapLoaded,
		func(g *glyph) *Bitmap { return g.bitmap },
		func(g *glyph, b *Bitmap) { g.bitmap = b },
		func(Rasterizer) (*Bitmap, error) {
			mask := c.GlyphImage(s, id)
			if mask.Empty() {
				return &Bitmap{}, nil
			}
			return tint(mask, rgba), nil
		},
		nil,
	)
}

// StrokedGlyphImage returns the alpha mask of the glyph outline stroked
// with style.
func (c *Cache) StrokedGlyphImage(s Strike, id shape.GlyphID, style StrokeStyle) *Bitmap {
	key := StrokeKey(s, style.Radius, style.Cap, style.Join, style.MiterLimit)
	return load(c, key, id, bitmapLoaded,
		func(g *glyph) *Bitmap { return g.bitmap },
		func(g *glyph, b *Bitmap) { g.bitmap = b },
		func(r Rasterizer) (*Bitmap, error) { return r.StrokedBitmap(id, style) },
		nil,
	)
}

// GlyphOutline returns the outline handle of a glyph, or nil. The handle
// stays owned by the cache and is released when its entry is evicted.
func (c *Cache) GlyphOutline(s Strike, id shape.GlyphID) *Outline {
	return load(c, DataKey(s), id, outlineLoaded,
		func(g *glyph) *Outline { return g.outline },
		func(g *glyph, o *Outline) { g.outline = o },
		func(r Rasterizer) (*Outline, error) { return r.Outline(id) },
		func(o *Outline) { o.Release() },
	)
}

// GlyphPath returns the vector path of a glyph, or nil.
func (c *Cache) GlyphPath(s Strike, id shape.GlyphID) *Path {
	return load(c, DataKey(s), id, pathLoaded,
		func(g *glyph) *Path { return g.path },
		func(g *glyph, p *Path) { g.path = p },
		func(r Rasterizer) (*Path, error) { return r.Path(id) },
		nil,
	)
}

// load returns one representation of a glyph, producing it outside the lock
// on a miss. A failed production is cached as a nil value.
func load[T any](c *Cache, key Key, id shape.GlyphID, state glyphState,
	get func(*glyph) T, set func(*glyph, T),
	produce func(Rasterizer) (T, error), discard func(T),
) T {
	c.mu.Lock()
	if e := c.find(key, id); e != nil && e.glyph.state&state != 0 {
		c.touch(e)
		v := get(&e.glyph)
		c.mu.Unlock()
		c.hits.Add(1)
		return v
	}
	h := c.acquireLocked(key.Strike)
	c.mu.Unlock()
	c.misses.Add(1)

	var v T
	r, err := h.rasterizer()
	if err == nil {
		v, err = produce(r)
	}
	if err != nil {
		slogger().Warn("glyphcache: rasterize", "kind", key.Kind, "glyph", id, "err", err)
		var zero T
		v = zero
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.releaseLocked(h)

	e := c.find(key, id)
	if e != nil && e.glyph.state&state != 0 {
		if discard != nil && err == nil {
			discard(v)
		}
		c.touch(e)
		return get(&e.glyph)
	}
	if e == nil {
		e = c.insertLocked(key, id)
	} else {
		c.touch(e)
	}
	set(&e.glyph, v)
	e.glyph.state |= state
	c.recostLocked(e)
	c.evictLocked(e)
	return v
}

func (c *Cache) find(key Key, id shape.GlyphID) *entry {
	seg := c.segments[key]
	if seg == nil {
		return nil
	}
	return seg.entries[id]
}

func (c *Cache) acquireLocked(s Strike) *rasterHandle {
	h := c.rasters[s]
	if h == nil {
		h = &rasterHandle{strike: s, factory: c.cfg.NewRasterizer}
		c.rasters[s] = h
	}
	h.refs++
	return h
}

func (c *Cache) releaseLocked(h *rasterHandle) {
	h.refs--
	if h.refs > 0 {
		return
	}
	if c.rasters[h.strike] == h {
		delete(c.rasters, h.strike)
	}
	h.close()
}

func (c *Cache) insertLocked(key Key, id shape.GlyphID) *entry {
	seg := c.segments[key]
	if seg == nil {
		seg = &segment{
			key:     key,
			entries: make(map[shape.GlyphID]*entry),
			raster:  c.acquireLocked(key.Strike),
		}
		c.segments[key] = seg
	}
	e := &entry{seg: seg, id: id}
	seg.entries[id] = e
	c.pushFront(e)
	c.count++
	c.insertions.Add(1)
	return e
}

func (c *Cache) removeLocked(e *entry) {
	c.unlink(e)
	seg := e.seg
	delete(seg.entries, e.id)
	c.size -= e.cost
	c.count--
	if e.glyph.outline != nil {
		e.glyph.outline.Release()
	}
	if len(seg.entries) == 0 {
		delete(c.segments, seg.key)
		c.releaseLocked(seg.raster)
	}
}

func (c *Cache) recostLocked(e *entry) {
	cost := e.glyph.cost()
	c.size += cost - e.cost
	e.cost = cost
}

// evictLocked drops least recently used entries until the cache fits its
// budget. keep is never evicted.
func (c *Cache) evictLocked(keep *entry) {
	for c.size > c.cfg.MaxBytes {
		victim := c.lru.prev
		if victim == &c.lru || victim == keep {
			return
		}
		slogger().Debug("glyphcache: evict", "kind", victim.seg.key.Kind, "glyph", victim.id, "bytes", victim.cost)
		c.removeLocked(victim)
		c.evictions.Add(1)
	}
}

func (c *Cache) pushFront(e *entry) {
	e.prev = &c.lru
	e.next = c.lru.next
	c.lru.next.prev = e
	c.lru.next = e
}

func (c *Cache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

func (c *Cache) touch(e *entry) {
	if c.lru.next == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

// Clear removes every entry, releasing outline handles and closing the
// rasterizers no longer referenced.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.lru.next != &c.lru {
		c.removeLocked(c.lru.next)
	}
}

// Size returns the current cost of all entries in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// MaxBytes returns the byte budget.
func (c *Cache) MaxBytes() int64 { return c.cfg.MaxBytes }

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries, segments, size := c.count, len(c.segments), c.size
	c.mu.Unlock()
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		Insertions: c.insertions.Load(),
		Entries:    entries,
		Segments:   segments,
		Bytes:      size,
	}
}
