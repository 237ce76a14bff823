package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"sort"
	"sync"

	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/diff"
	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
	lru "github.com/hashicorp/golang-lru"
)

// ErrNoTemplate is returned when a storage key does not name a template.
var ErrNoTemplate = errors.New("overlay: no such template")

type differ interface {
	Diff(*diff.Request) *diff.Result
}

// Store holds the templates and tracks their progress against the canvas.
// It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	cfg    Config
	db     *DB
	logger *log.Logger
	engine differ

	templates  map[string]*Template
	nextSortID int

	// filter holds the colors toggled by the user, absent colors are
	// enabled
	filter       map[palette.Key]bool
	memorySaving bool
	showErrors   bool

	decoded *lru.Cache
	cache   *resultCache
	stats   map[string]*diff.Stats

	listeners []func()
}

// New returns a Store using cfg. When db is not nil any templates and
// settings persisted in it are loaded and every change is written back.
func New(db *DB, logger *log.Logger, cfg Config) (*Store, error) {
	size := cfg.DecodedCacheSize
	if size <= 0 {
		size = DefaultConfig().DecodedCacheSize
	}
	decoded, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	capacity := cfg.ExampleCapacity
	if cfg.FullExamples {
		capacity = diff.FullExampleCapacity
	}

	s := &Store{
		cfg:    cfg,
		db:     db,
		logger: logger,
		engine: diff.New(diff.Config{
			TileSize:        coords.TileSize,
			ExampleCapacity: capacity,
			Seed:            cfg.Seed,
		}),
		templates: make(map[string]*Template),
		filter:    make(map[palette.Key]bool),
		decoded:   decoded,
		cache:     newResultCache(),
		stats:     make(map[string]*diff.Stats),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// OnChange registers fn to be called after every change to the templates or
// settings. fn is called without any lock held.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Templates returns every template ordered by SortID.
func (s *Store) Templates() []*Template {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		templates = append(templates, t)
	}
	sortTemplates(templates)

	return templates
}

// Template returns the template with the given storage key.
func (s *Store) Template(key string) (*Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[key]
	return t, ok
}

func sortTemplates(templates []*Template) {
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].SortID != templates[j].SortID {
			return templates[i].SortID < templates[j].SortID
		}
		return templates[i].AuthorID < templates[j].AuthorID
	})
}

func (s *Store) colorEnabled(k palette.Key) bool {
	enabled, ok := s.filter[k]
	return !ok || enabled
}

// CreateTemplate decodes the image in b and places it on the canvas with
// the given anchor at p.
func (s *Store) CreateTemplate(b []byte, name string, p coords.Point, anchor tile.Anchor) (*Template, error) {
	m, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	factor := s.cfg.probeFactor(coords.TileSize)
	res, err := tile.Split(m, p, anchor, factor, s.logger)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	t := &Template{
		Name:               name,
		SortID:             s.nextSortID,
		AuthorID:           s.cfg.Author,
		Origin:             res.Origin,
		TileSize:           coords.TileSize,
		Factor:             res.Factor,
		Palette:            make(map[palette.Key]*PaletteEntry, len(res.Palette)),
		PixelCount:         res.PixelCount,
		RequiredPixelCount: res.RequiredPixelCount,
		MarkerPixelCount:   res.MarkerPixelCount,
		Enabled:            true,
	}
	for k, n := range res.Palette {
		t.Palette[k] = &PaletteEntry{
			Count:   n,
			Enabled: s.colorEnabled(k),
		}
	}
	t.setTiles(res.Buffers, res.Tiles)
	if s.memorySaving {
		t.release()
	}

	s.templates[t.StorageKey()] = t
	s.nextSortID++

	s.logger.Printf("Created template %q as %q with %d tiles\n", name, t.StorageKey(), len(res.Buffers))

	err = s.save()
	s.mu.Unlock()

	s.notify()

	return t, err
}

// DeleteTemplate removes the template with the given storage key.
func (s *Store) DeleteTemplate(key string) error {
	s.mu.Lock()

	t, ok := s.templates[key]
	if !ok {
		s.mu.Unlock()
		return ErrNoTemplate
	}
	delete(s.templates, key)
	s.prune(t)
	for _, k := range t.TileKeys() {
		s.decoded.Remove(decodedKey(t, k))
	}

	err := s.save()
	s.mu.Unlock()

	s.notify()

	return err
}

// SetEnabled shows or hides the template with the given storage key.
func (s *Store) SetEnabled(key string, enabled bool) error {
	s.mu.Lock()

	t, ok := s.templates[key]
	if !ok {
		s.mu.Unlock()
		return ErrNoTemplate
	}
	t.Enabled = enabled
	if !enabled {
		s.prune(t)
	}

	err := s.save()
	s.mu.Unlock()

	s.notify()

	return err
}

// prune drops the stats and cached results of every tile t covers that is
// not covered by any other enabled template. Must be called with the lock
// held.
func (s *Store) prune(t *Template) {
	for prefix := range t.prefixes {
		covered := false
		for _, o := range s.templates {
			if o != t && o.Enabled && o.Touches(prefix) {
				covered = true
				break
			}
		}
		if !covered {
			delete(s.stats, prefix)
			s.cache.delete(prefix)
		}
	}
}

// SetColorEnabled shows or hides a color across every template. The choice
// is remembered for templates created later.
func (s *Store) SetColorEnabled(k palette.Key, enabled bool) error {
	s.mu.Lock()

	s.filter[k] = enabled
	for _, t := range s.templates {
		if e, ok := t.Palette[k]; ok {
			e.Enabled = enabled
		}
	}

	err := s.save()
	s.mu.Unlock()

	s.notify()

	return err
}

// ColorEnabled reports whether a color is shown.
func (s *Store) ColorEnabled(k palette.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorEnabled(k)
}

// SetMemorySavingMode toggles memory saving mode. While it is on the
// decoded tiles are not held by the templates, only a bounded number of
// them is kept around.
func (s *Store) SetMemorySavingMode(enabled bool) error {
	s.mu.Lock()

	s.memorySaving = enabled
	if enabled {
		for _, t := range s.templates {
			t.release()
		}
	} else {
		s.decoded.Purge()
	}

	err := s.save()
	s.mu.Unlock()

	s.notify()

	return err
}

// MemorySavingMode reports whether memory saving mode is on.
func (s *Store) MemorySavingMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memorySaving
}

// SetShowErrors toggles the error overlay.
func (s *Store) SetShowErrors(enabled bool) error {
	s.mu.Lock()
	s.showErrors = enabled
	err := s.save()
	s.mu.Unlock()

	s.notify()

	return err
}

// InvolvedTemplates returns the templates with a tile within the canvas tile
// with the given key or key prefix, ordered by SortID.
func (s *Store) InvolvedTemplates(key string) []*Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.involved(coords.KeyPrefix(key))
}

func (s *Store) involved(prefix string) []*Template {
	var templates []*Template
	for _, t := range s.templates {
		if t.Touches(prefix) {
			templates = append(templates, t)
		}
	}
	sortTemplates(templates)
	return templates
}

// Touches reports whether any enabled template covers the canvas tile.
func (s *Store) Touches(tileX, tileY int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return anyEnabled(s.involved(coords.Prefix(tileX, tileY)))
}

func anyEnabled(templates []*Template) bool {
	for _, t := range templates {
		if t.Enabled {
			return true
		}
	}
	return false
}

func decodedKey(t *Template, key string) string {
	return t.StorageKey() + "@" + t.Version + "/" + key
}

// tile returns the decoded tile of t with the given key. Must be called
// with the lock held.
func (s *Store) tile(t *Template, key string) (*image.NRGBA, error) {
	slot, ok := t.tiles[key]
	if !ok {
		return nil, fmt.Errorf("template %q has no tile %s", t.StorageKey(), key)
	}
	if m, ok := slot.Bitmap(); ok {
		return m, nil
	}
	if !s.memorySaving {
		return slot.Reacquire(true)
	}

	k := decodedKey(t, key)
	if v, ok := s.decoded.Get(k); ok {
		return v.(*image.NRGBA), nil
	}
	m, err := slot.Reacquire(false)
	if err != nil {
		return nil, err
	}
	s.decoded.Add(k, m)

	return m, nil
}

// Tile returns the decoded tile with the given key of the template with the
// given storage key.
func (s *Store) Tile(storageKey, key string) (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[storageKey]
	if !ok {
		return nil, ErrNoTemplate
	}
	return s.tile(t, key)
}

// ProcessTile diffs the encoded canvas tile in live against the templates
// covering it and returns the encoded overlay. token identifies the content
// of live, typically its last modified time. When token is empty a checksum
// of live is used instead. live is returned unchanged when no enabled template covers the tile.
func (s *Store) ProcessTile(tileX, tileY int, live []byte, token string) ([]byte, error) {
	prefix := coords.Prefix(tileX, tileY)

	s.mu.Lock()

	involved := s.involved(prefix)
	if !anyEnabled(involved) {
		delete(s.stats, prefix)
		s.cache.delete(prefix)
		s.mu.Unlock()
		return live, nil
	}

	if token == "" {
		token = "crc:" + contentStamp(live)
	}
	fp := fingerprint(token, s.showErrors, enabledColors(involved), involved)
	if r, ok := s.cache.get(prefix, fp); ok {
		s.mu.Unlock()
		return r.buf, nil
	}

	req := &diff.Request{
		TileX:      tileX,
		TileY:      tileY,
		Disabled:   disabledColors(involved),
		ShowErrors: s.showErrors,
	}
	for _, t := range involved {
		for _, key := range t.chunks(prefix) {
			m, err := s.tile(t, key)
			if err != nil {
				s.logger.Printf("Skipping tile %s of %q: %v\n", key, t.StorageKey(), err)
				continue
			}
			p, err := coords.ParseKey(key)
			if err != nil {
				continue
			}
			req.Layers = append(req.Layers, diff.Layer{
				Key:     t.StorageKey(),
				SortID:  t.SortID,
				Enabled: t.Enabled,
				Factor:  t.Factor,
				Offset:  image.Pt(p.PixelX, p.PixelY),
				Bitmap:  m,
			})
		}
	}

	s.mu.Unlock()

	if len(live) > 0 {
		m, err := bitmap.DecodeBytes(live)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", prefix, err)
		}
		req.Live = m
	}

	res := s.engine.Diff(req)

	buf := live
	if res.Image != nil {
		b, err := bitmap.EncodeBytes(res.Image)
		if err != nil {
			return nil, err
		}
		buf = b
	}

	s.mu.Lock()
	// The templates may have been disabled or deleted during the diff
	if anyEnabled(s.involved(prefix)) {
		s.stats[prefix] = res.Stats
		s.cache.put(prefix, fp, &tileResult{
			buf:   buf,
			stats: res.Stats,
		})
	} else {
		delete(s.stats, prefix)
		s.cache.delete(prefix)
	}
	s.mu.Unlock()

	return buf, nil
}

// Stats returns the statistics of the last diff of a canvas tile.
func (s *Store) Stats(tileX, tileY int) (*diff.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[coords.Prefix(tileX, tileY)]
	return st, ok
}
