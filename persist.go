package overlay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
	"golang.org/x/sync/errgroup"
)

const (
	// Version is the version of the export format writer
	Version = "1.0.0"

	schemaVersion = "2.0.0"

	templatesKey = "templates"
	settingsKey  = "settings"
)

type document struct {
	WhoAmI        string                    `json:"whoami"`
	ScriptVersion string                    `json:"scriptVersion"`
	SchemaVersion string                    `json:"schemaVersion"`
	Templates     map[string]templateRecord `json:"templates"`
}

type templateRecord struct {
	Name    string                   `json:"name"`
	Coords  string                   `json:"coords"`
	Enabled bool                     `json:"enabled"`
	Factor  int                      `json:"factor,omitempty"`
	Tiles   map[string]string        `json:"tiles"`
	Palette map[string]paletteRecord `json:"palette,omitempty"`
}

type paletteRecord struct {
	Count   int  `json:"count"`
	Enabled bool `json:"enabled"`
}

type settings struct {
	Filter       map[string]bool `json:"filter,omitempty"`
	MemorySaving bool            `json:"memorySaving"`
	ShowErrors   bool            `json:"showErrors"`
}

// Export serializes every template.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.export()
}

func (s *Store) export() ([]byte, error) {
	doc := document{
		WhoAmI:        "overlay",
		ScriptVersion: Version,
		SchemaVersion: schemaVersion,
		Templates:     make(map[string]templateRecord, len(s.templates)),
	}

	for key, t := range s.templates {
		rec := templateRecord{
			Name:    t.Name,
			Coords:  t.Origin.String(),
			Enabled: t.Enabled,
			Factor:  t.Factor,
			Tiles:   make(map[string]string, len(t.tiles)),
			Palette: make(map[string]paletteRecord, len(t.Palette)),
		}
		for k, slot := range t.tiles {
			rec.Tiles[k] = base64.StdEncoding.EncodeToString(slot.Bytes())
		}
		for k, e := range t.Palette {
			rec.Palette[k.String()] = paletteRecord{
				Count:   e.Count,
				Enabled: e.Enabled,
			}
		}
		doc.Templates[key] = rec
	}

	return json.Marshal(doc)
}

// Import loads the templates serialized in b, replacing any template with
// the same storage key. Malformed input is logged and skipped, the number of
// imported templates is returned.
func (s *Store) Import(b []byte) (int, error) {
	s.mu.Lock()

	n := s.importTemplates(b)
	err := s.save()
	s.mu.Unlock()

	s.notify()

	return n, err
}

func (s *Store) importTemplates(b []byte) int {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.logger.Printf("Ignoring malformed templates: %v\n", err)
		return 0
	}

	keys := make([]string, 0, len(doc.Templates))
	for k := range doc.Templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := 0
	for _, key := range keys {
		t, err := s.decodeTemplate(key, doc.Templates[key])
		if err != nil {
			s.logger.Printf("Ignoring template %q: %v\n", key, err)
			continue
		}

		if old, ok := s.templates[key]; ok {
			for _, k := range old.TileKeys() {
				s.decoded.Remove(decodedKey(old, k))
			}
		}
		s.templates[key] = t
		if t.SortID >= s.nextSortID {
			s.nextSortID = t.SortID + 1
		}
		n++
	}

	return n
}

// decodeTemplate rebuilds a template from its record, decoding the tiles
// concurrently and recounting the pixels from them.
func (s *Store) decodeTemplate(key string, rec templateRecord) (*Template, error) {
	sortID, author, err := parseStorageKey(key)
	if err != nil {
		return nil, err
	}

	origin, err := coords.ParseCoords(rec.Coords)
	if err != nil {
		return nil, err
	}

	// Check the geometry from the PNG headers before decoding anything
	edge := 0
	for k, v := range rec.Tiles {
		if _, err := coords.ParseKey(k); err != nil {
			return nil, err
		}
		cfg, err := bitmap.DecodeConfigBase64(v)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", k, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, fmt.Errorf("tile %s: empty image", k)
		}
		edge = gcd(gcd(edge, cfg.Width), cfg.Height)
	}

	var (
		mu      sync.Mutex
		buffers = make(map[string][]byte, len(rec.Tiles))
		bitmaps = make(map[string]*image.NRGBA, len(rec.Tiles))
		g       errgroup.Group
	)

	for k, v := range rec.Tiles {
		k, v := k, v
		g.Go(func() error {
			b, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return err
			}
			m, err := bitmap.DecodeBytes(b)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			buffers[k] = b
			bitmaps[k] = m

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := &Template{
		Name:     rec.Name,
		SortID:   sortID,
		AuthorID: author,
		Origin:   origin,
		TileSize: coords.TileSize,
		Factor:   rec.Factor,
		Enabled:  rec.Enabled,
	}
	if t.Factor <= 0 || t.Factor%2 == 0 || (edge > 0 && edge%t.Factor != 0) {
		t.Factor = s.detectFactor(edge, bitmaps)
	}

	for k, m := range bitmaps {
		p, _ := coords.ParseKey(k)
		if p.PixelX+m.Rect.Dx()/t.Factor > coords.TileSize || p.PixelY+m.Rect.Dy()/t.Factor > coords.TileSize {
			return nil, fmt.Errorf("tile %s does not fit within the canvas tile", k)
		}
	}

	t.recount(bitmaps)
	for k, e := range t.Palette {
		if p, ok := rec.Palette[k.String()]; ok {
			e.Enabled = p.Enabled
		} else {
			e.Enabled = s.colorEnabled(k)
		}
	}

	if s.memorySaving {
		t.setTiles(buffers, nil)
	} else {
		t.setTiles(buffers, bitmaps)
	}

	return t, nil
}

// detectFactor recovers the upsample factor of imported tiles. When the
// tiles hold no color sample at all the probed factor is used, reduced until
// it fits the tile geometry.
func (s *Store) detectFactor(edge int, bitmaps map[string]*image.NRGBA) int {
	tiles := make([]*image.NRGBA, 0, len(bitmaps))
	for _, m := range bitmaps {
		tiles = append(tiles, m)
	}
	if f, ok := tile.DetectFactor(edge, tiles); ok {
		return f
	}

	f := s.cfg.probeFactor(coords.TileSize)
	for f > 1 && edge > 0 && edge%f != 0 {
		f -= 2
	}
	s.logger.Printf("Unable to detect the upsample factor, assuming %d\n", f)

	return f
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// save writes the templates and settings to the database. Must be called
// with the lock held.
func (s *Store) save() error {
	if s.db == nil {
		return nil
	}

	b, err := s.export()
	if err != nil {
		return err
	}
	if err := s.db.Set(templatesKey, b); err != nil {
		return err
	}

	st := settings{
		Filter:       make(map[string]bool, len(s.filter)),
		MemorySaving: s.memorySaving,
		ShowErrors:   s.showErrors,
	}
	for k, v := range s.filter {
		st.Filter[k.String()] = v
	}

	if b, err = json.Marshal(st); err != nil {
		return err
	}

	return s.db.Set(settingsKey, b)
}

// load restores the settings and templates from the database. Unreadable
// data is logged and the defaults are used instead.
func (s *Store) load() error {
	if s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.db.Get(settingsKey)
	if err != nil {
		s.logger.Printf("Ignoring settings: %v\n", err)
	} else if b != nil {
		var st settings
		if err := json.Unmarshal(b, &st); err != nil {
			s.logger.Printf("Ignoring malformed settings: %v\n", err)
		} else {
			for k, v := range st.Filter {
				key, err := palette.ParseKey(k)
				if err != nil {
					s.logger.Printf("Ignoring color %q: %v\n", k, err)
					continue
				}
				s.filter[key] = v
			}
			s.memorySaving = st.MemorySaving
			s.showErrors = st.ShowErrors
		}
	}

	b, err = s.db.Get(templatesKey)
	if err != nil {
		s.logger.Printf("Ignoring templates: %v\n", err)
		return nil
	}
	if b != nil {
		s.importTemplates(b)
	}

	return nil
}
