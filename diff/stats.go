package diff

import (
	"math/rand"

	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
)

// Reservoir keeps a bounded, uniformly sampled subset of the examples added
// to it.
type Reservoir struct {
	Capacity int
	// Seen counts every example offered, kept or not
	Seen  int
	Items []coords.Point
}

// Add offers p to the reservoir. Until the reservoir is full every example
// is kept; after that the n-th example replaces a random slot with
// probability Capacity/n.
func (r *Reservoir) Add(p coords.Point, rng *rand.Rand) {
	r.Seen++
	if len(r.Items) < r.Capacity {
		r.Items = append(r.Items, p)
		return
	}
	if r.Capacity == 0 {
		return
	}
	if i := rng.Intn(r.Seen); i < r.Capacity {
		r.Items[i] = p
	}
}

// ColorStats are the per color counters of a tile.
type ColorStats struct {
	Painted int
	// PaintedEnabled only counts pixels of enabled templates
	PaintedEnabled int
	Missing        int

	// Examples of wrong pixels across all templates and across the
	// enabled templates only
	Examples        Reservoir
	EnabledExamples Reservoir
}

// TemplateStats are the per template counters of a tile.
type TemplateStats struct {
	Painted  int
	Required int
}

// Stats are the progress counters of one tile. Every required sample is
// counted exactly once as painted, wrong or unpainted.
type Stats struct {
	Painted   int
	Required  int
	Wrong     int
	Unpainted int

	// Stray counts marker samples with an opaque canvas pixel, only
	// gathered when errors are shown
	Stray int

	Colors    map[palette.Key]*ColorStats
	Templates map[string]*TemplateStats
}

func newStats() *Stats {
	return &Stats{
		Colors:    make(map[palette.Key]*ColorStats),
		Templates: make(map[string]*TemplateStats),
	}
}

func (s *Stats) color(k palette.Key, capacity int) *ColorStats {
	cs, ok := s.Colors[k]
	if !ok {
		cs = &ColorStats{
			Examples:        Reservoir{Capacity: capacity},
			EnabledExamples: Reservoir{Capacity: capacity},
		}
		s.Colors[k] = cs
	}
	return cs
}

func (s *Stats) template(key string) *TemplateStats {
	ts, ok := s.Templates[key]
	if !ok {
		ts = new(TemplateStats)
		s.Templates[key] = ts
	}
	return ts
}
