package overlay

import (
	"github.com/bodgit/overlay/palette"
)

// ColorProgress is the progress of one color across the enabled templates.
type ColorProgress struct {
	Enabled  bool
	Required int
	// Painted counts correct pixels of every template, PaintedEnabled only
	// those of enabled templates
	Painted        int
	PaintedEnabled int
	Missing        int
}

// TemplateProgress is the progress of one template.
type TemplateProgress struct {
	Name     string
	Enabled  bool
	Required int
	Painted  int
}

// Progress aggregates the statistics of every diffed tile. Painted and Wrong
// only reflect tiles that have been processed so far.
type Progress struct {
	Required int
	Painted  int
	Wrong    int

	Colors    map[palette.Key]*ColorProgress
	Templates map[string]*TemplateProgress
}

// Progress returns the overall progress.
func (s *Store) Progress() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Progress{
		Colors:    make(map[palette.Key]*ColorProgress),
		Templates: make(map[string]*TemplateProgress, len(s.templates)),
	}

	color := func(k palette.Key) *ColorProgress {
		c, ok := p.Colors[k]
		if !ok {
			c = &ColorProgress{
				Enabled: s.colorEnabled(k),
			}
			p.Colors[k] = c
		}
		return c
	}

	for key, t := range s.templates {
		p.Templates[key] = &TemplateProgress{
			Name:     t.Name,
			Enabled:  t.Enabled,
			Required: t.RequiredPixelCount,
		}
		if !t.Enabled {
			continue
		}
		p.Required += t.RequiredPixelCount
		for k, e := range t.Palette {
			color(k).Required += e.Count
		}
	}

	for _, st := range s.stats {
		p.Wrong += st.Wrong
		for key, ts := range st.Templates {
			tp, ok := p.Templates[key]
			if !ok {
				continue
			}
			tp.Painted += ts.Painted
			if tp.Enabled {
				p.Painted += ts.Painted
			}
		}
		for k, cs := range st.Colors {
			c := color(k)
			c.Painted += cs.Painted
			c.PaintedEnabled += cs.PaintedEnabled
			c.Missing += cs.Missing
		}
	}

	return p
}
