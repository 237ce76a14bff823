package overlay

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bodgit/overlay/diff"
	"github.com/bodgit/overlay/palette"
)

type tileResult struct {
	buf   []byte
	stats *diff.Stats
}

type cacheEntry struct {
	fingerprint string
	result      *tileResult
}

// resultCache keeps the most recent result of every canvas tile along with
// the fingerprint it was computed for.
type resultCache struct {
	entries map[string]cacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(key, fingerprint string) (*tileResult, bool) {
	e, ok := c.entries[key]
	if !ok || e.fingerprint != fingerprint {
		return nil, false
	}
	return e.result, true
}

func (c *resultCache) put(key, fingerprint string, r *tileResult) {
	c.entries[key] = cacheEntry{
		fingerprint: fingerprint,
		result:      r,
	}
}

func (c *resultCache) delete(key string) {
	delete(c.entries, key)
}

func (c *resultCache) len() int {
	return len(c.entries)
}

// fingerprint summarizes everything a tile result depends on: the canvas
// tile token, the error overlay flag, the enabled colors and the identity,
// version and enabled flag of every template covering the tile.
func fingerprint(token string, showErrors bool, colors []palette.Key, templates []*Template) string {
	c := make([]string, 0, len(colors))
	for _, k := range colors {
		c = append(c, k.String())
	}
	sort.Strings(c)

	t := make([]string, 0, len(templates))
	for _, tpl := range templates {
		t = append(t, tpl.StorageKey()+"@"+tpl.Version+"#"+strconv.FormatBool(tpl.Enabled))
	}
	sort.Strings(t)

	return strings.Join([]string{
		token,
		strconv.FormatBool(showErrors),
		strings.Join(c, ";"),
		strings.Join(t, "|"),
	}, "\n")
}

// enabledColors returns the colors enabled in any of the templates.
func enabledColors(templates []*Template) []palette.Key {
	seen := make(map[palette.Key]struct{})
	var keys []palette.Key
	for _, t := range templates {
		for k, e := range t.Palette {
			if _, ok := seen[k]; ok || !e.Enabled {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// disabledColors returns the colors disabled in any of the templates, nil
// if there are none.
func disabledColors(templates []*Template) map[palette.Key]bool {
	var m map[palette.Key]bool
	for _, t := range templates {
		for k, e := range t.Palette {
			if e.Enabled {
				continue
			}
			if m == nil {
				m = make(map[palette.Key]bool)
			}
			m[k] = true
		}
	}
	return m
}
