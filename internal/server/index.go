package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/asim/quadtree"

	"github.com/citypulse/client/pkg/core"
)

//go:embed fixtures.json
var defaultFixtures []byte

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 5

type entry struct {
	category core.Category
	item     core.Item
	text     string
}

// Index answers nearby and keyword queries over a fixed data set. It is
// immutable once built and safe for concurrent use. Items
// with coordinates live in a quadtree; the rest are city-wide and match
// every location.
type Index struct {
	tree     *quadtree.QuadTree
	unplaced []*entry
	all      []*entry
}

// LoadFixtures reads a categorized result from path, or the built-in data
// set when path is empty.
func LoadFixtures(path string) (core.CategorizedResult, error) {
	raw := defaultFixtures
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return core.CategorizedResult{}, fmt.Errorf("read fixtures: %w", err)
		}
		raw = b
	}
	var r core.CategorizedResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return core.CategorizedResult{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return r, nil
}

// NewIndex builds an index over every item of r.
func NewIndex(r core.CategorizedResult) *Index {
	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	idx := &Index{tree: quadtree.New(quadtree.NewAABB(center, half), 0, nil)}

	for _, c := range core.ResultCategories {
		for _, it := range r.Items(c) {
			e := &entry{category: c, item: it, text: searchText(it)}
			idx.all = append(idx.all, e)
			if it.Latitude.Valid && it.Longitude.Valid {
				idx.tree.Insert(quadtree.NewPoint(it.Latitude.Value, it.Longitude.Value, e))
			} else {
				idx.unplaced = append(idx.unplaced, e)
			}
		}
	}
	return idx
}

// Len is the number of indexed items.
func (idx *Index) Len() int {
	return len(idx.all)
}

// Nearby returns every item within radiusM metres of p plus the
// city-wide items, closest first within each category.
func (idx *Index) Nearby(p core.LatLng, radiusM float64) core.CategorizedResult {
	return idx.collect(idx.near(p, radiusM), nil)
}

// Search is Nearby restricted to items matching every word of query.
func (idx *Index) Search(p core.LatLng, radiusM float64, query string) core.CategorizedResult {
	words := strings.Fields(strings.ToLower(query))
	return idx.collect(idx.near(p, radiusM), func(e *entry) bool {
		for _, w := range words {
			if !strings.Contains(e.text, w) {
				return false
			}
		}
		return true
	})
}

// Suggest completes a partial query from item names, cuisines and types.
func (idx *Index) Suggest(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []string{}
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s == "" || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	for _, e := range idx.all {
		if name := e.item.DisplayName(); strings.Contains(strings.ToLower(name), q) {
			add(name)
		}
		if strings.Contains(strings.ToLower(e.item.Cuisine), q) {
			add(e.item.Cuisine + " restaurants")
		}
		if strings.Contains(strings.ToLower(e.item.Type), q) {
			add(strings.ToLower(e.item.Type) + " nearby")
		}
	}

	sort.Strings(out)
	for _, tmpl := range []string{"%s near me", "%s tonight", "best %s"} {
		add(fmt.Sprintf(tmpl, strings.TrimSpace(query)))
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func (idx *Index) near(p core.LatLng, radiusM float64) []*entry {
	center := quadtree.NewPoint(p.Lat, p.Lng, nil)
	boundary := quadtree.NewAABB(center, center.HalfPoint(radiusM))

	type hit struct {
		e    *entry
		dist float64
	}
	var hits []hit
	for _, pt := range idx.tree.Search(boundary) {
		e, ok := pt.Data().(*entry)
		if !ok {
			continue
		}
		// bounding box is approximate; filter to actual radius
		d := haversine(p.Lat, p.Lng, e.item.Latitude.Value, e.item.Longitude.Value)
		if d > radiusM {
			continue
		}
		hits = append(hits, hit{e, d})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]*entry, 0, len(hits)+len(idx.unplaced))
	for _, h := range hits {
		out = append(out, h.e)
	}
	return append(out, idx.unplaced...)
}

func (idx *Index) collect(entries []*entry, keep func(*entry) bool) core.CategorizedResult {
	r := core.CategorizedResult{Events: []core.Item{}, Restaurants: []core.Item{}, Alerts: []core.Item{}}
	for _, e := range entries {
		if keep != nil && !keep(e) {
			continue
		}
		switch e.category {
		case core.CategoryEvent:
			r.Events = append(r.Events, e.item)
		case core.CategoryRestaurant:
			r.Restaurants = append(r.Restaurants, e.item)
		case core.CategoryAlert:
			r.Alerts = append(r.Alerts, e.item)
		}
	}
	return r
}

func searchText(it core.Item) string {
	return strings.ToLower(strings.Join([]string{
		it.Name, it.Title, it.Type, it.Description, it.Cuisine, it.Address,
	}, " "))
}

// haversine returns the great-circle distance in metres.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
