package recipe

import (
	"maps"
	"slices"
	"strings"
)

// Catalog maps recipe IDs to recipes. The zero value is an empty catalog.
// A Catalog is never modified in place: Ingest returns a new one.
type Catalog struct {
	recipes map[string]Recipe
}

// NewCatalog returns a catalog holding recipes.
func NewCatalog(recipes ...Recipe) Catalog {
	return Catalog{}.Ingest(recipes...)
}

// Ingest merges recipes into a copy of the catalog. A later recipe replaces
// an earlier one with the same ID.
func (c Catalog) Ingest(recipes ...Recipe) Catalog {
	if len(recipes) == 0 {
		return c
	}
	next := make(map[string]Recipe, len(c.recipes)+len(recipes))
	maps.Copy(next, c.recipes)
	for _, r := range recipes {
		if r.ID == "" {
			continue
		}
		next[r.ID] = r
	}
	return Catalog{recipes: next}
}

// Get returns the recipe stored under id.
func (c Catalog) Get(id string) (Recipe, bool) {
	r, ok := c.recipes[id]
	return r, ok
}

func (c Catalog) Len() int { return len(c.recipes) }

// All returns every recipe ordered by ID.
func (c Catalog) All() []Recipe {
	out := slices.Collect(maps.Values(c.recipes))
	slices.SortFunc(out, func(a, b Recipe) int { return strings.Compare(a.ID, b.ID) })
	return out
}
