package tree

import (
	"sort"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/sizing"
)

// Index groups a flat category list by parent so whole forests can be
// rebuilt in memory without further store calls.
type Index struct {
	byID     map[uuid.UUID]models.Category
	children map[uuid.UUID][]models.Category
	roots    []models.Category
}

// NewIndex indexes cats. Categories whose parent is absent from the list
// are treated as roots. Siblings are ordered by name, then id.
func NewIndex(cats []models.Category) *Index {
	ix := &Index{
		byID:     make(map[uuid.UUID]models.Category, len(cats)),
		children: make(map[uuid.UUID][]models.Category),
	}
	for _, c := range cats {
		ix.byID[c.ID] = c
	}
	for _, c := range cats {
		if c.ParentID == nil {
			ix.roots = append(ix.roots, c)
			continue
		}
		if _, ok := ix.byID[*c.ParentID]; !ok {
			ix.roots = append(ix.roots, c)
			continue
		}
		ix.children[*c.ParentID] = append(ix.children[*c.ParentID], c)
	}

	sortByName(ix.roots)
	for _, kids := range ix.children {
		sortByName(kids)
	}
	return ix
}

func sortByName(cats []models.Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID.String() < cats[j].ID.String()
	})
}

// Len returns the number of indexed categories.
func (ix *Index) Len() int { return len(ix.byID) }

// Get returns the category with the given id.
func (ix *Index) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := ix.byID[id]
	return c, ok
}

// Roots returns the top-level categories.
func (ix *Index) Roots() []models.Category { return ix.roots }

// Children returns the direct children of id.
func (ix *Index) Children(id uuid.UUID) []models.Category { return ix.children[id] }

// Forest builds sized trees for every root. Categories caught in a parent
// cycle cannot be reached from any root, so their presence fails the build
// with CYCLE_DETECTED rather than dropping them.
func (ix *Index) Forest(metrics map[uuid.UUID]models.Metrics, calc *sizing.Calculator) ([]models.SizedCategory, error) {
	const op = "build forest"
	if ids := ix.Unreachable(); len(ids) > 0 {
		return nil, apperr.New(apperr.CycleDetected, op, "parent chain of %s does not terminate (%d categories affected)", ids[0], len(ids))
	}
	seen := make(map[uuid.UUID]bool, len(ix.byID))
	return ix.build(op, ix.roots, 0, metrics, calc, seen)
}

// Subtree builds the sized tree rooted at id. An id that is not indexed is
// NOT_FOUND; a subtree that loops back on itself is CYCLE_DETECTED.
func (ix *Index) Subtree(id uuid.UUID, metrics map[uuid.UUID]models.Metrics, calc *sizing.Calculator) (models.SizedCategory, error) {
	const op = "build subtree"
	c, ok := ix.byID[id]
	if !ok {
		return models.SizedCategory{}, apperr.NotFoundID(op, id)
	}
	out, err := ix.build(op, []models.Category{c}, 0, metrics, calc, make(map[uuid.UUID]bool))
	if err != nil {
		return models.SizedCategory{}, err
	}
	return out[0], nil
}

func (ix *Index) build(op string, level []models.Category, depth int, metrics map[uuid.UUID]models.Metrics, calc *sizing.Calculator, seen map[uuid.UUID]bool) ([]models.SizedCategory, error) {
	var out []models.SizedCategory
	for _, c := range level {
		if seen[c.ID] {
			return nil, apperr.New(apperr.CycleDetected, op, "category %s reached twice", c.ID)
		}
		seen[c.ID] = true

		m, ok := metrics[c.ID]
		if !ok {
			m = models.Metrics{CategoryID: c.ID}
		}
		kids, err := ix.build(op, ix.children[c.ID], depth+1, metrics, calc, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SizedCategory{
			Category: c,
			Metrics:  m,
			Size:     calc.Size(c, m),
			Depth:    depth,
			Children: kids,
		})
	}
	return out, nil
}

// Unreachable returns the ids that cannot be reached from any root, which
// only happens when parent links form a cycle. Forest refuses to build
// while any exist.
func (ix *Index) Unreachable() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ix.byID))
	var walk func([]models.Category)
	walk = func(level []models.Category) {
		for _, c := range level {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			walk(ix.children[c.ID])
		}
	}
	walk(ix.roots)

	var out []uuid.UUID
	for id := range ix.byID {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Stats summarizes the shape of a user's forest.
type Stats struct {
	Total       int     `json:"total"`
	Roots       int     `json:"roots"`
	MaxDepth    int     `json:"max_depth"`
	AvgChildren float64 `json:"avg_children"`
	Remaining   int     `json:"remaining"`
}

// Stats computes totals, the deepest level reached from a root, and the
// mean child count over categories that have children.
func (ix *Index) Stats() Stats {
	st := Stats{
		Total:     len(ix.byID),
		Roots:     len(ix.roots),
		Remaining: max(0, models.MaxCategoriesPerUser-len(ix.byID)),
	}

	parents, edges := 0, 0
	for _, kids := range ix.children {
		parents++
		edges += len(kids)
	}
	if parents > 0 {
		st.AvgChildren = float64(edges) / float64(parents)
	}

	seen := make(map[uuid.UUID]bool, len(ix.byID))
	var walk func([]models.Category, int)
	walk = func(level []models.Category, depth int) {
		for _, c := range level {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			st.MaxDepth = max(st.MaxDepth, depth)
			walk(ix.children[c.ID], depth+1)
		}
	}
	walk(ix.roots, 0)
	return st
}
