// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/sizing"
)

const (
	// DefaultPageSize is the number of children fetched per level.
	DefaultPageSize = 50
	// DefaultMaxDepth is the lazy-load boundary: deeper levels are
	// fetched on demand with LoadChildren.
	DefaultMaxDepth = 10
)

// Loader builds sized category trees from a Reader.
type Loader struct {
	r        Reader
	calc     *sizing.Calculator
	pageSize int
	maxDepth int
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPageSize sets the default children page size. Values above the
// per-user category cap are lowered to it.
func WithPageSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.pageSize = min(n, models.MaxCategoriesPerUser)
		}
	}
}

// WithMaxDepth sets the default traversal depth.
func WithMaxDepth(n int) LoaderOption {
	return func(l *Loader) {
		if n >= 0 {
			l.maxDepth = n
		}
	}
}

// WithLogger sets the logger used to report partial metrics.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader backed by r.
func NewLoader(r Reader, calc *sizing.Calculator, opts ...LoaderOption) *Loader {
	l := &Loader{
		r:        r,
		calc:     calc,
		pageSize: DefaultPageSize,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PageSize returns the configured default page size.
func (l *Loader) PageSize() int { return l.pageSize }

// MaxDepth returns the configured default depth.
func (l *Loader) MaxDepth() int { return l.maxDepth }

// LoadTree returns the category rootID with its descendants attached down
// to maxDepth (the root is depth 0; nodes at maxDepth have no children).
// Each level fetches the first pageSize children by name. A negative
// maxDepth or non-positive pageSize selects the loader defaults.
//
// Sibling subtrees load concurrently. A category reached twice fails the
// whole load with CYCLE_DETECTED.
func (l *Loader) LoadTree(ctx context.Context, userID, rootID uuid.UUID, maxDepth, pageSize int) (*models.SizedCategory, error) {
	const op = "load tree"

	if maxDepth < 0 {
		maxDepth = l.maxDepth
	}
	if pageSize <= 0 {
		pageSize = l.pageSize
	}
	pageSize = min(pageSize, models.MaxCategoriesPerUser)

	root, err := l.r.Category(ctx, userID, rootID)
	if err != nil {
		return nil, storageErr(err, op, "fetch category %s", rootID)
	}
	if root == nil {
		return nil, apperr.NotFoundID(op, rootID)
	}

	level, err := l.sizeLevel(ctx, op, []models.Category{*root}, 0)
	if err != nil {
		return nil, err
	}
	node := &level[0]

	seen := newVisited()
	seen.visit(root.ID)

	if err := l.expand(ctx, userID, node, maxDepth, pageSize, seen); err != nil {
		return nil, err
	}
	return node, nil
}

// expand attaches node's children and recurses into them concurrently.
func (l *Loader) expand(ctx context.Context, userID uuid.UUID, node *models.SizedCategory, maxDepth, pageSize int, seen *visited) error {
	const op = "load tree"

	if node.Depth >= maxDepth {
		return nil
	}

	cats, err := l.r.Children(ctx, userID, node.ID, pageSize, 0)
	if err != nil {
		return storageErr(err, op, "fetch children of %s", node.ID)
	}
	if len(cats) == 0 {
		return nil
	}
	for _, c := range cats {
		if !seen.visit(c.ID) {
			return apperr.New(apperr.CycleDetected, op, "category %s reached twice below %s", c.ID, node.ID)
		}
	}

	children, err := l.sizeLevel(ctx, op, cats, node.Depth+1)
	if err != nil {
		return err
	}
	node.Children = children
	node.HasMore = len(cats) == pageSize

	g, gctx := errgroup.WithContext(ctx)
	for i := range node.Children {
		child := &node.Children[i]
		g.Go(func() error {
			return l.expand(gctx, userID, child, maxDepth, pageSize, seen)
		})
	}
	return g.Wait()
}

// LoadChildren returns one page of parentID's direct children, sized,
// with Depth 1. An out-of-range page yields an empty slice.
func (l *Loader) LoadChildren(ctx context.Context, userID, parentID uuid.UUID, offset, limit int) ([]models.SizedCategory, error) {
	const op = "load children"

	parent, err := l.r.Category(ctx, userID, parentID)
	if err != nil {
		return nil, storageErr(err, op, "fetch category %s", parentID)
	}
	if parent == nil {
		return nil, apperr.NotFoundID(op, parentID)
	}
	if offset < 0 || limit <= 0 {
		return []models.SizedCategory{}, nil
	}
	limit = min(limit, models.MaxCategoriesPerUser)

	cats, err := l.r.Children(ctx, userID, parentID, limit, offset)
	if err != nil {
		return nil, storageErr(err, op, "fetch children of %s", parentID)
	}
	return l.sizeLevel(ctx, op, cats, 1)
}

// LoadTopLevel returns one page of the user's root categories, sized.
// SortSize orders by descending size and then name.
func (l *Loader) LoadTopLevel(ctx context.Context, userID uuid.UUID, by Sort, limit, offset int) ([]models.SizedCategory, error) {
	const op = "load top level"

	if offset < 0 || limit <= 0 {
		return []models.SizedCategory{}, nil
	}
	limit = min(limit, models.MaxCategoriesPerUser)

	if by != SortSize {
		cats, err := l.r.TopLevel(ctx, userID, by, limit, offset)
		if err != nil {
			return nil, storageErr(err, op, "fetch roots of user %s", userID)
		}
		return l.sizeLevel(ctx, op, cats, 0)
	}

	// Size is computed, not stored: fetch every root and page in memory.
	cats, err := l.r.TopLevel(ctx, userID, SortName, models.MaxCategoriesPerUser, 0)
	if err != nil {
		return nil, storageErr(err, op, "fetch roots of user %s", userID)
	}
	sized, err := l.sizeLevel(ctx, op, cats, 0)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sized, func(i, j int) bool {
		return sized[i].Size > sized[j].Size
	})
	if offset >= len(sized) {
		return []models.SizedCategory{}, nil
	}
	return sized[offset:min(offset+limit, len(sized))], nil
}

// sizeLevel attaches metrics and sizes to one level of categories using
// a single batched metrics lookup. Categories without metrics get zero
// metrics; the gap is logged rather than failing the level.
func (l *Loader) sizeLevel(ctx context.Context, op string, cats []models.Category, depth int) ([]models.SizedCategory, error) {
	out := make([]models.SizedCategory, len(cats))
	if len(cats) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	metrics, err := l.r.MetricsByCategoryIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(err, op, "fetch metrics for %d categories", len(ids))
	}

	var missing []uuid.UUID
	for i, c := range cats {
		m, ok := metrics[c.ID]
		if !ok {
			m = models.Metrics{CategoryID: c.ID}
			missing = append(missing, c.ID)
		}
		out[i] = models.SizedCategory{
			Category: c,
			Metrics:  m,
			Size:     l.calc.Size(c, m),
			Depth:    depth,
		}
	}
	if len(missing) > 0 {
		l.logger.Warn("metrics missing, using zero values",
			"op", op,
			"count", len(missing),
			"category_ids", missing,
		)
	}
	return out, nil
}

// visited is the set of category IDs seen during one load. Sibling
// subtrees share it across goroutines.
type visited struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newVisited() *visited {
	return &visited{ids: make(map[uuid.UUID]struct{})}
}

// visit records id and reports whether it was new.
func (v *visited) visit(id uuid.UUID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.ids[id]; ok {
		return false
	}
	v.ids[id] = struct{}{}
	return true
}
