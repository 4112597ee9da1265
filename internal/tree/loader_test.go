package tree_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/tree"
)

func TestLoadTreeStopsAtMaxDepth(t *testing.T) {
	f := newFixture(t)
	nodes := f.chain(5)
	ctx := context.Background()

	root, err := f.loader().LoadTree(ctx, f.user, nodes[0].ID, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, root.Depth)
	require.Len(t, root.Children, 1)
	l1 := root.Children[0]
	assert.Equal(t, 1, l1.Depth)
	require.Len(t, l1.Children, 1)
	l2 := l1.Children[0]
	assert.Equal(t, 2, l2.Depth)
	assert.Equal(t, nodes[2].ID, l2.ID)
	assert.Empty(t, l2.Children, "nodes at maxDepth are leaves")

	// Lazy expansion past the boundary returns the real child.
	kids, err := f.loader().LoadChildren(ctx, f.user, l2.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, nodes[3].ID, kids[0].ID)
	assert.Equal(t, 1, kids[0].Depth)
}

func TestLoadTreeZeroDepthReturnsRootOnly(t *testing.T) {
	f := newFixture(t)
	nodes := f.chain(2)

	root, err := f.loader().LoadTree(context.Background(), f.user, nodes[0].ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, root.Children)
	assert.Equal(t, 0, f.store.Calls("Children"))
}

func TestLoadTreeOrdersAndSizesChildren(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	c := f.add("charlie", &root)
	f.add("alpha", &root)
	f.add("bravo", &root)
	f.store.PutMetrics(models.Metrics{CategoryID: c.ID, NoteCount: 500, EditFrequency: 50})

	got, err := f.loader().LoadTree(context.Background(), f.user, root.ID, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names(got.Children))
	assert.InDelta(t, 0.25, got.Children[0].Size, 1e-9)
	assert.InDelta(t, f.calc.Compute(500, 50, 1), got.Children[2].Size, 1e-9)
	assert.Equal(t, 500, got.Children[2].Metrics.NoteCount)
	assert.False(t, got.HasMore)
}

func TestLoadTreeBatchesMetricsPerLevel(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	for _, name := range []string{"a", "b", "c"} {
		child := f.add(name, &root)
		f.add(name+"1", &child)
		f.add(name+"2", &child)
	}

	got, err := f.loader().LoadTree(context.Background(), f.user, root.ID, 2, 10)
	require.NoError(t, err)
	require.Len(t, got.Children, 3)
	for _, child := range got.Children {
		assert.Len(t, child.Children, 2)
	}

	// One lookup for the root, one for its level, one per child's level.
	assert.Equal(t, 5, f.store.Calls("MetricsByCategoryIDs"))
}

func TestLoadTreeHasMore(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	f.add("a", &root)
	f.add("b", &root)
	f.add("c", &root)

	got, err := f.loader().LoadTree(context.Background(), f.user, root.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got.Children))
	assert.True(t, got.HasMore)
}

func TestLoadTreeDefaults(t *testing.T) {
	f := newFixture(t)
	nodes := f.chain(4)

	got, err := f.loader(tree.WithMaxDepth(1), tree.WithPageSize(5)).
		LoadTree(context.Background(), f.user, nodes[0].ID, -1, 0)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Empty(t, got.Children[0].Children)
}

func TestLoadTreeNotFound(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)

	_, err := f.loader().LoadTree(context.Background(), f.user, uuid.New(), 2, 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	// Another user's category looks exactly like a missing one.
	_, err = f.loader().LoadTree(context.Background(), uuid.New(), root.ID, 2, 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestLoadTreeDetectsCycle(t *testing.T) {
	f := newFixture(t)
	a := models.Category{ID: uuid.New(), UserID: f.user, Name: "a", ManualSizeFactor: 1}
	b := models.Category{ID: uuid.New(), UserID: f.user, Name: "b", ManualSizeFactor: 1}
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	f.store.Put(a)
	f.store.Put(b)

	_, err := f.loader().LoadTree(context.Background(), f.user, a.ID, 10, 10)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CycleDetected))
}

func TestLoadTreeMissingMetricsUsesZero(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	orphan := models.Category{ID: uuid.New(), UserID: f.user, Name: "bare", ParentID: &root.ID, ManualSizeFactor: 2}
	f.store.Put(orphan)

	got, err := f.loader().LoadTree(context.Background(), f.user, root.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, orphan.ID, got.Children[0].Metrics.CategoryID)
	assert.Zero(t, got.Children[0].Metrics.NoteCount)
	assert.InDelta(t, 0.5, got.Children[0].Size, 1e-9)
}

func TestLoadTreeWrapsStorageErrors(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)

	l := tree.NewLoader(failingReader{f.store}, f.calc)
	_, err := l.LoadTree(context.Background(), f.user, root.ID, 2, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "load tree")
	assert.Contains(t, err.Error(), root.ID.String())
}

func TestLoadChildrenPagination(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	f.add("a", &root)
	f.add("b", &root)
	f.add("c", &root)
	ctx := context.Background()

	tests := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{"first page", 0, 2, []string{"a", "b"}},
		{"second page", 2, 2, []string{"c"}},
		{"past the end", 5, 2, []string{}},
		{"negative offset", -1, 2, []string{}},
		{"zero limit", 0, 0, []string{}},
		{"negative limit", 0, -3, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.loader().LoadChildren(ctx, f.user, root.ID, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestLoadChildrenNotFound(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)

	_, err := f.loader().LoadChildren(context.Background(), uuid.New(), root.ID, 0, 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	// A missing parent is an error even when the page is out of range.
	_, err = f.loader().LoadChildren(context.Background(), f.user, uuid.New(), -1, 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestLoadTopLevel(t *testing.T) {
	f := newFixture(t)
	small := f.add("zulu", nil)
	big := f.add("alpha", nil)
	mid := f.add("mike", nil)
	f.add("child", &big)
	f.store.PutMetrics(models.Metrics{CategoryID: big.ID, NoteCount: 1000})
	f.store.PutMetrics(models.Metrics{CategoryID: mid.ID, NoteCount: 100})
	ctx := context.Background()

	byName, err := f.loader().LoadTopLevel(ctx, f.user, tree.SortName, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mike", "zulu"}, names(byName))

	byCreated, err := f.loader().LoadTopLevel(ctx, f.user, tree.SortCreatedAt, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"mike", "alpha", "zulu"}, names(byCreated))

	bySize, err := f.loader().LoadTopLevel(ctx, f.user, tree.SortSize, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mike"}, names(bySize))

	rest, err := f.loader().LoadTopLevel(ctx, f.user, tree.SortSize, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, small.ID, rest[0].ID)

	empty, err := f.loader().LoadTopLevel(ctx, f.user, tree.SortName, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseSort(t *testing.T) {
	for in, want := range map[string]tree.Sort{
		"":           tree.SortName,
		"name":       tree.SortName,
		"created_at": tree.SortCreatedAt,
		"size":       tree.SortSize,
	} {
		got, err := tree.ParseSort(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := tree.ParseSort("color")
	assert.True(t, apperr.Is(err, apperr.Validation))
}
