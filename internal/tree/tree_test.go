package tree_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"notemap/internal/models"
	"notemap/internal/sizing"
	"notemap/internal/store/memstore"
	"notemap/internal/tree"
)

var errBoom = errors.New("boom")

// fixture is a memstore with a single owner and helpers to grow a tree.
type fixture struct {
	t     *testing.T
	store *memstore.Store
	user  uuid.UUID
	calc  *sizing.Calculator
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		store: memstore.New(),
		user:  uuid.New(),
		calc:  sizing.New(sizing.DefaultWeights()),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.store.Now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

// add creates a category named name under parent (nil for a root).
func (f *fixture) add(name string, parent *models.Category) models.Category {
	f.t.Helper()
	c := &models.Category{UserID: f.user, Name: name, ManualSizeFactor: 1}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	out, err := f.store.CreateCategory(context.Background(), c)
	require.NoError(f.t, err)
	return *out
}

// chain creates root -> l1 -> ... -> l<depth> and returns every node.
func (f *fixture) chain(depth int) []models.Category {
	f.t.Helper()
	nodes := []models.Category{f.add("root", nil)}
	for i := 1; i <= depth; i++ {
		nodes = append(nodes, f.add("level", &nodes[i-1]))
	}
	return nodes
}

func (f *fixture) loader(opts ...tree.LoaderOption) *tree.Loader {
	return tree.NewLoader(f.store, f.calc, opts...)
}

// failingReader returns errBoom from Children.
type failingReader struct {
	tree.Reader
}

func (failingReader) Children(context.Context, uuid.UUID, uuid.UUID, int, int) ([]models.Category, error) {
	return nil, errBoom
}

func names(cats []models.SizedCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
