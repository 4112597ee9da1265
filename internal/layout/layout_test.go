package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"notemap/internal/models"
)

func sized(name string, size float64) models.SizedCategory {
	return models.SizedCategory{
		Category: models.Category{ID: uuid.New(), Name: name, ManualSizeFactor: 1},
		Size:     size,
	}
}

// assertSeparated fails if any pair overlaps by more than tol of its
// combined radii.
func assertSeparated(t *testing.T, boxes []models.LayoutBox, padding, tol float64) {
	t.Helper()
	for _, o := range Overlaps(boxes, padding) {
		assert.LessOrEqual(t, o.Depth(), tol*o.MinDistance,
			"boxes %s and %s: distance %.2f, need %.2f", o.A, o.B, o.Distance, o.MinDistance)
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		size                float64
		wantW, wantH, wantF float64
	}{
		{0, 80, 60, 12},
		{0.2, 80, 60, 12},
		{0.5, 106.066, 70.711, 12},
		{0.9, 142.302, 94.868, 21.6},
		{1, 150, 100, 24},
		{1.7, 150, 100, 24},
		{-1, 80, 60, 12},
		{math.NaN(), 80, 60, 12},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.size), func(t *testing.T) {
			w, h, f := Dimensions(tt.size, 1.5)
			assert.InDelta(t, tt.wantW, w, 1e-3)
			assert.InDelta(t, tt.wantH, h, 1e-3)
			assert.InDelta(t, tt.wantF, f, 1e-9)
		})
	}
}

func TestDimensionsAspect(t *testing.T) {
	w, h, _ := Dimensions(1, 1)
	assert.InDelta(t, math.Sqrt(15000), w, 1e-9)
	assert.InDelta(t, math.Sqrt(15000), h, 1e-9)
}

func TestCollisionRadius(t *testing.T) {
	assert.InDelta(t, 60.0, CollisionRadius(80, 60, 10), 1e-9)
	assert.InDelta(t, 50.0, CollisionRadius(80, 60, 0), 1e-9)
}

func TestColorFor(t *testing.T) {
	id := uuid.MustParse("7f1c2e5a-9a4b-4d0e-8b61-3c2f6d9a1e07")
	c := ColorFor(id)
	assert.Contains(t, Palette, c)
	for range 10 {
		assert.Equal(t, c, ColorFor(id), "color must be stable per id")
	}

	// Many ids should spread over more than one palette entry.
	seen := make(map[string]bool)
	for range 64 {
		seen[ColorFor(uuid.New())] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestLayoutEmpty(t *testing.T) {
	boxes := Layout(nil, DefaultOptions(1000, 600))
	require.NotNil(t, boxes)
	assert.Empty(t, boxes)
}

func TestLayoutThreeSiblings(t *testing.T) {
	cats := []models.SizedCategory{sized("small", 0.2), sized("medium", 0.5), sized("large", 0.9)}
	opts := DefaultOptions(1000, 600)

	boxes := Layout(cats, opts)
	require.Len(t, boxes, 3)

	for i, b := range boxes {
		assert.Equal(t, cats[i].ID, b.ID)
		assert.Equal(t, cats[i].Size, b.Size)
	}
	for i := 1; i < len(boxes); i++ {
		assert.GreaterOrEqual(t, boxes[i].Width, boxes[i-1].Width)
		assert.GreaterOrEqual(t, boxes[i].Height, boxes[i-1].Height)
	}
	assert.Equal(t, []float64{12, 12, 21.6}, []float64{boxes[0].FontSize, boxes[1].FontSize, boxes[2].FontSize})

	assertSeparated(t, boxes, opts.Padding, 0.01)
}

func TestLayoutFiveComparableBoxes(t *testing.T) {
	cats := []models.SizedCategory{
		sized("a", 0.45), sized("b", 0.5), sized("c", 0.55), sized("d", 0.5), sized("e", 0.6),
	}
	opts := DefaultOptions(1000, 600)
	opts.Seed = 42

	boxes := Layout(cats, opts)
	require.Len(t, boxes, 5)
	assertSeparated(t, boxes, opts.Padding, 0.01)

	// The cluster stays around the canvas center.
	var c r2.Vec
	for _, b := range boxes {
		c = r2.Add(c, r2.Vec{X: b.X, Y: b.Y})
	}
	c = r2.Scale(1.0/float64(len(boxes)), c)
	assert.InDelta(t, 500, c.X, 50)
	assert.InDelta(t, 300, c.Y, 50)
}

func TestLayoutStress(t *testing.T) {
	var cats []models.SizedCategory
	for i := range models.MaxCategoriesPerUser {
		cats = append(cats, sized(fmt.Sprint(i), float64(i%10)/10))
	}
	opts := DefaultOptions(1000, 600)
	opts.Seed = 7

	boxes := Layout(cats, opts)
	require.Len(t, boxes, len(cats))
	for _, b := range boxes {
		require.False(t, math.IsNaN(b.X) || math.IsNaN(b.Y), "box %s has no position", b.Name)
	}

	// Dense inputs only need to be mostly separated.
	deep := 0
	for _, o := range Overlaps(boxes, opts.Padding) {
		if o.Depth() > 0.05*o.MinDistance {
			deep++
		}
	}
	pairs := len(boxes) * (len(boxes) - 1) / 2
	assert.Less(t, deep, pairs/20)
}

func TestLayoutDeterministic(t *testing.T) {
	cats := []models.SizedCategory{sized("a", 0.3), sized("b", 0.6), sized("c", 0.9)}
	opts := DefaultOptions(800, 800)
	opts.Seed = 99

	first := Layout(cats, opts)
	second := Layout(cats, opts)
	assert.Equal(t, first, second)

	opts.Seed = 100
	third := Layout(cats, opts)
	assert.NotEqual(t, first[0].X, third[0].X)
}

func TestLayoutFlattensNested(t *testing.T) {
	child := sized("child", 0.4)
	grandchild := sized("grandchild", 0.1)
	grandchild.Depth = 2
	child.Depth = 1
	child.Children = []models.SizedCategory{grandchild}
	root := sized("root", 0.8)
	root.Children = []models.SizedCategory{child}

	boxes := Layout([]models.SizedCategory{root}, DefaultOptions(1000, 600))
	require.Len(t, boxes, 3)
	assert.Equal(t, []string{"root", "child", "grandchild"}, []string{boxes[0].Name, boxes[1].Name, boxes[2].Name})
	assert.Equal(t, 2, boxes[2].Depth)
	assert.Len(t, root.Children, 1, "input is left intact")
}

func TestLayoutColors(t *testing.T) {
	explicit := "#112233"
	withColor := sized("painted", 0.5)
	withColor.Color = &explicit
	empty := ""
	blank := sized("blank", 0.5)
	blank.Color = &empty
	plain := sized("plain", 0.5)

	boxes := Layout([]models.SizedCategory{withColor, blank, plain}, DefaultOptions(1000, 600))
	assert.Equal(t, explicit, boxes[0].Color)
	assert.Equal(t, ColorFor(blank.ID), boxes[1].Color)
	assert.Equal(t, ColorFor(plain.ID), boxes[2].Color)
}

func TestRelayoutKeepsPreviousPositions(t *testing.T) {
	kept := sized("kept", 0.5)
	added := sized("added", 0.5)
	prev := []models.LayoutBox{{ID: kept.ID, X: 100, Y: 80}}

	opts := DefaultOptions(1000, 600)
	opts.Iterations = 1
	boxes := Relayout(prev, []models.SizedCategory{kept, added}, opts)
	require.Len(t, boxes, 2)

	// One step moves the carried-over box only slightly.
	assert.InDelta(t, 100, boxes[0].X, 20)
	assert.InDelta(t, 80, boxes[0].Y, 20)

	// A new box starts inside the central disc.
	d := r2.Norm(r2.Sub(r2.Vec{X: boxes[1].X, Y: boxes[1].Y}, r2.Vec{X: 500, Y: 300}))
	assert.Less(t, d, 150+40.0)
}

func TestRelayoutNewBoxesIndependentOfPrev(t *testing.T) {
	a := sized("a", 0.5)
	b := sized("b", 0.5)
	opts := DefaultOptions(1000, 600)
	opts.Iterations = 1
	opts.CollideStrength = 1e-12

	fresh := Relayout(nil, []models.SizedCategory{a, b}, opts)
	carried := Relayout([]models.LayoutBox{{ID: a.ID, X: 0, Y: 0}}, []models.SizedCategory{a, b}, opts)

	// With collisions negligible, b moves the same way from the same start.
	assert.InDelta(t, fresh[1].X, carried[1].X, 1e-6)
	assert.InDelta(t, fresh[1].Y, carried[1].Y, 1e-6)
	assert.NotEqual(t, fresh[0].X, carried[0].X)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	d := DefaultOptions(1000, 600)
	assert.Equal(t, d, o)

	custom := Options{Width: 400, Height: 300, Seed: 5}.withDefaults()
	assert.Equal(t, 400.0, custom.Width)
	assert.Equal(t, 10.0, custom.Padding, "unset padding keeps the standard gap")
	assert.Equal(t, uint64(5), custom.Seed)
	assert.Equal(t, 300, custom.Iterations)

	assert.Equal(t, 4.0, Options{Padding: 4}.withDefaults().Padding)
	assert.Equal(t, 10.0, Options{Padding: -3}.withDefaults().Padding)
	assert.Zero(t, Options{Padding: 7, NoPadding: true}.withDefaults().Padding)
}

func TestLayoutPartialOptionsKeepPadding(t *testing.T) {
	cats := make([]models.SizedCategory, 5)
	for i := range cats {
		cats[i] = sized(fmt.Sprintf("c%d", i), 0.5)
	}
	full := DefaultOptions(1000, 600)
	full.Seed = 1

	boxes := Layout(cats, Options{Width: 1000, Height: 600, Seed: 1})
	require.Len(t, boxes, 5)
	assert.Equal(t, Layout(cats, full), boxes)
	assertSeparated(t, boxes, full.Padding, 0.05)
}
