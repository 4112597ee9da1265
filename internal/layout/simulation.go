package layout

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// VelocityDecay is the fraction of velocity lost after each step.
const VelocityDecay = 0.4

// Node is one body in the relaxation.
type Node struct {
	ID     uuid.UUID
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
}

// State is a snapshot of the relaxation between steps.
type State struct {
	Nodes []Node
	Alpha float64
}

// Force adjusts node velocities in place. Step only ever hands a force
// its own copy of the nodes.
type Force interface {
	Apply(nodes []Node, alpha float64)
}

// Step advances s by one tick and returns the new state; s is not
// modified. Alpha moves toward zero by alphaDecay, every force is applied
// at the new alpha, then velocities decay and positions integrate.
func Step(s State, forces []Force, alphaDecay float64) State {
	next := State{
		Nodes: slices.Clone(s.Nodes),
		Alpha: s.Alpha + (0-s.Alpha)*alphaDecay,
	}
	for _, f := range forces {
		f.Apply(next.Nodes, next.Alpha)
	}
	for i := range next.Nodes {
		n := &next.Nodes[i]
		n.Vel = r2.Scale(1-VelocityDecay, n.Vel)
		n.Pos = r2.Add(n.Pos, n.Vel)
	}
	return next
}

// CenterX pulls every node toward the vertical line x = X.
type CenterX struct {
	X        float64
	Strength float64
}

func (f CenterX) Apply(nodes []Node, alpha float64) {
	k := f.Strength * alpha
	for i := range nodes {
		nodes[i].Vel.X += (f.X - nodes[i].Pos.X) * k
	}
}

// CenterY pulls every node toward the horizontal line y = Y.
type CenterY struct {
	Y        float64
	Strength float64
}

func (f CenterY) Apply(nodes []Node, alpha float64) {
	k := f.Strength * alpha
	for i := range nodes {
		nodes[i].Vel.Y += (f.Y - nodes[i].Pos.Y) * k
	}
}

// Collide pushes apart every pair of nodes whose circles overlap. The
// push is proportional to the overlap depth and split by radius, so the
// smaller node moves further. It does not scale with alpha.
//
// All pairs are checked directly; the per-user category cap keeps n small
// enough that a spatial index would not pay for itself.
type Collide struct {
	Strength float64
}

func (f Collide) Apply(nodes []Node, _ float64) {
	for i := range nodes {
		a := &nodes[i]
		ra2 := a.Radius * a.Radius
		pa := r2.Add(a.Pos, a.Vel)

		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			r := a.Radius + b.Radius
			d := r2.Sub(pa, r2.Add(b.Pos, b.Vel))

			l2 := r2.Norm2(d)
			if l2 >= r*r {
				continue
			}
			if d.X == 0 {
				d.X = jiggle(i, j)
				l2 += d.X * d.X
			}
			if d.Y == 0 {
				d.Y = -jiggle(i, j)
				l2 += d.Y * d.Y
			}

			l := math.Sqrt(l2)
			push := r2.Scale((r-l)/l*f.Strength, d)

			rb2 := b.Radius * b.Radius
			share := rb2 / (ra2 + rb2)
			a.Vel = r2.Add(a.Vel, r2.Scale(share, push))
			b.Vel = r2.Sub(b.Vel, r2.Scale(1-share, push))
		}
	}
}

// jiggle separates coincident nodes by a tiny index-derived offset.
func jiggle(i, j int) float64 {
	return 1e-6 * float64(j-i)
}
