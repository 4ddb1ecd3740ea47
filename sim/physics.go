package sim

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// Contact pairs a ball with a tile it struck during one tick. Wall
// bounces are resolved silently and ball-ball pairs are impossible by
// filter, so tiles are the only bodies that surface here.
type Contact struct {
	Ball BallID
	Tile TileID
}

// NumericalError reports a ball whose state went non-finite. It is
// fatal; the driver stops the simulation.
type NumericalError struct {
	Ball     BallID
	Position cp.Vector
	Velocity cp.Vector
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("ball %d: non-finite state pos=(%g, %g) vel=(%g, %g)",
		e.Ball, e.Position.X, e.Position.Y, e.Velocity.X, e.Velocity.Y)
}

// A ball overlapping several shapes is re-checked after every
// correction; each correction strictly shrinks total penetration, so
// a handful of passes always settles it.
const maxResolvePasses = 8

// step advances every ball by dt under zero gravity and resolves all
// contacts against static bodies. Contacts append to events (reused
// across ticks) in ball slot order, then resolution order, with each
// (ball, tile) pair recorded at most once.
func (w *World) step(dt float64, events []Contact) ([]Contact, error) {
	for i := range w.balls {
		b := &w.balls[i]
		prev := b.Position
		b.Position = b.Position.Add(b.Velocity.Mult(dt))
		events = w.resolveBall(b, prev, events)
		if !isFinite(b.Position) || !isFinite(b.Velocity) {
			return events, &NumericalError{Ball: b.ID, Position: b.Position, Velocity: b.Velocity}
		}
	}
	return events, nil
}

// resolveBall settles one ball against tiles and the wall. Tiles are
// visited in ascending (ix, iy) order with the wall last, so replays
// resolve identically. Each resolution translates the ball to tangency
// and mirrors the velocity component along the contact normal.
func (w *World) resolveBall(b *Ball, prev cp.Vector, events []Contact) []Contact {
	for pass := 0; pass < maxResolvePasses; pass++ {
		resolved := false

		span := cp.NewBBForCircle(prev, b.Radius).Merge(cp.NewBBForCircle(b.Position, b.Radius))
		ix0, iy0 := w.tileCoord(span.L, span.B)
		ix1, iy1 := w.tileCoord(span.R, span.T)

		for ix := ix0; ix <= ix1; ix++ {
			for iy := iy0; iy <= iy1; iy++ {
				id := TileID(iy*w.cfg.GridWidth + ix)
				tile := &w.tiles[id]
				if !b.Filter.Accepts(tile.Filter) {
					continue
				}
				n, depth, ok := circleBoxContact(b.Position, b.Radius, tile.BB)
				if !ok {
					continue
				}
				b.Position = b.Position.Add(n.Mult(depth))
				b.Velocity = reflect(b.Velocity, n)
				events = appendContact(events, Contact{Ball: b.ID, Tile: id})
				resolved = true
			}
		}

		if b.Filter.Accepts(WallFilter) {
			for s := range w.wall {
				seg := &w.wall[s]
				pen := b.Radius - b.Position.Sub(seg.A).Dot(seg.Normal)
				if pen <= 0 {
					continue
				}
				b.Position = b.Position.Add(seg.Normal.Mult(pen))
				b.Velocity = reflect(b.Velocity, seg.Normal)
				resolved = true
			}
		}

		if !resolved {
			break
		}
	}
	return events
}

// tileCoord maps a world position to the clamped grid cell containing it.
func (w *World) tileCoord(x, y float64) (int, int) {
	ix := int(math.Floor((x - w.bounds.L) / w.cfg.TileSize))
	iy := int(math.Floor((y - w.bounds.B) / w.cfg.TileSize))
	return clampInt(ix, 0, w.cfg.GridWidth-1), clampInt(iy, 0, w.cfg.GridHeight-1)
}

// circleBoxContact tests a circle against a tile box. It returns the
// contact normal pointing from the box toward the circle and the
// translation depth along it that restores tangency. Normals are kept
// axis-aligned: a corner hit resolves along the axis of greater
// separating distance, x winning ties, so every reflection is a pure
// component sign flip and speed is preserved exactly.
func circleBoxContact(p cp.Vector, r float64, bb cp.BB) (cp.Vector, float64, bool) {
	closest := cp.Vector{X: clampFloat(p.X, bb.L, bb.R), Y: clampFloat(p.Y, bb.B, bb.T)}
	delta := p.Sub(closest)
	distSq := delta.Dot(delta)

	if distSq > 0 {
		if distSq >= r*r {
			return cp.Vector{}, 0, false
		}
		ax, ay := math.Abs(delta.X), math.Abs(delta.Y)
		if ax >= ay {
			depth := math.Sqrt(r*r-delta.Y*delta.Y) - ax
			return cp.Vector{X: sign(delta.X)}, depth, true
		}
		depth := math.Sqrt(r*r-delta.X*delta.X) - ay
		return cp.Vector{Y: sign(delta.Y)}, depth, true
	}

	// Centre inside the box: push out through the nearest face, x
	// before y on ties.
	nx, depthX := 1.0, bb.R-p.X
	if left := p.X - bb.L; left < depthX {
		nx, depthX = -1, left
	}
	ny, depthY := 1.0, bb.T-p.Y
	if bottom := p.Y - bb.B; bottom < depthY {
		ny, depthY = -1, bottom
	}
	if depthX <= depthY {
		return cp.Vector{X: nx}, depthX + r, true
	}
	return cp.Vector{Y: ny}, depthY + r, true
}

// reflect mirrors v across the contact plane when the ball is moving
// into it. A ball already separating keeps its velocity.
func reflect(v, n cp.Vector) cp.Vector {
	d := v.Dot(n)
	if d >= 0 {
		return v
	}
	return v.Sub(n.Mult(2 * d))
}

func appendContact(events []Contact, c Contact) []Contact {
	for _, e := range events {
		if e == c {
			return events
		}
	}
	return append(events, c)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
