package sim

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

const speedTol = 1e-9

// TestFirstImpact runs until ball A strikes its first tile. Ball B is
// parked so the hit is isolated.
func TestFirstImpact(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	w := s.world
	w.balls[1].Velocity = cp.Vector{}
	ballBPos := w.balls[1].Position
	initialSpeed := w.balls[0].Velocity.Length()

	var contacts []Contact
	for i := 0; i < 2000; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		if len(s.LastContacts()) > 0 {
			contacts = s.LastContacts()
			break
		}
	}
	if len(contacts) == 0 {
		t.Fatal("ball A never reached a tile")
	}

	if contacts[0].Ball != 0 {
		t.Fatalf("contact came from ball %d, want ball A", contacts[0].Ball)
	}
	tile := w.tiles[contacts[0].Tile]
	if tile.IX != 16 {
		t.Fatalf("first impact on column %d, want the frontier column 16", tile.IX)
	}
	if tile.Team != TeamA || tile.Filter != TileFilter(TeamA) {
		t.Fatalf("struck tile did not flip to team A: %+v", tile)
	}
	if a, b := w.TeamCounts(); a != 289 || b != 287 {
		t.Fatalf("expected exactly one flip, got A=%d B=%d", a, b)
	}

	// Frontier hits land on a vertical face, so the x component
	// mirrors and speed is conserved.
	if w.balls[0].Velocity.X >= 0 {
		t.Fatalf("expected x reflection, velocity %+v", w.balls[0].Velocity)
	}
	if math.Abs(w.balls[0].Velocity.Length()-initialSpeed) > speedTol {
		t.Fatalf("impact changed speed: %g -> %g", initialSpeed, w.balls[0].Velocity.Length())
	}

	// The parked ball is untouched.
	if w.balls[1].Position != ballBPos || w.balls[1].Velocity != (cp.Vector{}) {
		t.Fatal("ball B moved during ball A's impact")
	}
}

// TestMidlineConfinement checks the frontier confinement while the
// initial halves are intact: until tiles start flipping, team A's
// territory ends at x=0 and neither ball can cross it.
func TestMidlineConfinement(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 150; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		balls := s.World().Balls()
		if balls[0].Position.X > speedTol {
			t.Fatalf("tick %d: ball A crossed the midline: x=%g", i+1, balls[0].Position.X)
		}
		if balls[1].Position.X < -speedTol {
			t.Fatalf("tick %d: ball B crossed the midline: x=%g", i+1, balls[1].Position.X)
		}
	}
}

// TestLongRunInvariants free-runs the stock field and checks the
// properties every tick must preserve: conserved speed, wall
// containment, filter/team consistency, constant tile count, and no
// ball ever resting inside a tile it accepts.
func TestLongRunInvariants(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	w := s.world

	initial := make([]float64, len(w.balls))
	for i := range w.balls {
		initial[i] = w.balls[i].Velocity.Length()
	}

	for i := 0; i < 10000; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}

		for bi := range w.balls {
			b := &w.balls[bi]
			if math.Abs(b.Velocity.Length()-initial[bi]) > speedTol {
				t.Fatalf("tick %d: ball %d speed drifted to %g", i+1, b.ID, b.Velocity.Length())
			}
			if !w.bounds.ContainsVect(b.Position) {
				t.Fatalf("tick %d: ball %d escaped the wall: %+v", i+1, b.ID, b.Position)
			}
			assertNoResidualOverlap(t, w, b, i+1)
		}

		// Every surfaced contact ends the tick owned by the ball that
		// struck it: the flip pass either flipped it or it already
		// belonged to that team via an earlier event.
		for _, c := range s.LastContacts() {
			if w.tiles[c.Tile].Team != w.balls[c.Ball].Team {
				t.Fatalf("tick %d: contact %+v left tile on team %s", i+1, c, w.tiles[c.Tile].Team)
			}
		}

		if (i+1)%500 == 0 {
			if err := w.CheckInvariants(); err != nil {
				t.Fatalf("tick %d: %v", i+1, err)
			}
		}
	}
}

// assertNoResidualOverlap verifies the resolver left the ball clear of
// every tile its filter admits.
func assertNoResidualOverlap(t *testing.T, w *World, b *Ball, tick int) {
	t.Helper()
	bb := cp.NewBBForCircle(b.Position, b.Radius)
	ix0, iy0 := w.tileCoord(bb.L, bb.B)
	ix1, iy1 := w.tileCoord(bb.R, bb.T)
	for ix := ix0; ix <= ix1; ix++ {
		for iy := iy0; iy <= iy1; iy++ {
			tile := &w.tiles[iy*w.cfg.GridWidth+ix]
			if !b.Filter.Accepts(tile.Filter) {
				continue
			}
			if _, depth, ok := circleBoxContact(b.Position, b.Radius, tile.BB); ok && depth > posTol {
				t.Fatalf("tick %d: ball %d still penetrates tile (%d, %d) by %g", tick, b.ID, ix, iy, depth)
			}
		}
	}
}

// TestDeterministicReplay runs two independent simulations with the
// same configuration and compares their full state at several ticks.
// The kernel uses no clock and no randomness, so the runs must match
// bit for bit.
func TestDeterministicReplay(t *testing.T) {
	s1, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s2, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	checkpoints := []uint64{1, 100, 10000}
	var done uint64
	for _, mark := range checkpoints {
		for ; done < mark; done++ {
			if err := s1.Step(); err != nil {
				t.Fatal(err)
			}
			if err := s2.Step(); err != nil {
				t.Fatal(err)
			}
		}
		assertWorldsEqual(t, s1.world, s2.world, mark)
	}
}

func assertWorldsEqual(t *testing.T, w1, w2 *World, tick uint64) {
	t.Helper()
	for i := range w1.balls {
		b1, b2 := w1.balls[i], w2.balls[i]
		if b1.Position != b2.Position || b1.Velocity != b2.Velocity {
			t.Fatalf("tick %d: ball %d diverged: %+v vs %+v", tick, i, b1, b2)
		}
	}
	for i := range w1.tiles {
		if w1.tiles[i].Team != w2.tiles[i].Team {
			t.Fatalf("tick %d: tile (%d, %d) diverged", tick, w1.tiles[i].IX, w1.tiles[i].IY)
		}
	}
}

// TestRunTicksStopsOnError makes sure the free-running driver halts at
// the first fatal step.
func TestRunTicksStopsOnError(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s.world.balls[1].Position.Y = math.Inf(1)

	if err := s.RunTicks(100); err == nil {
		t.Fatal("expected RunTicks to surface the numerical error")
	}
	if s.Tick() != 0 {
		t.Fatalf("failed tick must not count as completed, got %d", s.Tick())
	}
}
