package sim

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// TileID is a stable tile identifier: its dense grid index iy*W+ix.
type TileID int

// BallID is a stable ball identifier: its slot index.
type BallID int

// Tile is a static square collider owned by a team. Tiles are created
// once at startup; only Team (and the filter derived from it) mutates.
type Tile struct {
	IX, IY int
	Team   Team
	Filter Filter
	BB     cp.BB
}

// SpriteIndex selects the render sink's sprite for the tile: 0 for
// team A, 1 for team B.
func (t Tile) SpriteIndex() int {
	if t.Team == TeamA {
		return 0
	}
	return 1
}

// Ball is a dynamic circular body. Radius and Team never change.
type Ball struct {
	ID       BallID
	Team     Team
	Radius   float64
	Position cp.Vector
	Velocity cp.Vector
	Filter   Filter
}

// Segment is one edge of the outer wall. Normal points into the field.
type Segment struct {
	A, B   cp.Vector
	Normal cp.Vector
}

// World owns every body: the dense tile grid, the balls in slot order
// and the outer wall. It is built once and lives for the whole run.
type World struct {
	cfg    Config
	tiles  []Tile
	balls  []Ball
	wall   [4]Segment
	bounds cp.BB
}

// NewWorld builds the starting field: the left half of the grid on
// team A, the right half (plus the middle column when the width is
// odd) on team B, one ball per team launched diagonally toward its own
// corner, and the wall framing the whole field. The field is centred
// on the origin.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fw, fh := cfg.FieldWidth(), cfg.FieldHeight()
	half := cp.Vector{X: fw / 2, Y: fh / 2}

	w := &World{
		cfg:    cfg,
		tiles:  make([]Tile, cfg.GridWidth*cfg.GridHeight),
		bounds: cp.BB{L: -half.X, B: -half.Y, R: half.X, T: half.Y},
	}

	for iy := 0; iy < cfg.GridHeight; iy++ {
		for ix := 0; ix < cfg.GridWidth; ix++ {
			team := TeamB
			if ix < cfg.GridWidth/2 {
				team = TeamA
			}
			center := cp.Vector{
				X: -half.X + (float64(ix)+0.5)*cfg.TileSize,
				Y: -half.Y + (float64(iy)+0.5)*cfg.TileSize,
			}
			w.tiles[iy*cfg.GridWidth+ix] = Tile{
				IX:     ix,
				IY:     iy,
				Team:   team,
				Filter: TileFilter(team),
				BB:     cp.NewBBForExtents(center, cfg.TileSize/2, cfg.TileSize/2),
			}
		}
	}

	launch := cfg.InitialSpeed / math.Sqrt2
	offset := cfg.TileSize * float64(cfg.GridWidth/4)
	w.balls = []Ball{
		{
			ID:       0,
			Team:     TeamA,
			Radius:   cfg.BallRadius,
			Position: cp.Vector{X: -offset, Y: 0},
			Velocity: cp.Vector{X: -launch, Y: -launch},
			Filter:   BallFilter(TeamA),
		},
		{
			ID:       1,
			Team:     TeamB,
			Radius:   cfg.BallRadius,
			Position: cp.Vector{X: offset, Y: 0},
			Velocity: cp.Vector{X: launch, Y: launch},
			Filter:   BallFilter(TeamB),
		},
	}

	corners := [4]cp.Vector{
		{X: -half.X, Y: -half.Y},
		{X: -half.X, Y: half.Y},
		{X: half.X, Y: half.Y},
		{X: half.X, Y: -half.Y},
	}
	normals := [4]cp.Vector{
		{X: 1, Y: 0},  // left edge
		{X: 0, Y: -1}, // top edge
		{X: -1, Y: 0}, // right edge
		{X: 0, Y: 1},  // bottom edge
	}
	for i := range w.wall {
		w.wall[i] = Segment{A: corners[i], B: corners[(i+1)%4], Normal: normals[i]}
	}

	return w, nil
}

// Config returns the parameters the world was built with.
func (w *World) Config() Config {
	return w.cfg
}

// GridSize returns the grid dimensions in tiles.
func (w *World) GridSize() (int, int) {
	return w.cfg.GridWidth, w.cfg.GridHeight
}

// Bounds returns the wall rectangle.
func (w *World) Bounds() cp.BB {
	return w.bounds
}

func (w *World) tileIndex(ix, iy int) (TileID, error) {
	if ix < 0 || ix >= w.cfg.GridWidth || iy < 0 || iy >= w.cfg.GridHeight {
		return 0, fmt.Errorf("tile (%d, %d) outside grid %dx%d", ix, iy, w.cfg.GridWidth, w.cfg.GridHeight)
	}
	return TileID(iy*w.cfg.GridWidth + ix), nil
}

// TileAt returns a copy of the tile at the given grid coordinate.
func (w *World) TileAt(ix, iy int) (Tile, error) {
	id, err := w.tileIndex(ix, iy)
	if err != nil {
		return Tile{}, err
	}
	return w.tiles[id], nil
}

// SetTileTeam reassigns a tile. Team and filter change together so no
// observer can see a tile whose filter disagrees with its team.
func (w *World) SetTileTeam(ix, iy int, team Team) error {
	id, err := w.tileIndex(ix, iy)
	if err != nil {
		return err
	}
	w.setTileTeam(id, team)
	return nil
}

func (w *World) setTileTeam(id TileID, team Team) {
	t := &w.tiles[id]
	t.Team = team
	t.Filter = TileFilter(team)
}

// Balls returns a snapshot of the balls in stable slot order.
func (w *World) Balls() []Ball {
	out := make([]Ball, len(w.balls))
	copy(out, w.balls)
	return out
}

// EachTile visits every tile in grid order. The render sink snapshots
// through this; the callback receives copies.
func (w *World) EachTile(fn func(Tile)) {
	for i := range w.tiles {
		fn(w.tiles[i])
	}
}

// TeamCounts returns how many tiles each team currently holds.
func (w *World) TeamCounts() (a, b int) {
	for i := range w.tiles {
		if w.tiles[i].Team == TeamA {
			a++
		} else {
			b++
		}
	}
	return a, b
}

// CheckInvariants verifies the structural state the rest of the kernel
// assumes: the tile count, tile filters consistent with their teams,
// ball filters and radii unchanged, and every ball finite and strictly
// inside the wall. Tests and the soak tool call this between ticks.
func (w *World) CheckInvariants() error {
	if len(w.tiles) != w.cfg.GridWidth*w.cfg.GridHeight {
		return fmt.Errorf("tile count %d, want %d", len(w.tiles), w.cfg.GridWidth*w.cfg.GridHeight)
	}
	for i := range w.tiles {
		t := &w.tiles[i]
		if t.Filter != TileFilter(t.Team) {
			return fmt.Errorf("tile (%d, %d): filter %+v disagrees with team %s", t.IX, t.IY, t.Filter, t.Team)
		}
	}
	for i := range w.balls {
		b := &w.balls[i]
		if b.Filter != BallFilter(b.Team) {
			return fmt.Errorf("ball %d: filter %+v disagrees with team %s", b.ID, b.Filter, b.Team)
		}
		if b.Radius != w.cfg.BallRadius {
			return fmt.Errorf("ball %d: radius changed to %g", b.ID, b.Radius)
		}
		if !isFinite(b.Position) || !isFinite(b.Velocity) {
			return &NumericalError{Ball: b.ID, Position: b.Position, Velocity: b.Velocity}
		}
		if !w.bounds.ContainsVect(b.Position) {
			return fmt.Errorf("ball %d: centre %v outside the wall", b.ID, b.Position)
		}
	}
	return nil
}

func isFinite(v cp.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
