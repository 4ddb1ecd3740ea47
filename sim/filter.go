package sim

// Team is one of the two sides of the field. Every tile and every ball
// belongs to exactly one team.
type Team uint8

const (
	TeamA Team = iota
	TeamB
)

// Opposite returns the other team.
func (t Team) Opposite() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	if t == TeamA {
		return "A"
	}
	return "B"
}

// Layer is a collision category bit. Bodies carry a category bitmask and
// a mask of categories they are willing to touch.
type Layer uint32

const (
	LayerA Layer = 1 << iota
	LayerB
	LayerWall
)

// Filter decides which body pairs the physics step may consider.
// Category is the set of layers a body belongs to, Mask the set of
// layers it accepts contacts from.
type Filter struct {
	Category Layer
	Mask     Layer
}

// Accepts reports whether two filtered bodies interact. The test is a
// symmetric conjunction: each side's category must intersect the other
// side's mask. Testing only one direction is a classic bug; both balls
// would leak across the midline.
func (f Filter) Accepts(other Filter) bool {
	return f.Category&other.Mask != 0 && other.Category&f.Mask != 0
}

func teamLayer(t Team) Layer {
	if t == TeamA {
		return LayerA
	}
	return LayerB
}

// TileFilter is the filter for a tile owned by team t: it belongs to
// its team's layer and only accepts the opposing ball.
func TileFilter(t Team) Filter {
	return Filter{Category: teamLayer(t), Mask: teamLayer(t.Opposite())}
}

// BallFilter is the filter for a ball on team t: it belongs to its
// team's layer and accepts opposing tiles and the outer wall. Two balls
// never accept each other.
func BallFilter(t Team) Filter {
	return Filter{Category: teamLayer(t), Mask: teamLayer(t.Opposite()) | LayerWall}
}

// WallFilter is the filter for the outer wall: it reflects both balls.
var WallFilter = Filter{Category: LayerWall, Mask: LayerA | LayerB}
