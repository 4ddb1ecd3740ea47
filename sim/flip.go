package sim

// applyFlips consumes one tick's contact list in order and hands each
// struck tile to the ball's team, rewriting its filter in the same
// update. The first contact against a tile wins: later contacts on the
// same tile this tick are dropped, and a contact whose tile already
// matches the ball's team is stale and skipped. The pass is therefore
// a pure function of the event list and its order, which is what makes
// tick replays deterministic.
func (w *World) applyFlips(contacts []Contact) {
	var flipped []TileID
	for _, c := range contacts {
		if containsTileID(flipped, c.Tile) {
			continue
		}
		if w.tiles[c.Tile].Team == w.balls[c.Ball].Team {
			continue
		}
		w.setTileTeam(c.Tile, w.balls[c.Ball].Team)
		flipped = append(flipped, c.Tile)
	}
}

func containsTileID(ids []TileID, id TileID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
