// Package sim is the infinite-pong simulation kernel: two balls bounce
// over a grid of team-owned tiles, and every ball-tile impact flips the
// tile to the ball's team. Collision filtering confines each ball to
// the opposing team's territory, and flipping a tile rewrites its
// filter, so the frontier between the teams morphs tile by tile while
// the physics stays oblivious to teams.
//
// The kernel is deterministic: no clock, no randomness, fixed timestep,
// fixed resolution order. Two runs from the same Config produce
// identical worlds at every tick.
package sim

import "fmt"

// Sim drives the world with a fixed timestep. One tick is one physics
// step followed by one tile-flip pass; nothing is shared across ticks
// except the world itself.
type Sim struct {
	world    *World
	dt       float64
	tick     uint64
	contacts []Contact
}

// New validates cfg and builds a simulation at tick zero.
func New(cfg Config) (*Sim, error) {
	w, err := NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	return &Sim{world: w, dt: cfg.Timestep}, nil
}

// World exposes the driven world. The caller must not hold references
// across Step; snapshot accessors return copies.
func (s *Sim) World() *World {
	return s.world
}

// Tick returns the number of completed ticks.
func (s *Sim) Tick() uint64 {
	return s.tick
}

// Step advances the simulation by one fixed timestep. A returned error
// (non-finite ball state) is fatal: the world is no longer valid and
// the host should stop.
func (s *Sim) Step() error {
	contacts, err := s.world.step(s.dt, s.contacts[:0])
	s.contacts = contacts
	if err != nil {
		return fmt.Errorf("tick %d: %w", s.tick, err)
	}
	s.world.applyFlips(contacts)
	s.tick++
	return nil
}

// RunTicks steps n ticks back to back, stopping at the first error.
// Hosts that want wall-clock pacing call Step themselves.
func (s *Sim) RunTicks(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// LastContacts returns the contact list of the most recent tick. The
// slice is reused by the next Step.
func (s *Sim) LastContacts() []Contact {
	return s.contacts
}
