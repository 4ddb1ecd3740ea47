// Command soak free-runs the simulation without a window and checks
// its invariants as it goes. Useful for long determinism and drift
// runs that would be tedious at wall-clock pace.
package main

import (
	"flag"
	"log"
	"math"

	"github.com/milk9111/infinite-pong/sim"
)

func main() {
	configPath := flag.String("config", "", "yaml field config (defaults used when empty)")
	ticks := flag.Int("ticks", 360000, "number of ticks to run")
	report := flag.Int("report", 36000, "ticks between reports")
	flag.Parse()

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		c, err := sim.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}

	s, err := sim.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	initialSpeeds := make([]float64, 0, 2)
	for _, b := range s.World().Balls() {
		initialSpeeds = append(initialSpeeds, b.Velocity.Length())
	}

	contacts := 0
	for i := 0; i < *ticks; i++ {
		if err := s.Step(); err != nil {
			log.Fatal(err)
		}
		contacts += len(s.LastContacts())

		if *report > 0 && int(s.Tick())%*report == 0 {
			if err := s.World().CheckInvariants(); err != nil {
				log.Fatalf("tick %d: invariant violated: %v", s.Tick(), err)
			}
			reportState(s, initialSpeeds, contacts)
		}
	}

	if err := s.World().CheckInvariants(); err != nil {
		log.Fatalf("tick %d: invariant violated: %v", s.Tick(), err)
	}
	reportState(s, initialSpeeds, contacts)
	log.Printf("ok: %d ticks, %d tile contacts", s.Tick(), contacts)
}

func reportState(s *sim.Sim, initialSpeeds []float64, contacts int) {
	a, b := s.World().TeamCounts()
	maxDrift := 0.0
	for i, ball := range s.World().Balls() {
		drift := math.Abs(ball.Velocity.Length() - initialSpeeds[i])
		if drift > maxDrift {
			maxDrift = drift
		}
	}
	log.Printf("tick %d: tiles A=%d B=%d, contacts=%d, max speed drift=%.3g", s.Tick(), a, b, contacts, maxDrift)
}
