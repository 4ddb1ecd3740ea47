package main

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/milk9111/infinite-pong/sim"
)

// Team palette: sprite index 0 is team A, 1 is team B.
var (
	tileColors = [2]color.Color{colornames.Lavender, colornames.Darkslategray}
	ballColors = [2]color.Color{colornames.Royalblue, colornames.Yellowgreen}
)

// Game hosts the simulation in an ebiten window. One Update is one
// tick, so the stock 60 TPS matches the kernel's default timestep.
type Game struct {
	cfg   sim.Config
	s     *sim.Sim
	watch *ConfigWatcher
}

func NewGame(cfg sim.Config, configPath string) (*Game, error) {
	s, err := sim.New(cfg)
	if err != nil {
		return nil, err
	}
	g := &Game{cfg: cfg, s: s}
	if configPath != "" {
		w, err := NewConfigWatcher(configPath)
		if err != nil {
			log.Printf("config watch disabled: %v", err)
		} else {
			g.watch = w
		}
	}
	return g, nil
}

func (g *Game) Close() {
	if g.watch != nil {
		_ = g.watch.Close()
	}
}

func (g *Game) Update() error {
	if g.watch != nil {
		select {
		case path := <-g.watch.Events:
			g.reload(path)
		case err := <-g.watch.Errors:
			log.Printf("config watch: %v", err)
		default:
		}
	}

	return g.s.Step()
}

// reload rebuilds the simulation from an edited config file. A broken
// file is logged and ignored; the current run keeps going.
func (g *Game) reload(path string) {
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		log.Printf("config reload skipped: %v", err)
		return
	}
	s, err := sim.New(cfg)
	if err != nil {
		log.Printf("config reload skipped: %v", err)
		return
	}
	log.Printf("config reloaded from %s, restarting field", path)
	g.cfg = cfg
	g.s = s
}

func (g *Game) Draw(screen *ebiten.Image) {
	w := g.s.World()
	bounds := w.Bounds()

	// World y points up; the screen's points down.
	w.EachTile(func(t sim.Tile) {
		vector.DrawFilledRect(screen,
			float32(t.BB.L-bounds.L), float32(bounds.T-t.BB.T),
			float32(t.BB.R-t.BB.L), float32(t.BB.T-t.BB.B),
			tileColors[t.SpriteIndex()], false)
	})

	for _, b := range w.Balls() {
		vector.DrawFilledCircle(screen,
			float32(b.Position.X-bounds.L), float32(bounds.T-b.Position.Y),
			float32(b.Radius), ballColors[b.Team], true)
	}

	a, b := w.TeamCounts()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f  Tick: %d  A: %d  B: %d", ebiten.ActualFPS(), g.s.Tick(), a, b))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(g.cfg.FieldWidth()), int(g.cfg.FieldHeight())
}
