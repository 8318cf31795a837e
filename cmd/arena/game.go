package main

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/sim"
)

var stateColors = [component.BehaviorStateCount]color.Color{
	component.StateIdle:    colornames.Slategray,
	component.StateWalk:    colornames.Orange,
	component.StateKnocked: colornames.Yellow,
	component.StateRanged:  colornames.Mediumpurple,
	component.StateHeal:    colornames.Limegreen,
	component.StateFlee:    colornames.Deepskyblue,
}

type Game struct {
	sim    *sim.Sim
	scale  float64
	paused bool
	face   ebtext.Face
	input  *InputSystem

	lastReturn float64
	episodes   int
}

func NewGame(s *sim.Sim, scale float64) *Game {
	if scale <= 0 {
		scale = 40
	}
	return &Game{
		sim:   s,
		scale: scale,
		face:  ebtext.NewGoXFace(basicfont.Face7x13),
		input: NewInputSystem(),
	}
}

func (g *Game) screenSize() (int, int) {
	spec := g.sim.Arena.Spec
	return int(spec.Width * g.scale), int(spec.Height * g.scale)
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.Arena.ResetPositions(g.sim.World)
	}
	if g.paused {
		return nil
	}

	g.input.Update(g.sim.World)
	g.sim.Step(1.0 / float64(ebiten.TPS()))

	for _, evt := range g.sim.World.Events().Drain() {
		if evt.Kind != ecs.EventEpisodeEnded {
			continue
		}
		g.episodes++
		if sum, ok := evt.Data.(system.EpisodeSummary); ok {
			g.lastReturn = sum.Return
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	w := g.sim.World
	spec := g.sim.Arena.Spec

	for _, ws := range spec.Walls {
		clr := colornames.Dimgray
		if ws.Layer == "cover" {
			clr = colornames.Saddlebrown
		}
		vector.FillRect(screen, g.px(ws.X), g.px(ws.Y), g.px(ws.Width), g.px(ws.Height), clr, false)
	}
	for _, ps := range spec.Pillars {
		vector.FillCircle(screen, g.px(ps.X), g.px(ps.Y), g.px(ps.Radius), colornames.Dimgray, true)
	}

	ecs.ForEach2(w, component.EnemyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, enemy *component.Enemy, t *component.Transform) {
		g.drawEnemy(screen, e, t)
	})
	if t, ok := ecs.Get(w, g.sim.Arena.Player, component.TransformComponent.Kind()); ok {
		g.drawPlayer(screen, t)
	}
	ecs.ForEach2(w, component.ProjectileComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, p *component.Projectile, t *component.Transform) {
		vector.FillCircle(screen, g.px(t.X), g.px(t.Y), max(2, g.px(p.Radius)), colornames.Violet, true)
	})

	g.drawHUD(screen)
}

func (g *Game) drawEnemy(screen *ebiten.Image, e ecs.Entity, t *component.Transform) {
	w := g.sim.World
	radius := 0.5
	if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok && b.Radius > 0 {
		radius = b.Radius
	}
	var clr color.Color = colornames.Orange
	var facing cp.Vector
	if brain, ok := ecs.Get(w, e, component.BrainComponent.Kind()); ok {
		if brain.State < component.BehaviorStateCount {
			clr = stateColors[brain.State]
		}
		facing = brain.Facing
	}
	if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok && !h.IsAlive() {
		clr = colornames.Darkred
	}

	x, y, r := g.px(t.X), g.px(t.Y), g.px(radius)
	vector.FillCircle(screen, x, y, r, clr, true)
	if e == g.sim.Arena.Agent {
		vector.StrokeCircle(screen, x, y, r+3, 2, colornames.White, true)
	}
	if facing.LengthSq() > 1e-9 {
		tip := t.Position().Add(facing.Normalize().Mult(radius * 1.5))
		vector.StrokeLine(screen, x, y, g.px(tip.X), g.px(tip.Y), 2, colornames.White, true)
	}
	g.drawHealth(screen, e, x, y-r-6, r*2)
}

func (g *Game) drawPlayer(screen *ebiten.Image, t *component.Transform) {
	w := g.sim.World
	e := g.sim.Arena.Player
	x, y := g.px(t.X), g.px(t.Y)
	r := g.px(0.45)
	if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok && b.Radius > 0 {
		r = g.px(b.Radius)
	}
	vector.FillCircle(screen, x, y, r, colornames.Crimson, true)
	if p, ok := ecs.Get(w, e, component.PlayerComponent.Kind()); ok && p.Swinging > 0 && p.Facing.LengthSq() > 1e-9 {
		tip := t.Position().Add(p.Facing.Normalize().Mult(p.SwordReach))
		vector.StrokeLine(screen, x, y, g.px(tip.X), g.px(tip.Y), 3, colornames.Lightgrey, true)
	}
	g.drawHealth(screen, e, x, y-r-6, r*2)
}

func (g *Game) drawHealth(screen *ebiten.Image, e ecs.Entity, cx, top, width float32) {
	h, ok := ecs.Get(g.sim.World, e, component.HealthComponent.Kind())
	if !ok {
		return
	}
	left := cx - width/2
	vector.FillRect(screen, left, top, width, 3, colornames.Darkred, false)
	vector.FillRect(screen, left, top, width*float32(h.Fraction()), 3, colornames.Lime, false)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	var lines []string
	lines = append(lines, fmt.Sprintf("tick %d  t=%.1fs  FPS %.0f", g.sim.World.Tick(), g.sim.World.Time(), ebiten.ActualFPS()))
	if _, a, ok := g.sim.Agent(); ok {
		lines = append(lines, fmt.Sprintf("agent %s  episode %d  steps %d  return %+.3f  last %s",
			a.Mode, a.Episode, a.Steps, a.EpisodeReturn, a.LastAction))
		if g.episodes > 0 {
			lines = append(lines, fmt.Sprintf("finished %d  last return %+.3f", g.episodes, g.lastReturn))
		}
	}
	if g.paused {
		lines = append(lines, "paused (P)")
	}

	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(8, 8)
	op.LineSpacing = 16
	op.ColorScale.ScaleWithColor(colornames.White)
	ebtext.Draw(screen, strings.Join(lines, "\n"), g.face, op)

	ebitenutil.DebugPrintAt(screen, "WASD move  SPACE swing  R reset  P pause", 8, int(g.px(g.sim.Arena.Spec.Height))-20)
}

func (g *Game) px(v float64) float32 {
	return float32(math.Round(v * g.scale))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.screenSize()
}
