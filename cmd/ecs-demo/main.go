package main

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/tickecs/ecs"
	"github.com/plus3/tickecs/ecs/ebitenloop"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	BallCount    = 2000
)

var pastelColors = []color.RGBA{
	{255, 179, 186, 255},
	{179, 229, 252, 255},
	{255, 223, 186, 255},
	{186, 255, 201, 255},
	{217, 186, 255, 255},
}

type Position struct{ X, Y float64 }

func (*Position) Name() string { return "Position" }

type Velocity struct{ X, Y float64 }

func (*Velocity) Name() string { return "Velocity" }

// Disc is drawn by the manager's draw pass onto the frame the game is rendering.
type Disc struct {
	game   *ebitenloop.Game
	pos    *Position
	radius float32
	color  color.RGBA
}

func (*Disc) Name() string { return "Disc" }

func (d *Disc) Draw() error {
	vector.DrawFilledCircle(d.game.Screen(), float32(d.pos.X), float32(d.pos.Y), d.radius, d.color, true)
	return nil
}

func spawnBall(m *ecs.EntityManager, game *ebitenloop.Game) error {
	pos := &Position{X: rand.Float64() * ScreenWidth, Y: rand.Float64() * ScreenHeight}
	_, err := m.Spawn(
		pos,
		&Velocity{X: rand.Float64()*200 - 100, Y: rand.Float64()*200 - 100},
		&Disc{game: game, pos: pos, radius: 2 + rand.Float32()*4, color: pastelColors[rand.IntN(len(pastelColors))]},
	)
	return err
}

func bounce(frame *ecs.UpdateFrame, e *ecs.Entity) error {
	pos, _ := ecs.GetComponent[*Position](e)
	vel, _ := ecs.GetComponent[*Velocity](e)
	pos.X += vel.X * frame.Time
	pos.Y += vel.Y * frame.Time
	if pos.X < 0 || pos.X > ScreenWidth {
		vel.X = -vel.X
	}
	if pos.Y < 0 || pos.Y > ScreenHeight {
		vel.Y = -vel.Y
	}
	return nil
}

// background clears the frame before the drawables are drawn.
type background struct {
	game *ebitenloop.Game
}

func (b *background) OnExecute(*ecs.UpdateFrame) error { return nil }

func (b *background) OnDraw() error {
	b.game.Screen().Fill(color.RGBA{245, 245, 240, 255})
	return nil
}

func main() {
	cfg, err := ecs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manager := ecs.NewEntityManager(ecs.WithConfig(cfg))
	game := ebitenloop.New(manager, ScreenWidth, ScreenHeight)
	game.QuitKeys = append(game.QuitKeys, ebiten.KeyQ)

	if err := manager.Systems().Add(&background{game: game}); err != nil {
		manager.Logger().Fatal().Err(err).Msg("failed to register background")
	}
	movers := ecs.NewFilter().Has(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]())
	if err := manager.Systems().Add(ecs.NewParallelEntityProcessor(movers, ecs.ProcessFunc(bounce), ecs.WithName("bounce"))); err != nil {
		manager.Logger().Fatal().Err(err).Msg("failed to register bounce")
	}

	for range BallCount {
		if err := spawnBall(manager, game); err != nil {
			manager.Logger().Fatal().Err(err).Msg("failed to spawn ball")
		}
	}

	if err := ebitenloop.Run(game, "Bouncing Balls - ECS Example"); err != nil {
		manager.Logger().Fatal().Err(err).Msg("game loop failed")
	}
}
