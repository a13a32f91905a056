// Package ebitenloop hosts an ecs.EntityManager inside an Ebiten game loop.
package ebitenloop

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/tickecs/ecs"
	"github.com/rotisserie/eris"
)

// Game implements ebiten.Game. Every Ebiten tick runs one Manager.Update with a time step of
// 1/TPS seconds, and every Ebiten frame runs one Manager.Draw.
type Game struct {
	Manager *ecs.EntityManager

	// Width and Height are the logical screen size. Zero means the outside size.
	Width  int
	Height int

	// QuitKeys end the game with ebiten.Termination when pressed.
	QuitKeys []ebiten.Key

	screen  *ebiten.Image
	elapsed float64
	err     error
}

// New creates a Game driving m at the given logical size.
func New(m *ecs.EntityManager, width, height int) *Game {
	return &Game{
		Manager:  m,
		Width:    width,
		Height:   height,
		QuitKeys: []ebiten.Key{ebiten.KeyEscape},
	}
}

// Screen returns the image of the frame being drawn. Drawable components and draw systems
// render onto it from their Draw and OnDraw methods.
func (g *Game) Screen() *ebiten.Image {
	return g.screen
}

// Elapsed returns the simulated time in seconds since the game started.
func (g *Game) Elapsed() float64 {
	return g.elapsed
}

func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	for _, key := range g.QuitKeys {
		if ebiten.IsKeyPressed(key) {
			return ebiten.Termination
		}
	}

	dt := 1.0 / float64(ebiten.TPS())
	g.elapsed += dt
	return g.Manager.Update(dt)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.screen = screen
	defer func() { g.screen = nil }()

	if err := g.Manager.Draw(); err != nil && g.err == nil {
		g.err = eris.Wrap(err, "draw failed")
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.Width > 0 && g.Height > 0 {
		return g.Width, g.Height
	}
	return outsideWidth, outsideHeight
}

// Run opens a window titled title and runs g until it terminates, then closes the manager.
func Run(g *Game, title string) error {
	if g.Width > 0 && g.Height > 0 {
		ebiten.SetWindowSize(g.Width, g.Height)
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(g)
	if closeErr := g.Manager.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if eris.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
