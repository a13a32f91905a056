package ecs_test

import (
	"testing"

	"github.com/plus3/tickecs/ecs"
	"github.com/rs/zerolog"
)

// Common test component types
type Position struct {
	X, Y float64
}

func (*Position) Name() string { return "Position" }

type Velocity struct {
	X, Y float64
}

func (*Velocity) Name() string { return "Velocity" }

type Health struct {
	Current int
	Max     int
}

func (*Health) Name() string { return "Health" }

type Frozen struct{}

func (*Frozen) Name() string { return "Frozen" }

// Value receiver components are accepted as well.
type Score int

func (Score) Name() string { return "Score" }

// drawLog records the order in which drawables are drawn.
type drawLog struct {
	calls []string
}

type Sprite struct {
	Label string
	Log   *drawLog
}

func (*Sprite) Name() string { return "Sprite" }

func (s *Sprite) Draw() error {
	s.Log.calls = append(s.Log.calls, "sprite:"+s.Label)
	return nil
}

type Halo struct {
	Label string
	Log   *drawLog
}

func (*Halo) Name() string { return "Halo" }

func (h *Halo) Draw() error {
	h.Log.calls = append(h.Log.calls, "halo:"+h.Label)
	return nil
}

// NotAComponent lacks the Name method.
type NotAComponent struct{}

// Ship declares a position and a velocity and counts its lifecycle hooks.
type Ship struct {
	ecs.Entity
	Position *Position
	Velocity *Velocity

	created   int
	destroyed int
}

func (s *Ship) Declare(b *ecs.Builder) {
	s.Position = ecs.Attach(b, &Position{})
	s.Velocity = ecs.Attach(b, &Velocity{X: 1, Y: 2})
	b.Tag("ship").Group("fleet")
}

func (s *Ship) OnCreate()  { s.created++ }
func (s *Ship) OnDestroy() { s.destroyed++ }

// Rock only has a position.
type Rock struct {
	ecs.Entity
	Position *Position
}

func (r *Rock) Declare(b *ecs.Builder) {
	r.Position = ecs.Attach(b, &Position{X: 10, Y: 10})
	b.Group("debris")
}

// Marker declares no components.
type Marker struct {
	ecs.Entity
}

// Broken declares the same component type twice.
type Broken struct {
	ecs.Entity
}

func (b *Broken) Declare(builder *ecs.Builder) {
	ecs.Attach(builder, &Position{})
	ecs.Attach(builder, &Position{})
}

func newTestManager(t testing.TB, opts ...ecs.Option) *ecs.EntityManager {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.TraceLevel)
	return ecs.NewEntityManager(append([]ecs.Option{ecs.WithLogger(logger)}, opts...)...)
}

// recordingSystem embeds an EntityView and records what it saw each frame.
type recordingSystem struct {
	*ecs.EntityView
	name   string
	frames int
	seen   []ecs.EntityId
	order  *[]string
	err    error
}

func newRecordingSystem(name string, filter *ecs.Filter) *recordingSystem {
	return &recordingSystem{EntityView: ecs.NewEntityView(filter), name: name}
}

func (s *recordingSystem) Name() string { return s.name }

func (s *recordingSystem) OnExecute(frame *ecs.UpdateFrame) error {
	s.frames++
	s.seen = s.seen[:0]
	for e := range s.Entities() {
		s.seen = append(s.seen, e.Id())
	}
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return s.err
}
