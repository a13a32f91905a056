package ecs_test

import (
	"testing"

	"github.com/plus3/tickecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	t.Run("spawn entities", func(t *testing.T) {
		m := newTestManager(t)
		var spawned []*ecs.Entity
		var seenDuringFrame int

		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Spawn(func(e *ecs.Entity) { spawned = append(spawned, e) },
				&Position{X: 1, Y: 2}, &Velocity{X: 0.5, Y: 0.5})
			frame.Commands.Spawn(nil, &Position{X: 3, Y: 4})
			seenDuringFrame = frame.Manager.Len()
			return nil
		})))

		require.NoError(t, m.Update(1))
		assert.Equal(t, 0, seenDuringFrame, "entities spawned before the end of the frame")
		assert.Equal(t, 2, m.Len())
		require.Len(t, spawned, 1)
		assert.Equal(t, 2, spawned[0].Len())
		assert.Zero(t, m.Commands().Len())
	})

	t.Run("destroy entities", func(t *testing.T) {
		m := newTestManager(t)
		e1 := ecs.MustCreate[Ship](m)
		e2 := ecs.MustCreate[Ship](m)

		var deadDuringFrame bool
		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Destroy(e1)
			deadDuringFrame = e1.Dead()
			return nil
		})))

		require.NoError(t, m.Update(1))
		assert.False(t, deadDuringFrame, "queued destroys keep the entity alive for the frame")
		assert.True(t, e1.Dead())
		assert.Equal(t, 1, e1.destroyed)
		assert.False(t, e2.Dead())
		assert.Equal(t, 1, m.Len())
	})

	t.Run("attach components", func(t *testing.T) {
		m := newTestManager(t)
		e := m.MustSpawn(&Position{X: 1, Y: 2})
		healthy := newRecordingSystem("healthy", ecs.NewFilter().Has(ecs.TypeOf[Health]()))

		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			if frame.Index == 0 {
				frame.Commands.Attach(e, &Health{Current: 5, Max: 10})
			}
			return nil
		})))
		require.NoError(t, m.Systems().Add(healthy))

		require.NoError(t, m.Update(1))
		assert.Empty(t, healthy.seen)
		assert.True(t, healthy.Contains(e))

		h, ok := ecs.GetComponent[*Health](e)
		require.True(t, ok)
		assert.Equal(t, 5, h.Current)

		require.NoError(t, m.Update(1))
		assert.Equal(t, []ecs.EntityId{e.Id()}, healthy.seen)
	})

	t.Run("detach components", func(t *testing.T) {
		m := newTestManager(t)
		e := m.MustSpawn(&Position{X: 1, Y: 2}, &Velocity{X: 5, Y: 10})
		moving := newRecordingSystem("moving", ecs.NewFilter().Has(ecs.TypeOf[Velocity]()))

		require.NoError(t, m.Systems().Add(moving))
		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Detach(e, ecs.TypeOf[Velocity]())
			return nil
		})))

		assert.True(t, moving.Contains(e))
		err := m.Update(1)
		assert.Equal(t, []ecs.EntityId{e.Id()}, moving.seen)
		require.NoError(t, err)
		assert.False(t, moving.Contains(e))

		_, ok := ecs.GetComponent[*Velocity](e)
		assert.False(t, ok)
		_, ok = ecs.GetComponent[*Position](e)
		assert.True(t, ok)

		err = m.Update(1)
		assert.ErrorIs(t, err, ecs.ErrComponentMissing, "detaching twice reports the missing component")
	})

	t.Run("mixed commands", func(t *testing.T) {
		m := newTestManager(t)
		e := m.MustSpawn(&Position{})

		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Spawn(nil, &Position{X: 10, Y: 20})
			frame.Commands.Attach(e, &Velocity{X: 1, Y: 1})
			frame.Commands.Destroy(e)
			frame.Commands.Spawn(nil, &Health{Current: 100, Max: 100})
			return nil
		})))

		require.NoError(t, m.Update(1))
		assert.True(t, e.Dead())
		_, ok := ecs.GetComponent[*Velocity](e)
		assert.False(t, ok, "attach to an entity destroyed in the same flush is dropped")
		assert.Equal(t, 2, m.Len())
	})

	t.Run("deferred functions run last", func(t *testing.T) {
		m := newTestManager(t)
		var populationAtDefer int

		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Defer(func() { populationAtDefer = frame.Manager.Len() })
			frame.Commands.Spawn(nil, &Position{})
			return nil
		})))

		require.NoError(t, m.Update(1))
		assert.Equal(t, 1, populationAtDefer)
	})

	t.Run("flush errors are combined", func(t *testing.T) {
		m := newTestManager(t)
		e := m.MustSpawn(&Position{})

		require.NoError(t, m.Systems().Add(systemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Attach(e, &Position{})
			frame.Commands.Spawn(nil, (*Velocity)(nil))
			return nil
		})))

		err := m.Update(1)
		assert.ErrorIs(t, err, ecs.ErrDuplicateComponent)
		assert.ErrorIs(t, err, ecs.ErrNotAComponent)
	})
}
