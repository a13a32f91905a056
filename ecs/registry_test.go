package ecs_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/plus3/tickecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAssignsSequentialIds(t *testing.T) {
	reg := ecs.NewTypeRegistry[ecs.Component]()

	pos, ok := ecs.RegisterComponent[Position](reg)
	require.True(t, ok)
	vel, ok := ecs.RegisterComponent[Velocity](reg)
	require.True(t, ok)
	score, ok := ecs.RegisterComponent[Score](reg)
	require.True(t, ok)

	assert.Equal(t, uint64(0), pos.ID)
	assert.Equal(t, uint64(1), vel.ID)
	assert.Equal(t, uint64(2), score.ID)
	assert.Equal(t, 3, reg.Count())

	again, ok := reg.GetInfo(reflect.TypeOf(&Position{}))
	require.True(t, ok)
	assert.Equal(t, pos.ID, again.ID, "pointer and element type share a descriptor")
	assert.True(t, pos.Mask.Equal(again.Mask))
	assert.Equal(t, 3, reg.Count())
}

func TestRegistryRejectsForeignTypes(t *testing.T) {
	reg := ecs.NewTypeRegistry[ecs.Component]()

	_, ok := ecs.RegisterComponent[NotAComponent](reg)
	assert.False(t, ok)
	_, ok = ecs.RegisterComponent[int](reg)
	assert.False(t, ok)
	_, ok = reg.GetInfo(ecs.TypeOf[ecs.Component]())
	assert.False(t, ok, "interface types are never registered")
	_, ok = reg.Lookup(ecs.TypeOf[Position]())
	assert.False(t, ok, "lookup does not allocate")

	assert.Equal(t, 0, reg.Count())
	assert.True(t, reg.Accepts(ecs.TypeOf[Position]()))
	assert.False(t, reg.Accepts(ecs.TypeOf[NotAComponent]()))
}

func TestRegistryCategoriesAreIndependent(t *testing.T) {
	components := ecs.NewTypeRegistry[ecs.Component]()
	drawables := ecs.NewTypeRegistry[ecs.Drawable]()

	ecs.RegisterComponent[Position](components)
	ecs.RegisterComponent[Velocity](components)
	sprite, ok := ecs.RegisterComponent[Sprite](components)
	require.True(t, ok)
	assert.Equal(t, uint64(2), sprite.ID)

	dsprite, ok := ecs.RegisterComponent[Sprite](drawables)
	require.True(t, ok)
	assert.Equal(t, uint64(0), dsprite.ID)

	_, ok = ecs.RegisterComponent[Position](drawables)
	assert.False(t, ok, "Position is not drawable")

	assert.Equal(t, ecs.TypeOf[ecs.Drawable](), drawables.Category())
}

func TestRegistryRequiresInterfaceCategory(t *testing.T) {
	assert.Panics(t, func() {
		ecs.NewTypeRegistry[Position]()
	})
}

// distinctTypes builds n distinct array types, enough to exceed any fixed-width mask.
func distinctTypes(n int) []reflect.Type {
	types := make([]reflect.Type, n)
	for i := range types {
		types[i] = reflect.ArrayOf(i+1, reflect.TypeFor[byte]())
	}
	return types
}

func TestRegistryMasksAreUniqueBeyond64Types(t *testing.T) {
	reg := ecs.NewTypeRegistry[any]()
	types := distinctTypes(300)

	infos := make([]ecs.ComponentType, len(types))
	for i, typ := range types {
		info, ok := reg.GetInfo(typ)
		require.True(t, ok)
		infos[i] = info
	}

	for i, a := range infos {
		assert.Equal(t, uint64(i), a.ID)
		assert.Equal(t, 1, a.Mask.Count(), "exactly one bit for %s", a.Type)
		assert.True(t, a.Mask.Has(a.ID))
	}
	for i := range infos {
		for j := i + 1; j < len(infos); j++ {
			require.False(t, infos[i].Mask.ContainsAny(infos[j].Mask), "%d and %d overlap", i, j)
		}
	}
}

func TestRegistryConcurrentRegistrationIsDense(t *testing.T) {
	reg := ecs.NewTypeRegistry[any]()
	types := distinctTypes(200)

	const goroutines = 16
	results := make([][]ecs.ComponentType, goroutines)

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each goroutine walks the types in a different rotation.
			for i := range types {
				typ := types[(i+g*13)%len(types)]
				info, _ := reg.GetInfo(typ)
				results[g] = append(results[g], info)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, len(types), reg.Count())

	byType := make(map[reflect.Type]uint64)
	for _, infos := range results {
		for _, info := range infos {
			if id, ok := byType[info.Type]; ok {
				require.Equal(t, id, info.ID, "same type, same id")
				continue
			}
			byType[info.Type] = info.ID
		}
	}

	seen := make([]bool, len(types))
	for _, id := range byType {
		require.Less(t, int(id), len(types))
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}

	registered := reg.Types()
	for i, info := range registered {
		assert.Equal(t, uint64(i), info.ID)
	}
}
