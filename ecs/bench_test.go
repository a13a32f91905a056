package ecs_test

import (
	"fmt"
	"testing"

	"github.com/plus3/tickecs/ecs"
)

func BenchmarkSpawn(b *testing.B) {
	m := ecs.NewEntityManager()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.MustSpawn(&Position{X: 1.0, Y: 2.0}, &Velocity{X: 0.5, Y: 0.5})
	}
}

func BenchmarkCreateDeclared(b *testing.B) {
	m := ecs.NewEntityManager()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ecs.MustCreate[Ship](m)
	}
}

func BenchmarkSpawnWithSystems(b *testing.B) {
	m := ecs.NewEntityManager()
	for range 10 {
		if err := m.Systems().Add(newRecordingSystem("movers", movers())); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.MustSpawn(&Position{X: 1.0, Y: 2.0}, &Velocity{X: 0.5, Y: 0.5})
	}
}

func BenchmarkDestroyAndReclaim(b *testing.B) {
	m := ecs.NewEntityManager()
	entities := make([]*ecs.Entity, b.N)
	for i := range entities {
		entities[i] = m.MustSpawn(&Position{X: 1.0, Y: 2.0}, &Velocity{X: 0.5, Y: 0.5})
	}

	b.ResetTimer()
	for _, e := range entities {
		if err := m.Destroy(e); err != nil {
			b.Fatal(err)
		}
	}
	if err := m.Update(0); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkGetComponent(b *testing.B) {
	m := ecs.NewEntityManager()
	e := m.MustSpawn(&Position{X: 1.0, Y: 2.0}, &Velocity{X: 0.5, Y: 0.5}, &Health{Current: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ecs.GetComponent[*Health](e)
	}
}

func BenchmarkAttachDetach(b *testing.B) {
	m := ecs.NewEntityManager()
	e := m.MustSpawn(&Position{X: 1.0, Y: 2.0})
	vel := &Velocity{X: 0.5, Y: 0.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.Attach(e, vel); err != nil {
			b.Fatal(err)
		}
		if _, err := m.Detach(e, ecs.TypeOf[Velocity]()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFilterApply(b *testing.B) {
	m := ecs.NewEntityManager()
	e := m.MustSpawn(&Position{}, &Velocity{})
	f := ecs.NewFilter().Has(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]()).HasNot(ecs.TypeOf[Frozen]())
	if err := f.Compile(m.Components()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Apply(e)
	}
}

func BenchmarkUpdate(b *testing.B) {
	for _, n := range []int{1_000, 100_000} {
		for _, parallel := range []bool{false, true} {
			b.Run(fmt.Sprintf("entities=%d,parallel=%v", n, parallel), func(b *testing.B) {
				m := ecs.NewEntityManager()
				var sys ecs.System
				if parallel {
					sys = ecs.NewParallelEntityProcessor(movers(), ecs.ProcessFunc(integrate))
				} else {
					sys = ecs.NewEntityProcessor(movers(), ecs.ProcessFunc(integrate))
				}
				if err := m.Systems().Add(sys); err != nil {
					b.Fatal(err)
				}
				spawnMovers(b, m, n)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := m.Update(0.016); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
