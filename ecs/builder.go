package ecs

// Builder collects the components an entity type declares at construction time.
type Builder struct {
	components []Component
	tag        string
	group      string
}

// Declarer is implemented by entity types that own components.
// Declare runs once, before the entity becomes visible to any system.
//
//	type Ship struct {
//		ecs.Entity
//		Position *Position
//		Velocity *Velocity
//	}
//
//	func (s *Ship) Declare(b *ecs.Builder) {
//		s.Position = ecs.Attach(b, &Position{})
//		s.Velocity = ecs.Attach(b, &Velocity{X: 1})
//		b.Tag("ship")
//	}
type Declarer interface {
	Declare(b *Builder)
}

// CreateHook is implemented by entity types that react to being added to the population.
type CreateHook interface {
	OnCreate()
}

// DestroyHook is implemented by entity types that react to being reclaimed.
// It fires exactly once, at the end of the update pass following Destroy.
type DestroyHook interface {
	OnDestroy()
}

// Attach declares c as a component of the entity under construction and returns it unchanged,
// so the caller can bind it to a typed field.
func Attach[C Component](b *Builder, c C) C {
	b.components = append(b.components, c)
	return c
}

// Tag sets the entity's tag.
func (b *Builder) Tag(tag string) *Builder {
	b.tag = tag
	return b
}

// Group sets the entity's group.
func (b *Builder) Group(group string) *Builder {
	b.group = group
	return b
}
