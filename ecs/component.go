package ecs

import "reflect"

// Component is the interface that all components must implement.
// Components are data containers owned by exactly one entity.
type Component interface {
	// Name returns a human readable identifier for the component type.
	Name() string
}

// Drawable is a component that takes part in the draw pass.
// Drawable components are tracked by a separate registry with its own id space.
type Drawable interface {
	Component
	Draw() error
}

// TypeOf returns the component type used by filters and Detach.
// Pointer types are normalized to their element type.
func TypeOf[T any]() reflect.Type {
	return normalizeType(reflect.TypeFor[T]())
}

func normalizeType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func componentType(c Component) reflect.Type {
	return normalizeType(reflect.TypeOf(c))
}
