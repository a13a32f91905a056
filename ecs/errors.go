package ecs

import "github.com/rotisserie/eris"

var (
	// ErrNotAComponent is returned when a type does not satisfy the category a registry tracks.
	ErrNotAComponent = eris.New("type is not a component of this category")

	// ErrDuplicateComponent is returned when an entity declares the same component type twice.
	ErrDuplicateComponent = eris.New("component type already attached")

	// ErrComponentMissing is returned when detaching a component the entity does not own.
	ErrComponentMissing = eris.New("component type not attached")

	// ErrEntityDead is returned when mutating an entity that has been destroyed.
	ErrEntityDead = eris.New("entity is dead")

	// ErrEntityNotFound is returned when an entity does not belong to the manager.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrFilterBound is returned when a filter compiled for one registry is reused with another,
	// or when a second system is registered with a filter another system already owns.
	ErrFilterBound = eris.New("filter is already bound")

	// ErrUpdating is returned when the system list is modified during an update pass.
	ErrUpdating = eris.New("operation not allowed during update")
)
