package ecs

import (
	"cmp"
	"iter"
	"reflect"
	"slices"
	"sync/atomic"
)

// EntityId is a process-unique entity identifier. Zero is never assigned.
type EntityId uint64

// EntityType is implemented by every entity value. Entity types satisfy it by embedding Entity.
type EntityType interface {
	base() *Entity
}

// componentSlot is one entry of an entity's sparse component storage, ordered by id.
type componentSlot struct {
	id        uint64
	drawable  bool
	typ       reflect.Type
	component Component
}

// Entity is an identity plus the components it owns.
// Embed Entity in a struct to define an entity type.
type Entity struct {
	id       EntityId
	kind     reflect.Type
	owner    EntityType
	manager  *EntityManager
	mask     Mask
	drawMask Mask
	slots    []componentSlot
	tag      string
	group    string
	dead     atomic.Bool
	live     bool
}

func (e *Entity) base() *Entity {
	return e
}

// Id returns the entity's identifier.
func (e *Entity) Id() EntityId {
	return e.id
}

// Kind returns the concrete type of the entity value, e.g. Ship for a *Ship embedding Entity.
func (e *Entity) Kind() reflect.Type {
	return e.kind
}

// Owner returns the entity value this Entity is embedded in.
func (e *Entity) Owner() EntityType {
	return e.owner
}

// Manager returns the manager the entity was created by, or nil.
func (e *Entity) Manager() *EntityManager {
	return e.manager
}

// Dead reports whether the entity has been destroyed.
func (e *Entity) Dead() bool {
	return e.dead.Load()
}

// Tag returns the entity's tag, or "" if none was set.
func (e *Entity) Tag() string {
	return e.tag
}

// Group returns the entity's group, or "" if none was set.
func (e *Entity) Group() string {
	return e.group
}

// Mask returns a snapshot of the union of the masks of all attached component types.
func (e *Entity) Mask() Mask {
	return e.mask.Clone()
}

// DrawMask returns a snapshot of the union of the drawable masks of all attached drawable components.
func (e *Entity) DrawMask() Mask {
	return e.drawMask.Clone()
}

// Len returns the number of attached components.
func (e *Entity) Len() int {
	return len(e.slots)
}

// Component returns the component of type t, if attached.
func (e *Entity) Component(t reflect.Type) (Component, bool) {
	t = normalizeType(t)
	for i := range e.slots {
		if e.slots[i].typ == t {
			return e.slots[i].component, true
		}
	}
	return nil, false
}

// Components returns an iterator over attached components in component id order.
func (e *Entity) Components() iter.Seq[Component] {
	return func(yield func(Component) bool) {
		for i := range e.slots {
			if !yield(e.slots[i].component) {
				return
			}
		}
	}
}

// GetComponent returns the first attached component assignable to T.
func GetComponent[T any](entity EntityType) (T, bool) {
	e := entity.base()
	for i := range e.slots {
		if c, ok := e.slots[i].component.(T); ok {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// attach stores c under info and folds its bit into the masks.
func (e *Entity) attach(info ComponentType, draw *ComponentType, c Component) error {
	pos, found := slices.BinarySearchFunc(e.slots, info.ID, compareSlot)
	if found {
		return ErrDuplicateComponent
	}

	e.slots = slices.Insert(e.slots, pos, componentSlot{
		id:        info.ID,
		drawable:  draw != nil,
		typ:       info.Type,
		component: c,
	})
	e.mask.set(info.ID)
	if draw != nil {
		e.drawMask.set(draw.ID)
	}
	return nil
}

// detach removes the component with the given id and clears its bits.
func (e *Entity) detach(info ComponentType, draw *ComponentType) (Component, bool) {
	pos, found := slices.BinarySearchFunc(e.slots, info.ID, compareSlot)
	if !found {
		return nil, false
	}

	c := e.slots[pos].component
	e.slots = slices.Delete(e.slots, pos, pos+1)
	e.mask.remove(info.ID)
	if draw != nil {
		e.drawMask.remove(draw.ID)
	}
	return c, true
}

func compareSlot(s componentSlot, id uint64) int {
	return cmp.Compare(s.id, id)
}
