package ecs

import (
	"math"
	"reflect"
	"slices"
	"sync"
)

// ComponentType is the registry's descriptor for one component type.
// Mask has exactly one bit set, at position ID.
type ComponentType struct {
	ID   uint64
	Mask Mask
	Type reflect.Type
}

// TypeRegistry assigns each distinct type of a category a dense sequential id and a unique mask bit.
// Every EntityManager owns its registries, so independent managers (and tests) never share ids.
type TypeRegistry struct {
	mu       sync.Mutex
	category reflect.Type
	types    map[reflect.Type]ComponentType
	ordered  []ComponentType
	nextID   uint64
}

// maxTypeID is the largest id a mask can hold.
const maxTypeID = math.MaxUint32

// NewTypeRegistry creates a registry for the capability C, which must be an interface type.
// Only types implementing C (directly or through a pointer receiver) can be registered.
func NewTypeRegistry[C any]() *TypeRegistry {
	category := reflect.TypeFor[C]()
	if category.Kind() != reflect.Interface {
		panic("registry category " + category.String() + " is not an interface type")
	}
	return &TypeRegistry{
		category: category,
		types:    make(map[reflect.Type]ComponentType),
	}
}

// Category returns the capability this registry tracks.
func (r *TypeRegistry) Category() reflect.Type {
	return r.category
}

// Accepts reports whether t belongs to the registry's category without registering it.
func (r *TypeRegistry) Accepts(t reflect.Type) bool {
	t = normalizeType(t)
	if t == nil || t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(r.category) || reflect.PointerTo(t).Implements(r.category)
}

// GetInfo returns the descriptor for t, allocating the next id and bit on first use.
// It returns false if t does not satisfy the category.
func (r *TypeRegistry) GetInfo(t reflect.Type) (ComponentType, bool) {
	t = normalizeType(t)
	if !r.Accepts(t) {
		return ComponentType{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.types[t]; ok {
		return info, true
	}

	if r.nextID > maxTypeID {
		panic("type registry exhausted: " + t.String())
	}
	info := ComponentType{
		ID:   r.nextID,
		Mask: maskOf(r.nextID),
		Type: t,
	}
	r.nextID++
	r.types[t] = info
	r.ordered = append(r.ordered, info)
	return info, true
}

// Lookup returns the descriptor for t only if it was already registered.
func (r *TypeRegistry) Lookup(t reflect.Type) (ComponentType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.types[normalizeType(t)]
	return info, ok
}

// Count returns the number of distinct registered types.
func (r *TypeRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.nextID)
}

// Types returns all registered descriptors ordered by id.
func (r *TypeRegistry) Types() []ComponentType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ordered)
}

// RegisterComponent registers T with the registry ahead of first use and returns its descriptor.
func RegisterComponent[T any](r *TypeRegistry) (ComponentType, bool) {
	return r.GetInfo(reflect.TypeFor[T]())
}
