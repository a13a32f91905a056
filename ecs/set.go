package ecs

import "github.com/kamstrup/intmap"

// entitySet is a sparse set of entities: a dense slice for iteration plus an id -> slot index.
// Removal swaps the last entity into the freed slot, so iteration order is insertion order
// until the first removal.
type entitySet struct {
	index    *intmap.Map[EntityId, int]
	entities []*Entity
}

func newEntitySet(capacity int) *entitySet {
	return &entitySet{
		index:    intmap.New[EntityId, int](capacity),
		entities: make([]*Entity, 0, capacity),
	}
}

func (s *entitySet) add(e *Entity) bool {
	if _, ok := s.index.Get(e.id); ok {
		return false
	}
	s.index.Put(e.id, len(s.entities))
	s.entities = append(s.entities, e)
	return true
}

func (s *entitySet) remove(id EntityId) bool {
	pos, ok := s.index.Get(id)
	if !ok {
		return false
	}

	last := len(s.entities) - 1
	moved := s.entities[last]
	s.entities[pos] = moved
	s.entities[last] = nil
	s.entities = s.entities[:last]
	s.index.Del(id)

	if pos != last {
		s.index.Put(moved.id, pos)
	}
	return true
}

func (s *entitySet) get(id EntityId) (*Entity, bool) {
	pos, ok := s.index.Get(id)
	if !ok {
		return nil, false
	}
	return s.entities[pos], true
}

func (s *entitySet) contains(id EntityId) bool {
	_, ok := s.index.Get(id)
	return ok
}

func (s *entitySet) len() int {
	return len(s.entities)
}
