package ecs

import (
	"reflect"
	"sync"

	"go.uber.org/multierr"
)

// Commands buffers structural operations and applies them at the end of the update pass.
// It is safe for concurrent use, so parallel processors may queue commands.
type Commands struct {
	mu       sync.Mutex
	spawns   []spawnCommand
	destroys []*Entity
	attaches []attachCommand
	detaches []detachCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []Component
	done       func(*Entity)
}

type attachCommand struct {
	entity    *Entity
	component Component
}

type detachCommand struct {
	entity   *Entity
	compType reflect.Type
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	c.defers = append(c.defers, fn)
	c.mu.Unlock()
}

// Spawn queues the creation of an anonymous entity with the given components.
// If done is non-nil it receives the entity once it exists.
func (c *Commands) Spawn(done func(*Entity), components ...Component) {
	c.mu.Lock()
	c.spawns = append(c.spawns, spawnCommand{components: components, done: done})
	c.mu.Unlock()
}

// Destroy queues an entity destruction. Unlike EntityManager.Destroy, the entity stays
// alive for the systems that still run this frame.
func (c *Commands) Destroy(entity EntityType) {
	c.mu.Lock()
	c.destroys = append(c.destroys, entity.base())
	c.mu.Unlock()
}

// Attach queues a component addition.
func (c *Commands) Attach(entity EntityType, component Component) {
	c.mu.Lock()
	c.attaches = append(c.attaches, attachCommand{entity: entity.base(), component: component})
	c.mu.Unlock()
}

// Detach queues a component removal.
func (c *Commands) Detach(entity EntityType, compType reflect.Type) {
	c.mu.Lock()
	c.detaches = append(c.detaches, detachCommand{entity: entity.base(), compType: compType})
	c.mu.Unlock()
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spawns) + len(c.destroys) + len(c.attaches) + len(c.detaches) + len(c.defers)
}

// Flush applies all queued operations to m, resetting the buffer state.
// Operations targeting entities destroyed by the same flush are dropped.
func (c *Commands) Flush(m *EntityManager) error {
	c.mu.Lock()
	spawns, destroys, attaches, detaches, defers := c.spawns, c.destroys, c.attaches, c.detaches, c.defers
	c.spawns, c.destroys, c.attaches, c.detaches, c.defers = nil, nil, nil, nil, nil
	c.mu.Unlock()

	var errs error
	for _, e := range destroys {
		errs = multierr.Append(errs, m.Destroy(e))
	}

	for _, cmd := range detaches {
		if !cmd.entity.Dead() {
			_, err := m.Detach(cmd.entity, cmd.compType)
			errs = multierr.Append(errs, err)
		}
	}

	for _, cmd := range attaches {
		if !cmd.entity.Dead() {
			errs = multierr.Append(errs, m.Attach(cmd.entity, cmd.component))
		}
	}

	for _, cmd := range spawns {
		e, err := m.Spawn(cmd.components...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if cmd.done != nil {
			cmd.done(e)
		}
	}

	for _, fn := range defers {
		fn()
	}

	return errs
}
