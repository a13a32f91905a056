package ecs

import (
	"context"
	"iter"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// EntityManager owns the entity population and the ordered list of systems,
// and drives the per-frame update and draw passes.
//
// Structural changes requested while an update pass is running (creation, destruction,
// attach/detach, tag and group changes) never mutate a working set mid-pass: they are applied
// at the reclamation point at the end of Update.
type EntityManager struct {
	components *TypeRegistry
	drawables  *TypeRegistry
	logger     zerolog.Logger
	workers    int

	nextID     atomic.Uint64
	population *entitySet
	systems    *SystemList
	commands   *Commands
	pending    pendingOps
	updating   atomic.Bool
	frames     int64
}

// pendingOps collects work deferred to the reclamation point.
// Parallel processors may append concurrently, hence the mutex.
type pendingOps struct {
	mu      sync.Mutex
	created []*Entity
	dirty   []*Entity
	dead    []*Entity
}

func (p *pendingOps) push(list *[]*Entity, e *Entity) {
	p.mu.Lock()
	*list = append(*list, e)
	p.mu.Unlock()
}

func (p *pendingOps) take() (created, dirty, dead []*Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	created, dirty, dead = p.created, p.dirty, p.dead
	p.created, p.dirty, p.dead = nil, nil, nil
	return created, dirty, dead
}

// NewEntityManager creates a manager with fresh component and drawable registries.
func NewEntityManager(opts ...Option) *EntityManager {
	m := &EntityManager{
		components: NewTypeRegistry[Component](),
		drawables:  NewTypeRegistry[Drawable](),
		logger:     zerolog.Nop(),
		population: newEntitySet(1024),
		commands:   newCommands(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "ecs").Logger()
	m.systems = &SystemList{manager: m}
	return m
}

// Components returns the registry of the Component category.
func (m *EntityManager) Components() *TypeRegistry {
	return m.components
}

// Drawables returns the registry of the Drawable category.
func (m *EntityManager) Drawables() *TypeRegistry {
	return m.drawables
}

// Systems returns the manager's system list.
func (m *EntityManager) Systems() *SystemList {
	return m.systems
}

// Commands returns the buffer of operations deferred to the end of the current update.
func (m *EntityManager) Commands() *Commands {
	return m.commands
}

// Logger returns the manager's logger.
func (m *EntityManager) Logger() *zerolog.Logger {
	return &m.logger
}

// Workers returns the default parallelism of parallel processors, 0 meaning GOMAXPROCS.
func (m *EntityManager) Workers() int {
	return m.workers
}

// Len returns the number of entities in the population, including entities
// destroyed but not yet reclaimed.
func (m *EntityManager) Len() int {
	return m.population.len()
}

// Lookup returns the entity with the given id if it is part of the population.
func (m *EntityManager) Lookup(id EntityId) (*Entity, bool) {
	return m.population.get(id)
}

// Entities iterates the live entities of the population.
func (m *EntityManager) Entities() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for _, e := range m.population.entities {
			if e.Dead() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Create instantiates an entity of type T, attaches the components its Declare method
// lists, and adds it to the population and to every system whose filter accepts it.
//
//	ship, err := ecs.Create[Ship](manager)
func Create[T any, PT interface {
	*T
	EntityType
}](m *EntityManager) (PT, error) {
	entity := PT(new(T))
	if err := m.Add(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// MustCreate is like Create but panics on configuration errors.
func MustCreate[T any, PT interface {
	*T
	EntityType
}](m *EntityManager) PT {
	entity, err := Create[T, PT](m)
	if err != nil {
		panic(err)
	}
	return entity
}

// Spawn creates an anonymous entity owning the given components.
func (m *EntityManager) Spawn(components ...Component) (*Entity, error) {
	e := &Entity{}
	b := Builder{components: components}
	if err := m.register(e, &b); err != nil {
		return nil, err
	}
	return e, nil
}

// MustSpawn is like Spawn but panics on configuration errors.
func (m *EntityManager) MustSpawn(components ...Component) *Entity {
	e, err := m.Spawn(components...)
	if err != nil {
		panic(err)
	}
	return e
}

// Add registers an already allocated entity value, running its Declare method if any.
// It is what Create uses after allocating the value.
func (m *EntityManager) Add(entity EntityType) error {
	var b Builder
	if d, ok := entity.(Declarer); ok {
		d.Declare(&b)
	}
	return m.register(entity, &b)
}

func (m *EntityManager) register(entity EntityType, b *Builder) error {
	e := entity.base()
	kind := normalizeType(reflect.TypeOf(entity))
	if e.manager != nil {
		return eris.Errorf("entity %d of type %s is already registered", e.id, kind)
	}

	e.id = EntityId(m.nextID.Add(1))
	e.kind = kind
	e.owner = entity
	e.tag = b.tag
	e.group = b.group
	e.slots = make([]componentSlot, 0, len(b.components))

	for _, c := range b.components {
		if err := m.attach(e, c); err != nil {
			e.slots = nil
			e.mask = Mask{}
			e.drawMask = Mask{}
			return eris.Wrapf(err, "failed to create entity of type %s", kind)
		}
	}
	e.manager = m

	if m.updating.Load() {
		m.pending.push(&m.pending.created, e)
		return nil
	}
	m.insert(e)
	return nil
}

func (m *EntityManager) insert(e *Entity) {
	m.population.add(e)
	e.live = true
	if !e.Dead() {
		m.systems.refresh(e)
	}
	if hook, ok := e.owner.(CreateHook); ok {
		hook.OnCreate()
	}
}

// attach resolves c through both registries and stores it on e.
func (m *EntityManager) attach(e *Entity, c Component) error {
	if c == nil {
		return eris.Wrap(ErrNotAComponent, "nil component")
	}
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return eris.Wrapf(ErrNotAComponent, "nil %s", v.Type())
	}

	t := componentType(c)
	info, ok := m.components.GetInfo(t)
	if !ok {
		return eris.Wrapf(ErrNotAComponent, "%s", t)
	}

	var draw *ComponentType
	if _, ok := c.(Drawable); ok {
		if dinfo, ok := m.drawables.GetInfo(t); ok {
			draw = &dinfo
		}
	}

	if err := e.attach(info, draw, c); err != nil {
		return eris.Wrapf(err, "%s", t)
	}
	return nil
}

func (m *EntityManager) owned(entity EntityType) (*Entity, error) {
	e := entity.base()
	if e.manager != m {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", e.id)
	}
	return e, nil
}

// Attach adds a component to a live entity and re-evaluates its system membership.
// Outside an update the entity joins matching working sets immediately. During an update
// the component is attached at once but working sets change only at the end of the update,
// so systems later in the same frame see the old membership. Use Commands.Attach to defer
// the whole change instead.
func (m *EntityManager) Attach(entity EntityType, c Component) error {
	e, err := m.owned(entity)
	if err != nil {
		return err
	}
	if e.Dead() {
		return eris.Wrapf(ErrEntityDead, "entity %d", e.id)
	}
	if err := m.attach(e, c); err != nil {
		return eris.Wrapf(err, "failed to attach to entity %d", e.id)
	}
	m.touch(e)
	return nil
}

// Detach removes the component of type t from a live entity and returns it.
// During an update the component is removed at once but the entity stays in working sets
// until the end of the update, so a later system in the same frame may still process it
// without the component. Use Commands.Detach to defer the removal to the end of the update.
func (m *EntityManager) Detach(entity EntityType, t reflect.Type) (Component, error) {
	e, err := m.owned(entity)
	if err != nil {
		return nil, err
	}
	if e.Dead() {
		return nil, eris.Wrapf(ErrEntityDead, "entity %d", e.id)
	}

	info, ok := m.components.Lookup(t)
	if !ok {
		return nil, eris.Wrapf(ErrComponentMissing, "%s on entity %d", t, e.id)
	}
	var draw *ComponentType
	if dinfo, ok := m.drawables.Lookup(t); ok {
		draw = &dinfo
	}

	c, ok := e.detach(info, draw)
	if !ok {
		return nil, eris.Wrapf(ErrComponentMissing, "%s on entity %d", t, e.id)
	}
	m.touch(e)
	return c, nil
}

// SetTag changes the entity's tag and re-evaluates its system membership.
func (m *EntityManager) SetTag(entity EntityType, tag string) error {
	e, err := m.owned(entity)
	if err != nil {
		return err
	}
	e.tag = tag
	m.touch(e)
	return nil
}

// SetGroup changes the entity's group and re-evaluates its system membership.
func (m *EntityManager) SetGroup(entity EntityType, group string) error {
	e, err := m.owned(entity)
	if err != nil {
		return err
	}
	e.group = group
	m.touch(e)
	return nil
}

func (m *EntityManager) touch(e *Entity) {
	if m.updating.Load() {
		m.pending.push(&m.pending.dirty, e)
		return
	}
	if e.live && !e.Dead() {
		m.systems.refresh(e)
	}
}

// Destroy marks the entity dead. Processors skip it from now on; it leaves the working sets
// and the population, and its OnDestroy hook fires, at the end of the next update pass.
// Destroying an entity twice is a no-op.
func (m *EntityManager) Destroy(entity EntityType) error {
	e, err := m.owned(entity)
	if err != nil {
		return err
	}
	if !e.dead.CompareAndSwap(false, true) {
		return nil
	}
	m.pending.push(&m.pending.dead, e)
	return nil
}

// Update runs every system once, in registration order, then reclaims dead entities.
// The first system error aborts the remaining systems of the frame; reclamation still runs.
func (m *EntityManager) Update(t float64) error {
	if !m.updating.CompareAndSwap(false, true) {
		return eris.Wrap(ErrUpdating, "update is not reentrant")
	}

	frame := newUpdateFrame(t, m.frames, m)
	var runErr error
	func() {
		defer m.updating.Store(false)
		runErr = m.systems.execute(frame)
	}()

	m.frames++
	return multierr.Append(runErr, m.reclaim())
}

// reclaim is the end-of-update point where deferred structural changes take effect.
func (m *EntityManager) reclaim() error {
	err := m.commands.Flush(m)

	created, dirty, dead := m.pending.take()
	for _, e := range created {
		m.insert(e)
	}
	for _, e := range dirty {
		if e.live && !e.Dead() {
			m.systems.refresh(e)
		}
	}
	for _, e := range dead {
		m.systems.evict(e.id)
		m.population.remove(e.id)
		e.live = false
		if hook, ok := e.owner.(DestroyHook); ok {
			hook.OnDestroy()
		}
	}

	if len(created)+len(dirty)+len(dead) > 0 {
		m.logger.Trace().
			Int("created", len(created)).
			Int("mutated", len(dirty)).
			Int("reclaimed", len(dead)).
			Int("population", m.population.len()).
			Msg("frame reclaimed")
	}
	return err
}

// Draw runs the draw step of every DrawSystem in registration order, then draws the drawable
// components of every live entity. It does not change the population.
func (m *EntityManager) Draw() error {
	if err := m.systems.draw(); err != nil {
		return err
	}
	for _, e := range m.population.entities {
		if e.Dead() {
			continue
		}
		for i := range e.slots {
			if !e.slots[i].drawable {
				continue
			}
			if err := e.slots[i].component.(Drawable).Draw(); err != nil {
				return eris.Wrapf(err, "failed to draw %s of entity %d", e.slots[i].typ, e.id)
			}
		}
	}
	return nil
}

// Run calls Update and Draw every interval until ctx is cancelled or a pass fails.
// Update receives the time elapsed since the previous tick, in seconds.
func (m *EntityManager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := m.Update(dt); err != nil {
				return err
			}
			if err := m.Draw(); err != nil {
				return err
			}
		}
	}
}

// Close disposes every system in reverse registration order.
func (m *EntityManager) Close() error {
	return m.systems.dispose()
}
