package ecs

import (
	"iter"
	"reflect"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
)

// System is a unit of per-frame logic. OnExecute runs once per EntityManager.Update,
// in registration order, never concurrently with another system.
type System interface {
	OnExecute(frame *UpdateFrame) error
}

// Initializer is implemented by systems that need setup when added to a manager.
type Initializer interface {
	Initialize(m *EntityManager) error
}

// Disposer is implemented by systems that release resources when the manager closes.
type Disposer interface {
	Dispose() error
}

// DrawSystem is implemented by systems that take part in the draw pass.
type DrawSystem interface {
	OnDraw() error
}

// Named lets a system choose the name used in logs, errors and stats.
type Named interface {
	Name() string
}

// SystemState is a system's position in its lifecycle.
type SystemState uint8

const (
	SystemCreated SystemState = iota
	SystemInitialized
	SystemExecuting
	SystemIdle
	SystemDisposed
)

func (s SystemState) String() string {
	switch s {
	case SystemCreated:
		return "created"
	case SystemInitialized:
		return "initialized"
	case SystemExecuting:
		return "executing"
	case SystemIdle:
		return "idle"
	case SystemDisposed:
		return "disposed"
	}
	return "unknown"
}

// viewer is implemented by systems embedding *EntityView.
type viewer interface {
	entityView() *EntityView
}

// EntityView is the filtered working set of a system. Embed *EntityView in a system and the
// manager keeps it in sync with the population as entities are created, mutated and reclaimed.
type EntityView struct {
	filter  *Filter
	set     *entitySet
	manager *EntityManager
}

// NewEntityView creates a view selecting the entities accepted by filter.
// A nil filter accepts every entity.
func NewEntityView(filter *Filter) *EntityView {
	if filter == nil {
		filter = NewFilter()
	}
	return &EntityView{
		filter: filter,
		set:    newEntitySet(64),
	}
}

func (v *EntityView) entityView() *EntityView {
	return v
}

// Filter returns the view's filter.
func (v *EntityView) Filter() *Filter {
	return v.filter
}

// Manager returns the manager the view is registered with, or nil.
func (v *EntityView) Manager() *EntityManager {
	return v.manager
}

// Len returns the size of the working set, including entities destroyed this frame.
func (v *EntityView) Len() int {
	return v.set.len()
}

// Contains reports whether the entity is in the working set.
func (v *EntityView) Contains(entity EntityType) bool {
	return v.set.contains(entity.base().id)
}

// Entities iterates the live entities of the working set.
func (v *EntityView) Entities() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for _, e := range v.set.entities {
			if e.Dead() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func (v *EntityView) bind(m *EntityManager) error {
	if v.manager != nil {
		return eris.New("entity view is already registered with a manager")
	}
	if owner := v.filter.owner; owner != nil && owner != v {
		return eris.Wrap(ErrFilterBound, "filter is owned by another system")
	}
	if err := v.filter.Compile(m.components); err != nil {
		return err
	}
	v.filter.owner = v
	v.manager = m
	return nil
}

// unbind releases a view whose system failed to register.
func (v *EntityView) unbind() {
	v.filter.owner = nil
	v.manager = nil
}

// refresh re-evaluates the membership of one entity.
func (v *EntityView) refresh(e *Entity) {
	if !e.Dead() && v.filter.Apply(e) {
		v.set.add(e)
		return
	}
	v.set.remove(e.id)
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

type systemEntry struct {
	system System
	view   *EntityView
	name   string
	state  SystemState
	stats  systemStatsInternal
}

// SystemList is the ordered, append-only list of systems of a manager.
// Registration order is execution order.
type SystemList struct {
	manager *EntityManager
	entries []*systemEntry
}

// Add registers a system. Its filter is compiled, Initialize is called if implemented,
// and its working set is filled from the current population.
func (l *SystemList) Add(system System) error {
	m := l.manager
	if m.updating.Load() {
		return eris.Wrap(ErrUpdating, "cannot add system")
	}

	entry := &systemEntry{
		system: system,
		name:   systemName(system),
		state:  SystemCreated,
		stats:  systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	}

	if v, ok := system.(viewer); ok {
		entry.view = v.entityView()
		if entry.view == nil {
			return eris.Errorf("system %s has a nil entity view", entry.name)
		}
		if err := entry.view.bind(m); err != nil {
			return eris.Wrapf(err, "system %s", entry.name)
		}
	}

	if init, ok := system.(Initializer); ok {
		if err := init.Initialize(m); err != nil {
			if entry.view != nil {
				entry.view.unbind()
			}
			return eris.Wrapf(err, "failed to initialize system %s", entry.name)
		}
	}
	entry.state = SystemInitialized

	if entry.view != nil {
		for _, e := range m.population.entities {
			entry.view.refresh(e)
		}
	}

	l.entries = append(l.entries, entry)
	m.logger.Debug().
		Str("system", entry.name).
		Stringer("filter", filterOf(entry.view)).
		Int("entities", viewLen(entry.view)).
		Msg("system registered")
	return nil
}

// AddSystem constructs a zero-valued system of type T, registers it and returns it.
func AddSystem[T any, PT interface {
	*T
	System
}](l *SystemList) (PT, error) {
	system := PT(new(T))
	if err := l.Add(system); err != nil {
		return nil, err
	}
	return system, nil
}

// Len returns the number of registered systems.
func (l *SystemList) Len() int {
	return len(l.entries)
}

// All iterates the systems in registration order.
func (l *SystemList) All() iter.Seq[System] {
	return func(yield func(System) bool) {
		for _, entry := range l.entries {
			if !yield(entry.system) {
				return
			}
		}
	}
}

// State returns the lifecycle state of a registered system.
func (l *SystemList) State(system System) (SystemState, bool) {
	for _, entry := range l.entries {
		if entry.system == system {
			return entry.state, true
		}
	}
	return SystemCreated, false
}

func (l *SystemList) execute(frame *UpdateFrame) error {
	for _, entry := range l.entries {
		if entry.state == SystemDisposed {
			continue
		}
		entry.state = SystemExecuting
		start := time.Now()
		err := entry.system.OnExecute(frame)
		entry.stats.record(time.Since(start))
		entry.state = SystemIdle
		if err != nil {
			return eris.Wrapf(err, "system %s failed", entry.name)
		}
	}
	return nil
}

func (l *SystemList) draw() error {
	for _, entry := range l.entries {
		ds, ok := entry.system.(DrawSystem)
		if !ok || entry.state == SystemDisposed {
			continue
		}
		if err := ds.OnDraw(); err != nil {
			return eris.Wrapf(err, "system %s failed to draw", entry.name)
		}
	}
	return nil
}

// dispose disposes systems in reverse registration order.
func (l *SystemList) dispose() error {
	var errs error
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if entry.state == SystemDisposed {
			continue
		}
		if d, ok := entry.system.(Disposer); ok {
			if err := d.Dispose(); err != nil {
				l.manager.logger.Warn().Err(err).Str("system", entry.name).Msg("system dispose failed")
				errs = multierr.Append(errs, eris.Wrapf(err, "failed to dispose system %s", entry.name))
			}
		}
		entry.state = SystemDisposed
	}
	return errs
}

func (l *SystemList) refresh(e *Entity) {
	for _, entry := range l.entries {
		if entry.view != nil {
			entry.view.refresh(e)
		}
	}
}

func (l *SystemList) evict(id EntityId) {
	for _, entry := range l.entries {
		if entry.view != nil {
			entry.view.set.remove(id)
		}
	}
}

func systemName(system System) string {
	if n, ok := system.(Named); ok {
		return n.Name()
	}
	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func filterOf(v *EntityView) *Filter {
	if v == nil {
		return NewFilter()
	}
	return v.filter
}

func viewLen(v *EntityView) int {
	if v == nil {
		return 0
	}
	return v.set.len()
}
