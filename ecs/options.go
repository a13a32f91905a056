package ecs

import "github.com/rs/zerolog"

// Option configures an EntityManager.
type Option func(*EntityManager)

// WithLogger sets the manager's logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *EntityManager) { m.logger = logger }
}

// WithWorkers sets the default parallelism of parallel processors. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(m *EntityManager) { m.workers = max(n, 0) }
}

// WithComponentRegistry makes the manager use reg for the Component category.
func WithComponentRegistry(reg *TypeRegistry) Option {
	return func(m *EntityManager) { m.components = reg }
}

// WithDrawableRegistry makes the manager use reg for the Drawable category.
func WithDrawableRegistry(reg *TypeRegistry) Option {
	return func(m *EntityManager) { m.drawables = reg }
}

// WithConfig applies a loaded Config: worker count and a logger writing to stdout.
func WithConfig(cfg Config) Option {
	return func(m *EntityManager) {
		m.workers = max(cfg.Workers, 0)
		m.logger = NewLogger(cfg, nil)
	}
}
