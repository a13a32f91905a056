package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// Processor holds the per-entity logic of an EntityProcessor.
type Processor interface {
	Process(frame *UpdateFrame, e *Entity) error
}

// ProcessFunc adapts a function to the Processor interface.
type ProcessFunc func(frame *UpdateFrame, e *Entity) error

// Process calls f(frame, e).
func (f ProcessFunc) Process(frame *UpdateFrame, e *Entity) error {
	return f(frame, e)
}

// ProcessorOption configures an EntityProcessor or ParallelEntityProcessor.
type ProcessorOption func(*processorConfig)

type processorConfig struct {
	name        string
	parallelism int
	chunkSize   int
}

// WithName sets the name used in logs, errors and stats.
func WithName(name string) ProcessorOption {
	return func(cfg *processorConfig) { cfg.name = name }
}

// WithParallelism bounds the number of goroutines of a parallel processor.
// Zero falls back to the manager's workers, then to GOMAXPROCS.
func WithParallelism(n int) ProcessorOption {
	return func(cfg *processorConfig) { cfg.parallelism = max(n, 0) }
}

// WithChunkSize sets how many entities a parallel worker processes per task.
func WithChunkSize(n int) ProcessorOption {
	return func(cfg *processorConfig) { cfg.chunkSize = max(n, 0) }
}

func newProcessorConfig(p Processor, opts []ProcessorOption) processorConfig {
	var cfg processorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		t := reflect.TypeOf(p)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		cfg.name = t.Name()
	}
	return cfg
}

// EntityProcessor is a system that calls Process for every live entity of its working set,
// sequentially, in working set order.
type EntityProcessor struct {
	*EntityView
	processor Processor
	cfg       processorConfig
}

// NewEntityProcessor creates a sequential processor over the entities accepted by filter.
func NewEntityProcessor(filter *Filter, p Processor, opts ...ProcessorOption) *EntityProcessor {
	return &EntityProcessor{
		EntityView: NewEntityView(filter),
		processor:  p,
		cfg:        newProcessorConfig(p, opts),
	}
}

// Name returns the processor's name.
func (p *EntityProcessor) Name() string {
	return p.cfg.name
}

// OnExecute processes the working set. The first error stops the pass.
func (p *EntityProcessor) OnExecute(frame *UpdateFrame) error {
	for _, e := range p.set.entities {
		if e.Dead() {
			continue
		}
		if err := p.processor.Process(frame, e); err != nil {
			return eris.Wrapf(err, "failed to process entity %d", e.id)
		}
	}
	return nil
}
