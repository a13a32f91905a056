package ecs

import (
	"runtime"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// minChunkSize keeps tiny working sets from being split into one task per entity.
const minChunkSize = 256

// ParallelEntityProcessor is an EntityProcessor whose per-entity calls are fanned out over a
// bounded pool of goroutines. OnExecute blocks until every call of the frame has returned.
//
// Process calls have no relative order and run concurrently, so a Process implementation may
// only touch state owned by the entity it is given.
type ParallelEntityProcessor struct {
	*EntityView
	processor Processor
	cfg       processorConfig
}

// NewParallelEntityProcessor creates a parallel processor over the entities accepted by filter.
func NewParallelEntityProcessor(filter *Filter, p Processor, opts ...ProcessorOption) *ParallelEntityProcessor {
	return &ParallelEntityProcessor{
		EntityView: NewEntityView(filter),
		processor:  p,
		cfg:        newProcessorConfig(p, opts),
	}
}

// Name returns the processor's name.
func (p *ParallelEntityProcessor) Name() string {
	return p.cfg.name
}

func (p *ParallelEntityProcessor) parallelism() int {
	if p.cfg.parallelism > 0 {
		return p.cfg.parallelism
	}
	if p.manager != nil && p.manager.workers > 0 {
		return p.manager.workers
	}
	return runtime.GOMAXPROCS(0)
}

func (p *ParallelEntityProcessor) chunkSize(n, workers int) int {
	if p.cfg.chunkSize > 0 {
		return p.cfg.chunkSize
	}
	// Four tasks per worker smooths out uneven per-entity cost.
	return max(minChunkSize, (n+workers*4-1)/(workers*4))
}

// panicked carries a recovered panic value back to the frame loop goroutine.
type panicked struct {
	value any
}

// OnExecute processes the working set in parallel chunks. Errors of all chunks are combined;
// each chunk stops at its first error. A panic in any worker is re-raised on the calling
// goroutine once all workers have returned.
func (p *ParallelEntityProcessor) OnExecute(frame *UpdateFrame) error {
	entities := p.set.entities
	if len(entities) == 0 {
		return nil
	}

	workers := p.parallelism()
	size := p.chunkSize(len(entities), workers)
	chunks := (len(entities) + size - 1) / size
	errs := make([]error, chunks)

	var fault atomic.Pointer[panicked]
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i := range chunks {
		lo := i * size
		hi := min(lo+size, len(entities))
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					fault.CompareAndSwap(nil, &panicked{value: r})
				}
			}()
			for _, e := range entities[lo:hi] {
				if e.Dead() {
					continue
				}
				if err := p.processor.Process(frame, e); err != nil {
					errs[i] = eris.Wrapf(err, "failed to process entity %d", e.id)
					return errs[i]
				}
			}
			return nil
		})
	}
	// Wait only reports the first failed chunk; errs holds every chunk's error.
	err := g.Wait()

	if r := fault.Load(); r != nil {
		panic(r.value)
	}
	if err == nil {
		return nil
	}
	return multierr.Combine(errs...)
}
