package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/tickecs/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Position struct{ X, Y float64 }

func (*Position) Name() string { return "Position" }

type Velocity struct{ X, Y float64 }

func (*Velocity) Name() string { return "Velocity" }

type Lifetime struct{ Remaining float64 }

func (*Lifetime) Name() string { return "Lifetime" }

// Mover is the entity type the harness populates the manager with.
type Mover struct {
	ecs.Entity
	Position *Position
	Velocity *Velocity
}

func (m *Mover) Declare(b *ecs.Builder) {
	m.Position = ecs.Attach(b, &Position{X: rand.Float64() * 1000, Y: rand.Float64() * 1000})
	m.Velocity = ecs.Attach(b, &Velocity{X: rand.Float64()*2 - 1, Y: rand.Float64()*2 - 1})
	b.Tag("mover")
}

func move(frame *ecs.UpdateFrame, e *ecs.Entity) error {
	pos, _ := ecs.GetComponent[*Position](e)
	vel, _ := ecs.GetComponent[*Velocity](e)
	pos.X += vel.X * frame.Time
	pos.Y += vel.Y * frame.Time
	return nil
}

func age(frame *ecs.UpdateFrame, e *ecs.Entity) error {
	life, _ := ecs.GetComponent[*Lifetime](e)
	life.Remaining -= frame.Time
	if life.Remaining <= 0 {
		return e.Manager().Destroy(e)
	}
	return nil
}

// churnSystem replaces a fraction of the population every frame through the command buffer.
type churnSystem struct {
	rate float64
}

func (s *churnSystem) Name() string { return "churn" }

func (s *churnSystem) OnExecute(frame *ecs.UpdateFrame) error {
	n := int(float64(frame.Manager.Len()) * s.rate)
	for range n {
		frame.Commands.Spawn(nil,
			&Position{X: rand.Float64() * 1000, Y: rand.Float64() * 1000},
			&Velocity{X: rand.Float64()*2 - 1, Y: rand.Float64()*2 - 1},
			&Lifetime{Remaining: rand.Float64()},
		)
	}
	return nil
}

type options struct {
	duration       time.Duration
	entities       int
	parallel       bool
	churn          float64
	profile        string
	gcPauseMetrics bool
}

func main() {
	var opts options
	flag.DurationVar(&opts.duration, "duration", 10*time.Second, "The total duration the test should run for.")
	flag.IntVar(&opts.entities, "entities", 100000, "The initial number of entities to create.")
	flag.BoolVar(&opts.parallel, "parallel", true, "Use a parallel processor for movement.")
	flag.Float64Var(&opts.churn, "churn", 0.01, "Fraction of the population spawned with a short lifetime each frame.")
	flag.StringVar(&opts.profile, "profile", "", "Write a profile to the working directory (cpu or mem).")
	flag.BoolVar(&opts.gcPauseMetrics, "gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := ecs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := ecs.NewLogger(cfg, os.Stderr)

	if err := run(opts, cfg, logger, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("stress test failed")
		os.Exit(1)
	}
}

// run executes the stress test and writes the report to out. Profiles are flushed before it returns.
func run(opts options, cfg ecs.Config, logger zerolog.Logger, out io.Writer) error {
	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return eris.Errorf("unknown profile mode %q", opts.profile)
	}

	logger.Info().Msg("starting ECS stress test")

	manager := ecs.NewEntityManager(ecs.WithWorkers(cfg.Workers), ecs.WithLogger(logger))
	if err := registerSystems(manager, opts.parallel, opts.churn); err != nil {
		return eris.Wrap(err, "failed to register systems")
	}

	logger.Info().Int("entities", opts.entities).Msg("populating manager")
	for range opts.entities {
		if _, err := ecs.Create[Mover](manager); err != nil {
			return eris.Wrap(err, "failed to create mover")
		}
	}
	logger.Info().Msg("population complete")

	report := &Report{
		Duration:       opts.duration,
		Entities:       opts.entities,
		Parallel:       opts.parallel,
		Churn:          opts.churn,
		GCPauseMetrics: opts.gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", opts.duration).Msg("running simulation")
	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

	if err := runFrames(ctx, manager, report, &lastFrameTime, logger); err != nil {
		logger.Error().Err(err).Msg("simulation aborted")
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Manager = manager.Stats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	if err := manager.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close manager")
	}
	logger.Info().Msg("simulation finished")

	fmt.Fprintln(out, "\n\n--- Stress Test Report ---")
	if err := report.Generate(out); err != nil {
		return eris.Wrap(err, "failed to generate report")
	}
	fmt.Fprintln(out, "--- End of Report ---")
	return nil
}

func registerSystems(manager *ecs.EntityManager, parallel bool, churn float64) error {
	movers := ecs.NewFilter().Has(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]())

	var movement ecs.System
	if parallel {
		movement = ecs.NewParallelEntityProcessor(movers, ecs.ProcessFunc(move), ecs.WithName("movement"))
	} else {
		movement = ecs.NewEntityProcessor(movers, ecs.ProcessFunc(move), ecs.WithName("movement"))
	}
	if err := manager.Systems().Add(movement); err != nil {
		return err
	}

	aging := ecs.NewFilter().Has(ecs.TypeOf[Lifetime]())
	if err := manager.Systems().Add(ecs.NewEntityProcessor(aging, ecs.ProcessFunc(age), ecs.WithName("aging"))); err != nil {
		return err
	}

	if churn > 0 {
		return manager.Systems().Add(&churnSystem{rate: churn})
	}
	return nil
}

func runFrames(ctx context.Context, manager *ecs.EntityManager, report *Report, lastFrameTime *time.Time, logger zerolog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		deltaTime := time.Since(*lastFrameTime)
		*lastFrameTime = time.Now()

		updateStart := time.Now()
		err := manager.Update(deltaTime.Seconds())
		updateDuration := time.Since(updateStart)
		if err != nil {
			return err
		}

		report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
		report.TotalUpdates++
		if report.TotalUpdates%1000 == 0 {
			logger.Debug().
				Int64("frames", report.TotalUpdates).
				Int("population", manager.Len()).
				Dur("last_update", updateDuration).
				Msg("progress")
		}
	}
}
