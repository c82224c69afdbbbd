package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/tickphys/internal/core/config"
	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/observability/log"
	"github.com/zeusync/tickphys/internal/core/systems/collision"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
	"github.com/zeusync/tickphys/internal/injector"
	"github.com/zeusync/tickphys/internal/sim"
)

const (
	red  collision.Category = "red"
	blue collision.Category = "blue"

	bounceStrength = 1.0 / 8
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, injector.ConfigPath(*configPath)); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path injector.ConfigPath) error {
	app, cleanup, err := injector.InitializeApp(ctx, path)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := app.Logger.With(log.String("component", "sandbox"))
	s := app.Simulation

	if app.Feed != nil {
		if err := app.Feed.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := app.Feed.Stop(stopCtx); err != nil {
				logger.Warn("Feed stop failed", log.Error(err))
			}
		}()
	}

	populate(s, app.Config)
	if err := wireReactions(s); err != nil {
		return err
	}

	logger.Info("Sandbox running",
		log.Int("entities", app.Config.Sandbox.Entities),
		log.Int("frames", app.Config.Sandbox.Frames),
		log.Duration("frame", app.Config.Sandbox.Frame()),
	)
	return loop(ctx, s, app.Config.Sandbox, logger)
}

// populate scatters boxes of both colors across the world with random
// headings. Placement is reproducible for a given seed.
func populate(s *sim.Simulation, cfg *config.Config) {
	rng := rand.New(rand.NewPCG(uint64(cfg.Sandbox.Seed), 0))
	bounds := s.Tree().Bounds()
	size := bounds.Size()

	for i := 0; i < cfg.Sandbox.Entities; i++ {
		side := 8 + rng.Float64()*16
		pos := geom.V2(
			bounds.Min.X+side/2+rng.Float64()*(size.X-side),
			bounds.Min.Y+side/2+rng.Float64()*(size.Y-side),
		)
		heading := rng.Float64() * 2 * math.Pi
		speed := 1 + rng.Float64()*3
		cat := red
		if i%2 == 1 {
			cat = blue
		}
		s.Spawn(sim.BodySpec{
			Position:         pos,
			Size:             geom.V2(side, side),
			Velocity:         geom.FromAngle(heading).Scale(speed).Extend(0),
			TerminalVelocity: cfg.Physics.TerminalVelocity,
			Categories:       []collision.Category{cat},
		})
	}
}

// wireReactions installs the game rules: red boxes are nudged away from the
// blue ones they touch, and anything leaving the world wraps to the opposite
// edge.
func wireReactions(s *sim.Simulation) error {
	bodies := s.World().Bodies

	if _, err := s.OnCollision(collision.Pair(red, blue), func(e collision.Event) error {
		a, okA := bodies.Position(e.EntityA)
		b, okB := bodies.Position(e.EntityB)
		if !okA || !okB {
			return nil
		}
		s.PushImpulse(physics.Impulse{
			Target: e.EntityA,
			Amount: a.Sub(b).Normalize().Scale(bounceStrength).Extend(0),
			Source: physics.EntitySourceKey("bounce", e.EntityA),
		})
		return nil
	}); err != nil {
		return err
	}

	bounds := s.Tree().Bounds()
	_, err := s.OnTick(func(physics.PhysicsTick) error {
		for _, pos := range bodies.Positions.All() {
			wrapped := wrap(pos.EndFrame, bounds)
			if wrapped != pos.EndFrame {
				pos.StartFrame, pos.EndFrame = wrapped, wrapped
			}
		}
		return nil
	})
	return err
}

func wrap(p geom.Vec2, bounds geom.Rect2D) geom.Vec2 {
	size := bounds.Size()
	switch {
	case p.X < bounds.Min.X:
		p.X += size.X
	case p.X > bounds.Max.X:
		p.X -= size.X
	}
	switch {
	case p.Y < bounds.Min.Y:
		p.Y += size.Y
	case p.Y > bounds.Max.Y:
		p.Y -= size.Y
	}
	return p
}

// loop steps the simulation at a fixed frame pace until the frame budget is
// spent or ctx is canceled. Frames <= 0 runs until canceled.
func loop(ctx context.Context, s *sim.Simulation, cfg config.SandboxConfig, logger log.Log) error {
	frame := cfg.Frame()
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var checks, events, failed int
	last := time.Now()
	for n := 1; cfg.Frames <= 0 || n <= cfg.Frames; n++ {
		select {
		case <-ctx.Done():
			logger.Info("Sandbox interrupted", log.Uint64("frame", s.Frame()))
			return nil
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			report, err := s.Step(elapsed)
			if err != nil {
				logger.Warn("Frame reactions failed", log.Uint64("frame", report.Frame), log.Error(err))
			}
			checks += report.Collisions.Checks
			events += report.Collisions.Events
			failed += report.Events.Failed

			if report.Frame%60 == 0 {
				logger.Info("Sandbox stats",
					log.Uint64("frame", report.Frame),
					log.Uint64("ticks", s.Clock().Ticks()),
					log.Int("checks", checks),
					log.Int("collisions", events),
					log.Int("failed_reactions", failed),
					log.Uint64("reactions_total", s.Bus().GetMetrics().DeliveredHandlers),
					log.Duration("system_time", s.Manager().Metrics().TotalUpdateTime),
				)
				checks, events, failed = 0, 0, 0
			}
		}
	}
	return nil
}
