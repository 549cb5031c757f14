// Package sim wires the per-round components into the frame pipeline:
// integrate, detect, resolve, advance. The host decides when frames run;
// the simulation never blocks, sleeps, or spawns goroutines, and a round
// is fully self-contained so independent rounds need no synchronization.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/extremebounce/arena/internal/arena"
	"github.com/extremebounce/arena/internal/entity"
	"github.com/extremebounce/arena/internal/physics"
	"github.com/extremebounce/arena/internal/round"
	"github.com/extremebounce/arena/pkg/core"
)

// Round owns one round's simulation state.
type Round struct {
	arena    *arena.Arena
	table    *entity.Table
	integ    *physics.Integrator
	resolver *physics.Resolver
	ctrl     *round.Controller
	tuning   physics.Tuning

	tick    uint64
	log     *slog.Logger
	metrics *counters
}

// NewRound spawns the roster into the arena and starts the countdown.
func NewRound(ar *arena.Arena, roster []core.SpawnPoint, tuning physics.Tuning, log *slog.Logger) (*Round, error) {
	if log == nil {
		log = slog.Default()
	}
	tbl, err := entity.Spawn(roster, entity.Params{
		Radius:          tuning.EntityRadius,
		Mass:            tuning.EntityMass,
		Restitution:     tuning.EntityRestitution,
		ChargeMax:       tuning.ChargeMax,
		SpawnSeparation: tuning.SpawnSeparation,
	})
	if err != nil {
		return nil, fmt.Errorf("spawning roster: %w", err)
	}

	ids := tbl.All()
	ctrl := round.New(round.Config{
		LeadTime:    tuning.LeadTime,
		TimeLimit:   tuning.TimeLimit,
		SettleDelay: tuning.SettleDelay,
	}, ids)

	m, err := newCounters()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &Round{
		arena:    ar,
		table:    tbl,
		integ:    physics.NewIntegrator(tuning),
		resolver: physics.NewResolver(tuning),
		ctrl:     ctrl,
		tuning:   tuning,
		log:      log,
		metrics:  m,
	}, nil
}

// Frame consumes one host frame of wall time and runs every whole fixed
// step that fits, banking the remainder. It returns the post-frame
// snapshot, the ordered events of the frame, and the round outcome on
// the frame that ends the round. A frame that returns an error has not
// touched simulation state.
func (r *Round) Frame(dt float64, intents map[core.EntityID]core.Intent) (core.Snapshot, []core.RoundEvent, *core.RoundOutcome, error) {
	steps, err := r.integ.Accumulate(dt)
	if err != nil {
		return core.Snapshot{}, nil, nil, err
	}

	ctx := context.Background()
	var frameEvents []core.RoundEvent
	var outcome *core.RoundOutcome

	for i := 0; i < steps; i++ {
		r.tick++
		var events []core.RoundEvent

		switch r.ctrl.Phase() {
		case core.PhaseActive, core.PhaseResolving:
			r.integ.Step(r.table, intents)
			contacts := physics.Detect(r.table, r.arena)
			events = r.resolver.Resolve(contacts, r.table, r.arena, r.tick)
			r.metrics.contacts.Add(ctx, int64(len(contacts)))
		}
		r.metrics.steps.Add(ctx, 1)

		out, err := r.ctrl.Advance(r.tuning.Timestep, events, r.table)
		if err != nil {
			return core.Snapshot{}, nil, nil, fmt.Errorf("advancing round: %w", err)
		}

		for _, ev := range events {
			switch ev.Kind {
			case core.EventElimination:
				r.metrics.eliminations.Add(ctx, 1)
				r.log.Debug("entity eliminated", "entity", ev.Entity, "tick", ev.Tick)
			case core.EventKnockout:
				r.metrics.knockouts.Add(ctx, 1)
				r.log.Debug("knockout", "initiator", ev.Entity, "other", ev.Other,
					"speed", ev.Speed, "tick", ev.Tick)
			}
		}
		frameEvents = append(frameEvents, events...)

		if out != nil {
			outcome = out
			r.metrics.rounds.Add(ctx, 1)
			r.log.Info("round ended", "ticks", out.Ticks, "duration", out.Duration)
		}
	}

	return r.table.Snapshot(r.tick), frameEvents, outcome, nil
}

// Snapshot returns the current read-only frame view without advancing
// time.
func (r *Round) Snapshot() core.Snapshot {
	return r.table.Snapshot(r.tick)
}

// Phase returns the controller's lifecycle phase.
func (r *Round) Phase() core.Phase {
	return r.ctrl.Phase()
}

// Scores returns a copy of the live score table.
func (r *Round) Scores() map[core.EntityID]int {
	return r.ctrl.Scores()
}

// Reset starts a fresh round in the same arena with a new roster.
func (r *Round) Reset(roster []core.SpawnPoint) error {
	tbl, err := entity.Spawn(roster, entity.Params{
		Radius:          r.tuning.EntityRadius,
		Mass:            r.tuning.EntityMass,
		Restitution:     r.tuning.EntityRestitution,
		ChargeMax:       r.tuning.ChargeMax,
		SpawnSeparation: r.tuning.SpawnSeparation,
	})
	if err != nil {
		return fmt.Errorf("respawning roster: %w", err)
	}
	if err := r.ctrl.Reset(tbl.All()); err != nil {
		return err
	}
	r.table = tbl
	r.integ = physics.NewIntegrator(r.tuning)
	r.tick = 0
	return nil
}
