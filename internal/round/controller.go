// Package round implements the round lifecycle state machine and the
// score table derived from resolver events.
package round

import (
	"errors"
	"fmt"
	"sort"

	"github.com/extremebounce/arena/internal/entity"
	"github.com/extremebounce/arena/pkg/core"
)

// ErrInvalidPhaseTransition is returned when the controller is driven in
// a structurally impossible way, e.g. advancing a controller that was
// never initialized with a roster.
var ErrInvalidPhaseTransition = errors.New("invalid phase transition")

// Config holds the controller timers, in simulated seconds.
type Config struct {
	// LeadTime is the countdown before entities become live.
	LeadTime float64

	// TimeLimit ends the active phase even with multiple survivors.
	TimeLimit float64

	// SettleDelay is the grace period between the end condition and the
	// final outcome, letting in-flight bounces and effects flush.
	SettleDelay float64
}

// Controller tracks one round: phase, elapsed time, and the score table.
// It is plain owned state, not a singleton; independent rounds get
// independent controllers.
type Controller struct {
	cfg Config

	phase     core.Phase
	elapsed   float64
	phaseTime float64
	ticks     uint64

	scores    map[core.EntityID]int
	started   bool
	delivered bool
}

// New creates a controller in Countdown with a zeroed score table for the
// roster.
func New(cfg Config, roster []core.EntityID) *Controller {
	c := &Controller{cfg: cfg}
	c.init(roster)
	return c
}

func (c *Controller) init(roster []core.EntityID) {
	c.phase = core.PhaseCountdown
	c.elapsed = 0
	c.phaseTime = 0
	c.ticks = 0
	c.delivered = false
	c.started = len(roster) > 0
	c.scores = make(map[core.EntityID]int, len(roster))
	for _, id := range roster {
		c.scores[id] = 0
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() core.Phase {
	return c.phase
}

// Elapsed returns total simulated round time.
func (c *Controller) Elapsed() float64 {
	return c.elapsed
}

// Scores returns a copy of the score table.
func (c *Controller) Scores() map[core.EntityID]int {
	out := make(map[core.EntityID]int, len(c.scores))
	for id, s := range c.scores {
		out[id] = s
	}
	return out
}

// Advance moves round time forward by one fixed step and consumes the
// resolver events of that step. The outcome is returned exactly once, on
// the transition into Ended; further calls in Ended return nil until
// Reset rearms the controller.
func (c *Controller) Advance(dt float64, events []core.RoundEvent, tbl *entity.Table) (*core.RoundOutcome, error) {
	if !c.started {
		return nil, fmt.Errorf("%w: controller has no roster", ErrInvalidPhaseTransition)
	}
	if c.phase == core.PhaseEnded {
		return nil, nil
	}
	if dt < 0 {
		return nil, fmt.Errorf("%w: negative dt %g", ErrInvalidPhaseTransition, dt)
	}

	c.elapsed += dt
	c.phaseTime += dt
	c.ticks++

	if c.phase == core.PhaseActive || c.phase == core.PhaseResolving {
		c.consume(events, tbl)
	}

	switch c.phase {
	case core.PhaseCountdown:
		if c.phaseTime >= c.cfg.LeadTime {
			c.transition(core.PhaseActive)
		}
	case core.PhaseActive:
		if len(tbl.Active()) <= 1 || c.phaseTime >= c.cfg.TimeLimit {
			c.transition(core.PhaseResolving)
		}
	case core.PhaseResolving:
		if c.phaseTime >= c.cfg.SettleDelay {
			c.transition(core.PhaseEnded)
			c.delivered = true
			return c.outcome(tbl), nil
		}
	}

	return nil, nil
}

func (c *Controller) transition(next core.Phase) {
	c.phase = next
	c.phaseTime = 0
}

// consume updates the score table: an elimination awards a point to every
// other still-active entity; a knockout awards a bonus point to the
// initiator.
func (c *Controller) consume(events []core.RoundEvent, tbl *entity.Table) {
	for _, ev := range events {
		switch ev.Kind {
		case core.EventElimination:
			for _, id := range tbl.Active() {
				if id != ev.Entity {
					c.scores[id]++
				}
			}
		case core.EventKnockout:
			if _, ok := c.scores[ev.Entity]; ok {
				c.scores[ev.Entity]++
			}
		}
	}
}

// outcome ranks by score, survivors before eliminated at equal score,
// then by id for a total order.
func (c *Controller) outcome(tbl *entity.Table) *core.RoundOutcome {
	ranking := make([]core.ScoreEntry, 0, tbl.Len())
	for _, id := range tbl.All() {
		e, ok := tbl.Lookup(id)
		if !ok {
			continue
		}
		ranking = append(ranking, core.ScoreEntry{
			Entity: id,
			Score:  c.scores[id],
			Alive:  e.Alive,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Alive != b.Alive {
			return a.Alive
		}
		return a.Entity < b.Entity
	})
	return &core.RoundOutcome{
		Ranking:  ranking,
		Duration: c.elapsed,
		Ticks:    c.ticks,
	}
}

// Reset rearms an ended (or abandoned) controller for a new round.
func (c *Controller) Reset(roster []core.EntityID) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: empty roster", ErrInvalidPhaseTransition)
	}
	c.init(roster)
	return nil
}
