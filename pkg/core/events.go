// pkg/core/events.go
package core

// Phase is the round lifecycle state.
type Phase uint8

const (
	PhaseCountdown Phase = iota
	PhaseActive
	PhaseResolving
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhaseActive:
		return "active"
	case PhaseResolving:
		return "resolving"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EventKind discriminates RoundEvent values.
type EventKind uint8

const (
	EventElimination EventKind = iota
	EventKnockout
)

func (k EventKind) String() string {
	switch k {
	case EventElimination:
		return "elimination"
	case EventKnockout:
		return "knockout"
	default:
		return "unknown"
	}
}

// RoundEvent is one scoring-relevant occurrence produced by the collision
// resolver and consumed by the round controller. Events are value records:
// they copy identifiers instead of referencing entity state, and are valid
// only for the frame that produced them.
type RoundEvent struct {
	Kind EventKind `json:"kind"`
	Tick uint64    `json:"tick"`

	// Entity is the eliminated entity for EventElimination, and the
	// knockout initiator for EventKnockout.
	Entity EntityID `json:"entity"`

	// Other is the second entity of a knockout pair; unset for eliminations.
	Other EntityID `json:"other,omitempty"`

	// Speed is the closing speed that triggered a knockout.
	Speed float64 `json:"speed,omitempty"`

	// Position is where the event happened, for effects/replay.
	Position Vec2 `json:"position"`
}

// ScoreEntry is one row of a ranked outcome.
type ScoreEntry struct {
	Entity EntityID `json:"entity"`
	Score  int      `json:"score"`
	Alive  bool     `json:"alive"`
}

// RoundOutcome is the final ranked score table, produced exactly once per
// round when the controller reaches PhaseEnded.
type RoundOutcome struct {
	Ranking  []ScoreEntry `json:"ranking"`
	Duration float64      `json:"duration"` // simulated seconds
	Ticks    uint64       `json:"ticks"`
}

// Winner returns the top-ranked entity. A round with no survivors has
// no winner.
func (o *RoundOutcome) Winner() (EntityID, bool) {
	if len(o.Ranking) == 0 || !o.Ranking[0].Alive {
		return 0, false
	}
	return o.Ranking[0].Entity, true
}
