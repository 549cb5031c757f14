package model

import (
	"encoding/json"
	"time"

	"github.com/extremebounce/arena/pkg/core"
)

// RoundFromOutcome builds a Round row from a finished round's outcome.
func RoundFromOutcome(levelName string, startedAt time.Time, outcome *core.RoundOutcome) Round {
	r := Round{
		LevelName: levelName,
		StartedAt: startedAt,
		Duration:  outcome.Duration,
		Ticks:     outcome.Ticks,
	}
	if winner, ok := outcome.Winner(); ok {
		id := uint16(winner)
		r.WinnerID = &id
	}
	return r
}

// ScoresFromOutcome builds Score rows from an outcome's ranking.
// Rank is 1-based in ranking order.
func ScoresFromOutcome(roundID uint, outcome *core.RoundOutcome) []Score {
	rows := make([]Score, 0, len(outcome.Ranking))
	for i, entry := range outcome.Ranking {
		rows = append(rows, Score{
			RoundID:  roundID,
			EntityID: uint16(entry.Entity),
			Rank:     i + 1,
			Score:    entry.Score,
			Alive:    entry.Alive,
		})
	}
	return rows
}

// EventFromRound builds a RoundEvent row from a simulation event.
func EventFromRound(roundID uint, ev core.RoundEvent) RoundEvent {
	row := RoundEvent{
		RoundID:   roundID,
		Tick:      ev.Tick,
		Kind:      ev.Kind.String(),
		EntityID:  uint16(ev.Entity),
		Speed:     ev.Speed,
		PositionX: ev.Position.X,
		PositionY: ev.Position.Y,
	}
	if ev.Kind == core.EventKnockout {
		other := uint16(ev.Other)
		row.OtherID = &other
	}
	return row
}

// FrameFromSnapshot builds a Frame row from a world snapshot.
func FrameFromSnapshot(roundID uint, snap core.Snapshot) (Frame, error) {
	entities, err := json.Marshal(snap.Entities)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		RoundID:  roundID,
		Tick:     snap.Tick,
		Entities: entities,
	}, nil
}
