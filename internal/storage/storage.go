package storage

import "github.com/extremebounce/arena/pkg/core"

// Backend is the interface all round recorders must satisfy. The
// simulation host drives it: one StartRound, any number of frames and
// events, then EndRound with the final outcome.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Round management
	StartRound(levelName string, roster []core.SpawnPoint) error
	EndRound(outcome *core.RoundOutcome) error

	// Recording
	RecordFrame(snap core.Snapshot) error
	RecordEvent(ev core.RoundEvent) error
}

// Exportable is an optional interface for backends that produce a
// replay file when the round ends.
type Exportable interface {
	ExportedFilePath() string
}
