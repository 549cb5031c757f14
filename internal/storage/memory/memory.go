// Package memory stores round data in memory and exports a replay JSON
// file when the round ends.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/pkg/core"
)

// Backend accumulates frames and events for one round at a time.
type Backend struct {
	cfg config.MemoryConfig

	levelName string
	roster    []core.SpawnPoint
	startedAt time.Time
	frames    []core.Snapshot
	events    []core.RoundEvent

	recording    bool
	exportedPath string
	mu           sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartRound begins recording a new round.
func (b *Backend) StartRound(levelName string, roster []core.SpawnPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.recording {
		return fmt.Errorf("round already in progress")
	}

	b.levelName = levelName
	b.roster = append([]core.SpawnPoint(nil), roster...)
	b.startedAt = time.Now()
	b.frames = nil
	b.events = nil
	b.recording = true
	return nil
}

// EndRound finalizes the round and writes the replay file.
func (b *Backend) EndRound(outcome *core.RoundOutcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording {
		return fmt.Errorf("no round in progress")
	}
	b.recording = false

	return b.exportJSON(outcome)
}

// RecordFrame appends one sampled snapshot.
func (b *Backend) RecordFrame(snap core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording {
		return fmt.Errorf("no round in progress")
	}
	b.frames = append(b.frames, snap)
	return nil
}

// RecordEvent appends one elimination or knockout.
func (b *Backend) RecordEvent(ev core.RoundEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording {
		return fmt.Errorf("no round in progress")
	}
	b.events = append(b.events, ev)
	return nil
}

// ExportedFilePath returns the path of the last written replay, or an
// empty string if no round has been exported yet.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}

// FrameCount returns the number of recorded frames.
func (b *Backend) FrameCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.frames)
}

// Events returns a copy of the recorded events.
func (b *Backend) Events() []core.RoundEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.RoundEvent(nil), b.events...)
}
