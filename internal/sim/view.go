package sim

import (
	"sync"

	"github.com/extremebounce/arena/pkg/core"
)

// View is a read-side mirror of the latest frame state. Round itself is
// single-goroutine; the host publishes into a View after each frame so
// monitors and HTTP handlers never touch the live Round.
type View struct {
	mu    sync.RWMutex
	phase core.Phase
	snap  core.Snapshot
}

// NewView creates an empty view. Publish at least once before handing
// it to readers so they see real state rather than zero values.
func NewView() *View {
	return &View{}
}

// Publish stores the latest phase and snapshot.
func (v *View) Publish(phase core.Phase, snap core.Snapshot) {
	v.mu.Lock()
	v.phase = phase
	v.snap = snap
	v.mu.Unlock()
}

// Phase returns the last published phase.
func (v *View) Phase() core.Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

// Snapshot returns the last published snapshot.
func (v *View) Snapshot() core.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}
