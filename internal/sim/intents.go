package sim

import (
	"sync"

	"github.com/extremebounce/arena/pkg/core"
)

// IntentBuffer collects per-entity inputs between frames. Writers (the
// WebSocket hub, a script player, an AI) set intents at any cadence;
// the host drains the buffer once per frame. Latest write per entity
// wins. Intents for entities the simulation doesn't know are ignored
// downstream rather than rejected here.
type IntentBuffer struct {
	mu      sync.Mutex
	intents map[core.EntityID]core.Intent
}

// NewIntentBuffer creates an empty buffer.
func NewIntentBuffer() *IntentBuffer {
	return &IntentBuffer{
		intents: make(map[core.EntityID]core.Intent),
	}
}

// Set records the intent for one entity, replacing any pending one.
func (b *IntentBuffer) Set(id core.EntityID, intent core.Intent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.intents[id] = intent
}

// Len returns the number of entities with a pending intent.
func (b *IntentBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.intents)
}

// Drain returns all pending intents and clears the buffer.
func (b *IntentBuffer) Drain() map[core.EntityID]core.Intent {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := b.intents
	b.intents = make(map[core.EntityID]core.Intent, len(result))
	return result
}
