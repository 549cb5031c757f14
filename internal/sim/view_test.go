package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/pkg/core"
)

func TestView_PublishAndRead(t *testing.T) {
	v := NewView()
	assert.Equal(t, core.PhaseCountdown, v.Phase(), "zero view reports the zero phase")

	snap := core.Snapshot{Tick: 42}
	v.Publish(core.PhaseActive, snap)

	assert.Equal(t, core.PhaseActive, v.Phase())
	assert.Equal(t, uint64(42), v.Snapshot().Tick)
}

func TestView_LatestPublishWins(t *testing.T) {
	v := NewView()
	v.Publish(core.PhaseActive, core.Snapshot{Tick: 1})
	v.Publish(core.PhaseEnded, core.Snapshot{Tick: 2})

	assert.Equal(t, core.PhaseEnded, v.Phase())
	assert.Equal(t, uint64(2), v.Snapshot().Tick)
}

func TestView_ConcurrentReadersDuringPublish(t *testing.T) {
	// Mirrors the host wiring: one goroutine publishes each frame while
	// the monitor and the /status handler read from other goroutines.
	v := NewView()
	v.Publish(core.PhaseCountdown, core.Snapshot{})

	const frames = 1000
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = v.Phase()
					_ = v.Snapshot()
				}
			}
		}()
	}

	for i := 1; i <= frames; i++ {
		v.Publish(core.PhaseActive, core.Snapshot{
			Tick: uint64(i),
			Entities: map[core.EntityID]core.EntityFrame{
				1: {Position: core.Vec2{X: float64(i)}},
			},
		})
	}
	close(stop)
	wg.Wait()

	require.Equal(t, uint64(frames), v.Snapshot().Tick)
	assert.Equal(t, core.PhaseActive, v.Phase())
}
