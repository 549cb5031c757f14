// Package recorder fans the simulation host's output into its sinks:
// the storage backend, the WebSocket hub, and InfluxDB. Storage writes
// flow through one buffered dispatcher command so they stay ordered and
// off the host loop; broadcasts are lossy and never block.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/extremebounce/arena/internal/broadcast"
	"github.com/extremebounce/arena/internal/dispatcher"
	"github.com/extremebounce/arena/internal/influx"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/storage"
	"github.com/extremebounce/arena/pkg/core"
)

const (
	cmdRecord    = ":RECORD:"
	cmdBroadcast = ":BROADCAST:"
)

// Dependencies holds the sinks a Recorder writes to. Hub and Influx are
// optional.
type Dependencies struct {
	Backend    storage.Backend
	Hub        *broadcast.Hub
	Influx     *influx.Manager
	LogManager *logging.SlogManager
}

// Recorder routes simulation output to the configured sinks.
type Recorder struct {
	deps Dependencies
	disp *dispatcher.Dispatcher

	levelName   string
	sampleEvery int
	frameCount  uint64
}

// storage-command payloads
type (
	roundStart struct {
		levelName string
		roster    []core.SpawnPoint
	}
	roundEnd struct {
		levelName string
		outcome   *core.RoundOutcome
	}
	flush struct {
		done chan struct{}
	}
)

// New creates a recorder. sampleEvery stores every Nth frame; 0
// disables frame storage (events and outcomes are always stored).
func New(deps Dependencies, sampleEvery int) (*Recorder, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("recorder requires a storage backend")
	}

	disp, err := dispatcher.New(deps.LogManager.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	r := &Recorder{
		deps:        deps,
		disp:        disp,
		sampleEvery: sampleEvery,
	}

	// One ordered, blocking queue for everything that hits storage.
	disp.Register(cmdRecord, r.handleRecord, dispatcher.Buffered(4096), dispatcher.Blocking(), dispatcher.Logged())

	// Broadcasts are dropped when the queue is full.
	if deps.Hub != nil {
		disp.Register(cmdBroadcast, r.handleBroadcast, dispatcher.Buffered(1024))
	}

	return r, nil
}

// RoundStarted begins a new round in storage and announces it.
func (r *Recorder) RoundStarted(levelName string, roster []core.SpawnPoint) error {
	r.levelName = levelName
	r.frameCount = 0
	if _, err := r.disp.Dispatch(dispatcher.Event{
		Command:   cmdRecord,
		Payload:   roundStart{levelName: levelName, roster: roster},
		Timestamp: time.Now(),
	}); err != nil {
		return err
	}
	r.broadcast(broadcast.PhaseMessage(core.PhaseCountdown))
	return nil
}

// Frame records one simulation frame: broadcast always, storage on the
// sample stride.
func (r *Recorder) Frame(snap core.Snapshot) {
	r.broadcast(broadcast.SnapshotMessage(snap))

	r.frameCount++
	if r.sampleEvery <= 0 || r.frameCount%uint64(r.sampleEvery) != 0 {
		return
	}
	r.record(snap)
}

// Events records eliminations and knockouts.
func (r *Recorder) Events(events []core.RoundEvent) {
	for _, ev := range events {
		r.record(ev)
		r.broadcast(broadcast.EventMessage(ev))
	}
}

// PhaseChanged announces a phase transition to clients.
func (r *Recorder) PhaseChanged(phase core.Phase) {
	r.broadcast(broadcast.PhaseMessage(phase))
}

// RoundEnded finalizes the round in storage and ships stats.
func (r *Recorder) RoundEnded(outcome *core.RoundOutcome) error {
	if _, err := r.disp.Dispatch(dispatcher.Event{
		Command:   cmdRecord,
		Payload:   roundEnd{levelName: r.levelName, outcome: outcome},
		Timestamp: time.Now(),
	}); err != nil {
		return err
	}
	r.broadcast(broadcast.OutcomeMessage(outcome))
	r.broadcast(broadcast.PhaseMessage(core.PhaseEnded))
	return nil
}

// Drain blocks until every queued storage write has been processed.
func (r *Recorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	if _, err := r.disp.Dispatch(dispatcher.Event{
		Command:   cmdRecord,
		Payload:   flush{done: done},
		Timestamp: time.Now(),
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) record(payload any) {
	if _, err := r.disp.Dispatch(dispatcher.Event{
		Command:   cmdRecord,
		Payload:   payload,
		Timestamp: time.Now(),
	}); err != nil {
		r.deps.LogManager.Logger().Error("record dispatch failed", "error", err)
	}
}

func (r *Recorder) broadcast(msg broadcast.Message) {
	if r.deps.Hub == nil {
		return
	}
	// Errors here mean a full queue; the next frame supersedes anyway.
	_, _ = r.disp.Dispatch(dispatcher.Event{
		Command:   cmdBroadcast,
		Payload:   msg,
		Timestamp: time.Now(),
	})
}

// handleRecord runs on the dispatcher's queue goroutine, whose results
// are not returned to the caller, so failures are logged here.
func (r *Recorder) handleRecord(e dispatcher.Event) (any, error) {
	var err error
	switch p := e.Payload.(type) {
	case roundStart:
		err = r.deps.Backend.StartRound(p.levelName, p.roster)
	case core.Snapshot:
		err = r.deps.Backend.RecordFrame(p)
	case core.RoundEvent:
		err = r.deps.Backend.RecordEvent(p)
	case roundEnd:
		err = r.deps.Backend.EndRound(p.outcome)
		if err == nil && r.deps.Influx != nil {
			if ierr := r.deps.Influx.WriteRoundOutcome(context.Background(), p.levelName, p.outcome); ierr != nil {
				r.deps.LogManager.Logger().Warn("influx round write failed", "error", ierr)
			}
		}
	case flush:
		close(p.done)
	default:
		err = fmt.Errorf("unknown record payload %T", e.Payload)
	}

	if err != nil {
		r.deps.LogManager.Logger().Error("storage write failed", "error", err)
	}
	return nil, err
}

func (r *Recorder) handleBroadcast(e dispatcher.Event) (any, error) {
	msg, ok := e.Payload.(broadcast.Message)
	if !ok {
		return nil, fmt.Errorf("unknown broadcast payload %T", e.Payload)
	}
	r.deps.Hub.Broadcast(msg)
	return nil, nil
}
