// arenasim runs bounce-arena rounds: it loads a level, simulates the
// round at a fixed timestep, records it to the configured storage
// backend, and optionally serves live state over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/spf13/viper"

	"github.com/extremebounce/arena/internal/api"
	"github.com/extremebounce/arena/internal/broadcast"
	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/internal/influx"
	"github.com/extremebounce/arena/internal/level"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/monitor"
	"github.com/extremebounce/arena/internal/recorder"
	"github.com/extremebounce/arena/internal/sim"
	"github.com/extremebounce/arena/internal/storage"
	"github.com/extremebounce/arena/pkg/core"
)

var Version = "0.1.0"

// defaultLevel is used when no level file is given: a floor, two walls,
// a center bounce pad, and four spawn points.
const defaultLevel = `{
  "name": "box",
  "surfaces": [
    {"kind": "plane", "point": [0, 0], "normal": [0, 1], "restitution": 0.6, "friction": 0.2},
    {"kind": "segment", "a": [-20, 0], "b": [-20, 15], "restitution": 0.9},
    {"kind": "segment", "a": [20, 0], "b": [20, 15], "restitution": 0.9},
    {"kind": "segment", "a": [-4, 2], "b": [4, 2], "restitution": 1.0, "pad": true}
  ],
  "spawns": [
    {"id": 1, "position": [-12, 3]},
    {"id": 2, "position": [-5, 3]},
    {"id": 3, "position": [5, 3]},
    {"id": 4, "position": [12, 3]}
  ],
  "bounds": {"min": [-25, -5], "max": [25, 30]}
}`

func main() {
	configDir := flag.String("config", ".", "directory containing arenasim.cfg.json")
	levelPath := flag.String("level", "", "level file (JSON); built-in level when empty")
	scriptPath := flag.String("script", "", "intent script file to replay")
	flag.Parse()

	if err := run(*configDir, *levelPath, *scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, "arenasim:", err)
		os.Exit(1)
	}
}

func run(configDir, levelPath, scriptPath string) error {
	if err := config.Load(configDir); err != nil {
		return err
	}

	// logging
	sessionStart := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, "arenasim", sessionStart))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	var graylog *gelf.Writer
	if config.GetBool("graylog.enabled") {
		graylog, err = gelf.NewWriter(config.GetString("graylog.address"))
		if err != nil {
			return fmt.Errorf("failed to connect graylog: %w", err)
		}
	}

	slogMgr := logging.NewSlogManager()
	if graylog != nil {
		slogMgr.Setup(logFile, config.GetString("logLevel"), graylog)
	} else {
		slogMgr.Setup(logFile, config.GetString("logLevel"), nil)
	}
	logger := slogMgr.Logger()
	logger.Info("arenasim starting", "version", Version)

	// level
	var lvl *level.Level
	if levelPath != "" {
		lvl, err = level.LoadFile(levelPath)
	} else {
		lvl, err = level.Parse([]byte(defaultLevel))
	}
	if err != nil {
		return fmt.Errorf("failed to load level: %w", err)
	}
	ar, err := lvl.Arena()
	if err != nil {
		return fmt.Errorf("failed to build arena: %w", err)
	}
	logger.Info("level loaded", "name", lvl.Name, "surfaces", len(lvl.Surfaces), "entities", len(lvl.Roster))

	// simulation
	tuning := config.Tuning()
	round, err := sim.NewRound(ar, lvl.Roster, tuning, logger)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	// storage
	backend, err := storage.NewBackend(config.Storage(), slogMgr)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to init storage backend: %w", err)
	}
	defer backend.Close()

	// influx (optional)
	var influxMgr *influx.Manager
	if config.GetBool("influx.enabled") {
		influxMgr = influx.NewManager(
			logging.NewZerolog(os.Stdout, config.GetString("logLevel")),
			config.GetString("influx.backupPath"),
		)
		if err := influxMgr.Connect(); err != nil {
			logger.Warn("influx unavailable, stats disabled", "error", err)
			influxMgr = nil
		} else {
			defer influxMgr.Close()
		}
	}

	// websocket hub (optional)
	var hub *broadcast.Hub
	var httpServer *http.Server
	if config.GetBool("serve.enabled") {
		hub = broadcast.NewHub(logger, viper.GetStringSlice("serve.origins"))
	}

	rec, err := recorder.New(recorder.Dependencies{
		Backend:    backend,
		Hub:        hub,
		Influx:     influxMgr,
		LogManager: slogMgr,
	}, config.Storage().FrameSampleEvery)
	if err != nil {
		return fmt.Errorf("failed to create recorder: %w", err)
	}

	// intents: websocket clients and/or a scripted replay
	intents := sim.NewIntentBuffer()
	if hub != nil {
		go func() {
			for msg := range hub.Intents() {
				intents.Set(msg.Entity, msg.Intent())
			}
		}()
	}

	var script *intentScript
	if scriptPath != "" {
		script, err = loadIntentScript(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to load intent script: %w", err)
		}
		logger.Info("intent script loaded", "path", scriptPath, "frames", len(script.byTick))
	}

	// monitor and /status read from a published view, never the live round
	view := sim.NewView()
	view.Publish(round.Phase(), round.Snapshot())
	monitorSvc := monitor.NewService(monitor.Dependencies{
		Sim:        view,
		Hub:        hub,
		LogManager: slogMgr,
		StatusPath: config.GetString("monitor.statusPath"),
	}, time.Duration(viper.GetFloat64("monitor.interval")*float64(time.Second)))
	monitorSvc.Start()
	defer monitorSvc.Stop()

	if hub != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWS)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(monitorSvc.Current())
		})
		httpServer = &http.Server{Addr: config.GetString("serve.addr"), Handler: mux}
		go func() {
			logger.Info("serving", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			hub.CloseAll()
			_ = httpServer.Shutdown(ctx)
		}()
	}

	outcome, err := hostLoop(round, view, rec, intents, script, lvl, tuning.Timestep, influxMgr, logger)
	if err != nil {
		return err
	}
	if outcome == nil {
		return nil // interrupted
	}

	printOutcome(outcome)

	// replay upload (optional)
	if config.GetBool("upload.enabled") {
		if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
			client := api.New(config.GetString("upload.url"), config.GetString("upload.secret"))
			err := client.Upload(exp.ExportedFilePath(), api.ReplayMetadata{
				LevelName: lvl.Name,
				Duration:  outcome.Duration,
				Tag:       config.GetString("upload.tag"),
			})
			if err != nil {
				logger.Error("replay upload failed", "error", err)
			} else {
				logger.Info("replay uploaded", "file", exp.ExportedFilePath())
			}
		}
	}

	return nil
}

// hostLoop pumps wall-clock time into the fixed-step simulation until
// the round produces an outcome or the process is interrupted. It is
// the only goroutine that touches round; other goroutines observe the
// round through view.
func hostLoop(
	round *sim.Round,
	view *sim.View,
	rec *recorder.Recorder,
	intents *sim.IntentBuffer,
	script *intentScript,
	lvl *level.Level,
	timestep float64,
	influxMgr *influx.Manager,
	logger *slog.Logger,
) (*core.RoundOutcome, error) {
	if err := rec.RoundStarted(lvl.Name, lvl.Roster); err != nil {
		return nil, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(time.Duration(timestep * float64(time.Second)))
	defer ticker.Stop()

	lastPhase := round.Phase()
	last := time.Now()
	frames := 0
	for {
		select {
		case <-sigCh:
			logger.Info("interrupted, shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = rec.Drain(ctx)
			return nil, nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			var (
				snap    core.Snapshot
				events  []core.RoundEvent
				outcome *core.RoundOutcome
				err     error
			)
			if script != nil {
				// Replays pump exactly one fixed step per frame so the
				// tick-to-intent mapping is identical across runs.
				dt = timestep
				snap, events, outcome, err = script.step(round, intents, timestep)
			} else {
				snap, events, outcome, err = round.Frame(dt, intents.Drain())
			}
			if err != nil {
				return nil, fmt.Errorf("frame failed: %w", err)
			}
			view.Publish(round.Phase(), snap)

			frames++
			if influxMgr != nil && frames%60 == 0 {
				steps := int(dt / timestep)
				if err := influxMgr.WriteFrameTiming(context.Background(), steps, time.Since(now)); err != nil {
					logger.Warn("failed to write frame timing", "error", err)
				}
			}

			rec.Frame(snap)
			rec.Events(events)

			if phase := round.Phase(); phase != lastPhase {
				rec.PhaseChanged(phase)
				lastPhase = phase
			}

			if outcome != nil {
				if err := rec.RoundEnded(outcome); err != nil {
					return nil, err
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				err := rec.Drain(ctx)
				cancel()
				if err != nil {
					return nil, fmt.Errorf("failed to flush recording: %w", err)
				}
				return outcome, nil
			}
		}
	}
}

// intentScript maps simulation ticks to scripted inputs, for replays
// and headless testing.
type intentScript struct {
	byTick map[uint64][]broadcast.IntentMessage
}

func loadIntentScript(path string) (*intentScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string][]broadcast.IntentMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	s := &intentScript{byTick: make(map[uint64][]broadcast.IntentMessage, len(raw))}
	for key, msgs := range raw {
		tick, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad tick key %q: %w", key, err)
		}
		s.byTick[tick] = msgs
	}
	return s, nil
}

func (s *intentScript) apply(tick uint64, buf *sim.IntentBuffer) {
	for _, msg := range s.byTick[tick] {
		buf.Set(msg.Entity, msg.Intent())
	}
}

// step applies the script entry for the tick about to run, then pumps
// one fixed step. Keeping dt pinned to the timestep means each call
// advances exactly one tick, so no script entry is ever skipped.
func (s *intentScript) step(round *sim.Round, buf *sim.IntentBuffer, timestep float64) (core.Snapshot, []core.RoundEvent, *core.RoundOutcome, error) {
	s.apply(round.Snapshot().Tick, buf)
	return round.Frame(timestep, buf.Drain())
}

func printOutcome(outcome *core.RoundOutcome) {
	fmt.Printf("round over after %.1fs (%d ticks)\n", outcome.Duration, outcome.Ticks)

	for i, entry := range outcome.Ranking {
		status := "eliminated"
		if entry.Alive {
			status = "alive"
		}
		fmt.Printf("  %d. entity %d: %d points (%s)\n", i+1, entry.Entity, entry.Score, status)
	}
	if winner, ok := outcome.Winner(); ok {
		fmt.Printf("winner: entity %d\n", winner)
	}
}
