// Package monitor periodically reports simulator health: round phase,
// tick, and connected client counts. The status also lands in a JSON
// file so external tooling can poll it without a WebSocket.
package monitor

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/extremebounce/arena/internal/broadcast"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/pkg/core"
)

// StatusProvider exposes the live simulation state the monitor reports.
type StatusProvider interface {
	Phase() core.Phase
	Snapshot() core.Snapshot
}

// Dependencies holds what the monitor service reads from.
type Dependencies struct {
	Sim        StatusProvider
	Hub        *broadcast.Hub // optional
	LogManager *logging.SlogManager
	StatusPath string // optional; empty disables the status file
}

// Status is one report.
type Status struct {
	Time          time.Time `json:"time"`
	Phase         string    `json:"phase"`
	Tick          uint64    `json:"tick"`
	ActiveClients int       `json:"activeClients,omitempty"`
	TotalClients  uint64    `json:"totalClients,omitempty"`
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	interval  time.Duration
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies, interval time.Duration) *Service {
	return &Service{
		deps:     deps,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Current builds one status report.
func (s *Service) Current() Status {
	st := Status{
		Time:  time.Now(),
		Phase: s.deps.Sim.Phase().String(),
		Tick:  s.deps.Sim.Snapshot().Tick,
	}
	if s.deps.Hub != nil {
		hub := s.deps.Hub.Stats()
		st.ActiveClients = hub.ActiveClients
		st.TotalClients = hub.TotalConnections
	}
	return st
}

// Start starts the status monitor goroutine.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

// Stop stops the status monitor goroutine.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	close(s.stopChan)
	s.isRunning = false
}

func (s *Service) run() {
	logger := s.deps.LogManager.Logger()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			st := s.Current()
			logger.Debug("status",
				"phase", st.Phase,
				"tick", st.Tick,
				"clients", st.ActiveClients,
			)
			if s.deps.StatusPath != "" {
				s.writeStatusFile(st)
			}
		}
	}
}

func (s *Service) writeStatusFile(st Status) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.deps.StatusPath, data, 0o644); err != nil {
		s.deps.LogManager.Logger().Error("Error writing status file", "error", err)
	}
}
