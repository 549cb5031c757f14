// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO. It
// wraps the GORM backend via composition; the only SQLite-specific
// concerns are creating the in-memory DB and the dump loop.
package sqlitestorage

import (
	"fmt"
	"os"
	"time"

	"github.com/extremebounce/arena/internal/database"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/storage/gormstore"
	"github.com/extremebounce/arena/pkg/core"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
	LogLevel     string // zerolog level for the database manager
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	mgr      *database.Manager
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	mgr := database.NewManager(logging.NewZerolog(os.Stdout, cfg.LogLevel))
	db, err := mgr.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	mgr.DB = db
	mgr.SqliteFilePath = cfg.DumpPath

	return &Backend{
		Backend:  gormstore.New(db, logManager),
		mgr:      mgr,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, takes a final disk dump, and closes
// the embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)

	if b.cfg.DumpPath != "" {
		if err := b.mgr.DumpMemoryToDisk(); err != nil {
			b.log.Logger().Error("Final SQLite dump failed", "error", err)
		}
	}

	return b.Backend.Close()
}

// EndRound finalizes the round and snapshots the database to disk.
func (b *Backend) EndRound(outcome *core.RoundOutcome) error {
	if err := b.Backend.EndRound(outcome); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		if err := b.mgr.DumpMemoryToDisk(); err != nil {
			return fmt.Errorf("failed to dump DB after round: %w", err)
		}
	}
	return nil
}

// ExportedFilePath returns the on-disk dump path.
func (b *Backend) ExportedFilePath() string {
	return b.cfg.DumpPath
}

func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.mgr.DumpMemoryToDisk(); err != nil {
				b.log.Logger().Error("Periodic SQLite dump failed", "error", err)
			}
		case <-b.stopChan:
			return
		}
	}
}
