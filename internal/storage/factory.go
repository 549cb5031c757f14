package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/internal/database"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/storage/gormstore"
	"github.com/extremebounce/arena/internal/storage/memory"
	sqlitestorage "github.com/extremebounce/arena/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (Backend, error) {
	logLevel := config.GetString("logLevel")
	switch cfg.Type {
	case "postgres":
		mgr := database.NewManager(logging.NewZerolog(os.Stdout, logLevel))
		if err := mgr.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		return gormstore.New(mgr.DB, logManager), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     cfg.Path,
			DumpInterval: 30 * time.Second,
			LogLevel:     logLevel,
		}, logManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
