// Package gormstore implements the storage.Backend interface on top of a
// GORM connection. It is database-agnostic: the sqlite and postgres
// backends both build on it and add only connection handling.
package gormstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/model"
	"github.com/extremebounce/arena/pkg/core"
)

// Backend records rounds into relational tables via GORM.
type Backend struct {
	db  *gorm.DB
	log *logging.SlogManager

	round *model.Round
}

// New creates a GORM-backed recorder on an open connection.
func New(db *gorm.DB, logManager *logging.SlogManager) *Backend {
	return &Backend{db: db, log: logManager}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRound creates the Round row and its Level row (found or created
// by name) so frames and events have something to reference.
func (b *Backend) StartRound(levelName string, roster []core.SpawnPoint) error {
	if b.round != nil {
		return fmt.Errorf("round already in progress")
	}

	spawns, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	var level model.Level
	err = b.db.Where(&model.Level{Name: levelName}).
		Attrs(model.Level{Name: levelName, Spawns: spawns}).
		FirstOrCreate(&level).Error
	if err != nil {
		return fmt.Errorf("failed to find or create level: %w", err)
	}

	round := model.Round{
		LevelID:   &level.ID,
		LevelName: levelName,
		StartedAt: time.Now(),
	}
	if err := b.db.Create(&round).Error; err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	b.round = &round
	b.log.Logger().Info("Round recording started", "round", round.ID, "level", levelName)
	return nil
}

// EndRound finalizes the Round row and writes the score table.
func (b *Backend) EndRound(outcome *core.RoundOutcome) error {
	if b.round == nil {
		return fmt.Errorf("no round in progress")
	}

	round := model.RoundFromOutcome(b.round.LevelName, b.round.StartedAt, outcome)
	updates := map[string]any{
		"duration":  round.Duration,
		"ticks":     round.Ticks,
		"winner_id": round.WinnerID,
	}
	if err := b.db.Model(b.round).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to finalize round: %w", err)
	}

	scores := model.ScoresFromOutcome(b.round.ID, outcome)
	if len(scores) > 0 {
		if err := b.db.Create(&scores).Error; err != nil {
			return fmt.Errorf("failed to write scores: %w", err)
		}
	}

	b.log.Logger().Info("Round recording ended", "round", b.round.ID, "ticks", outcome.Ticks)
	b.round = nil
	return nil
}

// RecordFrame stores one sampled snapshot.
func (b *Backend) RecordFrame(snap core.Snapshot) error {
	if b.round == nil {
		return fmt.Errorf("no round in progress")
	}

	frame, err := model.FrameFromSnapshot(b.round.ID, snap)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return b.db.Create(&frame).Error
}

// RecordEvent stores one elimination or knockout.
func (b *Backend) RecordEvent(ev core.RoundEvent) error {
	if b.round == nil {
		return fmt.Errorf("no round in progress")
	}

	row := model.EventFromRound(b.round.ID, ev)
	return b.db.Create(&row).Error
}
