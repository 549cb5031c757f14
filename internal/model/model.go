package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Level{},
	&Round{},
	&Score{},
	&RoundEvent{},
	&Frame{},
}

// Level is a stored arena layout. Surfaces and spawn points are kept as
// raw JSON so the schema doesn't need to track geometry changes.
type Level struct {
	gorm.Model
	Name     string         `json:"name" gorm:"size:127;index:idx_level_name"`
	Surfaces datatypes.JSON `json:"surfaces"`
	Spawns   datatypes.JSON `json:"spawns"`
	Bounds   datatypes.JSON `json:"bounds"`
}

func (*Level) TableName() string {
	return "levels"
}

// Round is one played round from countdown to outcome.
type Round struct {
	gorm.Model
	LevelID   *uint     `json:"levelId" gorm:"index:idx_round_level_id"`
	Level     *Level    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;foreignkey:LevelID;"`
	LevelName string    `json:"levelName" gorm:"size:127"`
	StartedAt time.Time `json:"startedAt"`
	Duration  float64   `json:"duration"` // seconds of simulated time
	Ticks     uint64    `json:"ticks"`
	WinnerID  *uint16   `json:"winnerId"`
}

func (*Round) TableName() string {
	return "rounds"
}

// Score is one entity's final standing in a round.
type Score struct {
	gorm.Model
	RoundID  uint   `json:"roundId" gorm:"index:idx_score_round_id"`
	Round    Round  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RoundID;"`
	EntityID uint16 `json:"entityId"`
	Rank     int    `json:"rank"` // 1-based, ranking order
	Score    int    `json:"score"`
	Alive    bool   `json:"alive"`
}

func (*Score) TableName() string {
	return "scores"
}

// RoundEvent is an elimination or knockout that occurred during a round.
type RoundEvent struct {
	gorm.Model
	RoundID   uint    `json:"roundId" gorm:"index:idx_roundevent_round_id"`
	Round     Round   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RoundID;"`
	Tick      uint64  `json:"tick"`
	Kind      string  `json:"kind" gorm:"size:31"`
	EntityID  uint16  `json:"entityId"`
	OtherID   *uint16 `json:"otherId"` // nil for non-contact eliminations
	Speed     float64 `json:"speed"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
}

func (*RoundEvent) TableName() string {
	return "round_events"
}

// Frame is a sampled world snapshot, stored for replay. Entities holds
// the per-entity frames as JSON keyed by entity ID.
type Frame struct {
	gorm.Model
	RoundID  uint           `json:"roundId" gorm:"index:idx_frame_round_id"`
	Round    Round          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RoundID;"`
	Tick     uint64         `json:"tick" gorm:"index:idx_frame_tick"`
	Entities datatypes.JSON `json:"entities"`
}

func (*Frame) TableName() string {
	return "frames"
}
