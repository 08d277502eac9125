package model

import (
	"time"

	"gorm.io/gorm"
)

// Pass is the persisted record of an Outcome.
type Pass struct {
	gorm.Model
	Status     PassStatus `gorm:"not null"`
	Trigger    string
	DryRun     bool `gorm:"not null;default:false"`
	Linked     int
	Unlinked   int
	Failures   int
	ErrMsg     string
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null"`
}
