package models

import "gorm.io/gorm"

// Stat holds a user's lifetime aggregates. Updated only when a game
// concludes, always via atomic increments.
type Stat struct {
	gorm.Model
	UserID      uint `gorm:"not null;uniqueIndex"`
	TotalWins   int  `gorm:"not null;default:0"`
	TotalLosses int  `gorm:"not null;default:0"`
	TotalPoints int  `gorm:"not null;default:0"`
	XP          int  `gorm:"not null;default:0"`
}
