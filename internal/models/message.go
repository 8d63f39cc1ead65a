package models

import "gorm.io/gorm"

// Message represents a chat message within a game. Append-only and
// immutable once created.
type Message struct {
	gorm.Model
	GameID   uint   `gorm:"not null;index"`
	PlayerID uint   `gorm:"not null;index"`
	Text     string `gorm:"not null"`

	Player Player `gorm:"foreignKey:PlayerID"`
}
