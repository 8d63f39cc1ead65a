package models

import "gorm.io/gorm"

// Round is one complete cycle in which every active player flips two
// cards. A game owns an ordered sequence of rounds; at most one round
// per game has Ended=false.
type Round struct {
	gorm.Model
	GameID uint `gorm:"not null;index"`
	Ended  bool `gorm:"not null;default:false;index"`

	Flips []Flip `gorm:"foreignKey:RoundID"`
}

// Flip records the card slots a player revealed in one round. At most
// one Flip exists per (player, round) pair and it holds at most two
// indexes.
type Flip struct {
	gorm.Model
	PlayerID    uint  `gorm:"not null;uniqueIndex:idx_player_round"`
	RoundID     uint  `gorm:"not null;index;uniqueIndex:idx_player_round"`
	CardIndexes []int `gorm:"serializer:json;type:jsonb;not null"`
}
