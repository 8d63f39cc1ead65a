package models

import "gorm.io/gorm"

type GameStatus string

const (
	StatusAwaitingPlayers GameStatus = "awaiting-players"
	StatusGameStarted     GameStatus = "game-started"
	StatusGameEnded       GameStatus = "game-ended"
)

// Game represents one memory-match session. Its lifecycle is linear:
// awaiting-players -> game-started -> game-ended.
type Game struct {
	gorm.Model
	Status     GameStatus `gorm:"size:50;not null;default:'awaiting-players';index"`
	MaxPlayers int        `gorm:"not null;default:2"`
	IsDisabled bool       `gorm:"not null;default:false"`

	Players  []Player  `gorm:"foreignKey:GameID"`
	Rounds   []Round   `gorm:"foreignKey:GameID"`
	Messages []Message `gorm:"foreignKey:GameID"`
}

// Player is a user's seat in one game. Deleted when the user leaves
// or disconnects.
type Player struct {
	gorm.Model
	GameID uint `gorm:"not null;index;uniqueIndex:idx_game_user"`
	UserID uint `gorm:"not null;index;uniqueIndex:idx_game_user"`
	Score  int  `gorm:"not null;default:0"`

	Flips []Flip `gorm:"foreignKey:PlayerID"`
}
