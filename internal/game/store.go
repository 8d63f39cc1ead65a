package game

import (
	"context"
	"math"
	"time"

	"matchmind/backend/internal/models"

	"gorm.io/gorm"
)

// Every persistence call runs under this deadline; expiry surfaces as
// an Upstream error, never a crash.
const storeTimeout = 5 * time.Second

// Store is the persistence collaborator consumed by the engine. A gorm
// implementation backs production; tests substitute an in-memory one.
type Store interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GameByID(ctx context.Context, id uint) (*models.Game, error)
	GamesByUser(ctx context.Context, userID uint) ([]models.Game, error)
	SetGameStatus(ctx context.Context, id uint, status models.GameStatus) error
	DeleteGame(ctx context.Context, id uint) error

	CreatePlayer(ctx context.Context, player *models.Player) error
	DeletePlayer(ctx context.Context, id uint) error
	AddScore(ctx context.Context, playerID uint, delta int) error

	CreateRound(ctx context.Context, round *models.Round) error
	ActiveRound(ctx context.Context, gameID uint) (*models.Round, error)
	EndRound(ctx context.Context, id uint) error

	FlipByPlayerRound(ctx context.Context, playerID, roundID uint) (*models.Flip, error)
	CreateFlip(ctx context.Context, flip *models.Flip) error
	SetFlipIndexes(ctx context.Context, id uint, indexes []int) error

	CreateMessage(ctx context.Context, message *models.Message) error

	RecordWin(ctx context.Context, userID uint, points int) error
	RecordLoss(ctx context.Context, userID uint) error
}

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db in a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ctx(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	return s.db.WithContext(ctx), cancel
}

func (s *GormStore) CreateGame(ctx context.Context, game *models.Game) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Create(game).Error
}

func (s *GormStore) GameByID(ctx context.Context, id uint) (*models.Game, error) {
	db, cancel := s.ctx(ctx)
	defer cancel()

	var game models.Game
	if err := db.Preload("Players").Preload("Rounds").First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GormStore) GamesByUser(ctx context.Context, userID uint) ([]models.Game, error) {
	db, cancel := s.ctx(ctx)
	defer cancel()

	var games []models.Game
	err := db.Preload("Players").
		Joins("JOIN players ON players.game_id = games.id AND players.deleted_at IS NULL").
		Where("players.user_id = ?", userID).
		Group("games.id").
		Find(&games).Error
	return games, err
}

func (s *GormStore) SetGameStatus(ctx context.Context, id uint, status models.GameStatus) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Model(&models.Game{}).Where("id = ?", id).Update("status", status).Error
}

// DeleteGame removes a game and everything it owns in one transaction.
func (s *GormStore) DeleteGame(ctx context.Context, id uint) error {
	db, cancel := s.ctx(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		var roundIDs []uint
		if err := tx.Model(&models.Round{}).Where("game_id = ?", id).Pluck("id", &roundIDs).Error; err != nil {
			return err
		}
		if len(roundIDs) > 0 {
			if err := tx.Where("round_id IN ?", roundIDs).Delete(&models.Flip{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Round{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Game{}, id).Error
	})
}

func (s *GormStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Create(player).Error
}

// DeletePlayer removes a player and its flip records so no flip ever
// references a missing player.
func (s *GormStore) DeletePlayer(ctx context.Context, id uint) error {
	db, cancel := s.ctx(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ?", id).Delete(&models.Flip{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Player{}, id).Error
	})
}

func (s *GormStore) AddScore(ctx context.Context, playerID uint, delta int) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("score", gorm.Expr("score + ?", delta)).Error
}

func (s *GormStore) CreateRound(ctx context.Context, round *models.Round) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Create(round).Error
}

func (s *GormStore) ActiveRound(ctx context.Context, gameID uint) (*models.Round, error) {
	db, cancel := s.ctx(ctx)
	defer cancel()

	var round models.Round
	err := db.Preload("Flips").
		Where("game_id = ? AND ended = ?", gameID, false).
		Order("id").
		First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *GormStore) EndRound(ctx context.Context, id uint) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Model(&models.Round{}).Where("id = ?", id).Update("ended", true).Error
}

func (s *GormStore) FlipByPlayerRound(ctx context.Context, playerID, roundID uint) (*models.Flip, error) {
	db, cancel := s.ctx(ctx)
	defer cancel()

	var flip models.Flip
	err := db.Where("player_id = ? AND round_id = ?", playerID, roundID).First(&flip).Error
	if err != nil {
		return nil, err
	}
	return &flip, nil
}

func (s *GormStore) CreateFlip(ctx context.Context, flip *models.Flip) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Create(flip).Error
}

func (s *GormStore) SetFlipIndexes(ctx context.Context, id uint, indexes []int) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Model(&models.Flip{}).Where("id = ?", id).Update("card_indexes", indexes).Error
}

func (s *GormStore) CreateMessage(ctx context.Context, message *models.Message) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Create(message).Error
}

func (s *GormStore) RecordWin(ctx context.Context, userID uint, points int) error {
	db, cancel := s.ctx(ctx)
	defer cancel()

	xp := int(math.Sqrt(float64(points)))
	return db.Model(&models.Stat{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"total_wins":   gorm.Expr("total_wins + 1"),
		"total_points": gorm.Expr("total_points + ?", points),
		"xp":           gorm.Expr("xp + ?", xp),
	}).Error
}

func (s *GormStore) RecordLoss(ctx context.Context, userID uint) error {
	db, cancel := s.ctx(ctx)
	defer cancel()
	return db.Model(&models.Stat{}).Where("user_id = ?", userID).
		Update("total_losses", gorm.Expr("total_losses + 1")).Error
}
