package game

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"matchmind/backend/internal/models"

	"gorm.io/gorm"
)

// memStore is an in-memory Store used by the engine tests.
type memStore struct {
	mu sync.Mutex

	nextID   uint
	games    map[uint]*models.Game
	players  map[uint]*models.Player
	rounds   map[uint]*models.Round
	flips    map[uint]*models.Flip
	messages []*models.Message
	stats    map[uint]*models.Stat

	failAll          bool
	failCreatePlayer bool
}

func newMemStore() *memStore {
	return &memStore{
		games:   make(map[uint]*models.Game),
		players: make(map[uint]*models.Player),
		rounds:  make(map[uint]*models.Round),
		flips:   make(map[uint]*models.Flip),
		stats:   make(map[uint]*models.Stat),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) err() error {
	if s.failAll {
		return fmt.Errorf("store unavailable")
	}
	return nil
}

func (s *memStore) CreateGame(_ context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	game.ID = s.id()
	stored := *game
	s.games[game.ID] = &stored
	return nil
}

func (s *memStore) GameByID(_ context.Context, id uint) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}

	stored, ok := s.games[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	game := *stored
	game.Players = s.playersOf(id)
	game.Rounds = s.roundsOf(id)
	return &game, nil
}

func (s *memStore) playersOf(gameID uint) []models.Player {
	var players []models.Player
	for _, p := range s.players {
		if p.GameID == gameID {
			players = append(players, *p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

func (s *memStore) roundsOf(gameID uint) []models.Round {
	var rounds []models.Round
	for _, r := range s.rounds {
		if r.GameID == gameID {
			rounds = append(rounds, *r)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID < rounds[j].ID })
	return rounds
}

func (s *memStore) GamesByUser(_ context.Context, userID uint) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}

	var games []models.Game
	for id, stored := range s.games {
		for _, p := range s.playersOf(id) {
			if p.UserID == userID {
				game := *stored
				game.Players = s.playersOf(id)
				games = append(games, game)
				break
			}
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (s *memStore) SetGameStatus(_ context.Context, id uint, status models.GameStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	game, ok := s.games[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	game.Status = status
	return nil
}

func (s *memStore) DeleteGame(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	for rid, r := range s.rounds {
		if r.GameID == id {
			for fid, f := range s.flips {
				if f.RoundID == rid {
					delete(s.flips, fid)
				}
			}
			delete(s.rounds, rid)
		}
	}
	for pid, p := range s.players {
		if p.GameID == id {
			delete(s.players, pid)
		}
	}
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.GameID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	delete(s.games, id)
	return nil
}

func (s *memStore) CreatePlayer(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}
	if s.failCreatePlayer {
		return fmt.Errorf("store unavailable")
	}

	player.ID = s.id()
	stored := *player
	s.players[player.ID] = &stored
	return nil
}

func (s *memStore) DeletePlayer(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	for fid, f := range s.flips {
		if f.PlayerID == id {
			delete(s.flips, fid)
		}
	}
	delete(s.players, id)
	return nil
}

func (s *memStore) AddScore(_ context.Context, playerID uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	player, ok := s.players[playerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	player.Score += delta
	return nil
}

func (s *memStore) CreateRound(_ context.Context, round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	round.ID = s.id()
	stored := *round
	s.rounds[round.ID] = &stored
	return nil
}

func (s *memStore) ActiveRound(_ context.Context, gameID uint) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}

	var active *models.Round
	for _, r := range s.rounds {
		if r.GameID == gameID && !r.Ended {
			if active == nil || r.ID < active.ID {
				active = r
			}
		}
	}
	if active == nil {
		return nil, gorm.ErrRecordNotFound
	}

	round := *active
	for _, f := range s.flips {
		if f.RoundID == round.ID {
			round.Flips = append(round.Flips, *f)
		}
	}
	sort.Slice(round.Flips, func(i, j int) bool { return round.Flips[i].ID < round.Flips[j].ID })
	return &round, nil
}

func (s *memStore) EndRound(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	round, ok := s.rounds[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	round.Ended = true
	return nil
}

func (s *memStore) FlipByPlayerRound(_ context.Context, playerID, roundID uint) (*models.Flip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}

	for _, f := range s.flips {
		if f.PlayerID == playerID && f.RoundID == roundID {
			flip := *f
			flip.CardIndexes = append([]int(nil), f.CardIndexes...)
			return &flip, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateFlip(_ context.Context, flip *models.Flip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	flip.ID = s.id()
	stored := *flip
	stored.CardIndexes = append([]int(nil), flip.CardIndexes...)
	s.flips[flip.ID] = &stored
	return nil
}

func (s *memStore) SetFlipIndexes(_ context.Context, id uint, indexes []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	flip, ok := s.flips[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	flip.CardIndexes = append([]int(nil), indexes...)
	return nil
}

func (s *memStore) CreateMessage(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	message.ID = s.id()
	stored := *message
	s.messages = append(s.messages, &stored)
	return nil
}

func (s *memStore) stat(userID uint) *models.Stat {
	st, ok := s.stats[userID]
	if !ok {
		st = &models.Stat{UserID: userID}
		s.stats[userID] = st
	}
	return st
}

func (s *memStore) RecordWin(_ context.Context, userID uint, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	st := s.stat(userID)
	st.TotalWins++
	st.TotalPoints += points
	st.XP += int(math.Sqrt(float64(points)))
	return nil
}

func (s *memStore) RecordLoss(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}

	s.stat(userID).TotalLosses++
	return nil
}
