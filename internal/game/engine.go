package game

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"

	"matchmind/backend/internal/cards"
	"matchmind/backend/internal/models"

	"gorm.io/gorm"
)

// MatchReward is added to a player's score for each matched pair.
const MatchReward = 2

// Broadcaster delivers an event to every connection in a game's room.
// It only ever receives fully-computed snapshots, never live cache
// state.
type Broadcaster interface {
	ToRoom(gameID uint, event string, payload interface{})
}

// PlayerState is a player's share of a game snapshot.
type PlayerState struct {
	ID     uint `json:"id"`
	UserID uint `json:"userId"`
	Score  int  `json:"score"`
}

// Snapshot is the authoritative game state broadcast to a room.
type Snapshot struct {
	ID         uint              `json:"id"`
	Status     models.GameStatus `json:"status"`
	MaxPlayers int               `json:"maxPlayers"`
	Players    []PlayerState     `json:"players"`
	Cards      cards.Deck        `json:"cards"`
}

// StatePayload is the body of every game-state broadcast.
type StatePayload struct {
	State   *Snapshot `json:"state"`
	Message string    `json:"message"`
}

// Engine is the game state machine. It owns the deck cache and
// serializes every mutating operation per game, so concurrent flips on
// the same game can never corrupt round accounting.
type Engine struct {
	store     Store
	cache     *cards.Cache
	provider  cards.FaceProvider
	broadcast Broadcaster
	category  string
	newRand   func() *rand.Rand

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewEngine wires the engine to its collaborators.
func NewEngine(store Store, provider cards.FaceProvider, broadcast Broadcaster, category string) *Engine {
	return &Engine{
		store:     store,
		cache:     cards.NewCache(),
		provider:  provider,
		broadcast: broadcast,
		category:  category,
		newRand:   cards.NewDeckRand,
		locks:     make(map[uint]*sync.Mutex),
	}
}

// gameLock returns the mutex serializing all mutations of one game.
func (e *Engine) gameLock(gameID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	return l
}

// dropLock forgets a deleted game's mutex. A goroutine already blocked
// on the old mutex can race a fresh one from gameLock, but both then
// observe the missing game row and fail with NotFound; game IDs are
// never reused, so the two mutexes never guard live state.
func (e *Engine) dropLock(gameID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, gameID)
}

// StartGame fetches faces, builds and caches a shuffled deck, creates
// the game record and joins the creator. It returns the new game's ID.
func (e *Engine) StartGame(ctx context.Context, userID uint, maxPlayers int) (uint, error) {
	if maxPlayers < 1 {
		return 0, Invalidf("noOfPlayers must be at least 1")
	}

	faces, err := e.provider.FetchFaces(ctx, e.category)
	if err != nil {
		return 0, Upstreamf("fetching card faces: %v", err)
	}

	deck, err := cards.Build(faces, e.newRand())
	if err != nil {
		return 0, Upstreamf("building deck: %v", err)
	}

	game := &models.Game{
		Status:     models.StatusAwaitingPlayers,
		MaxPlayers: maxPlayers,
	}
	if err := e.store.CreateGame(ctx, game); err != nil {
		return 0, Upstreamf("creating game: %v", err)
	}

	l := e.gameLock(game.ID)
	l.Lock()
	defer l.Unlock()

	e.cache.Put(game.ID, deck)

	if err := e.join(ctx, game.ID, userID); err != nil {
		// Nobody holds a seat yet; roll back the game row, the cached
		// deck and the lock entry instead of leaving an empty game.
		if derr := e.store.DeleteGame(ctx, game.ID); derr != nil {
			log.Printf("game %d: rolling back after failed creator join: %v", game.ID, derr)
		}
		e.cache.Remove(game.ID)
		defer e.dropLock(game.ID)
		return 0, err
	}
	return game.ID, nil
}

// JoinGame adds a user to an open game. The join that fills the game
// starts it and opens the first round.
func (e *Engine) JoinGame(ctx context.Context, gameID, userID uint) error {
	l := e.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	return e.join(ctx, gameID, userID)
}

func (e *Engine) join(ctx context.Context, gameID, userID uint) error {
	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	if len(game.Players) >= game.MaxPlayers {
		return Conflictf("game is already full")
	}

	if _, err := e.cache.Get(gameID); err != nil {
		return Upstreamf("game %d has no cached deck", gameID)
	}

	player := &models.Player{GameID: gameID, UserID: userID}
	if err := e.store.CreatePlayer(ctx, player); err != nil {
		return Upstreamf("creating player: %v", err)
	}

	// This join fills the game: start it and open round 1.
	if len(game.Players)+1 >= game.MaxPlayers {
		if err := e.store.SetGameStatus(ctx, gameID, models.StatusGameStarted); err != nil {
			return Upstreamf("starting game: %v", err)
		}
		if err := e.store.CreateRound(ctx, &models.Round{GameID: gameID}); err != nil {
			return Upstreamf("creating first round: %v", err)
		}
	}
	return nil
}

// FlipCard opens a card for a player in the active round, detects a
// pair on the player's second flip and runs the round-completion
// check. Flips on an ended or disabled game are silent no-ops.
func (e *Engine) FlipCard(ctx context.Context, gameID, userID uint, cardIndex int) error {
	l := e.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	player := findPlayer(game, userID)
	if player == nil {
		return NotFoundf("player is not a member of this game")
	}

	if game.Status != models.StatusGameStarted || game.IsDisabled {
		return nil
	}

	deck, err := e.cache.Get(gameID)
	if err != nil {
		return Upstreamf("game %d has no cached deck", gameID)
	}

	if cardIndex < 0 || cardIndex >= len(deck) {
		return NotFoundf("card index %d is out of range", cardIndex)
	}
	if deck[cardIndex].IsOpen {
		return Conflictf("card is already open")
	}

	round, err := e.store.ActiveRound(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("no active round")
		}
		return Upstreamf("loading active round: %v", err)
	}

	flip, err := e.store.FlipByPlayerRound(ctx, player.ID, round.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		flip = &models.Flip{PlayerID: player.ID, RoundID: round.ID, CardIndexes: []int{cardIndex}}
		if err := e.store.CreateFlip(ctx, flip); err != nil {
			return Upstreamf("recording flip: %v", err)
		}
	case err != nil:
		return Upstreamf("loading flip: %v", err)
	case len(flip.CardIndexes) < 2:
		if err := e.store.SetFlipIndexes(ctx, flip.ID, append(flip.CardIndexes, cardIndex)); err != nil {
			return Upstreamf("recording flip: %v", err)
		}
	default:
		return Conflictf("both cards already revealed this round")
	}

	// Re-read the flip record so match detection never acts on a stale
	// local copy.
	flip, err = e.store.FlipByPlayerRound(ctx, player.ID, round.ID)
	if err != nil {
		return Upstreamf("reloading flip: %v", err)
	}

	deck[cardIndex].IsOpen = true
	deck[cardIndex].UserID = userID
	e.cache.Put(gameID, deck)

	if len(flip.CardIndexes) == 2 {
		first, second := flip.CardIndexes[0], flip.CardIndexes[1]
		if deck[first].URL == deck[second].URL {
			deck[first].IsMatched = true
			deck[second].IsMatched = true
			e.cache.Put(gameID, deck)

			if err := e.store.AddScore(ctx, player.ID, MatchReward); err != nil {
				return Upstreamf("updating score: %v", err)
			}

			e.broadcastState(ctx, gameID, "card match found")
		}
	}

	return e.checkRoundCompletion(ctx, gameID, round.ID)
}

// checkRoundCompletion ends the active round once cumulative reveals
// reach two per player, exactly once per round.
func (e *Engine) checkRoundCompletion(ctx context.Context, gameID, roundID uint) error {
	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	round, err := e.store.ActiveRound(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("no active round")
		}
		return Upstreamf("loading active round: %v", err)
	}
	if round.ID != roundID {
		return nil
	}

	revealed := 0
	for _, flip := range round.Flips {
		revealed += len(flip.CardIndexes)
	}

	if revealed < len(game.Players)*2 {
		return nil
	}
	return e.nextRound(ctx, game, round)
}

// nextRound closes the completed round, then either opens a new one or
// ends the game when every card has been matched.
func (e *Engine) nextRound(ctx context.Context, game *models.Game, round *models.Round) error {
	if err := e.store.EndRound(ctx, round.ID); err != nil {
		return Upstreamf("ending round: %v", err)
	}

	deck, err := e.cache.Get(game.ID)
	if err != nil {
		return Upstreamf("game %d has no cached deck", game.ID)
	}

	if deck.AllMatched() {
		if err := e.store.SetGameStatus(ctx, game.ID, models.StatusGameEnded); err != nil {
			return Upstreamf("ending game: %v", err)
		}
		e.settleStats(ctx, game)
		e.broadcastState(ctx, game.ID, "game ended")
		return nil
	}

	if err := e.store.CreateRound(ctx, &models.Round{GameID: game.ID}); err != nil {
		return Upstreamf("creating round: %v", err)
	}
	e.broadcastState(ctx, game.ID, "new round")
	return nil
}

// settleStats writes lifetime aggregates at game end. Every player
// with the top score counts as a winner.
func (e *Engine) settleStats(ctx context.Context, game *models.Game) {
	maxScore := 0
	for _, p := range game.Players {
		if p.Score > maxScore {
			maxScore = p.Score
		}
	}

	for _, p := range game.Players {
		var err error
		if p.Score == maxScore {
			err = e.store.RecordWin(ctx, p.UserID, p.Score)
		} else {
			err = e.store.RecordLoss(ctx, p.UserID)
		}
		if err != nil {
			log.Printf("game %d: updating stats for user %d: %v", game.ID, p.UserID, err)
		}
	}
}

// LeaveGame removes a player. The last player leaving deletes the game
// together with its cached deck.
func (e *Engine) LeaveGame(ctx context.Context, gameID, userID uint) error {
	l := e.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	player := findPlayer(game, userID)
	if player == nil {
		return NotFoundf("player is not a member of this game")
	}

	if err := e.store.DeletePlayer(ctx, player.ID); err != nil {
		return Upstreamf("removing player: %v", err)
	}

	if len(game.Players) == 1 {
		if err := e.store.DeleteGame(ctx, gameID); err != nil {
			return Upstreamf("removing game: %v", err)
		}
		e.cache.Remove(gameID)
		defer e.dropLock(gameID)
		return nil
	}

	// The departed player's pending flips no longer count toward the
	// round, so the remaining players may already have spent theirs.
	if game.Status == models.StatusGameStarted {
		round, err := e.store.ActiveRound(ctx, gameID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return Upstreamf("loading active round: %v", err)
		default:
			return e.checkRoundCompletion(ctx, gameID, round.ID)
		}
	}
	return nil
}

// HandleDisconnect treats a dropped connection as a leave for every
// game the user occupies.
func (e *Engine) HandleDisconnect(ctx context.Context, userID uint) {
	games, err := e.store.GamesByUser(ctx, userID)
	if err != nil {
		log.Printf("disconnect: loading games for user %d: %v", userID, err)
		return
	}

	for _, game := range games {
		if err := e.LeaveGame(ctx, game.ID, userID); err != nil {
			log.Printf("disconnect: leaving game %d for user %d: %v", game.ID, userID, err)
		}
	}
}

// SendMessage persists a chat message and broadcasts it to the room.
func (e *Engine) SendMessage(ctx context.Context, gameID, userID uint, text string) error {
	l := e.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	player := findPlayer(game, userID)
	if player == nil {
		return NotFoundf("player is not a member of this game")
	}

	message := &models.Message{GameID: gameID, PlayerID: player.ID, Text: text}
	if err := e.store.CreateMessage(ctx, message); err != nil {
		return Upstreamf("saving message: %v", err)
	}

	e.broadcast.ToRoom(gameID, "in-game-message", map[string]string{"message": text})
	return nil
}

// GameState assembles a snapshot of the game and its deck. A missing
// deck for an existing game is an invariant violation, not a silent
// miss.
func (e *Engine) GameState(ctx context.Context, gameID uint) (*Snapshot, error) {
	l := e.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	return e.gameState(ctx, gameID)
}

func (e *Engine) gameState(ctx context.Context, gameID uint) (*Snapshot, error) {
	game, err := e.fetchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return e.snapshot(game)
}

func (e *Engine) snapshot(game *models.Game) (*Snapshot, error) {
	deck, err := e.cache.Get(game.ID)
	if err != nil {
		return nil, Upstreamf("game %d has no cached deck", game.ID)
	}

	players := make([]PlayerState, 0, len(game.Players))
	for _, p := range game.Players {
		players = append(players, PlayerState{ID: p.ID, UserID: p.UserID, Score: p.Score})
	}

	// Copy the deck so the broadcast sink never sees later mutations.
	snapDeck := make(cards.Deck, len(deck))
	copy(snapDeck, deck)

	return &Snapshot{
		ID:         game.ID,
		Status:     game.Status,
		MaxPlayers: game.MaxPlayers,
		Players:    players,
		Cards:      snapDeck,
	}, nil
}

// broadcastState runs inside the caller's game lock.
func (e *Engine) broadcastState(ctx context.Context, gameID uint, message string) {
	snap, err := e.gameState(ctx, gameID)
	if err != nil {
		log.Printf("game %d: building state broadcast: %v", gameID, err)
		return
	}
	e.broadcast.ToRoom(gameID, "game-state", StatePayload{State: snap, Message: message})
}

func (e *Engine) fetchGame(ctx context.Context, gameID uint) (*models.Game, error) {
	game, err := e.store.GameByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("game not found")
		}
		return nil, Upstreamf("loading game: %v", err)
	}
	return game, nil
}

func findPlayer(game *models.Game, userID uint) *models.Player {
	for i := range game.Players {
		if game.Players[i].UserID == userID {
			return &game.Players[i]
		}
	}
	return nil
}
