package cards

import "fmt"

// ErrDeckNotFound is returned when no deck is cached for a game.
var ErrDeckNotFound = fmt.Errorf("cards: no deck cached for game")

// Cache is the process-local store of live decks keyed by game ID.
// It is not safe for concurrent use on its own: all access must run
// under the engine's per-game lock. An entry exists exactly as long as
// the owning game exists in the database.
type Cache struct {
	decks map[uint]Deck
}

// NewCache creates an empty deck cache.
func NewCache() *Cache {
	return &Cache{decks: make(map[uint]Deck)}
}

// Put stores the deck for a game, replacing any previous entry.
func (c *Cache) Put(gameID uint, deck Deck) {
	c.decks[gameID] = deck
}

// Get returns the deck for a game, or ErrDeckNotFound.
func (c *Cache) Get(gameID uint) (Deck, error) {
	deck, ok := c.decks[gameID]
	if !ok {
		return nil, ErrDeckNotFound
	}
	return deck, nil
}

// Remove drops the deck for a game. Removing an absent entry is a
// no-op.
func (c *Cache) Remove(gameID uint) {
	delete(c.decks, gameID)
}

// Len returns the number of cached decks.
func (c *Cache) Len() int {
	return len(c.decks)
}
