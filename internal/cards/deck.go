package cards

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// CardState is the live, cache-only state of one deck slot. Two slots
// share the same URL per distinct face.
type CardState struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	UserID    uint   `json:"userId,omitempty"`
	IsOpen    bool   `json:"isOpen"`
	IsMatched bool   `json:"isMatched"`
}

// Deck is the ordered sequence of card states for one game.
type Deck []CardState

// NewDeckRand returns a rand.Rand seeded from crypto/rand.
func NewDeckRand() *rand.Rand {
	var seed int64
	if err := binary.Read(crand.Reader, binary.LittleEndian, &seed); err != nil {
		panic(fmt.Sprintf("cards: seeding random source: %v", err))
	}
	return rand.New(rand.NewSource(seed))
}

// Build doubles the face list, shuffles it with an unbiased
// Fisher-Yates pass over rng, and assigns each slot a per-deck card
// identity so the two copies of a face stay distinguishable.
func Build(faces []Face, rng *rand.Rand) (Deck, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("cards: a deck needs at least one face")
	}

	doubled := make([]Face, 0, len(faces)*2)
	doubled = append(doubled, faces...)
	doubled = append(doubled, faces...)

	for i := len(doubled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		doubled[i], doubled[j] = doubled[j], doubled[i]
	}

	deck := make(Deck, len(doubled))
	for i, face := range doubled {
		deck[i] = CardState{
			ID:  fmt.Sprintf("%s%d", face.ID, i),
			URL: face.URL,
		}
	}

	return deck, nil
}

// AllMatched reports whether every slot in the deck has been matched.
func (d Deck) AllMatched() bool {
	for _, card := range d {
		if !card.IsMatched {
			return false
		}
	}
	return true
}
