package dealer

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"

	"CardWar/internal/game/table"
)

// Dealer shuffles and splits decks. It knows nothing about the rules.
// Safe for concurrent use.
type Dealer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDealer returns a dealer whose ChaCha8 stream is seeded from the
// operating system's entropy source.
func NewDealer() *Dealer {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return NewSeededDealer(seed)
}

// NewSeededDealer is deterministic for a given seed.
func NewSeededDealer(seed [32]byte) *Dealer {
	return &Dealer{rnd: rand.New(rand.NewChaCha8(seed))}
}

// NewDeck returns the 52 card codes uniformly shuffled.
func (d *Dealer) NewDeck() []table.Card {
	deck := table.Deck()
	d.mu.Lock()
	d.rnd.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	d.mu.Unlock()
	return deck
}

// Deal shuffles a fresh deck and splits it into two 26-card hands.
func (d *Dealer) Deal() [2][]table.Card {
	deck := d.NewDeck()
	return [2][]table.Card{deck[:table.HandSize:table.HandSize], deck[table.HandSize:]}
}
