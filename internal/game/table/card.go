package table

import "fmt"

const (
	DeckSize = 52
	HandSize = DeckSize / 2
	NumRanks = 13
)

// Card is a card code 0..51. Rank 0 is a two and rank 12 an ace; the suit
// never takes part in a comparison.
type Card uint8

func (c Card) Rank() int { return int(c) % NumRanks }

func (c Card) Suit() int { return int(c) / NumRanks }

func (c Card) Valid() bool { return int(c) < DeckSize }

func (c Card) String() string {
	return fmtCard(c)
}

func fmtCard(c Card) string {
	if !c.Valid() {
		return fmt.Sprintf("card(%d)", uint8(c))
	}
	suits := []string{"♣", "♦", "♥", "♠"}
	ranks := map[int]string{
		9:  "J",
		10: "Q",
		11: "K",
		12: "A",
	}
	rankStr, ok := ranks[c.Rank()]
	if !ok {
		rankStr = fmt.Sprintf("%d", c.Rank()+2)
	}
	return rankStr + suits[c.Suit()]
}

// Deck returns the 52 canonical card codes in order.
func Deck() []Card {
	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}
