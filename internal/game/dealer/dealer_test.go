package dealer

import (
	"sync"
	"testing"

	"CardWar/internal/game/table"
)

func seed(b byte) [32]byte {
	var s [32]byte
	s[0] = b
	return s
}

func TestNewDeck(t *testing.T) {
	d := NewDealer()
	deck := d.NewDeck()

	if len(deck) != table.DeckSize {
		t.Fatalf("expected 52 cards, got %d", len(deck))
	}
	seen := make(map[table.Card]bool)
	for _, c := range deck {
		if !c.Valid() {
			t.Fatalf("invalid card %d", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestSeedDeterminism(t *testing.T) {
	d1 := NewSeededDealer(seed(42)).NewDeck()
	d2 := NewSeededDealer(seed(42)).NewDeck()
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("expected identical decks for same seed")
		}
	}

	d3 := NewSeededDealer(seed(99)).NewDeck()
	diff := false
	for i := range d1 {
		if d1[i] != d3[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Fatalf("expected deck with different seed to differ")
	}
}

func TestDealCoversDeckExactlyOnce(t *testing.T) {
	d := NewDealer()
	for round := 0; round < 200; round++ {
		hands := d.Deal()
		if len(hands[0]) != table.HandSize || len(hands[1]) != table.HandSize {
			t.Fatalf("expected 26/26, got %d/%d", len(hands[0]), len(hands[1]))
		}
		var count [table.DeckSize]int
		for _, h := range hands {
			for _, c := range h {
				count[c]++
			}
		}
		for c, n := range count {
			if n != 1 {
				t.Fatalf("card %d dealt %d times", c, n)
			}
		}
	}
}

func TestDealHandsDoNotAlias(t *testing.T) {
	hands := NewSeededDealer(seed(1)).Deal()
	first := hands[1][0]
	hands[0] = append(hands[0], 99)
	if hands[1][0] != first {
		t.Fatalf("appending to the first hand must not overwrite the second")
	}
}

func TestConcurrentDeals(t *testing.T) {
	d := NewDealer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Deal()
			}
		}()
	}
	wg.Wait()
}
