package engine

import (
	"CardWar/internal/game/table"
	"CardWar/internal/protocol"
)

// Compare orders two cards by rank only: -1 if a ranks below b, 1 if above,
// 0 on equal rank whatever the suits.
func Compare(a, b table.Card) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// outcomes maps a comparison of seat 0's card against seat 1's card to the
// result each seat receives. Equal ranks are a plain draw for both sides.
func outcomes(cmp int) [2]protocol.Result {
	switch cmp {
	case 1:
		return [2]protocol.Result{protocol.Win, protocol.Lose}
	case -1:
		return [2]protocol.Result{protocol.Lose, protocol.Win}
	}
	return [2]protocol.Result{protocol.Draw, protocol.Draw}
}
