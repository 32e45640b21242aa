package bracket

import "math/bits"

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on.
// Returns 0 for n <= 0.
func BracketSize(n int) int {
	if n <= 0 {
		return 0
	}
	if IsPowerOfTwo(n) {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WinnersRounds is log2(size). size must be a power of two.
func WinnersRounds(size int) int {
	return bits.Len(uint(size)) - 1
}

// LosersRounds alternates consolidation (odd) and merge (even) rounds,
// two for every winners round after the first.
func LosersRounds(size int) int {
	if size < 4 {
		return 0
	}
	return 2 * (WinnersRounds(size) - 1)
}

// WinnersMatchesInRound halves every round, starting at size/2.
func WinnersMatchesInRound(size, round int) int {
	return size >> round
}

// DropRound is the losers round that a loser of the given winners round enters.
func DropRound(wbRound int) int {
	if wbRound == 1 {
		return 1
	}
	return (wbRound - 1) * 2
}

func LosersMatchesInRound(size, round int) int {
	switch {
	case round == 1:
		return size / 4
	case round%2 == 0:
		return size >> (round/2 + 1)
	default:
		return size >> ((round+1)/2 + 1)
	}
}
