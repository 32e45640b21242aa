package bracket

// SeedPairing returns the round 1 pairs as 1-based seeds: 1 vs N, 2 vs N-1 and so on.
func SeedPairing(size int) [][2]int {
	pairs := make([][2]int, 0, size/2)
	for i := 1; i <= size/2; i++ {
		pairs = append(pairs, [2]int{i, size + 1 - i})
	}
	return pairs
}
