package similarity

// Ratio returns the normalized edit similarity of a and b in [0, 1]:
// (max(len) - distance) / max(len), computed over runes.
// Two empty strings are identical; one empty string scores 0.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	longest := max(len(ra), len(rb))
	d := distance(ra, rb)
	return float64(longest-d) / float64(longest)
}

// distance is the unit-cost Levenshtein distance. The row is sized on the
// shorter input so the result does not depend on argument order.
func distance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
