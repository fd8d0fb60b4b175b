// similarity.go implements the ratio-based sequence-matching score used by
// fuzzy name lookup: 2*M/T, where M is the number of characters in the
// longest common subsequence and T is the sum of the two lengths. The exact
// formula is part of the contract so that lookup results are reproducible.

package graph

// SimilarityRatio returns the sequence-matching ratio of a and b in [0, 1].
// Identical strings score 1.0; strings with no characters in common score 0.
// Two empty strings are considered identical.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(lcsLength(ra, rb)) / float64(total)
}

// lcsLength computes the longest-common-subsequence length with a rolling
// single-row table, O(len(a)*len(b)) time and O(min) space.
func lcsLength(a, b []rune) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	if len(a) == 0 {
		return 0
	}

	row := make([]int, len(a)+1)
	for _, cb := range b {
		prev := 0 // row[i-1] from the previous iteration
		for i, ca := range a {
			cur := row[i+1]
			if ca == cb {
				row[i+1] = prev + 1
			} else if row[i] > row[i+1] {
				row[i+1] = row[i]
			}
			prev = cur
		}
	}
	return row[len(a)]
}
