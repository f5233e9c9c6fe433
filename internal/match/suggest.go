package match

import "sheetgraph/internal/naming"

// MinSimilarity is the score below which Closest gives no suggestion.
const MinSimilarity = 0.5

// Closest returns the candidate most similar to name after normalizing both.
// Ties go to the earlier candidate. It reports false when no candidate
// reaches MinSimilarity or name matches a candidate exactly.
func Closest(name string, candidates []string) (string, bool) {
	target := naming.Normalize(name)

	var (
		best      string
		bestScore float64
	)

	for _, c := range candidates {
		norm := naming.Normalize(c)
		if norm == target {
			return "", false
		}

		if score := Similarity(target, norm); score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < MinSimilarity {
		return "", false
	}

	return best, true
}
