// Package analyzer scores free-form text for scam risk using a fixed,
// explainable keyword/pattern heuristic. Scoring is pure: no I/O, no
// shared state, deterministic for identical input.
package analyzer

import "strings"

// Score analyzes text and returns a bounded risk score with the
// indicators that produced it.
//
// Each category contributes its weight at most once no matter how many
// of its terms match, the total is clamped to [0, MaxScore], and the
// level is derived solely from the clamped score. Matching is substring
// containment, not word-boundary: "urgentism" still triggers "urgent".
// That permissiveness is intentional and kept for compatibility with
// existing stored results.
func Score(text string) Result {
	lower := strings.ToLower(text)

	score := 0
	indicators := make([]Indicator, 0, len(categories))

	for _, cat := range categories {
		if cat.pattern != nil {
			if cat.pattern.MatchString(text) {
				score += cat.weight
				indicators = append(indicators, Indicator{Key: cat.key, Description: cat.label})
			}
			continue
		}

		var found []string
		for _, term := range cat.terms {
			if strings.Contains(lower, term) {
				found = append(found, term)
			}
		}
		if len(found) > 0 {
			score += cat.weight
			indicators = append(indicators, Indicator{
				Key:         cat.key,
				Description: cat.label + ": " + strings.Join(found, ", "),
			})
		}
	}

	if score > MaxScore {
		score = MaxScore
	}

	return Result{
		Score:      score,
		Level:      LevelForScore(score),
		Indicators: indicators,
	}
}
