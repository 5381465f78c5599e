package matcher

import "github.com/mselser95/arb-scanner/internal/keyword"

const (
	weightEntities = 0.25
	weightNumbers  = 0.20
	weightWords    = 0.35
	weightString   = 0.20

	// earlyExitThreshold: below this running score after the cheap
	// set-based components, skip the LCS string-similarity step.
	earlyExitThreshold = 0.15
)

// nonYearPriceNumbers returns numeric tokens excluding year_* and
// price_* — the "numbers" Jaccard component only considers things like
// percent_* and any other numeric token family.
func nonYearPriceNumbers(t keyword.Tokens) keyword.Set {
	return t.Numbers.Minus(t.Years).Minus(t.Prices)
}

// similarity computes the weighted score between two markets' tokens.
// Callers must have already checked passesHardConstraints.
func similarity(a, b keyword.Tokens) float64 {
	entityScore := a.Entities.Jaccard(b.Entities) * weightEntities
	numberScore := nonYearPriceNumbers(a).Jaccard(nonYearPriceNumbers(b)) * weightNumbers
	wordScore := a.Words.Jaccard(b.Words) * weightWords

	running := entityScore + numberScore + wordScore
	if running < earlyExitThreshold {
		return capScore(running)
	}

	stringScore := lcsRatio(a.Normalized, b.Normalized) * weightString
	return capScore(running + stringScore)
}

func capScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}
