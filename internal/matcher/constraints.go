package matcher

import "github.com/mselser95/arb-scanner/internal/keyword"

var exitWords = keyword.NewSet(
	"out", "leave", "resign", "removed", "fired", "ousted",
	"impeach", "depart", "step", "quit",
)

var stayWords = keyword.NewSet(
	"remain", "stay", "continue", "retain", "keep", "hold", "serve",
	"reelect", "win",
)

// passesHardConstraints applies the four hard constraints from the
// automatic matching tier. Any one failing rejects the pair outright —
// the caller must treat the pair's similarity as zero without computing
// anything further. On rejection it returns the constraint name for
// diagnostics.
func passesHardConstraints(a, b keyword.Tokens) (bool, string) {
	if yearDisjoint(a, b) {
		return false, "year_disjoint"
	}
	if priceDisjoint(a, b) {
		return false, "price_disjoint"
	}
	if coreWordDisjoint(a, b) {
		return false, "core_word_disjoint"
	}
	if directionalReversal(a, b) {
		return false, "directional_reversal"
	}
	return true, ""
}

func yearDisjoint(a, b keyword.Tokens) bool {
	if len(a.Years) == 0 || len(b.Years) == 0 {
		return false
	}
	return a.Years.Disjoint(b.Years)
}

func priceDisjoint(a, b keyword.Tokens) bool {
	if len(a.Prices) == 0 || len(b.Prices) == 0 {
		return false
	}
	return a.Prices.Disjoint(b.Prices)
}

func coreWordDisjoint(a, b keyword.Tokens) bool {
	ca, cb := a.CoreWords(), b.CoreWords()
	if len(ca) < 2 || len(cb) < 2 {
		return false
	}
	return ca.Disjoint(cb)
}

// directionalReversal blocks pairs that share an entity but carry
// opposite lexical polarity ("Trump out by March?" vs. "Will Trump
// remain president?").
func directionalReversal(a, b keyword.Tokens) bool {
	if !a.Entities.Intersects(b.Entities) {
		return false
	}

	aExit, aStay := a.Words.Intersects(exitWords), a.Words.Intersects(stayWords)
	bExit, bStay := b.Words.Intersects(exitWords), b.Words.Intersects(stayWords)

	if (aExit && bStay) || (aStay && bExit) {
		return true
	}
	return false
}
