// Package arbitrage implements the sum-less-than-one test over a matched
// pair's top-of-book quotes and materializes Opportunity records.
package arbitrage

import (
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/shopspring/decimal"
)

// Config holds the evaluator's fee and threshold parameters.
type Config struct {
	ThresholdPct      float64       // minimum net edge percentage to emit
	FeePerLeg         float64       // fraction, default 0.005
	DerivedPenaltyPct float64       // added to the effective threshold when either leg is derived
	MaxEndTimeGap     time.Duration // pairs whose end_time differ by more than this are skipped entirely
}

// DefaultConfig mirrors the spec's defaults.
func DefaultConfig() Config {
	return Config{
		ThresholdPct:      2.0,
		FeePerLeg:         0.005,
		DerivedPenaltyPct: 1.0,
		MaxEndTimeGap:     30 * 24 * time.Hour,
	}
}

// Evaluate runs both directional tests on a matched pair and returns the
// better-scoring Opportunity, or nil if neither direction clears the
// effective threshold or the pair is unevaluable.
func Evaluate(pair types.MatchPair, cfg Config) *Opportunity {
	start := time.Now()
	defer func() { EvaluationDurationSeconds.Observe(time.Since(start).Seconds()) }()

	a, b := pair.A, pair.B

	if !a.EndTime.IsZero() && !b.EndTime.IsZero() {
		gap := a.EndTime.Sub(b.EndTime)
		if gap < 0 {
			gap = -gap
		}
		if gap > cfg.MaxEndTimeGap {
			EvaluatorSkipTotal.WithLabelValues("end_time_gap").Inc()
			return nil
		}
	}

	effectiveThreshold := cfg.ThresholdPct
	if a.Derived || b.Derived {
		effectiveThreshold += cfg.DerivedPenaltyPct
		DerivedPenaltyAppliedTotal.Inc()
	}

	var best *Opportunity

	if validAsk(a.YesAsk) && validAsk(b.NoAsk) {
		combined, edge := combinedAndEdge(a.YesAsk, b.NoAsk, cfg.FeePerLeg)
		if edge >= effectiveThreshold {
			opp := newOpportunity(pair, types.DirectionAYesBNo, combined, edge)
			best = opp
		}
	} else {
		EvaluatorSkipTotal.WithLabelValues("invalid_quote").Inc()
	}

	if validAsk(b.YesAsk) && validAsk(a.NoAsk) {
		combined, edge := combinedAndEdge(b.YesAsk, a.NoAsk, cfg.FeePerLeg)
		if edge >= effectiveThreshold {
			if best == nil || edge > best.EdgePct {
				best = newOpportunity(pair, types.DirectionBYesANo, combined, edge)
			}
		}
	} else {
		EvaluatorSkipTotal.WithLabelValues("invalid_quote").Inc()
	}

	if best != nil {
		OpportunitiesEmittedTotal.WithLabelValues(string(best.Direction)).Inc()
		EdgePctHistogram.Observe(best.EdgePct)
	}

	return best
}

func validAsk(price float64) bool {
	return price > 0 && price < 1
}

// combinedAndEdge runs the sum-less-than-one test in decimal arithmetic so
// the threshold comparison never drifts on float64 rounding, then returns
// float64 for the rest of the pipeline (display, storage, JSON).
func combinedAndEdge(askYes, askNo, feePerLeg float64) (combined, edgePct float64) {
	yes := decimal.NewFromFloat(askYes)
	no := decimal.NewFromFloat(askNo)
	fee := decimal.NewFromFloat(feePerLeg)
	hundred := decimal.NewFromInt(100)

	sum := yes.Add(no)
	edge := decimal.NewFromInt(1).Sub(sum).Sub(fee.Mul(decimal.NewFromInt(2))).Mul(hundred)

	c, _ := sum.Float64()
	e, _ := edge.Float64()
	return c, e
}
