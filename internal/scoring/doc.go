// Package scoring provides the deterministic base-score calculation
// for content records, with calibration support for the editorial
// grade weighting.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := scoring.LoadCalibration("configs/scoring.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Compute the base rank score for a record
//	score := scoring.ScoreWith(record, time.Now(), weights)
//
// Score is a pure function: no I/O, no side effects, and the same
// inputs always produce the same output, so callers may cache results
// keyed on the record state and evaluation time. The score combines
// editorial grades, a report penalty, content-quality heuristics,
// popularity counters with time decay, and a flat recency bonus.
// Query-time match bonuses are not part of this package; see the
// ranker package.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of the grade
// multipliers, report penalty, and recency bonus via a JSON file
// loaded at startup. Missing or malformed files fall back to the
// defaults so scoring never fails to initialize.
package scoring
