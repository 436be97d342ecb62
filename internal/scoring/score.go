package scoring

import (
	"math"
	"time"

	"github.com/onnwee/lodestone/internal/content"
)

// Fixed scoring constants. These encode deliberate design choices and
// are not part of the calibration surface:
const (
	// ReportPenaltyThreshold is the report count below which isolated or
	// false reports must not suppress content.
	ReportPenaltyThreshold = 8

	// minScoredContentLength is the length below which content earns no
	// length bonus.
	minScoredContentLength = 50

	contentLengthScale = 20.0
	contentLengthCap   = 100.0
	readabilityWeight  = 0.5

	viewScale     = 40.0
	viewCap       = 150.0
	likeWeight    = 0.2
	likeCap       = 100.0
	ctrScale      = 500.0
	ctrCap        = 500.0
	commentWeight = 10.0
	commentCap    = 100.0

	// ctrSmoothing keeps a single early click from producing a
	// saturated click-through rate.
	ctrSmoothing = 10

	// recencyWindowDays is the age (from creation) within which content
	// earns the flat recency bonus.
	recencyWindowDays = 7

	// trendingDailyViews is the average daily view rate at which stale
	// content is still treated as trending.
	trendingDailyViews = 30.0
)

// Score computes the base rank score for a record at the given
// evaluation time using the default weights. The result has no floor
// or ceiling; heavily reported, low-grade content may score negative.
func Score(rec content.Record, now time.Time) int {
	return ScoreWith(rec, now, DefaultWeights())
}

// ScoreWith computes the base rank score using calibrated weights.
// The record is normalized first, so malformed grades or negative
// counters degrade to the defined minimum rather than failing.
func ScoreWith(rec content.Record, now time.Time, w *Weights) int {
	if w == nil {
		w = DefaultWeights()
	}
	rec.Normalize()

	// Editorial grades: trust dominates, relevance is secondary,
	// accuracy is a minor tiebreaker.
	total := rec.TrustGrade.Value()*w.Grade.Trust +
		rec.RelevanceGrade.Value()*w.Grade.Relevance +
		rec.AccuracyGrade.Value()*w.Grade.Accuracy

	if rec.ReportCount >= ReportPenaltyThreshold {
		total -= float64(rec.ReportCount) * w.ReportPenalty
	}

	total += qualityComponent(rec)
	total += math.Round(popularityRaw(rec) * decayFactor(rec, now))

	if wholeDays(rec.CreatedAt, now) <= recencyWindowDays {
		total += w.RecencyBonus
	}

	return int(math.Round(total))
}

// qualityComponent scores content length and readability. Length is
// log-scaled to bound the advantage of arbitrarily long content.
func qualityComponent(rec content.Record) float64 {
	var q float64
	if rec.ContentLength >= minScoredContentLength {
		bonus := math.Round(math.Log10(float64(rec.ContentLength)) * contentLengthScale)
		if bonus > contentLengthCap {
			bonus = contentLengthCap
		}
		q += bonus
	}
	if rec.ReadabilityScore > 0 {
		q += math.Round(float64(rec.ReadabilityScore) * readabilityWeight)
	}
	return q
}

// popularityRaw sums the capped popularity terms before time decay.
func popularityRaw(rec content.Record) float64 {
	var p float64
	if rec.ViewCount > 0 {
		p += math.Min(math.Log10(float64(rec.ViewCount))*viewScale, viewCap)
	}
	p += math.Min(float64(rec.LikeCount)*likeWeight, likeCap)
	if rec.Impressions > 0 {
		ctr := float64(rec.Clicks) / float64(rec.Impressions+ctrSmoothing)
		p += math.Min(ctr*ctrScale, ctrCap)
	}
	p += math.Min(float64(rec.CommentCount)*commentWeight, commentCap)
	return p
}

// decayFactor shrinks the popularity contribution as content goes
// stale. Stale content that still averages a trending view rate keeps
// a higher factor. Age is measured from LastActive, falling back to
// CreatedAt when the record has never been touched.
func decayFactor(rec content.Record, now time.Time) float64 {
	ref := rec.LastActive
	if ref.IsZero() {
		ref = rec.CreatedAt
	}
	age := wholeDays(ref, now)

	switch {
	case age <= 7:
		return 1.0
	case age <= 14:
		return 0.9
	case age <= 30:
		return 0.7
	}

	avgDailyViews := float64(rec.ViewCount)
	if age > 0 {
		avgDailyViews = float64(rec.ViewCount) / float64(age)
	}
	if avgDailyViews >= trendingDailyViews {
		return 0.8
	}
	return 0.5
}

// wholeDays returns the number of whole days between t and now,
// floored at zero.
func wholeDays(t, now time.Time) int64 {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int64(d.Hours() / 24)
}
