package scoring

import (
	"testing"
	"time"

	"github.com/onnwee/lodestone/internal/content"
)

// freshRecord returns a zero-counter record created at now with the
// given grades on all three axes.
func freshRecord(grade content.Grade, now time.Time) content.Record {
	return content.Record{
		ID:             "rec-1",
		Type:           content.TypePost,
		TrustGrade:     grade,
		AccuracyGrade:  grade,
		RelevanceGrade: grade,
		CreatedAt:      now,
		LastActive:     now,
	}
}

func TestScore_GradeBaselines(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		rec  content.Record
		want int
	}{
		{
			// (100*5)+(100*3)+(100*1) = 900, +100 recency
			name: "all S grades fresh",
			rec:  freshRecord(content.GradeS, now),
			want: 1000,
		},
		{
			// (50*5)+(50*3)+(50*1) = 450, +100 recency
			name: "all B grades fresh",
			rec:  freshRecord(content.GradeB, now),
			want: 550,
		},
		{
			// (-50*5)+(-50*3)+(-50*1) = -450, +100 recency
			name: "all F grades fresh",
			rec:  freshRecord(content.GradeF, now),
			want: -350,
		},
		{
			name: "unknown grades normalize to B",
			rec: func() content.Record {
				rec := freshRecord("Z", now)
				return rec
			}(),
			want: 550,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.rec, now); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_ReportPenaltyThreshold(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		reports int64
		want    int
	}{
		{"below threshold is free", 7, 550},
		{"at threshold penalizes every report", 8, 470}, // 550 - 8*10
		{"above threshold scales per report", 10, 450},  // 550 - 10*10
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := freshRecord(content.GradeB, now)
			rec.ReportCount = tt.reports
			if got := Score(rec, now); got != tt.want {
				t.Errorf("Score() with %d reports = %d, want %d", tt.reports, got, tt.want)
			}
		})
	}
}

func TestScore_ContentLength(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		length int64
		want   int
	}{
		{"below minimum earns nothing", 49, 550},
		{"at 1000 chars", 1000, 610},        // 550 + round(log10(1000)*20) = 60
		{"bonus capped", 100_000_000, 650},  // log10 = 8, 8*20 = 160 capped at 100
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := freshRecord(content.GradeB, now)
			rec.ContentLength = tt.length
			if got := Score(rec, now); got != tt.want {
				t.Errorf("Score() with length %d = %d, want %d", tt.length, got, tt.want)
			}
		})
	}
}

func TestScore_Readability(t *testing.T) {
	now := time.Now()
	rec := freshRecord(content.GradeB, now)
	rec.ReadabilityScore = 80

	// 550 + round(80*0.5) = 590
	if got := Score(rec, now); got != 590 {
		t.Errorf("Score() with readability 80 = %d, want 590", got)
	}
}

func TestScore_Monotonicity(t *testing.T) {
	now := time.Now()

	// Each counter bump must not lower the score.
	bumps := []struct {
		name  string
		apply func(*content.Record)
	}{
		{"view count", func(r *content.Record) { r.ViewCount += 500 }},
		{"like count", func(r *content.Record) { r.LikeCount += 100 }},
		{"comment count", func(r *content.Record) { r.CommentCount += 5 }},
		{"readability", func(r *content.Record) { r.ReadabilityScore += 20 }},
		{"content length", func(r *content.Record) { r.ContentLength += 5000 }},
		{"clicks", func(r *content.Record) { r.Clicks += 50 }},
	}

	base := freshRecord(content.GradeB, now)
	base.ViewCount = 100
	base.LikeCount = 10
	base.Impressions = 200
	base.Clicks = 20
	base.CommentCount = 3
	base.ContentLength = 500
	base.ReadabilityScore = 40
	baseScore := Score(base, now)

	for _, tt := range bumps {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.apply(&rec)
			if got := Score(rec, now); got < baseScore {
				t.Errorf("score decreased after %s bump: %d < %d", tt.name, got, baseScore)
			}
		})
	}

	t.Run("reports above threshold", func(t *testing.T) {
		rec := base
		rec.ReportCount = 20
		if got := Score(rec, now); got >= baseScore {
			t.Errorf("score did not decrease with 20 reports: %d >= %d", got, baseScore)
		}
	})
}

func TestScore_DecayBoundary(t *testing.T) {
	now := time.Now()
	createdAt := now.Add(-60 * 24 * time.Hour) // outside recency window

	// viewCount 100 gives popularityRaw of log10(100)*40 = 80, so the
	// 1.0 vs 0.9 decay factors must produce different scores.
	newer := content.Record{
		ID:             "rec-7d",
		Type:           content.TypePost,
		TrustGrade:     content.GradeB,
		AccuracyGrade:  content.GradeB,
		RelevanceGrade: content.GradeB,
		ViewCount:      100,
		CreatedAt:      createdAt,
		LastActive:     now.Add(-7 * 24 * time.Hour),
	}
	older := newer
	older.ID = "rec-8d"
	older.LastActive = now.Add(-8 * 24 * time.Hour)

	newerScore := Score(newer, now)
	olderScore := Score(older, now)
	if newerScore == olderScore {
		t.Errorf("7-day and 8-day records share a score (%d); decay boundary not applied", newerScore)
	}
	if olderScore >= newerScore {
		t.Errorf("older record outranks newer: %d >= %d", olderScore, newerScore)
	}
}

func TestScore_TrendingDecay(t *testing.T) {
	now := time.Now()
	createdAt := now.Add(-100 * 24 * time.Hour)
	lastActive := now.Add(-40 * 24 * time.Hour)

	// 40 days stale with 30+ average daily views keeps the trending
	// factor 0.8 instead of 0.5.
	trending := content.Record{
		ID:             "trending",
		Type:           content.TypeServer,
		TrustGrade:     content.GradeB,
		AccuracyGrade:  content.GradeB,
		RelevanceGrade: content.GradeB,
		ViewCount:      40 * 30, // exactly 30/day over 40 stale days
		CreatedAt:      createdAt,
		LastActive:     lastActive,
	}
	quiet := trending
	quiet.ID = "quiet"
	quiet.ViewCount = 100

	if Score(trending, now) <= Score(quiet, now) {
		t.Error("trending stale record should outscore quiet stale record")
	}
}

func TestScore_RecencyBonusWindow(t *testing.T) {
	now := time.Now()

	within := freshRecord(content.GradeB, now)
	within.CreatedAt = now.Add(-7 * 24 * time.Hour)
	within.LastActive = now

	outside := within
	outside.CreatedAt = now.Add(-8 * 24 * time.Hour)

	if got := Score(within, now); got != 550 {
		t.Errorf("record created exactly 7 days ago = %d, want 550", got)
	}
	if got := Score(outside, now); got != 450 {
		t.Errorf("record created 8 days ago = %d, want 450", got)
	}
}

func TestScore_CTRSmoothing(t *testing.T) {
	now := time.Now()
	rec := freshRecord(content.GradeB, now)
	rec.Impressions = 1
	rec.Clicks = 1

	// 1/(1+10) * 500 = 45.45..., far below the 500 cap a raw 1/1 CTR
	// would have produced.
	want := 550 + 45
	if got := Score(rec, now); got != want {
		t.Errorf("Score() with 1 click / 1 impression = %d, want %d", got, want)
	}
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Now()
	rec := freshRecord(content.GradeA, now)
	rec.ViewCount = 12345
	rec.LikeCount = 678
	rec.Impressions = 9000
	rec.Clicks = 450
	rec.CommentCount = 12
	rec.ContentLength = 4242
	rec.ReadabilityScore = 73

	first := Score(rec, now)
	for i := 0; i < 10; i++ {
		if got := Score(rec, now); got != first {
			t.Fatalf("Score() not deterministic: %d != %d", got, first)
		}
	}
}

func TestScore_NegativeCountersClamp(t *testing.T) {
	now := time.Now()
	rec := freshRecord(content.GradeB, now)
	rec.ViewCount = -100
	rec.LikeCount = -5
	rec.ReportCount = -3

	if got := Score(rec, now); got != 550 {
		t.Errorf("Score() with negative counters = %d, want 550", got)
	}
}
