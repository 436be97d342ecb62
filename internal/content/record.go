// Package content provides the denormalized content record store that
// backs ranking for servers, resources, posts, and wiki entries.
package content

import (
	"errors"
	"time"
)

// Common errors for content record operations.
var (
	ErrRecordNotFound = errors.New("content record not found")
	ErrRecordExists   = errors.New("content record already exists")
)

// ContentType identifies the kind of source entity a record mirrors.
type ContentType string

// Indexed content types.
const (
	TypeServer   ContentType = "SERVER"
	TypeResource ContentType = "RESOURCE"
	TypePost     ContentType = "POST"
	TypeWiki     ContentType = "WIKI"
)

// ValidContentType reports whether t is one of the indexed content types.
func ValidContentType(t ContentType) bool {
	switch t {
	case TypeServer, TypeResource, TypePost, TypeWiki:
		return true
	}
	return false
}

// Grade is an ordinal editorial quality label, S highest.
type Grade string

// Editorial grade scale.
const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeF Grade = "F"
)

// DefaultGrade is assigned when a record is created without an
// editorial review, and substituted for unrecognized grade values.
const DefaultGrade = GradeB

// gradeValues maps each grade to its numeric scoring value.
var gradeValues = map[Grade]float64{
	GradeS: 100,
	GradeA: 80,
	GradeB: 50,
	GradeC: 20,
	GradeF: -50,
}

// Value returns the numeric scoring value for the grade.
// Unknown grades fall back to the default grade's value so a malformed
// record still yields a defined score.
func (g Grade) Value() float64 {
	if v, ok := gradeValues[g]; ok {
		return v
	}
	return gradeValues[DefaultGrade]
}

// Valid reports whether g is one of the defined grades.
func (g Grade) Valid() bool {
	_, ok := gradeValues[g]
	return ok
}

// Record is one denormalized, searchable entry per indexed item.
// Counters are mutated continuously by the online recorder and
// reconciled by the batch corrector; CreatedAt is immutable and
// LastActive never moves backward.
type Record struct {
	ID   string      `json:"id"`
	Type ContentType `json:"type"`

	TrustGrade     Grade `json:"trust_grade"`
	AccuracyGrade  Grade `json:"accuracy_grade"`
	RelevanceGrade Grade `json:"relevance_grade"`

	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	Impressions  int64 `json:"impressions"`
	Clicks       int64 `json:"clicks"`
	CommentCount int64 `json:"comment_count"`
	ReportCount  int64 `json:"report_count"`

	// ContentLength counts semantic characters after markup stripping.
	ContentLength    int64 `json:"content_length"`
	ReadabilityScore int64 `json:"readability_score"` // 0-100 heuristic

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Normalize replaces missing or unrecognized grades with the default
// grade and clamps negative counters and quality metrics to zero.
// It is applied before scoring so malformed records rank on a defined
// minimum rather than failing.
func (r *Record) Normalize() {
	if !r.TrustGrade.Valid() {
		r.TrustGrade = DefaultGrade
	}
	if !r.AccuracyGrade.Valid() {
		r.AccuracyGrade = DefaultGrade
	}
	if !r.RelevanceGrade.Valid() {
		r.RelevanceGrade = DefaultGrade
	}
	for _, c := range []*int64{
		&r.ViewCount, &r.LikeCount, &r.Impressions, &r.Clicks,
		&r.CommentCount, &r.ReportCount, &r.ContentLength, &r.ReadabilityScore,
	} {
		if *c < 0 {
			*c = 0
		}
	}
}

// HasTag reports whether the record carries the given tag.
// Tag order is irrelevant; comparison is exact.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
