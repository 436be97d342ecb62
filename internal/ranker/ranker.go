// Package ranker orchestrates query-time ranking: it layers textual
// and tag match bonuses over the base score and orders candidate
// content records for a parsed query intent.
package ranker

import (
	"sort"
	"strings"
	"time"

	"github.com/onnwee/lodestone/internal/content"
	"github.com/onnwee/lodestone/internal/scoring"
)

// Match bonuses added on top of the base score.
const (
	// TitleMatchBonus applies when a query keyword appears in the title.
	TitleMatchBonus = 200

	// FieldMatchBonus applies when a query keyword appears in the
	// description or matches a tag.
	FieldMatchBonus = 50
)

// IntentFilters narrows candidates by content type and tags. The
// fields are produced by the query parsing collaborator and passed
// through opaquely.
type IntentFilters struct {
	Type string   `json:"type,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// Intent is the parsed query intent returned by the external query
// understanding collaborator. This subsystem never interprets it
// beyond the keyword and filter bonus step.
type Intent struct {
	Category    string        `json:"category,omitempty"`
	Filters     IntentFilters `json:"filters"`
	Keywords    []string      `json:"keywords,omitempty"`
	Sort        string        `json:"sort,omitempty"`
	Explanation string        `json:"explanation,omitempty"`
}

// Result pairs a candidate record with its final rank score.
type Result struct {
	Record *content.Record
	Score  int
}

// Ranker ranks candidate records with calibrated scoring weights.
type Ranker struct {
	weights *scoring.Weights
}

// New creates a Ranker. Nil weights use the scoring defaults.
func New(weights *scoring.Weights) *Ranker {
	if weights == nil {
		weights = scoring.DefaultWeights()
	}
	return &Ranker{weights: weights}
}

// Rank orders candidates descending by base score plus match bonuses.
// Ties are broken by CreatedAt descending, most recent first; the
// candidate list is not mutated.
func (r *Ranker) Rank(candidates []*content.Record, intent Intent, now time.Time) []Result {
	results := make([]Result, 0, len(candidates))
	for _, rec := range candidates {
		if rec == nil {
			continue
		}
		score := scoring.ScoreWith(*rec, now, r.weights) + matchBonus(rec, intent)
		results = append(results, Result{Record: rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})
	return results
}

// matchBonus computes the keyword bonuses for one record. Each keyword
// is checked case-insensitively; the title bonus and the
// description-or-tag bonus are each awarded at most once per record so
// keyword-stuffed queries cannot stack them.
func matchBonus(rec *content.Record, intent Intent) int {
	var bonus int
	titleMatched := false
	fieldMatched := false

	title := strings.ToLower(rec.Title)
	description := strings.ToLower(rec.Description)

	for _, kw := range intent.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !titleMatched && strings.Contains(title, kw) {
			bonus += TitleMatchBonus
			titleMatched = true
		}
		if !fieldMatched && (strings.Contains(description, kw) || hasTagFold(rec, kw)) {
			bonus += FieldMatchBonus
			fieldMatched = true
		}
		if titleMatched && fieldMatched {
			break
		}
	}
	return bonus
}

// hasTagFold reports whether the record carries the tag, compared
// case-insensitively against the already-lowercased keyword.
func hasTagFold(rec *content.Record, keyword string) bool {
	for _, t := range rec.Tags {
		if strings.ToLower(t) == keyword {
			return true
		}
	}
	return false
}
