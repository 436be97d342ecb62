package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// GradeWeights defines the multipliers applied to the numeric grade
// values when combining editorial grades into the score.
type GradeWeights struct {
	Trust     float64 `json:"trust"`     // Weight for the trust grade (default: 5.0)
	Relevance float64 `json:"relevance"` // Weight for the relevance grade (default: 3.0)
	Accuracy  float64 `json:"accuracy"`  // Weight for the accuracy grade (default: 1.0)
}

// Weights holds the calibratable parts of the scoring function.
type Weights struct {
	Grade GradeWeights `json:"grade"`

	// ReportPenalty is subtracted per report once the report count
	// reaches ReportPenaltyThreshold (default: 10.0).
	ReportPenalty float64 `json:"report_penalty"`

	// RecencyBonus is the flat bonus for content created within the
	// recency window (default: 100.0).
	RecencyBonus float64 `json:"recency_bonus"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default scoring weight configuration.
//
// Grade formula: grade_component = trust*5 + relevance*3 + accuracy*1,
// where each grade maps to {S:100, A:80, B:50, C:20, F:-50}. The 5/3/1
// split makes editorial trust dominate ranking with relevance second
// and accuracy as a minor tiebreaker.
func DefaultWeights() *Weights {
	return &Weights{
		Grade: GradeWeights{
			Trust:     5.0,
			Relevance: 3.0,
			Accuracy:  1.0,
		},
		ReportPenalty: 10.0,
		RecencyBonus:  100.0,
	}
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default
// weights with an error so callers can log and continue. Partial
// configurations are merged with defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read scoring calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse scoring calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	return MergeCalibration(DefaultWeights(), &config.Weights), nil
}

// MergeCalibration merges override weights with base weights. Only
// non-zero override values are applied, allowing partial overrides in
// the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Grade.Trust != 0 {
		result.Grade.Trust = override.Grade.Trust
	}
	if override.Grade.Relevance != 0 {
		result.Grade.Relevance = override.Grade.Relevance
	}
	if override.Grade.Accuracy != 0 {
		result.Grade.Accuracy = override.Grade.Accuracy
	}
	if override.ReportPenalty != 0 {
		result.ReportPenalty = override.ReportPenalty
	}
	if override.RecencyBonus != 0 {
		result.RecencyBonus = override.RecencyBonus
	}

	return &result
}
