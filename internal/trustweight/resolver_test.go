package trustweight

import (
	"context"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-10, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestWeightFor(t *testing.T) {
	weights := map[string]float64{
		"low":  10,
		"high": 90,
		"hot":  500, // corrupt upstream value
	}

	tests := []struct {
		name   string
		userID string
		want   float64
	}{
		{"known low-trust user", "low", 10},
		{"known high-trust user", "high", 90},
		{"anonymous user defaults", "", DefaultWeight},
		{"unknown user defaults", "stranger", DefaultWeight},
		{"out-of-range value clamped", "hot", MaxWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeightFor(weights, tt.userID); got != tt.want {
				t.Errorf("WeightFor(%q) = %f, want %f", tt.userID, got, tt.want)
			}
		})
	}

	t.Run("nil batch defaults everyone", func(t *testing.T) {
		if got := WeightFor(nil, "anyone"); got != DefaultWeight {
			t.Errorf("WeightFor(nil) = %f, want %f", got, DefaultWeight)
		}
	})
}

func TestStaticResolver_BatchWeights(t *testing.T) {
	ctx := context.Background()
	r := NewStaticResolver(map[string]float64{
		"u1": 20,
		"u2": 80,
		"u3": -5, // clamped at construction
	})

	weights, err := r.BatchWeights(ctx, []string{"u1", "u2", "u3", "missing"})
	if err != nil {
		t.Fatalf("BatchWeights() error: %v", err)
	}

	if len(weights) != 3 {
		t.Errorf("got %d weights, want 3 (missing users absent)", len(weights))
	}
	if weights["u1"] != 20 || weights["u2"] != 80 {
		t.Errorf("unexpected weights: %v", weights)
	}
	if weights["u3"] != 0 {
		t.Errorf("u3 = %f, want clamped 0", weights["u3"])
	}
	if _, ok := weights["missing"]; ok {
		t.Error("unknown users must be absent, not defaulted, in the batch result")
	}
}

func TestStaticResolver_SetWeight(t *testing.T) {
	ctx := context.Background()
	r := NewStaticResolver(nil)
	r.SetWeight("u1", 240)

	weights, err := r.BatchWeights(ctx, []string{"u1"})
	if err != nil {
		t.Fatal(err)
	}
	if weights["u1"] != MaxWeight {
		t.Errorf("u1 = %f, want clamped %f", weights["u1"], MaxWeight)
	}
}
