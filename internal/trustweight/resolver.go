// Package trustweight resolves per-user trust weights used to
// down-weight interactions from historically low-trust accounts.
package trustweight

import (
	"context"
	"sync"
)

// Trust weight bounds and defaults.
const (
	// MinWeight and MaxWeight bound the per-user trust scale.
	MinWeight = 0.0
	MaxWeight = 100.0

	// DefaultWeight is assumed for anonymous or unknown users, and
	// whenever resolution fails or times out.
	DefaultWeight = 50.0

	// LowTrustThreshold marks the weight below which interactions are
	// down-weighted by the batch corrector.
	LowTrustThreshold = 30.0
)

// Resolver resolves trust weights for a batch of user ids. Lookups are
// batched rather than one-per-event to bound latency during a
// correction run.
type Resolver interface {
	// BatchWeights returns the trust weight for each requested user id.
	// Missing or unknown users are simply absent from the result map;
	// callers substitute DefaultWeight. An error means no weights could
	// be resolved and the caller should fall back to defaults for the
	// whole batch rather than failing.
	BatchWeights(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// Clamp bounds a weight to the valid trust scale.
func Clamp(weight float64) float64 {
	if weight < MinWeight {
		return MinWeight
	}
	if weight > MaxWeight {
		return MaxWeight
	}
	return weight
}

// WeightFor returns the weight for a user id from a resolved batch,
// substituting DefaultWeight for anonymous or unresolved users.
func WeightFor(weights map[string]float64, userID string) float64 {
	if userID == "" {
		return DefaultWeight
	}
	if w, ok := weights[userID]; ok {
		return Clamp(w)
	}
	return DefaultWeight
}

// StaticResolver is an in-memory Resolver backed by a fixed weight
// map. Thread-safe via RWMutex; used by tests and fixtures.
type StaticResolver struct {
	mu      sync.RWMutex
	weights map[string]float64
}

// NewStaticResolver creates a resolver seeded with the given weights.
func NewStaticResolver(weights map[string]float64) *StaticResolver {
	cp := make(map[string]float64, len(weights))
	for id, w := range weights {
		cp[id] = Clamp(w)
	}
	return &StaticResolver{weights: cp}
}

// SetWeight sets or replaces the weight for a user.
func (r *StaticResolver) SetWeight(userID string, weight float64) {
	r.mu.Lock()
	r.weights[userID] = Clamp(weight)
	r.mu.Unlock()
}

// BatchWeights returns weights for the known subset of the requested users.
func (r *StaticResolver) BatchWeights(ctx context.Context, userIDs []string) (map[string]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]float64, len(userIDs))
	for _, id := range userIDs {
		if w, ok := r.weights[id]; ok {
			result[id] = w
		}
	}
	return result, nil
}
