package corrector

import (
	"math"
	"time"

	"github.com/onnwee/lodestone/internal/ledger"
	"github.com/onnwee/lodestone/internal/trustweight"
)

// BounceDwellSeconds is the minimum engagement dwell time. Events
// below it are treated as bounces and fully discounted.
const BounceDwellSeconds = 3

// Per-event decrement weights.
const (
	bounceDecrement   = 1.0
	lowTrustDecrement = 0.9 // leaves 10% effective value for low-trust clicks
)

// Correction is the accumulated per-content adjustment derived from a
// window of ledger events.
type Correction struct {
	// LastActive is the newest event timestamp seen for the content.
	LastActive time.Time

	// DecrementClicks accumulates fractional click discounts: 1.0 per
	// bounce, 0.9 per low-trust non-bounce event.
	DecrementClicks float64
}

// EffectiveDecrement converts the accumulated fractional discount into
// the integer click decrement to apply. The fraction is floored, so a
// single 0.9 low-trust discount is a net zero until repeated events
// accumulate past an integer boundary; a bounce always decrements.
func (c *Correction) EffectiveDecrement() int64 {
	return int64(math.Floor(c.DecrementClicks))
}

// accumulate folds one event into the per-content corrections map.
// Order-independent: lastActive takes the max and decrements add.
//
// A bounce is fully discounted and skips trust weighting entirely; for
// every other event the acting user's trust weight decides whether the
// low-trust discount applies. Anonymous and unresolved users carry the
// default weight.
func accumulate(corrections map[string]*Correction, ev ledger.Event, weights map[string]float64) {
	c, ok := corrections[ev.ContentID]
	if !ok {
		c = &Correction{LastActive: ev.CreatedAt}
		corrections[ev.ContentID] = c
	}
	if ev.CreatedAt.After(c.LastActive) {
		c.LastActive = ev.CreatedAt
	}

	if ev.DwellTime < BounceDwellSeconds {
		c.DecrementClicks += bounceDecrement
		return
	}

	if trustweight.WeightFor(weights, ev.UserID) < trustweight.LowTrustThreshold {
		c.DecrementClicks += lowTrustDecrement
	}
}

// distinctUserIDs returns the unique non-anonymous user ids among the
// events that will need a trust weight (bounces never do).
func distinctUserIDs(events []ledger.Event) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, ev := range events {
		if ev.UserID == "" || ev.DwellTime < BounceDwellSeconds {
			continue
		}
		if _, ok := seen[ev.UserID]; ok {
			continue
		}
		seen[ev.UserID] = struct{}{}
		ids = append(ids, ev.UserID)
	}
	return ids
}
