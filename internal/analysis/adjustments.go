package analysis

import "resumescore/internal/types"

// Breakdown is an ordered list of scoring decisions, starting with the base
// score. The final score is the sum of the deltas, clamped to [0,100].
type Breakdown []types.Adjustment

func (b Breakdown) add(reason string, delta int) Breakdown {
	return append(b, types.Adjustment{Reason: reason, Delta: delta})
}

// Score sums the deltas and clamps the total.
func (b Breakdown) Score() int {
	total := 0
	for _, a := range b {
		total += a.Delta
	}
	return clamp(total)
}

// Penalties lists the reasons of adjustments with a negative delta.
func (b Breakdown) Penalties() []string {
	var out []string
	for _, a := range b {
		if a.Delta < 0 {
			out = append(out, a.Reason)
		}
	}
	return out
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// capped returns count*per, limited to limit.
func capped(count, per, limit int) int {
	return min(count*per, limit)
}
