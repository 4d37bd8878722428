package step

import (
	"math"
	"math/rand"

	"golang.org/x/exp/slices"
)

// weightedShuffleMethods draws a Plackett-Luce permutation over methods
// using per-item weights: each item gets a key of -ln(U)/w for an
// independent Uniform(0,1) draw U, and sorting ascending by key yields a
// sample from the weighted-without-replacement distribution in one pass —
// no repeated renormalizing draws needed. With equal weights, the result
// is still a shuffle, not the identity permutation; what "deterministic"
// means here is that the same seeded rng reproduces the same order, not
// that equal weights skip shuffling.
func weightedShuffleMethods(methods []*Method, weights []float64, rng *rand.Rand) []*Method {
	type keyed struct {
		m   *Method
		key float64
	}
	items := make([]keyed, len(methods))
	for i, m := range methods {
		w := weights[i]
		if w <= 0 {
			w = 1e-12
		}
		u := rng.Float64()
		if u <= 0 {
			u = math.SmallestNonzeroFloat64
		}
		items[i] = keyed{m: m, key: -math.Log(u) / w}
	}
	slices.SortFunc(items, func(a, b keyed) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})
	out := make([]*Method, len(items))
	for i, it := range items {
		out[i] = it.m
	}
	return out
}
