// Implements the coalescence engine: the pair-merge arithmetic and the
// probabilistic nearest-pair sweep the engine runs once per step.

package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/cobubbles/cobubbles/sim/dist"
)

// MergePair combines two bubbles into one. Each size attribute is computed
// only when both inputs carry it, and silently omitted otherwise: volume
// adds, the diameter follows the volume-conserving cube law
// (d1^3 + d2^3)^(1/3), and the location is the size-weighted centroid.
// init supplies the age/lifetime zero-state of the newborn bubble; an init
// attribute colliding with a computed one fails with ErrAttrConflict.
func MergePair(b1, b2 *Bubble, init *Bubble) (*Bubble, error) {
	m := &Bubble{}
	if b1.HasVolume() && b2.HasVolume() {
		m.Volume = b1.Volume + b2.Volume
	}
	if b1.HasDiameter() && b2.HasDiameter() {
		m.Diameter = math.Cbrt(math.Pow(b1.Diameter, 3) + math.Pow(b2.Diameter, 3))
	}
	if b1.Placed && b2.Placed {
		w1, w2 := mergeWeights(b1, b2)
		m.X = (b1.X*w1 + b2.X*w2) / (w1 + w2)
		m.Y = (b1.Y*w1 + b2.Y*w2) / (w1 + w2)
		m.Placed = true
	}
	if err := m.Assign(init); err != nil {
		return nil, fmt.Errorf("merge pair: %w", err)
	}
	return m, nil
}

// mergeWeights picks the centroid weights of a pair: volumes when both are
// tracked, cubic diameters otherwise, equal weights as the last resort.
func mergeWeights(b1, b2 *Bubble) (float64, float64) {
	if b1.HasVolume() && b2.HasVolume() {
		return float64(b1.Volume), float64(b2.Volume)
	}
	if b1.HasDiameter() && b2.HasDiameter() {
		return math.Pow(b1.Diameter, 3), math.Pow(b2.Diameter, 3)
	}
	return 1, 1
}

// pairGap is one unordered pair of population indices with its
// surface-to-surface separation.
type pairGap struct {
	i, j int
	gap  float64
}

// MergeClosest runs one sweep of probabilistic coalescence over the
// population: closest pairs (by surface-to-surface gap) merge first, each
// eligible pair passing an independent Bernoulli(proba) gate, and a bubble
// consumed by one merge never re-merges within the same sweep. Survivors
// keep their input order; merged bubbles are appended in merge order.
// init, when non-nil, supplies the bookkeeping template for each merged
// bubble; it is called once per successful merge so budget variants draw a
// fresh lifetime every time.
func MergeClosest(pop Population, maxDist, proba float64, rng *rand.Rand, init func() *Bubble) (Population, error) {
	if proba < 0 || proba > 1 {
		return nil, fmt.Errorf("merge closest: probability %v must be in [0, 1]", proba)
	}
	if len(pop) < 2 {
		return pop, nil
	}
	for k, b := range pop {
		if !b.HasDiameter() {
			return nil, fmt.Errorf("merge closest: bubble %d has no diameter", k)
		}
		if !b.Placed {
			return nil, fmt.Errorf("merge closest: bubble %d is not placed", k)
		}
	}

	// Surface-to-surface gap of every unordered pair. Negative gaps mean
	// overlap and always sort first.
	pairs := make([]pairGap, 0, len(pop)*(len(pop)-1)/2)
	for i := 0; i < len(pop); i++ {
		for j := i + 1; j < len(pop); j++ {
			gap := math.Hypot(pop[j].X-pop[i].X, pop[j].Y-pop[i].Y) -
				(pop[i].Diameter+pop[j].Diameter)/2
			pairs = append(pairs, pairGap{i: i, j: j, gap: gap})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].gap < pairs[b].gap })

	out := append(Population(nil), pop...)
	var consumed []int
	for _, pg := range pairs {
		if pg.gap >= maxDist {
			break
		}
		if contains(consumed, pg.i) || contains(consumed, pg.j) {
			continue
		}
		if !dist.Bernoulli(rng, proba) {
			continue
		}

		// Original indices shift down by the number of already-consumed
		// indices below them; merged bubbles sit past the survivors so
		// the corrected positions always land on the right pair.
		iPos := pg.i - countBelow(consumed, pg.i)
		jPos := pg.j - countBelow(consumed, pg.j)
		hi, lo := iPos, jPos
		if hi < lo {
			hi, lo = lo, hi
		}
		b1 := out[hi]
		out = append(out[:hi], out[hi+1:]...)
		b2 := out[lo]
		out = append(out[:lo], out[lo+1:]...)

		var tpl *Bubble
		if init != nil {
			tpl = init()
		}
		m, err := MergePair(b1, b2, tpl)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		consumed = append(consumed, pg.i, pg.j)
	}
	return out, nil
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func countBelow(s []int, v int) int {
	n := 0
	for _, x := range s {
		if x < v {
			n++
		}
	}
	return n
}
