// Defines the Snapshot record appended to history each step: bubble counts
// keyed by discretized size, plus the standard formatters producing it.

package sim

import (
	"math"
	"sort"
)

// Snapshot is the compact per-step record of a population: a count of live
// bubbles per discretized size key (integer volume for the standard
// variants, bin index under DiameterBinFormat). The sum of counts always
// equals the live population size at format time. Snapshots are never
// mutated once appended to history.
type Snapshot map[int]int

// Count returns the number of bubbles the snapshot accounts for.
func (s Snapshot) Count() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Keys returns the size keys in increasing order, for stable iteration.
func (s Snapshot) Keys() []int {
	keys := make([]int, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// FormatVolumes is the standard snapshot formatter: counts bubbles by
// integer volume. An empty population yields an empty snapshot.
func FormatVolumes(pop Population) Snapshot {
	s := make(Snapshot, len(pop))
	for _, b := range pop {
		s[b.Volume]++
	}
	return s
}

// DiameterBinFormat counts bubbles into fixed-width diameter bins instead
// of volume classes. Key i covers diameters in [i*Width, (i+1)*Width), so
// every diameter lands in a bin and the snapshot count invariant holds.
type DiameterBinFormat struct {
	Width float64 // Bin width, in diameter units
}

// Format implements the snapshot phase for diameter-binned histories.
func (f DiameterBinFormat) Format(pop Population) Snapshot {
	s := make(Snapshot, len(pop))
	for _, b := range pop {
		s[int(math.Floor(b.Diameter/f.Width))]++
	}
	return s
}

// BinCenter maps a bin key back to the diameter at the middle of the bin.
// Analysis code uses it as the diameter function for binned histories.
func (f DiameterBinFormat) BinCenter(key int) float64 {
	return (float64(key) + 0.5) * f.Width
}
