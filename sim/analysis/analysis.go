// Package analysis computes aggregate statistics over simulation
// histories: range histograms, size moments, per-step series and their
// autocorrelation times.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cobubbles/cobubbles/sim"
)

// StepRange selects a subset of history steps. The zero value selects
// every step. Start below zero clamps to zero, Stop at zero or past the
// end clamps to the history length, Step below one means one.
type StepRange struct {
	Start int
	Stop  int
	Step  int
}

// All selects every step.
func All() StepRange { return StepRange{} }

// EveryK selects every k-th step starting at the given offset.
func EveryK(k, offset int) StepRange { return StepRange{Start: offset, Step: k} }

// Span selects steps start <= i < stop with the given stride.
func Span(start, stop, step int) StepRange {
	return StepRange{Start: start, Stop: stop, Step: step}
}

// resolve clamps the range against a history of n steps.
func (r StepRange) resolve(n int) (start, stop, step int) {
	start, stop, step = r.Start, r.Stop, r.Step
	if start < 0 {
		start = 0
	}
	if stop <= 0 || stop > n {
		stop = n
	}
	if step < 1 {
		step = 1
	}
	return start, stop, step
}

// Hist is a bubble count per size key, aggregated over a step range.
type Hist map[int]int

// Keys returns the size keys in increasing order.
func (h Hist) Keys() []int {
	keys := make([]int, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Total returns the summed count across all size keys.
func (h Hist) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Moments summarizes a range histogram through the first raw moments of
// the bubble diameter, weighted by counts.
type Moments struct {
	Count       int     // Total bubbles over the selected steps
	AvgDiameter float64 // Count-weighted mean diameter
	Coverage    float64 // Count-weighted mean squared diameter
	MeanVolume  float64 // Count-weighted mean cubed diameter
}

// Analyzer computes statistics over one run's history. History is
// append-only: extend it by assigning a longer slice, never by mutating
// steps already analyzed. Diameter maps a snapshot size key to a bubble
// diameter; nil means the cube root of the key, matching volume-keyed
// snapshots of unit-diameter bubbles.
type Analyzer struct {
	History  []sim.Snapshot
	Diameter func(key int) float64

	series *StepSeries
}

// New creates an Analyzer over a history with the default diameter
// function.
func New(history []sim.Snapshot) *Analyzer {
	return &Analyzer{History: history}
}

func (a *Analyzer) diam(key int) float64 {
	if a.Diameter != nil {
		return a.Diameter(key)
	}
	return math.Cbrt(float64(key))
}

// Histogram sums the selected snapshots element-wise. Histograms over a
// partition of a range add up to the histogram of the whole range.
func (a *Analyzer) Histogram(r StepRange) Hist {
	start, stop, step := r.resolve(len(a.History))
	h := make(Hist)
	for i := start; i < stop; i += step {
		for key, count := range a.History[i] {
			h[key] += count
		}
	}
	return h
}

// Moments reduces the range histogram to its diameter moments. With no
// bubbles in range the count is zero and the moments are NaN.
func (a *Analyzer) Moments(r StepRange) Moments {
	h := a.Histogram(r)
	keys := h.Keys()
	ds := make([]float64, 0, len(keys))
	d2s := make([]float64, 0, len(keys))
	d3s := make([]float64, 0, len(keys))
	weights := make([]float64, 0, len(keys))
	total := 0
	for _, key := range keys {
		d := a.diam(key)
		ds = append(ds, d)
		d2s = append(d2s, d*d)
		d3s = append(d3s, d*d*d)
		weights = append(weights, float64(h[key]))
		total += h[key]
	}
	if total == 0 {
		return Moments{AvgDiameter: math.NaN(), Coverage: math.NaN(), MeanVolume: math.NaN()}
	}
	return Moments{
		Count:       total,
		AvgDiameter: stat.Mean(ds, weights),
		Coverage:    stat.Mean(d2s, weights),
		MeanVolume:  stat.Mean(d3s, weights),
	}
}
