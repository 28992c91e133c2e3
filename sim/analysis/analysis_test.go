package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobubbles/cobubbles/sim"
)

func sixStepHistory() []sim.Snapshot {
	return []sim.Snapshot{
		{1: 1},
		{1: 2},
		{1: 3},
		{2: 1},
		{2: 2},
		{3: 1},
	}
}

func TestHistogramRanges(t *testing.T) {
	a := New(sixStepHistory())

	assert.Equal(t, Hist{1: 6, 2: 3, 3: 1}, a.Histogram(All()))
	assert.Equal(t, Hist{1: 4, 2: 2}, a.Histogram(EveryK(2, 0)))
	assert.Equal(t, Hist{1: 2, 2: 1, 3: 1}, a.Histogram(EveryK(2, 1)))
	assert.Equal(t, Hist{1: 5}, a.Histogram(Span(1, 3, 1)))
	assert.Equal(t, Hist{2: 2, 3: 1}, a.Histogram(Span(4, 100, 1)), "stop clamps to history end")
	assert.Empty(t, a.Histogram(Span(3, 3, 1)))
}

func TestHistogramAdditiveOverPartition(t *testing.T) {
	// GIVEN a partition of the full range into two spans
	a := New(sixStepHistory())
	head := a.Histogram(Span(0, 3, 1))
	tail := a.Histogram(Span(3, 0, 1))

	// THEN the parts sum to the whole
	merged := make(Hist)
	for k, c := range head {
		merged[k] += c
	}
	for k, c := range tail {
		merged[k] += c
	}
	assert.Equal(t, a.Histogram(All()), merged)
}

func TestHistKeysAndTotal(t *testing.T) {
	h := Hist{5: 1, 1: 2, 3: 4}
	assert.Equal(t, []int{1, 3, 5}, h.Keys())
	assert.Equal(t, 7, h.Total())
}

func TestMomentsKnownHistory(t *testing.T) {
	// Two unit bubbles and one volume-8 bubble: diameters 1, 1, 2.
	a := New([]sim.Snapshot{{1: 2}, {8: 1}})

	m := a.Moments(All())

	assert.Equal(t, 3, m.Count)
	assert.InDelta(t, 4.0/3.0, m.AvgDiameter, 1e-12)
	assert.InDelta(t, 2.0, m.Coverage, 1e-12)
	assert.InDelta(t, 10.0/3.0, m.MeanVolume, 1e-12)
}

func TestMomentsEmptyRange(t *testing.T) {
	a := New([]sim.Snapshot{{}, {}})

	m := a.Moments(All())

	assert.Equal(t, 0, m.Count)
	assert.True(t, math.IsNaN(m.AvgDiameter))
	assert.True(t, math.IsNaN(m.Coverage))
	assert.True(t, math.IsNaN(m.MeanVolume))
}

func TestMomentsCustomDiameter(t *testing.T) {
	// A bin-keyed history with bin centers as the diameter function.
	f := sim.DiameterBinFormat{Width: 0.5}
	a := New([]sim.Snapshot{{2: 4}})
	a.Diameter = f.BinCenter

	m := a.Moments(All())

	require.Equal(t, 4, m.Count)
	assert.InDelta(t, 1.25, m.AvgDiameter, 1e-12)
}
