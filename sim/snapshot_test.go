package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVolumesCountsEveryBubble(t *testing.T) {
	pop := Population{
		{Diameter: 1, Volume: 1},
		{Diameter: 1, Volume: 1},
		{Diameter: 2, Volume: 8},
		{Diameter: 1.26, Volume: 2},
	}

	s := FormatVolumes(pop)

	assert.Equal(t, Snapshot{1: 2, 2: 1, 8: 1}, s)
	assert.Equal(t, len(pop), s.Count())
}

func TestFormatVolumesEmptyPopulation(t *testing.T) {
	s := FormatVolumes(nil)
	assert.Empty(t, s)
	assert.Equal(t, 0, s.Count())
}

func TestSnapshotKeysSorted(t *testing.T) {
	s := Snapshot{8: 1, 1: 3, 3: 2}
	assert.Equal(t, []int{1, 3, 8}, s.Keys())
	assert.Empty(t, Snapshot{}.Keys())
}

func TestDiameterBinFormat(t *testing.T) {
	// GIVEN diameters straddling several half-unit bins
	pop := Population{
		{Diameter: 0.3},
		{Diameter: 1.2},
		{Diameter: 1.4},
		{Diameter: 2.49},
	}
	f := DiameterBinFormat{Width: 0.5}

	s := f.Format(pop)

	// THEN each diameter lands in its floor bin and nothing is lost
	assert.Equal(t, Snapshot{0: 1, 2: 2, 4: 1}, s)
	assert.Equal(t, len(pop), s.Count())
	assert.InDelta(t, 1.25, f.BinCenter(2), 1e-12)
}
