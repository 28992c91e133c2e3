package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBubblePresenceHelpers(t *testing.T) {
	b := &Bubble{}
	assert.False(t, b.HasDiameter())
	assert.False(t, b.HasVolume())

	b = &Bubble{Diameter: 1.5, Volume: 3}
	assert.True(t, b.HasDiameter())
	assert.True(t, b.HasVolume())
}

func TestBubbleViews(t *testing.T) {
	// GIVEN a bubble carrying every attribute
	b := &Bubble{
		Diameter: 2, Volume: 8,
		X: 1, Y: 4, Placed: true,
		Age: 3, AgeSet: true,
		Lifetime: 7.5, LifetimeSet: true,
	}

	// THEN the mapping view carries one entry per attribute
	assert.Equal(t, map[string]float64{
		"diameter": 2, "volume": 8,
		"x": 1, "y": 4,
		"age": 3, "lifetime": 7.5,
	}, b.Attrs())

	// AND the vector view keeps the stable label order
	labels, values := b.Vector()
	assert.Equal(t, []string{"diameter", "volume", "x", "y", "age", "lifetime"}, labels)
	assert.Equal(t, []float64{2, 8, 1, 4, 3, 7.5}, values)

	// AND absent attributes are omitted, not zero-filled
	labels, values = (&Bubble{Volume: 2}).Vector()
	assert.Equal(t, []string{"volume"}, labels)
	assert.Equal(t, []float64{2}, values)
}

func TestBubbleCloneIsIndependent(t *testing.T) {
	b := &Bubble{Diameter: 1, Volume: 1, Age: 2, AgeSet: true}
	c := b.Clone()
	c.Age = 9
	c.Volume = 4

	assert.Equal(t, 2, b.Age)
	assert.Equal(t, 1, b.Volume)
}

func TestAssignCopiesPresentAttrs(t *testing.T) {
	b := &Bubble{Diameter: 1, Volume: 1}

	require.NoError(t, b.Assign(&Bubble{AgeSet: true, Lifetime: 4, LifetimeSet: true}))

	assert.True(t, b.AgeSet)
	assert.Equal(t, 0, b.Age)
	assert.True(t, b.LifetimeSet)
	assert.Equal(t, 4.0, b.Lifetime)

	// A nil init is a no-op.
	require.NoError(t, b.Assign(nil))
}

func TestAssignConflicts(t *testing.T) {
	full := Bubble{
		Diameter: 1, Volume: 1,
		Placed: true,
		AgeSet: true, LifetimeSet: true,
	}
	tests := []struct {
		name string
		init *Bubble
	}{
		{"diameter", &Bubble{Diameter: 2}},
		{"volume", &Bubble{Volume: 2}},
		{"position", &Bubble{X: 1, Placed: true}},
		{"age", &Bubble{Age: 1, AgeSet: true}},
		{"lifetime", &Bubble{Lifetime: 1, LifetimeSet: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := full
			err := b.Assign(tc.init)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAttrConflict)
			assert.Contains(t, err.Error(), tc.name)
		})
	}
}

func TestBubbleValidate(t *testing.T) {
	assert.NoError(t, (&Bubble{}).Validate())
	assert.NoError(t, (&Bubble{Diameter: 1, Volume: 1}).Validate())
	assert.Error(t, (&Bubble{Diameter: -1}).Validate())
	assert.Error(t, (&Bubble{Volume: -2}).Validate())
	assert.Error(t, (&Bubble{Age: -1, AgeSet: true}).Validate())
	assert.Error(t, (&Bubble{Lifetime: -0.5, LifetimeSet: true}).Validate())
}

func TestPopulationCloneAndTotalVolume(t *testing.T) {
	pop := Population{
		{Diameter: 1, Volume: 1},
		{Diameter: 2, Volume: 8},
	}
	assert.Equal(t, 9, pop.TotalVolume())

	clone := pop.Clone()
	clone[0].Volume = 100
	assert.Equal(t, 1, pop[0].Volume, "clones must not share bubbles")
	assert.Equal(t, 9, pop.TotalVolume())
}
