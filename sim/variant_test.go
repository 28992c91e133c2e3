package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobubbles/cobubbles/sim/dist"
)

// fixedHazard is a burst law with a constant removal probability.
type fixedHazard float64

func (f fixedHazard) CDF(age float64) float64 { return float64(f) }

func agedPop(ages ...int) Population {
	pop := make(Population, len(ages))
	for i, a := range ages {
		pop[i] = &Bubble{Diameter: 1, Volume: 1, Age: a, AgeSet: true}
	}
	return pop
}

func TestVariantNamesSorted(t *testing.T) {
	assert.Equal(t,
		[]string{"budget", "cutoff", "exponential", "uniform", "weibull"},
		VariantNames())
}

func TestNewVariantUnknownName(t *testing.T) {
	_, err := NewVariant("melt", DefaultParams(), rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown variant "melt"`)
	assert.Contains(t, err.Error(), "uniform")
}

func TestNewVariantRejectsBadParams(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	p := DefaultParams()
	p.WeibullShape = 0
	_, err := NewVariant(VariantWeibull, p, rng)
	assert.ErrorContains(t, err, "variant weibull")

	p = DefaultParams()
	p.LifetimeCutoff = -1
	_, err = NewVariant(VariantCutoff, p, rng)
	assert.ErrorContains(t, err, "lifetime_cutoff")

	p = DefaultParams()
	p.MeanLifetime = 0
	_, err = NewVariant(VariantExponential, p, rng)
	assert.Error(t, err)
}

func TestUniformBurstCapsAndDeduplicates(t *testing.T) {
	// GIVEN a draw far larger than the population
	u := UniformBurst{Counts: dist.ConstantCount{N: 100}}
	pop := Population{
		{Diameter: 1, Volume: 1},
		{Diameter: 1, Volume: 1},
		{Diameter: 1, Volume: 1},
	}

	out, err := u.Burst(pop, rand.New(rand.NewSource(5)))

	// THEN at most the whole population bursts, never more
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 3)

	// AND a with-replacement draw may hit the same index twice, so the
	// removed count can fall below the draw
	for seed := int64(0); seed < 10; seed++ {
		pop := agedPop(0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
		u := UniformBurst{Counts: dist.ConstantCount{N: 3}}
		out, err := u.Burst(pop, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		removed := len(pop) - len(out)
		assert.GreaterOrEqual(t, removed, 1)
		assert.LessOrEqual(t, removed, 3)
	}
}

func TestUniformBurstZeroDrawAndEmptyPopulation(t *testing.T) {
	u := UniformBurst{Counts: dist.ConstantCount{N: 0}}
	pop := agedPop(1, 2)
	out, err := u.Burst(pop, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = u.Burst(Population{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHazardBurstExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// Certain burst removes everyone
	out, err := HazardBurst{Law: fixedHazard(1)}.Burst(agedPop(0, 5, 9), rng)
	require.NoError(t, err)
	assert.Empty(t, out)

	// Impossible burst removes no one
	out, err = HazardBurst{Law: fixedHazard(0)}.Burst(agedPop(0, 5, 9), rng)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestHazardBurstRequiresAges(t *testing.T) {
	pop := Population{{Diameter: 1, Volume: 1}}
	_, err := HazardBurst{Law: fixedHazard(0.5)}.Burst(pop, rand.New(rand.NewSource(1)))
	assert.ErrorContains(t, err, "has no age")
}

func TestCutoffBurstStrictlyOlder(t *testing.T) {
	// Ages 9 and 10 survive a cutoff of 10; age 11 bursts.
	out, err := CutoffBurst{Cutoff: 10}.Burst(agedPop(9, 10, 11), nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 9, out[0].Age)
	assert.Equal(t, 10, out[1].Age)
}

func TestBudgetBurstAgeReachesLifetime(t *testing.T) {
	pop := agedPop(3, 2, 5)
	pop[0].Lifetime, pop[0].LifetimeSet = 3.0, true  // spent
	pop[1].Lifetime, pop[1].LifetimeSet = 2.5, true  // half a step left
	pop[2].Lifetime, pop[2].LifetimeSet = 10.0, true // young

	out, err := BudgetBurst{}.Burst(pop, nil)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].Age)
	assert.Equal(t, 5, out[1].Age)
}

func TestBudgetBurstRequiresLifetime(t *testing.T) {
	_, err := BudgetBurst{}.Burst(agedPop(1), nil)
	assert.ErrorContains(t, err, "has no lifetime")
}

func TestStdVariantCreateStampsNewborns(t *testing.T) {
	// GIVEN a budget variant with a deterministic production draw
	p := DefaultParams()
	p.RateProdAvg = 4
	p.RateProdStd = 0
	v, err := NewVariant(VariantBudget, p, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	pop, err := v.Create(nil)

	// THEN every newborn is a unit bubble with the budget bookkeeping
	require.NoError(t, err)
	require.Len(t, pop, 4)
	for _, b := range pop {
		assert.Equal(t, 1.0, b.Diameter)
		assert.Equal(t, 1, b.Volume)
		assert.False(t, b.Placed)
		assert.True(t, b.AgeSet)
		assert.Equal(t, 0, b.Age)
		assert.True(t, b.LifetimeSet)
		assert.Greater(t, b.Lifetime, 0.0)
	}
}

func TestStdVariantMovePlacesWithinBath(t *testing.T) {
	p := DefaultParams()
	p.Width = 5
	v, err := NewVariant(VariantUniform, p, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	pop, err := v.Move(agedPop(0, 0, 0, 0))

	require.NoError(t, err)
	for _, b := range pop {
		assert.True(t, b.Placed)
		assert.GreaterOrEqual(t, b.X, 0.0)
		assert.Less(t, b.X, 5.0)
		assert.GreaterOrEqual(t, b.Y, 0.0)
		assert.Less(t, b.Y, 5.0)
	}
}

func TestNewbornInitPerVariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	uniform, err := NewVariant(VariantUniform, DefaultParams(), rng)
	require.NoError(t, err)
	assert.Nil(t, uniform.NewbornInit(), "ageless variant has no merge bookkeeping")

	weibull, err := NewVariant(VariantWeibull, DefaultParams(), rng)
	require.NoError(t, err)
	init := weibull.NewbornInit()
	require.NotNil(t, init)
	assert.True(t, init.AgeSet)
	assert.False(t, init.LifetimeSet)

	budget, err := NewVariant(VariantBudget, DefaultParams(), rng)
	require.NoError(t, err)
	first := budget.NewbornInit()
	second := budget.NewbornInit()
	require.NotNil(t, first)
	assert.True(t, first.AgeSet)
	assert.True(t, first.LifetimeSet)
	assert.NotEqual(t, first.Lifetime, second.Lifetime, "each merge should draw a fresh budget")
}
