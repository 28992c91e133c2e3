// Defines the Variant policy interface the engine steps through, the
// burst policies, and the registry of standard simulation variants.

package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/cobubbles/cobubbles/sim/dist"
)

// Variant supplies the pluggable phase policies that define a concrete
// simulation: bubble production, bursting, repositioning, and the snapshot
// representation appended to history. A concrete simulation is these
// policies plus a Params value.
//
// Create, Burst and Move receive the population left by the previous phase
// and return the updated one; they may mutate bubbles and the slice in
// place. NewbornInit returns the age/lifetime zero-state assigned to
// bubbles created by coalescence; nil means merged bubbles carry no
// bookkeeping attributes.
type Variant interface {
	Create(pop Population) (Population, error)
	Burst(pop Population) (Population, error)
	Move(pop Population) (Population, error)
	Format(pop Population) Snapshot
	NewbornInit() *Bubble
}

// BurstPolicy selects and removes the bubbles bursting this step.
type BurstPolicy interface {
	Burst(pop Population, rng *rand.Rand) (Population, error)
}

// UniformBurst removes a drawn number of bubbles picked uniformly at
// random. The count draw is capped at the population size; the picked
// positions are drawn with replacement and deduplicated, so the number
// actually removed can fall below the draw.
type UniformBurst struct {
	Counts dist.CountSampler
}

func (u UniformBurst) Burst(pop Population, rng *rand.Rand) (Population, error) {
	n := u.Counts.Sample(rng)
	if n > len(pop) {
		n = len(pop)
	}
	if n <= 0 || len(pop) == 0 {
		return pop, nil
	}
	picked := make(map[int]bool, n)
	for k := 0; k < n; k++ {
		picked[rng.Intn(len(pop))] = true
	}
	out := pop[:0]
	for i, b := range pop {
		if !picked[i] {
			out = append(out, b)
		}
	}
	return out, nil
}

// HazardBurst runs one Bernoulli trial per bubble with success probability
// given by the cumulative burst law at the bubble's age. Every bubble must
// carry an age.
type HazardBurst struct {
	Law dist.Hazard
}

func (h HazardBurst) Burst(pop Population, rng *rand.Rand) (Population, error) {
	out := pop[:0]
	for i, b := range pop {
		if !b.AgeSet {
			return nil, fmt.Errorf("hazard burst: bubble %d has no age", i)
		}
		if dist.Bernoulli(rng, h.Law.CDF(float64(b.Age))) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// CutoffBurst deterministically removes every bubble strictly older than
// the cutoff.
type CutoffBurst struct {
	Cutoff float64
}

func (c CutoffBurst) Burst(pop Population, _ *rand.Rand) (Population, error) {
	out := pop[:0]
	for i, b := range pop {
		if !b.AgeSet {
			return nil, fmt.Errorf("cutoff burst: bubble %d has no age", i)
		}
		if float64(b.Age) > c.Cutoff {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// BudgetBurst removes every bubble whose age has reached its assigned
// lifetime. Every bubble must carry both attributes.
type BudgetBurst struct{}

func (BudgetBurst) Burst(pop Population, _ *rand.Rand) (Population, error) {
	out := pop[:0]
	for i, b := range pop {
		if !b.AgeSet {
			return nil, fmt.Errorf("budget burst: bubble %d has no age", i)
		}
		if !b.LifetimeSet {
			return nil, fmt.Errorf("budget burst: bubble %d has no lifetime", i)
		}
		if float64(b.Age) >= b.Lifetime {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// stdVariant is the shared chassis of the standard variants: normal
// production of unit-size bubbles, a per-variant burst policy, uniform
// repositioning over the bath, volume-keyed snapshots.
type stdVariant struct {
	width   float64
	rng     *rand.Rand
	produce dist.CountSampler
	burst   BurstPolicy
	life    dist.LifetimeSampler // non-nil when newborns draw a life budget
	ageNew  bool                 // newborns carry age 0
	format  func(Population) Snapshot
}

// newborn stamps one bubble out of the unit-size template plus the
// variant's bookkeeping: age zero and, for budget variants, a drawn
// lifetime.
func (v *stdVariant) newborn() *Bubble {
	b := &Bubble{Diameter: 1, Volume: 1}
	if v.ageNew {
		b.AgeSet = true
	}
	if v.life != nil {
		b.Lifetime = v.life.Sample(v.rng)
		b.LifetimeSet = true
	}
	return b
}

func (v *stdVariant) Create(pop Population) (Population, error) {
	n := v.produce.Sample(v.rng)
	for i := 0; i < n; i++ {
		pop = append(pop, v.newborn())
	}
	return pop, nil
}

func (v *stdVariant) Burst(pop Population) (Population, error) {
	return v.burst.Burst(pop, v.rng)
}

func (v *stdVariant) Move(pop Population) (Population, error) {
	for _, b := range pop {
		b.X = v.rng.Float64() * v.width
		b.Y = v.rng.Float64() * v.width
		b.Placed = true
	}
	return pop, nil
}

func (v *stdVariant) Format(pop Population) Snapshot {
	return v.format(pop)
}

func (v *stdVariant) NewbornInit() *Bubble {
	if !v.ageNew && v.life == nil {
		return nil
	}
	b := &Bubble{AgeSet: v.ageNew}
	if v.life != nil {
		b.Lifetime = v.life.Sample(v.rng)
		b.LifetimeSet = true
	}
	return b
}

// Standard variant names accepted by NewVariant.
const (
	VariantUniform     = "uniform"     // ageless, normally drawn burst count
	VariantWeibull     = "weibull"     // Weibull hazard burst over bubble age
	VariantExponential = "exponential" // memoryless hazard burst
	VariantCutoff      = "cutoff"      // deterministic burst past an age cutoff
	VariantBudget      = "budget"      // per-bubble drawn lifetime budget
)

var variantBuilders = map[string]func(Params, *rand.Rand) (Variant, error){
	VariantUniform:     newUniformVariant,
	VariantWeibull:     newWeibullVariant,
	VariantExponential: newExponentialVariant,
	VariantCutoff:      newCutoffVariant,
	VariantBudget:      newBudgetVariant,
}

// VariantNames lists the registered variant names, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(variantBuilders))
	for name := range variantBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewVariant builds the named standard variant from the given parameters.
// The returned variant draws from rng; the engine passes its population
// subsystem stream here.
func NewVariant(name string, p Params, rng *rand.Rand) (Variant, error) {
	build, ok := variantBuilders[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (valid: %s)", name, strings.Join(VariantNames(), ", "))
	}
	v, err := build(p, rng)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", name, err)
	}
	return v, nil
}

func newStdVariant(p Params, rng *rand.Rand) (*stdVariant, error) {
	produce, err := dist.NewNormalCount(p.RateProdAvg, p.RateProdStd)
	if err != nil {
		return nil, fmt.Errorf("production rate: %w", err)
	}
	return &stdVariant{
		width:   p.Width,
		rng:     rng,
		produce: produce,
		format:  FormatVolumes,
	}, nil
}

func newUniformVariant(p Params, rng *rand.Rand) (Variant, error) {
	v, err := newStdVariant(p, rng)
	if err != nil {
		return nil, err
	}
	counts, err := dist.NewNormalCount(p.RatePopAvg, p.RatePopStd)
	if err != nil {
		return nil, fmt.Errorf("burst rate: %w", err)
	}
	v.burst = UniformBurst{Counts: counts}
	return v, nil
}

func newWeibullVariant(p Params, rng *rand.Rand) (Variant, error) {
	v, err := newStdVariant(p, rng)
	if err != nil {
		return nil, err
	}
	law, err := dist.NewWeibullHazard(p.WeibullShape, p.MeanLifetime)
	if err != nil {
		return nil, err
	}
	v.burst = HazardBurst{Law: law}
	v.ageNew = true
	return v, nil
}

func newExponentialVariant(p Params, rng *rand.Rand) (Variant, error) {
	v, err := newStdVariant(p, rng)
	if err != nil {
		return nil, err
	}
	law, err := dist.NewExponentialHazard(p.MeanLifetime)
	if err != nil {
		return nil, err
	}
	v.burst = HazardBurst{Law: law}
	v.ageNew = true
	return v, nil
}

func newCutoffVariant(p Params, rng *rand.Rand) (Variant, error) {
	v, err := newStdVariant(p, rng)
	if err != nil {
		return nil, err
	}
	if p.LifetimeCutoff < 0 {
		return nil, fmt.Errorf("lifetime_cutoff %v: must be >= 0", p.LifetimeCutoff)
	}
	v.burst = CutoffBurst{Cutoff: p.LifetimeCutoff}
	v.ageNew = true
	return v, nil
}

func newBudgetVariant(p Params, rng *rand.Rand) (Variant, error) {
	v, err := newStdVariant(p, rng)
	if err != nil {
		return nil, err
	}
	life, err := dist.NewWeibullLifetime(p.WeibullShape, p.MeanLifetime)
	if err != nil {
		return nil, err
	}
	v.burst = BudgetBurst{}
	v.life = life
	v.ageNew = true
	return v, nil
}
