// Implements the step engine: the four-phase population state machine that
// drives a simulation run and accumulates the per-step history.

package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Engine advances one bubble population through discrete steps. Each step
// applies, in order: the variant's create, burst and move phases, the
// coalescence sweep, the age advance, and finally the snapshot capture
// appended to History.
//
// An engine owns its population and history exclusively and is not safe
// for concurrent use; parallel ensembles run one engine per worker.
type Engine struct {
	Params      Params
	VariantName string     // Registry name, empty for caller-supplied variants
	History     []Snapshot // Append-only; entry 0 is the pre-step state
	Metrics     *Metrics

	variant Variant
	rng     *PartitionedRNG
	pop     Population
}

// NewEngine builds an engine for the named standard variant, seeds the
// initial population and captures snapshot 0.
func NewEngine(params Params, variantName string) (*Engine, error) {
	rng := NewPartitionedRNG(NewSimulationKey(params.Seed))
	v, err := NewVariant(variantName, params, rng.ForSubsystem(SubsystemPopulation))
	if err != nil {
		return nil, err
	}
	e, err := newEngine(params, v, rng)
	if err != nil {
		return nil, err
	}
	e.VariantName = variantName
	return e, nil
}

// NewCustomEngine builds an engine around a caller-supplied variant. The
// variant should draw from rng.ForSubsystem(SubsystemPopulation) of a
// PartitionedRNG built over the same seed if reproducibility matters.
func NewCustomEngine(params Params, v Variant) (*Engine, error) {
	return newEngine(params, v, NewPartitionedRNG(NewSimulationKey(params.Seed)))
}

func newEngine(params Params, v Variant, rng *PartitionedRNG) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if v == nil {
		return nil, errors.New("engine: variant must not be nil")
	}
	e := &Engine{
		Params:  params,
		Metrics: NewMetrics(),
		variant: v,
		rng:     rng,
	}
	pop := make(Population, 0, params.NBubbles)
	for i := 0; i < params.NBubbles; i++ {
		b, err := e.seedBubble(1)
		if err != nil {
			return nil, err
		}
		pop = append(pop, b)
	}
	e.pop = pop
	e.History = append(e.History, v.Format(pop))
	return e, nil
}

// ResumeEngine rebuilds an engine from a stored history: the history is
// adopted as-is and the live population is expanded from the last
// snapshot, one fresh unplaced bubble per counted unit. Ages, lifetimes
// and locations are not reconstructable; resumed bubbles restart from the
// variant's newborn bookkeeping.
func ResumeEngine(params Params, variantName string, history []Snapshot) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if len(history) == 0 {
		return nil, errors.New("resume: history is empty")
	}
	rng := NewPartitionedRNG(NewSimulationKey(params.Seed))
	v, err := NewVariant(variantName, params, rng.ForSubsystem(SubsystemPopulation))
	if err != nil {
		return nil, err
	}

	last := history[len(history)-1]
	pop := make(Population, 0, last.Count())
	e := &Engine{
		Params:      params,
		VariantName: variantName,
		Metrics:     NewMetrics(),
		variant:     v,
		rng:         rng,
	}
	for _, size := range last.Keys() {
		count := last[size]
		if size < 1 || count < 0 {
			return nil, fmt.Errorf("resume: malformed snapshot entry %d -> %d", size, count)
		}
		for i := 0; i < count; i++ {
			b, err := e.seedBubble(size)
			if err != nil {
				return nil, err
			}
			pop = append(pop, b)
		}
	}
	e.pop = pop
	e.History = append(e.History, history...)
	logrus.Infof("resumed %s run at step %d with %d bubbles", variantName, len(history)-1, len(pop))
	return e, nil
}

// seedBubble builds one engine-seeded bubble of the given integer volume,
// with the variant's newborn bookkeeping applied on top.
func (e *Engine) seedBubble(volume int) (*Bubble, error) {
	b := &Bubble{Diameter: math.Cbrt(float64(volume)), Volume: volume}
	if err := b.Assign(e.variant.NewbornInit()); err != nil {
		return nil, fmt.Errorf("seed bubble: %w", err)
	}
	return b, nil
}

// Live returns the current population. It stays owned by the engine;
// callers must not mutate it.
func (e *Engine) Live() Population {
	return e.pop
}

// Step advances the simulation by one step and appends one snapshot. On a
// phase error the step aborts without appending: earlier phase effects are
// not rolled back and the engine should be discarded.
func (e *Engine) Step() error {
	before := len(e.pop)
	pop, err := e.variant.Create(e.pop)
	if err != nil {
		return fmt.Errorf("create phase: %w", err)
	}
	created := len(pop) - before
	e.pop = pop

	before = len(pop)
	pop, err = e.variant.Burst(pop)
	if err != nil {
		return fmt.Errorf("burst phase: %w", err)
	}
	burst := before - len(pop)
	e.pop = pop

	pop, err = e.variant.Move(pop)
	if err != nil {
		return fmt.Errorf("move phase: %w", err)
	}
	e.pop = pop

	merged := 0
	if len(pop) >= 2 {
		before = len(pop)
		pop, err = MergeClosest(pop, e.Params.Meniscus, e.Params.MergeProba,
			e.rng.ForSubsystem(SubsystemCoalescence), e.variant.NewbornInit)
		if err != nil {
			return fmt.Errorf("merge phase: %w", err)
		}
		merged = before - len(pop)
		e.pop = pop
	}

	for _, b := range pop {
		if b.AgeSet {
			b.Age++
		}
	}

	e.History = append(e.History, e.variant.Format(pop))
	e.Metrics.record(created, burst, merged, len(pop))
	logrus.Debugf("step %d: +%d created, -%d burst, -%d merged, %d live",
		len(e.History)-1, created, burst, merged, len(pop))
	return nil
}

// Run performs exactly steps sequential steps, falling back to
// Params.Steps when steps <= 0. Completed steps stay in History when a
// later step fails.
func (e *Engine) Run(steps int) error {
	if steps <= 0 {
		steps = e.Params.Steps
	}
	logrus.Infof("running %d steps from step %d (%d bubbles live)", steps, len(e.History)-1, len(e.pop))
	for i := 0; i < steps; i++ {
		if err := e.Step(); err != nil {
			return fmt.Errorf("step %d: %w", len(e.History), err)
		}
	}
	logrus.Infof("run complete: %d steps, %d bubbles live", e.Metrics.StepsRun, len(e.pop))
	return nil
}
