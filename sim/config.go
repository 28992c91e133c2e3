// Defines Params, the full numeric configuration of a simulation run, with
// the documented defaults, validation, and the flat map view the
// persistence layer stores alongside each run.

package sim

import (
	"fmt"
	"math"
)

// Params configures one engine instance. The zero value is not usable;
// start from DefaultParams and override. All lengths are in diameter
// units, all durations in steps.
type Params struct {
	Steps    int     // Default number of steps for Run when the caller does not say
	Width    float64 // Side length of the square bath surface
	NBubbles int     // Initial population size at construction

	RateProdAvg float64 // Mean of the normal production-count draw per step
	RateProdStd float64 // Std dev of the production-count draw

	RatePopAvg float64 // Mean of the uniform-variant burst-count draw per step
	RatePopStd float64 // Std dev of the burst-count draw

	Meniscus   float64 // Surface-to-surface gap below which a pair may coalesce
	MergeProba float64 // Probability that an eligible pair actually merges

	MeanLifetime float64 // Scale parameter of the lifetime law (Weibull or
	// exponential). Passed straight through as the scale, so for the
	// Weibull variants the true mean is MeanLifetime*Gamma(1+1/shape).
	WeibullShape   float64 // Shape parameter of the Weibull lifetime law
	LifetimeCutoff float64 // Age cutoff of the deterministic burst variant

	DUnit float64 // Physical diameter of a volume-1 bubble; converts
	// size keys to diameters at analysis time, the geometry itself runs
	// in diameter units

	Seed int64 // Master RNG seed; 0 lets the caller pick one from the clock
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		Steps:          100,
		Width:          30,
		NBubbles:       1,
		RateProdAvg:    16,
		RateProdStd:    4,
		RatePopAvg:     10,
		RatePopStd:     2,
		Meniscus:       1,
		MergeProba:     1,
		MeanLifetime:   10,
		WeibullShape:   4.0 / 3.0,
		LifetimeCutoff: 10,
		DUnit:          math.Cbrt(6 / math.Pi),
		Seed:           0,
	}
}

// Validate rejects configurations no engine can run. Variant constructors
// add their own checks for the parameters only they consume.
func (p Params) Validate() error {
	if p.Steps < 0 {
		return fmt.Errorf("steps %d: must be >= 0", p.Steps)
	}
	if p.Width <= 0 {
		return fmt.Errorf("width %v: must be > 0", p.Width)
	}
	if p.NBubbles < 0 {
		return fmt.Errorf("n_bubbles %d: must be >= 0", p.NBubbles)
	}
	if p.RateProdStd < 0 || p.RatePopStd < 0 {
		return fmt.Errorf("rate std devs (%v, %v): must be >= 0", p.RateProdStd, p.RatePopStd)
	}
	if p.MergeProba < 0 || p.MergeProba > 1 {
		return fmt.Errorf("merging_probability %v: must be in [0, 1]", p.MergeProba)
	}
	if p.DUnit <= 0 {
		return fmt.Errorf("d_unit %v: must be > 0", p.DUnit)
	}
	return nil
}

// Map returns the flat name -> value view used by the persistence layer.
// Names follow the historical parameter naming.
func (p Params) Map() map[string]float64 {
	return map[string]float64{
		"steps":               float64(p.Steps),
		"width":               p.Width,
		"n_bubbles":           float64(p.NBubbles),
		"rate_prod_avg":       p.RateProdAvg,
		"rate_prod_std":       p.RateProdStd,
		"rate_pop_avg":        p.RatePopAvg,
		"rate_pop_std":        p.RatePopStd,
		"meniscus":            p.Meniscus,
		"merging_probability": p.MergeProba,
		"mean_lifetime":       p.MeanLifetime,
		"weibull_shape":       p.WeibullShape,
		"lifetime_cutoff":     p.LifetimeCutoff,
		"d_unit":              p.DUnit,
		"seed":                float64(p.Seed),
	}
}

// ParamsFromMap rebuilds Params from the stored flat view, starting from
// the defaults so runs written by older versions still load. Unknown names
// are ignored.
func ParamsFromMap(m map[string]float64) Params {
	p := DefaultParams()
	for name, v := range m {
		switch name {
		case "steps":
			p.Steps = int(v)
		case "width":
			p.Width = v
		case "n_bubbles":
			p.NBubbles = int(v)
		case "rate_prod_avg":
			p.RateProdAvg = v
		case "rate_prod_std":
			p.RateProdStd = v
		case "rate_pop_avg":
			p.RatePopAvg = v
		case "rate_pop_std":
			p.RatePopStd = v
		case "meniscus":
			p.Meniscus = v
		case "merging_probability":
			p.MergeProba = v
		case "mean_lifetime":
			p.MeanLifetime = v
		case "weibull_shape":
			p.WeibullShape = v
		case "lifetime_cutoff":
			p.LifetimeCutoff = v
		case "d_unit":
			p.DUnit = v
		case "seed":
			p.Seed = int64(v)
		}
	}
	return p
}
