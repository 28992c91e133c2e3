package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// CountSampler draws per-step event counts (bubbles produced, bubbles
// burst).
type CountSampler interface {
	// Sample returns a non-negative count. Negative draws are clamped to
	// zero, never resampled.
	Sample(rng *rand.Rand) int
}

// NormalCount draws counts from a normal law rounded to the nearest
// integer.
type NormalCount struct {
	mean, stdDev float64
}

// NewNormalCount validates the parameters of a NormalCount sampler.
func NewNormalCount(mean, stdDev float64) (*NormalCount, error) {
	if stdDev < 0 {
		return nil, fmt.Errorf("normal count: std dev %v must be >= 0", stdDev)
	}
	return &NormalCount{mean: mean, stdDev: stdDev}, nil
}

func (s *NormalCount) Sample(rng *rand.Rand) int {
	n := int(math.Round(rng.NormFloat64()*s.stdDev + s.mean))
	if n < 0 {
		return 0
	}
	return n
}

// ConstantCount always returns the same count. Used to switch a phase off
// (N = 0) or to drive deterministic scenarios in tests.
type ConstantCount struct {
	N int
}

func (s ConstantCount) Sample(_ *rand.Rand) int {
	if s.N < 0 {
		return 0
	}
	return s.N
}

// Hazard is the cumulative burst law of an aging bubble: CDF(age) is the
// probability that a bubble has burst by the given age. Burst phases use
// it as the success probability of a per-bubble Bernoulli trial.
type Hazard interface {
	// CDF returns a probability in [0, 1]; ages below zero map to 0.
	CDF(age float64) float64
}

// WeibullHazard is the Weibull cumulative law 1 - exp(-(x/scale)^shape).
type WeibullHazard struct {
	shape, scale float64
}

// NewWeibullHazard validates the parameters of a Weibull burst law.
func NewWeibullHazard(shape, scale float64) (*WeibullHazard, error) {
	if shape <= 0 {
		return nil, fmt.Errorf("weibull hazard: shape %v must be > 0", shape)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("weibull hazard: scale %v must be > 0", scale)
	}
	return &WeibullHazard{shape: shape, scale: scale}, nil
}

func (h *WeibullHazard) CDF(age float64) float64 {
	if age <= 0 {
		return 0
	}
	return 1 - math.Exp(-math.Pow(age/h.scale, h.shape))
}

// ExponentialHazard is the memoryless cumulative law 1 - exp(-x/scale).
type ExponentialHazard struct {
	scale float64
}

// NewExponentialHazard validates the parameters of an exponential burst law.
func NewExponentialHazard(scale float64) (*ExponentialHazard, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("exponential hazard: scale %v must be > 0", scale)
	}
	return &ExponentialHazard{scale: scale}, nil
}

func (h *ExponentialHazard) CDF(age float64) float64 {
	if age <= 0 {
		return 0
	}
	return 1 - math.Exp(-age/h.scale)
}

// LifetimeSampler draws assigned life budgets for newborn bubbles.
type LifetimeSampler interface {
	// Sample returns a non-negative lifetime in steps.
	Sample(rng *rand.Rand) float64
}

// WeibullLifetime draws lifetimes by Weibull inverse-CDF sampling:
// scale * (-ln U)^(1/shape).
type WeibullLifetime struct {
	shape, scale float64
}

// NewWeibullLifetime validates the parameters of a Weibull lifetime law.
func NewWeibullLifetime(shape, scale float64) (*WeibullLifetime, error) {
	if shape <= 0 {
		return nil, fmt.Errorf("weibull lifetime: shape %v must be > 0", shape)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("weibull lifetime: scale %v must be > 0", scale)
	}
	return &WeibullLifetime{shape: shape, scale: scale}, nil
}

func (s *WeibullLifetime) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
}

// ExponentialLifetime draws exponentially distributed lifetimes with the
// given mean.
type ExponentialLifetime struct {
	mean float64
}

// NewExponentialLifetime validates the parameters of an exponential
// lifetime law.
func NewExponentialLifetime(mean float64) (*ExponentialLifetime, error) {
	if mean <= 0 {
		return nil, fmt.Errorf("exponential lifetime: mean %v must be > 0", mean)
	}
	return &ExponentialLifetime{mean: mean}, nil
}

func (s *ExponentialLifetime) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// Bernoulli runs one success/failure trial with probability p. Every call
// consumes exactly one draw, so phase RNG streams stay aligned whatever
// the outcome.
func Bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}
