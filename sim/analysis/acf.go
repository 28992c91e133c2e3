// Implements autocorrelation estimation and the exponential-decay fit
// yielding a characteristic relaxation time per series.

package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// DefaultLags is the standard number of autocorrelation lags.
const DefaultLags = 40

// ACF estimates the sample autocorrelation of series at lags 0..nlags.
// NaN entries are dropped before estimation and the remaining values
// treated as contiguous. The estimator is the biased one, normalizing
// every lag's autocovariance by the full sample size, so the sequence
// always starts at one and decays toward zero for stationary input.
// nlags is clamped to the sample size minus one.
func ACF(series []float64, nlags int) []float64 {
	clean := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n == 0 {
		return nil
	}
	if nlags > n-1 {
		nlags = n - 1
	}
	if nlags < 0 {
		nlags = 0
	}

	mean := stat.Mean(clean, nil)
	acvf := func(lag int) float64 {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += (clean[i] - mean) * (clean[i+lag] - mean)
		}
		return sum / float64(n)
	}

	c0 := acvf(0)
	out := make([]float64, nlags+1)
	for t := 0; t <= nlags; t++ {
		out[t] = acvf(t) / c0
	}
	return out
}

// Decay is a fitted exponential relaxation exp(-t/Tau) over lag index t.
type Decay struct {
	Tau    float64 // Characteristic time, in steps
	Stderr float64 // Standard error of Tau from the fit residuals
}

// FitDecay least-squares fits exp(-t/tau) to an autocorrelation sequence
// indexed by lag, starting the search at tau = 1. The standard error
// comes from the Gauss-Newton approximation at the optimum. Degenerate
// input (fewer than two lags, or NaN correlations as produced by a
// zero-variance series) yields NaN values rather than an error.
func FitDecay(acf []float64) (Decay, error) {
	if len(acf) < 2 {
		return Decay{Tau: math.NaN(), Stderr: math.NaN()}, nil
	}
	for _, v := range acf {
		if math.IsNaN(v) {
			return Decay{Tau: math.NaN(), Stderr: math.NaN()}, nil
		}
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			tau := x[0]
			if tau <= 0 {
				return math.Inf(1)
			}
			ssr := 0.0
			for t, v := range acf {
				r := v - math.Exp(-float64(t)/tau)
				ssr += r * r
			}
			return ssr
		},
	}
	result, err := optimize.Minimize(problem, []float64{1}, nil, &optimize.NelderMead{})
	if err != nil {
		return Decay{}, fmt.Errorf("fit decay: %w", err)
	}
	if err := result.Status.Err(); err != nil {
		return Decay{}, fmt.Errorf("fit decay: %w", err)
	}
	tau := result.X[0]

	// One-parameter Gauss-Newton error: se = sqrt(s^2 / sum J_i^2) with
	// J_i the Jacobian of the model at the optimum.
	sumJ2 := 0.0
	for t := range acf {
		j := math.Exp(-float64(t)/tau) * float64(t) / (tau * tau)
		sumJ2 += j * j
	}
	s2 := result.F / float64(len(acf)-1)
	stderr := math.Sqrt(s2 / sumJ2)
	return Decay{Tau: tau, Stderr: stderr}, nil
}

// DecayTimes fits a relaxation time to every series column, keyed by
// column name. Degenerate columns carry NaN entries; columns whose fit
// fails outright are reported in the returned map of failures instead.
func DecayTimes(s *StepSeries, nlags int) (map[string]Decay, map[string]error) {
	times := make(map[string]Decay)
	failures := make(map[string]error)
	for _, name := range ColumnNames() {
		col, err := s.Column(name)
		if err != nil {
			failures[name] = err
			continue
		}
		d, err := FitDecay(ACF(col, nlags))
		if err != nil {
			failures[name] = err
			continue
		}
		times[name] = d
	}
	return times, failures
}
