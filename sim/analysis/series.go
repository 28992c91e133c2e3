// Implements the per-step statistics table and its incremental cache.

package analysis

import (
	"fmt"
	"strings"
)

// seriesColumns fixes the column order of the per-step table.
var seriesColumns = []string{
	"count",
	"sum_n_d^1", "avg_d^1",
	"sum_n_d^2", "avg_d^2",
	"sum_n_d^3", "avg_d^3",
}

// StepSeries is the per-step statistics table: for each history step, the
// live count plus the sum and count-average of diameter powers one to
// three. Averages over an empty step are NaN.
//
// Rows are appended by Analyzer.Series and never recomputed, so pointers
// into the table stay valid while the history grows.
type StepSeries struct {
	Count []float64
	SumD  [3][]float64 // Power p stored at index p-1
	AvgD  [3][]float64
}

// Len returns the number of computed steps.
func (s *StepSeries) Len() int { return len(s.Count) }

// ColumnNames lists the column names in table order.
func ColumnNames() []string {
	names := make([]string, len(seriesColumns))
	copy(names, seriesColumns)
	return names
}

// Column returns the named column. Valid names are count, sum_n_d^p and
// avg_d^p for p in 1..3.
func (s *StepSeries) Column(name string) ([]float64, error) {
	if name == "count" {
		return s.Count, nil
	}
	for p := 1; p <= 3; p++ {
		if name == fmt.Sprintf("sum_n_d^%d", p) {
			return s.SumD[p-1], nil
		}
		if name == fmt.Sprintf("avg_d^%d", p) {
			return s.AvgD[p-1], nil
		}
	}
	return nil, fmt.Errorf("unknown series column %q (valid: %s)",
		name, strings.Join(seriesColumns, ", "))
}

// Series returns the per-step table, extending the cached rows to cover
// any steps appended to History since the last call.
func (a *Analyzer) Series() *StepSeries {
	if a.series == nil {
		a.series = &StepSeries{}
	}
	s := a.series
	for i := s.Len(); i < len(a.History); i++ {
		snap := a.History[i]
		count := 0.0
		var sums [3]float64
		for key, c := range snap {
			d := a.diam(key)
			n := float64(c)
			count += n
			sums[0] += n * d
			sums[1] += n * d * d
			sums[2] += n * d * d * d
		}
		s.Count = append(s.Count, count)
		for p := 0; p < 3; p++ {
			s.SumD[p] = append(s.SumD[p], sums[p])
			s.AvgD[p] = append(s.AvgD[p], sums[p]/count)
		}
	}
	return s
}
