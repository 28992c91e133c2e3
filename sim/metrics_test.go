package sim

import "testing"

// TestMetrics_RecordAccumulates verifies the per-step series and totals
// stay in lockstep.
//
// Given: An empty Metrics
// When: Two steps are recorded
// Then: Totals are sums and every per-step series has two entries
func TestMetrics_RecordAccumulates(t *testing.T) {
	m := NewMetrics()

	m.record(5, 2, 1, 12)
	m.record(3, 4, 0, 11)

	if m.StepsRun != 2 {
		t.Errorf("StepsRun = %d, want 2", m.StepsRun)
	}
	if m.TotalCreated != 8 || m.TotalBurst != 6 || m.TotalMerged != 1 {
		t.Errorf("totals = (%d, %d, %d), want (8, 6, 1)",
			m.TotalCreated, m.TotalBurst, m.TotalMerged)
	}
	for name, series := range map[string][]int{
		"CreatedPerStep": m.CreatedPerStep,
		"BurstPerStep":   m.BurstPerStep,
		"MergedPerStep":  m.MergedPerStep,
		"CountPerStep":   m.CountPerStep,
	} {
		if len(series) != 2 {
			t.Errorf("%s has %d entries, want 2", name, len(series))
		}
	}
	if m.CountPerStep[1] != 11 {
		t.Errorf("CountPerStep[1] = %d, want 11", m.CountPerStep[1])
	}
}

func TestMetrics_PrintEmptyDoesNotPanic(t *testing.T) {
	NewMetrics().Print()
}
