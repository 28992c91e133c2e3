// Tracks per-run counters and per-step phase deltas for final reporting.

package sim

import "fmt"

// Metrics aggregates what happened to the population over a run: how many
// bubbles each phase created, burst and merged away, plus the per-step
// series behind those totals. Useful for eyeballing whether a parameter
// set reaches a statistical steady state.
type Metrics struct {
	StepsRun     int // Number of completed steps
	TotalCreated int // Bubbles appended by create phases
	TotalBurst   int // Bubbles removed by burst phases
	TotalMerged  int // Net bubbles removed by coalescence (one per merge)

	CreatedPerStep []int // Create-phase delta, one entry per step
	BurstPerStep   []int // Burst-phase delta, one entry per step
	MergedPerStep  []int // Successful merges, one entry per step
	CountPerStep   []int // Live population size after each step
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// record appends one completed step's phase deltas.
func (m *Metrics) record(created, burst, merged, count int) {
	m.StepsRun++
	m.TotalCreated += created
	m.TotalBurst += burst
	m.TotalMerged += merged
	m.CreatedPerStep = append(m.CreatedPerStep, created)
	m.BurstPerStep = append(m.BurstPerStep, burst)
	m.MergedPerStep = append(m.MergedPerStep, merged)
	m.CountPerStep = append(m.CountPerStep, count)
}

// Print displays the aggregated run metrics.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Steps Run        : %d\n", m.StepsRun)
	fmt.Printf("Bubbles Created  : %d\n", m.TotalCreated)
	fmt.Printf("Bubbles Burst    : %d\n", m.TotalBurst)
	fmt.Printf("Merges           : %d\n", m.TotalMerged)
	if m.StepsRun > 0 {
		last := m.CountPerStep[len(m.CountPerStep)-1]
		sum := 0
		for _, c := range m.CountPerStep {
			sum += c
		}
		fmt.Printf("Final Population : %d\n", last)
		fmt.Printf("Mean Population  : %.2f\n", float64(sum)/float64(m.StepsRun))
	}
}
