package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cobubbles/cobubbles/sim"
	"github.com/cobubbles/cobubbles/sim/analysis"
	"github.com/cobubbles/cobubbles/sim/store"
)

var (
	analyzeDB     string // SQLite database holding the runs
	analyzeID     string // Run to analyze; empty lists the stored runs
	analyzeEvery  int    // Keep every k-th step
	analyzeOffset int    // First step of the selection
	analyzeLags   int    // Autocorrelation lags for the decay fit
)

// analyzeCmd prints the aggregate statistics of a stored run: the size
// histogram, its moments, and the fitted relaxation time per series
// column. Without --id it lists the runs the database holds.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report histogram, moments and relaxation times of a stored run",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if analyzeDB == "" {
			logrus.Fatalf("--db is required")
		}
		if analyzeEvery < 1 {
			logrus.Fatalf("--every must be at least 1, got %d", analyzeEvery)
		}
		st := openStore(analyzeDB)
		defer st.Close()
		ctx := context.Background()

		if analyzeID == "" {
			listRuns(ctx, st)
			return
		}

		run, ok, err := st.LoadRun(ctx, analyzeID)
		if err != nil {
			logrus.Fatalf("Could not load run %s: %v", analyzeID, err)
		}
		if !ok {
			logrus.Fatalf("No run %s in %s", analyzeID, analyzeDB)
		}

		params := sim.ParamsFromMap(run.Params)
		a := analysis.New(run.History)
		// Size keys are integer volumes; d_unit converts them to
		// physical diameters.
		a.Diameter = func(key int) float64 {
			return params.DUnit * math.Cbrt(float64(key))
		}

		r := analysis.EveryK(analyzeEvery, analyzeOffset)
		fmt.Printf("Run %s (%s, %d steps)\n", run.ID, run.Variant, len(run.History))
		printHistogram(a.Histogram(r))
		printMoments(a.Moments(r))
		printDecayTimes(a.Series(), analyzeLags)
	},
}

// listRuns prints one line per stored run, oldest first.
func listRuns(ctx context.Context, st store.Store) {
	infos, err := st.ListRuns(ctx)
	if err != nil {
		logrus.Fatalf("Could not list runs: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No stored runs")
		return
	}
	fmt.Printf("%-36s  %-12s  %6s  %s\n", "ID", "VARIANT", "STEPS", "CREATED")
	for _, info := range infos {
		fmt.Printf("%-36s  %-12s  %6d  %s\n",
			info.ID, info.Variant, info.Steps, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printHistogram(h analysis.Hist) {
	fmt.Println("=== Size Histogram ===")
	if h.Total() == 0 {
		fmt.Println("(no bubbles in the selected steps)")
		return
	}
	fmt.Printf("%8s  %8s\n", "VOLUME", "COUNT")
	for _, key := range h.Keys() {
		fmt.Printf("%8d  %8d\n", key, h[key])
	}
}

func printMoments(m analysis.Moments) {
	fmt.Println("=== Moments (diameters in units of d_unit x volume^(1/3)) ===")
	fmt.Printf("Count         : %d\n", m.Count)
	fmt.Printf("Avg Diameter  : %.4f\n", m.AvgDiameter)
	fmt.Printf("Coverage      : %.4f\n", m.Coverage)
	fmt.Printf("Mean Volume   : %.4f\n", m.MeanVolume)
}

func printDecayTimes(s *analysis.StepSeries, lags int) {
	times, failures := analysis.DecayTimes(s, lags)
	fmt.Printf("=== Relaxation Times (%d lags) ===\n", lags)
	fmt.Printf("%-12s  %10s  %10s\n", "SERIES", "TAU", "STDERR")
	for _, name := range analysis.ColumnNames() {
		if err, bad := failures[name]; bad {
			fmt.Printf("%-12s  fit failed: %v\n", name, err)
			continue
		}
		d := times[name]
		fmt.Printf("%-12s  %10.3f  %10.3f\n", name, d.Tau, d.Stderr)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDB, "db", "", "SQLite database path")
	analyzeCmd.Flags().StringVar(&analyzeID, "id", "", "Run ID to analyze (empty lists stored runs)")
	analyzeCmd.Flags().IntVar(&analyzeEvery, "every", 1, "Analyze every k-th step")
	analyzeCmd.Flags().IntVar(&analyzeOffset, "offset", 0, "First step of the analyzed range")
	analyzeCmd.Flags().IntVar(&analyzeLags, "lags", analysis.DefaultLags, "Autocorrelation lags for the decay fit")

	rootCmd.AddCommand(analyzeCmd)
}
