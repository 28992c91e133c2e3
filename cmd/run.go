package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cobubbles/cobubbles/sim"
	"github.com/cobubbles/cobubbles/sim/store"
)

var (
	// CLI flags for the simulation parameters
	variantName    string  // Simulation variant to run
	steps          int     // Number of steps to simulate
	seed           int64   // Master RNG seed (0 picks one from the clock)
	width          float64 // Side length of the square bath surface
	nBubbles       int     // Initial population size
	rateProdAvg    float64 // Mean bubbles produced per step
	rateProdStd    float64 // Stddev of the production draw
	ratePopAvg     float64 // Mean bubbles burst per step (uniform variant)
	ratePopStd     float64 // Stddev of the burst draw
	meniscus       float64 // Surface gap below which bubbles may coalesce
	mergeProba     float64 // Probability an eligible pair merges
	meanLifetime   float64 // Scale of the lifetime law
	weibullShape   float64 // Shape of the Weibull lifetime law
	lifetimeCutoff float64 // Age cutoff for the cutoff variant

	// CLI flags for run orchestration
	configPath   string // Optional YAML scenario file
	scenarioName string // Preset name inside the scenario file
	dbPath       string // Optional SQLite database for saving runs
	ensembleRuns int    // Number of independent runs to execute
)

// runCmd executes one or more simulations using parameters from CLI
// flags and an optional scenario preset
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bubble population simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		params := sim.DefaultParams()
		variant := variantName

		if configPath != "" {
			scenarios, err := LoadScenarios(configPath)
			if err != nil {
				logrus.Fatalf("Invalid scenario file: %v", err)
			}
			sc, err := PickScenario(scenarios, scenarioName)
			if err != nil {
				logrus.Fatalf("Invalid scenario: %v", err)
			}
			params, _, err = sc.Apply(params)
			if err != nil {
				logrus.Fatalf("Invalid scenario: %v", err)
			}
			if sc.Variant != "" && !cmd.Flags().Changed("variant") {
				variant = sc.Variant
			}
		}

		applyFlagOverrides(cmd, &params)

		if params.Seed == 0 {
			params.Seed = time.Now().UnixNano()
			logrus.Infof("No seed given, picked %d from the clock", params.Seed)
		}
		if ensembleRuns < 1 {
			logrus.Fatalf("--runs must be at least 1, got %d", ensembleRuns)
		}

		st := openStore(dbPath)
		if st != nil {
			defer st.Close()
		}

		// Each ensemble member gets an isolated seed derived from the
		// master one, so members stay independent but reproducible.
		masterSeed := params.Seed
		for i := 0; i < ensembleRuns; i++ {
			p := params
			if ensembleRuns > 1 {
				p.Seed = sim.DeriveSeed(masterSeed, sim.SubsystemMember(i))
				logrus.Infof("ensemble member %d/%d (seed %d)", i+1, ensembleRuns, p.Seed)
			}
			runOne(p, variant, st)
		}
	},
}

// openStore opens the SQLite store when a path is given, nil otherwise.
func openStore(path string) store.Store {
	if path == "" {
		return nil
	}
	st := store.NewSQLiteStore(path)
	if err := st.Init(context.Background()); err != nil {
		logrus.Fatalf("Could not open database %s: %v", path, err)
	}
	return st
}

// runOne builds an engine, runs it to completion and optionally saves
// the history.
func runOne(params sim.Params, variant string, st store.Store) {
	startTime := time.Now()

	engine, err := sim.NewEngine(params, variant)
	if err != nil {
		logrus.Fatalf("Could not configure simulation: %v", err)
	}
	if err := engine.Run(0); err != nil {
		logrus.Fatalf("Simulation failed: %v", err)
	}
	logrus.Infof("Simulation took %v", time.Since(startTime))

	engine.Metrics.Print()

	if st != nil {
		run := store.NewRun(variant, params)
		run.History = engine.History
		if err := st.SaveRun(context.Background(), run); err != nil {
			logrus.Fatalf("Could not save run: %v", err)
		}
		fmt.Printf("Saved run %s\n", run.ID)
	}
}

// applyFlagOverrides copies every explicitly set parameter flag onto p,
// so flags win over scenario presets.
func applyFlagOverrides(cmd *cobra.Command, p *sim.Params) {
	flags := cmd.Flags()
	if flags.Changed("steps") {
		p.Steps = steps
	}
	if flags.Changed("seed") {
		p.Seed = seed
	}
	if flags.Changed("width") {
		p.Width = width
	}
	if flags.Changed("n-bubbles") {
		p.NBubbles = nBubbles
	}
	if flags.Changed("rate-prod") {
		p.RateProdAvg = rateProdAvg
	}
	if flags.Changed("rate-prod-stdev") {
		p.RateProdStd = rateProdStd
	}
	if flags.Changed("rate-pop") {
		p.RatePopAvg = ratePopAvg
	}
	if flags.Changed("rate-pop-stdev") {
		p.RatePopStd = ratePopStd
	}
	if flags.Changed("meniscus") {
		p.Meniscus = meniscus
	}
	if flags.Changed("merge-proba") {
		p.MergeProba = mergeProba
	}
	if flags.Changed("mean-lifetime") {
		p.MeanLifetime = meanLifetime
	}
	if flags.Changed("weibull-shape") {
		p.WeibullShape = weibullShape
	}
	if flags.Changed("lifetime-cutoff") {
		p.LifetimeCutoff = lifetimeCutoff
	}
}

// init sets up CLI flags and attaches the run subcommand
func init() {
	defaults := sim.DefaultParams()

	runCmd.Flags().StringVar(&variantName, "variant", sim.VariantUniform, "Simulation variant (uniform, weibull, exponential, cutoff, budget)")
	runCmd.Flags().IntVar(&steps, "steps", defaults.Steps, "Number of simulation steps")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Master RNG seed (0 picks one from the clock)")
	runCmd.Flags().Float64Var(&width, "width", defaults.Width, "Side length of the square bath surface")
	runCmd.Flags().IntVar(&nBubbles, "n-bubbles", defaults.NBubbles, "Initial number of bubbles")
	runCmd.Flags().Float64Var(&rateProdAvg, "rate-prod", defaults.RateProdAvg, "Mean bubbles produced per step")
	runCmd.Flags().Float64Var(&rateProdStd, "rate-prod-stdev", defaults.RateProdStd, "Stddev of bubbles produced per step")
	runCmd.Flags().Float64Var(&ratePopAvg, "rate-pop", defaults.RatePopAvg, "Mean bubbles burst per step (uniform variant)")
	runCmd.Flags().Float64Var(&ratePopStd, "rate-pop-stdev", defaults.RatePopStd, "Stddev of bubbles burst per step")
	runCmd.Flags().Float64Var(&meniscus, "meniscus", defaults.Meniscus, "Surface-to-surface gap below which bubbles may merge")
	runCmd.Flags().Float64Var(&mergeProba, "merge-proba", defaults.MergeProba, "Probability that an eligible pair merges")
	runCmd.Flags().Float64Var(&meanLifetime, "mean-lifetime", defaults.MeanLifetime, "Scale parameter of the lifetime law")
	runCmd.Flags().Float64Var(&weibullShape, "weibull-shape", defaults.WeibullShape, "Shape parameter of the Weibull lifetime law")
	runCmd.Flags().Float64Var(&lifetimeCutoff, "lifetime-cutoff", defaults.LifetimeCutoff, "Age cutoff of the cutoff variant")

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML scenario file with named presets")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "Preset name inside the scenario file")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path; when set, runs are saved")
	runCmd.Flags().IntVar(&ensembleRuns, "runs", 1, "Number of independent runs with derived seeds")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
