package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cobubbles/cobubbles/sim"
)

var (
	resumeDB    string // SQLite database holding the run
	resumeID    string // Run to continue
	resumeSteps int    // Steps to append; 0 uses the stored step default
	resumeSeed  int64  // Seed for the continuation (0 picks one from the clock)
)

// resumeCmd continues a stored run: the live population is rebuilt from
// the last snapshot (ages, lifetimes and locations restart fresh) and the
// new steps are appended to the stored history.
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a stored simulation run",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if resumeDB == "" || resumeID == "" {
			logrus.Fatalf("--db and --id are required")
		}
		st := openStore(resumeDB)
		defer st.Close()
		ctx := context.Background()

		run, ok, err := st.LoadRun(ctx, resumeID)
		if err != nil {
			logrus.Fatalf("Could not load run %s: %v", resumeID, err)
		}
		if !ok {
			logrus.Fatalf("No run %s in %s", resumeID, resumeDB)
		}

		params := sim.ParamsFromMap(run.Params)
		// Rerunning the stored seed would replay the original draws, so
		// the continuation always gets its own.
		params.Seed = resumeSeed
		if params.Seed == 0 {
			params.Seed = time.Now().UnixNano()
			logrus.Infof("No seed given, picked %d from the clock", params.Seed)
		}

		engine, err := sim.ResumeEngine(params, run.Variant, run.History)
		if err != nil {
			logrus.Fatalf("Could not resume run %s: %v", resumeID, err)
		}
		prev := len(run.History)
		if err := engine.Run(resumeSteps); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		engine.Metrics.Print()

		if err := st.AppendSteps(ctx, run.ID, prev, engine.History[prev:]); err != nil {
			logrus.Fatalf("Could not save the continued run: %v", err)
		}
		fmt.Printf("Run %s now holds %d steps\n", run.ID, len(engine.History))
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDB, "db", "", "SQLite database path")
	resumeCmd.Flags().StringVar(&resumeID, "id", "", "Run ID to continue")
	resumeCmd.Flags().IntVar(&resumeSteps, "steps", 0, "Steps to append (0 uses the run's stored step count)")
	resumeCmd.Flags().Int64Var(&resumeSeed, "seed", 0, "Seed for the continuation (0 picks one from the clock)")

	rootCmd.AddCommand(resumeCmd)
}
