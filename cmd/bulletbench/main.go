// Command bulletbench steps the canned scenarios and reports timings, solver
// residuals and final poses.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jakecoffman/bullet"
	"github.com/jakecoffman/bullet/scenarios"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bulletbench",
		Short:        "Run rigid body scenarios",
		SilenceUsage: true,
	}
	root.AddCommand(newListCmd(), newRunCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range scenarios.All() {
				fmt.Fprintf(w, "%s\t%d steps\t%s\n", s.Name, s.Steps, s.Description)
			}
			w.Flush()
		},
	}
}

type runOptions struct {
	steps      int
	configPath string
	logLevel   string
	parallel   bool
	every      int
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Step a scenario and print stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args[0], opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.steps, "steps", 0, "steps to run, 0 uses the scenario default")
	flags.StringVar(&opts.configPath, "config", "", "yaml world config")
	flags.StringVar(&opts.logLevel, "log-level", "", "overrides log.level of the config")
	flags.BoolVar(&opts.parallel, "parallel", false, "solve islands in parallel")
	flags.IntVar(&opts.every, "every", 60, "print stats every n steps")
	return cmd
}

func loadConfig(opts runOptions) (bullet.Config, error) {
	cfg := bullet.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = bullet.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.parallel {
		cfg.ParallelIslands = true
	}
	return cfg, cfg.Validate()
}

func run(out io.Writer, name string, opts runOptions) error {
	scenario, err := scenarios.Lookup(name)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	setup, err := scenario.Build(cfg)
	if err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}
	defer setup.World.Logger().Sync()

	steps := opts.steps
	if steps <= 0 {
		steps = scenario.Steps
	}
	every := opts.every
	if every <= 0 {
		every = steps
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "step\ttime\tislands\tcontacts\titerations\tresidual\t")

	var total, worst time.Duration
	for i := 0; i < steps; i++ {
		if setup.BeforeStep != nil {
			setup.BeforeStep(setup, i)
		}
		start := time.Now()
		setup.World.Step(cfg.FixedTimeStep)
		elapsed := time.Since(start)
		total += elapsed
		worst = max(worst, elapsed)

		if (i+1)%every == 0 || i == steps-1 {
			stats := setup.World.LastSolverStats()
			fmt.Fprintf(w, "%d\t%v\t%d\t%d\t%d\t%.3g\t\n", i+1, elapsed, stats.Islands, stats.Contacts, stats.Iterations, stats.Residual)
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\n%s: %d steps, total %v, mean %v, worst %v\n\n", name, steps, total, total/time.Duration(steps), worst)

	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "body\tposition\tlinear velocity\tstate\t")
	for i, body := range setup.Tracked {
		fmt.Fprintf(w, "%d\t%v\t%v\t%s\t\n", i, body.CenterOfMassPosition(), body.LinearVelocity(), bullet.ActivationStateName(body.ActivationState()))
	}
	return w.Flush()
}
