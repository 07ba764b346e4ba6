package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beka-birhanu/vinom-sandbox/config"
	"github.com/beka-birhanu/vinom-sandbox/game"
	"github.com/beka-birhanu/vinom-sandbox/generator"
	logger "github.com/beka-birhanu/vinom-sandbox/infrastruture/log"
	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/scenario"
)

var runFlags struct {
	program     string
	scenario    string
	width       int
	height      int
	generator   string
	chance      float64
	seed        int64
	maxSteps    int
	stopOnError bool
	logLevel    string
	noColor     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a step-program through a generated maze",
	Long: `Generates a maze from a scenario file and/or flags, runs the program until it
reaches FINISH or the step budget is spent, then prints the maze and the counters.
Flags override the scenario.

Example:
  vinom-sandbox run --program follower.lua --width 31 --height 21 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProgram(cmd)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.program, "program", "p", "", "step-program file (defaults to the scenario's program)")
	f.StringVarP(&runFlags.scenario, "scenario", "s", "", "scenario YAML file")
	f.IntVar(&runFlags.width, "width", 0, "maze width")
	f.IntVar(&runFlags.height, "height", 0, "maze height")
	f.StringVarP(&runFlags.generator, "generator", "g", "", "generator: "+strings.Join(generator.Names(), ", "))
	f.Float64Var(&runFlags.chance, "chance", 0, "extra edge chance in [0, 1], below 1 for dfs")
	f.Int64Var(&runFlags.seed, "seed", 0, "generator seed (random when unset)")
	f.IntVar(&runFlags.maxSteps, "max-steps", 0, "step budget")
	f.BoolVar(&runFlags.stopOnError, "stop-on-error", false, "stop after a step reports an error")
	f.StringVar(&runFlags.logLevel, "log-level", "warn", "log level")
	f.BoolVar(&runFlags.noColor, "no-color", false, "print the maze without colors")
}

// loadScenario merges the scenario file with the flags the user set.
func loadScenario(cmd *cobra.Command) (*scenario.Scenario, error) {
	sc := scenario.Default()
	if runFlags.scenario != "" {
		loaded, err := scenario.Load(runFlags.scenario)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}

	f := cmd.Flags()
	if f.Changed("program") {
		sc.Program = runFlags.program
	}
	if f.Changed("width") {
		sc.Width = runFlags.width
	}
	if f.Changed("height") {
		sc.Height = runFlags.height
	}
	if f.Changed("generator") {
		sc.Generator = runFlags.generator
	}
	if f.Changed("chance") {
		sc.ExtraEdgeChance = runFlags.chance
	}
	if f.Changed("seed") {
		seed := runFlags.seed
		sc.Seed = &seed
	}
	if f.Changed("max-steps") {
		sc.MaxSteps = runFlags.maxSteps
	}
	if f.Changed("stop-on-error") {
		sc.StopOnError = runFlags.stopOnError
	}
	if sc.Program == "" {
		return nil, fmt.Errorf("no program: use --program or set program in the scenario")
	}
	return sc, sc.Validate()
}

func runProgram(cmd *cobra.Command) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	code, err := os.ReadFile(sc.Program)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	simLogger, err := logger.New("SIMULATOR", config.ColorBlue, cmd.ErrOrStderr(), runFlags.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = simLogger.Sync() }()

	m, err := maze.New(sc.Width, sc.Height)
	if err != nil {
		return err
	}
	opts := []generator.Option{generator.WithExtraEdgeChance(sc.ExtraEdgeChance)}
	if sc.Seed != nil {
		opts = append(opts, generator.WithSeed(*sc.Seed))
	}
	if err := generator.Generate(sc.Generator, m, opts...); err != nil {
		return err
	}

	constants := game.MazeConstants(m)
	for k, v := range sc.Constants {
		constants[k] = v
	}
	sim, err := game.NewSimulator(m, string(code), game.WithLogger(simLogger), game.WithConstants(constants))
	if err != nil {
		return err
	}

	runErr := sim.Simulate(game.SimulateOptions{MaxSteps: sc.MaxSteps, StopOnError: sc.StopOnError})

	out := cmd.OutOrStdout()
	sim.View(func(m *maze.Maze) {
		printMaze(out, m, !runFlags.noColor)
	})
	stats := sim.Stats()
	fmt.Fprintf(out, "scenario: %s (%s %dx%d)\n", sc.Name, sc.Generator, sc.Width, sc.Height)
	fmt.Fprintf(out, "finished: %t\nsteps: %d\nmemory: %d bits\n", sim.Finished(), stats.Steps, stats.MemoryUsed)
	for _, d := range sim.StepErrors() {
		fmt.Fprintln(out, d.String())
	}
	return runErr
}

// printMaze writes the ASCII rendering, coloring the agent and the finish when color is set.
func printMaze(w io.Writer, m *maze.Maze, color bool) {
	s := m.String()
	if color {
		s = strings.NewReplacer(
			"@", config.ColorRed+"@"+config.ColorReset,
			"F", config.ColorGreen+"F"+config.ColorReset,
		).Replace(s)
	}
	fmt.Fprint(w, s)
}
