package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vinom-sandbox",
	Short: "Maze sandbox for step-programs",
	Long: `vinom-sandbox generates grid mazes and drives an agent through them with a
learner's step-program. Each step runs the program once; the program may move the
agent one cell, look at its neighbours and keep state in a bit-addressable memory.

Use "serve" for the HTTP API and "run" to try a program locally.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
