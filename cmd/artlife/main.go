package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/artlife-go/artlife"
	"github.com/baldhumanity/artlife-go/artlife/maze"
)

var (
	configPath string
	verbose    bool
	// run
	resume          bool
	generations     int
	checkpointEvery int
	// random
	randomCount int
	randomSeed  int64
	// history
	ledgerPath string
)

// main registers the artlife commands and executes the root command, exiting
// with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "artlife",
		Short:         "evolve maze-driving neural controllers stored as GIF archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/maze-config", "config file path (ini), empty for defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the evolution until an agent reaches the finish",
		Args:  cobra.NoArgs,
		RunE:  runEvolution,
	}
	runCmd.Flags().BoolVar(&resume, "resume", false, "resume from the configured checkpoint if it exists")
	runCmd.Flags().IntVar(&generations, "generations", -1, "stop after this many cycles (overrides max_generations)")
	runCmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 10, "cycles between checkpoints")

	randomCmd := &cobra.Command{
		Use:   "random [archive.gif]",
		Short: "write a random population archive",
		Args:  cobra.ExactArgs(1),
		RunE:  writeRandom,
	}
	randomCmd.Flags().IntVarP(&randomCount, "count", "n", 0, "number of genomes (default pop_size)")
	randomCmd.Flags().Int64Var(&randomSeed, "seed", time.Now().UnixNano(), "random seed")

	inspectCmd := &cobra.Command{
		Use:   "inspect [archive.gif]",
		Short: "summarize the genomes of an archive",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectArchive,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [archive.gif]",
		Short: "run the genomes of an archive through the maze once",
		Args:  cobra.ExactArgs(1),
		RunE:  replayArchive,
	}

	historyCmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "list ledger runs, or plot the fitness of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showHistory,
	}
	historyCmd.Flags().StringVar(&ledgerPath, "ledger", "", "ledger database (default from config)")

	rootCmd.AddCommand(runCmd, randomCmd, inspectCmd, replayCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() (*artlife.Config, error) {
	if configPath == "" {
		return artlife.DefaultConfig(), nil
	}
	return artlife.LoadConfig(configPath)
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func loadWorld(config *artlife.Config) (*maze.World, error) {
	m := maze.DefaultMap()
	if config.Maze.MapPath != "" {
		var err error
		if m, err = maze.LoadMap(config.Maze.MapPath); err != nil {
			return nil, err
		}
	}
	return maze.NewWorld(m, config.Maze)
}
