package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/artlife-go/artlife"
	"github.com/baldhumanity/artlife-go/artlife/ledger"
)

var (
	generationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// histogramBins is the number of bars in the gene histogram of inspect.
const histogramBins = 64

func writeRandom(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	n := randomCount
	if n <= 0 {
		n = config.Evolution.PopSize
	}
	codec, err := artlife.NewCodec(config.Sizes())
	if err != nil {
		return err
	}
	pop := artlife.NewRandomPopulation(newRand(randomSeed), config.Sizes(), n)
	if err := codec.SavePopulation(args[0], pop); err != nil {
		return err
	}
	fmt.Printf("wrote %d random genomes (%s) to %s\n", n, config.Sizes(), args[0])
	return nil
}

func inspectArchive(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	codec, err := artlife.NewCodec(config.Sizes())
	if err != nil {
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	pop, err := codec.LoadPopulation(args[0])
	if err != nil {
		return err
	}

	counts := make([]float64, histogramBins)
	var weights []float64
	for _, g := range pop {
		for _, m := range g.Matrices() {
			for _, id := range m.Genes {
				counts[int(id)*histogramBins/256]++
			}
			weights = append(weights, artlife.Weights.Expand(*m)...)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("file"), args[0])
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("size"), humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(w, "%s\t%d\n", labelStyle.Render("genomes"), len(pop))
	fmt.Fprintf(w, "%s\t%s (frame %dx%d)\n", labelStyle.Render("layers"), config.Sizes(), config.Sizes().FrameSide(), config.Sizes().FrameSide())
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("genes"), humanize.Comma(int64(len(weights))))
	fmt.Fprintf(w, "%s\t%.4f\n", labelStyle.Render("mean weight"), artlife.Mean(weights))
	fmt.Fprintf(w, "%s\t%.4f\n", labelStyle.Render("median weight"), artlife.Median(weights))
	fmt.Fprintf(w, "%s\t%.3f\n", labelStyle.Render("diversity"), artlife.Diversity(pop))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(counts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("gene id histogram (0..255)"),
	))
	return nil
}

func replayArchive(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	codec, err := artlife.NewCodec(config.Sizes())
	if err != nil {
		return err
	}
	pop, err := codec.LoadPopulation(args[0])
	if err != nil {
		return err
	}
	world, err := loadWorld(config)
	if err != nil {
		return err
	}
	coord, err := artlife.NewCoordinator(config, pop, world, newRand(config.Evolution.Seed))
	if err != nil {
		return err
	}
	if err := coord.RunEpoch(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tSTATUS\tREWARD")
	finished := 0
	for i, res := range world.Results() {
		if res.Status == artlife.ReachedGoal {
			finished++
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\n", i, res.Status, res.Reward)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d agents reached the finish in %d ticks\n", finished, len(pop), coord.Tick)
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	path := ledgerPath
	if path == "" {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		path = config.Ledger.Path
	}
	if path == "" {
		return fmt.Errorf("no ledger configured, pass --ledger")
	}

	ctx := context.Background()
	store := ledger.NewStore(path)
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tLAYERS\tPOP\tCYCLES\tBEST\tFINISHED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%t\n",
				run.ID, humanize.Time(run.StartedAt), run.Sizes, run.PopSize, run.Cycles, run.Best, run.Finished)
		}
		return w.Flush()
	}

	cycles, ok, err := store.History(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s not found", args[0])
	}
	if len(cycles) == 0 {
		fmt.Println("run has no cycles")
		return nil
	}
	best := make([]float64, len(cycles))
	epoch := make([]float64, len(cycles))
	rolledBack := 0
	for i, c := range cycles {
		best[i] = c.BestFitness
		epoch[i] = c.MaxFitness
		if c.RolledBack {
			rolledBack++
		}
	}
	fmt.Println(asciigraph.PlotMany([][]float64{best, epoch},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Blue),
		asciigraph.Caption("best-known (green) and epoch max (blue) reward per cycle"),
	))
	fmt.Printf("\n%d cycles, %d rolled back, final generation %d\n", len(cycles), rolledBack, cycles[len(cycles)-1].Generation)
	return nil
}
