package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/artlife-go/artlife"
	"github.com/baldhumanity/artlife-go/artlife/ledger"
	"github.com/baldhumanity/artlife-go/artlife/metrics"
	"github.com/baldhumanity/artlife-go/artlife/upload"
)

func runEvolution(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()
	rng := newRand(config.Evolution.Seed)

	world, err := loadWorld(config)
	if err != nil {
		return err
	}
	codec, err := artlife.NewCodec(config.Sizes())
	if err != nil {
		return err
	}

	var pop artlife.Population
	if config.Evolution.OriginMode {
		pop = artlife.NewRandomPopulation(rng, config.Sizes(), config.Evolution.PopSize)
		logger.Info("created random population", "genomes", len(pop), "sizes", config.Sizes().String())
	} else {
		if pop, err = codec.LoadPopulation(config.Archive.LoadPath); err != nil {
			return err
		}
		logger.Info("loaded population", "path", config.Archive.LoadPath, "genomes", len(pop))
	}

	coord, err := artlife.NewCoordinator(config, pop, world, rng)
	if err != nil {
		return err
	}
	coord.Logger = logger

	sink := artlife.NewDirSink(config.Archive.SaveDir, config.Sizes())
	sink.Logger = logger
	if config.Upload.Enabled {
		timeout := time.Duration(config.Upload.TimeoutSeconds) * time.Second
		client := upload.NewClient(config.Upload.URL, timeout)
		client.Logger = logger
		sink.Notifier = client
		sink.NotifyTimeout = timeout
	}
	coord.Sink = sink

	coord.Reporters.Add(artlife.NewConsoleReporter(os.Stdout))

	if config.Ledger.Path != "" {
		store := ledger.NewStore(config.Ledger.Path)
		store.Logger = logger
		if err := store.Init(ctx); err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.BeginRun(ctx, config)
		if err != nil {
			return err
		}
		logger.Info("recording run", "ledger", config.Ledger.Path, "run", runID)
		coord.Reporters.Add(store)
	}

	if config.Metrics.Listen != "" {
		reporter := metrics.NewReporter()
		coord.Reporters.Add(reporter)
		shutdown := serveMetrics(config.Metrics.Listen, reporter, logger)
		defer shutdown()
	}

	checkpoint := config.Archive.CheckpointPath
	if resume && checkpoint != "" {
		if _, err := os.Stat(checkpoint); err == nil {
			if err := coord.RestoreCheckpoint(checkpoint); err != nil {
				return err
			}
		} else {
			logger.Info("no checkpoint found, starting new evolution", "path", checkpoint)
		}
	}

	limit := config.Evolution.MaxGenerations
	if generations >= 0 {
		limit = generations
	}

	for !coord.Finished {
		if limit > 0 && coord.Cycle >= limit {
			logger.Info("reached cycle limit", "cycles", limit)
			break
		}
		if ctx.Err() != nil {
			logger.Info("interrupted", "cycle", coord.Cycle)
			break
		}
		if _, err := coord.RunGeneration(); err != nil {
			return fmt.Errorf("cycle %d failed: %w", coord.Cycle+1, err)
		}
		if checkpoint != "" && checkpointEvery > 0 && coord.Cycle%checkpointEvery == 0 {
			if err := coord.SaveCheckpoint(checkpoint); err != nil {
				logger.Warn("failed to save checkpoint", "cycle", coord.Cycle, "error", err)
			}
		}
	}

	if checkpoint != "" && !coord.Finished {
		if err := coord.SaveCheckpoint(checkpoint); err != nil {
			logger.Warn("failed to save final checkpoint", "error", err)
		}
	}

	fmt.Println()
	fmt.Println(generationStyle.Render("--- Evolution Complete ---"))
	fmt.Printf("cycles %d, generation %d, best reward %.3f\n", coord.Cycle, coord.Generation, coord.BestFitness)
	if !coord.Finished {
		fmt.Println("No agent reached the finish.")
	}
	return nil
}

// serveMetrics starts the /metrics endpoint and returns a function that stops it.
func serveMetrics(addr string, reporter *metrics.Reporter, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reporter.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
