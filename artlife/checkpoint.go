package artlife

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointData holds the coordinator counters needed to resume a run.
// Genomes are not part of it; they are stored next to it as GIF archives.
type CheckpointData struct {
	Sizes          LayerSizes
	Generation     int
	Cycle          int
	Phase          Phase
	BestFitness    float64
	HasBest        bool
	BestRewards    []float64 // fitness of the best-known snapshot
	SaveNumber     int
	FitnessHistory []float64
	LastImproved   int
}

// PopulationPath is the archive holding the current population of a checkpoint.
func PopulationPath(checkpointPath string) string {
	return checkpointPath + ".population.gif"
}

// BestPath is the archive holding the best-known snapshot of a checkpoint.
func BestPath(checkpointPath string) string {
	return checkpointPath + ".best.gif"
}

// SaveCheckpoint writes the coordinator's counters as gzipped gob and its
// populations as GIF archives next to it.
func (c *Coordinator) SaveCheckpoint(filePath string) error {
	data := CheckpointData{
		Sizes:          c.codec.Sizes,
		Generation:     c.Generation,
		Cycle:          c.Cycle,
		Phase:          c.Phase,
		BestFitness:    c.BestFitness,
		HasBest:        c.Best != nil,
		FitnessHistory: c.Stagnation.FitnessHistory,
		LastImproved:   c.Stagnation.LastImproved,
	}
	if c.Best != nil {
		data.BestRewards = c.Best.Fitness
	}
	if ds, ok := c.Sink.(*DirSink); ok {
		data.SaveNumber = ds.SaveNumber
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if err := c.codec.SavePopulation(PopulationPath(filePath), c.Population); err != nil {
		return fmt.Errorf("failed to save checkpoint population: %w", err)
	}
	if c.Best != nil {
		if err := c.codec.SavePopulation(BestPath(filePath), c.Best.Population); err != nil {
			return fmt.Errorf("failed to save checkpoint snapshot: %w", err)
		}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode checkpoint data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint file '%s': %w", filePath, err)
	}

	c.Logger.Info("checkpoint saved", "path", filePath, "generation", c.Generation)
	return file.Close()
}

// ReadCheckpointData decodes only the counters of a checkpoint.
func ReadCheckpointData(filePath string) (*CheckpointData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	data := &CheckpointData{}
	if err := gob.NewDecoder(gzReader).Decode(data); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint data: %w", err)
	}
	return data, nil
}

// RestoreCheckpoint loads a checkpoint written by SaveCheckpoint into the
// coordinator, replacing its population and counters, and starts a new epoch.
func (c *Coordinator) RestoreCheckpoint(filePath string) error {
	data, err := ReadCheckpointData(filePath)
	if err != nil {
		return err
	}
	if data.Sizes != c.codec.Sizes {
		return fmt.Errorf("checkpoint layer sizes %s do not match the run's %s", data.Sizes, c.codec.Sizes)
	}

	pop, err := c.codec.LoadPopulation(PopulationPath(filePath))
	if err != nil {
		return fmt.Errorf("failed to load checkpoint population: %w", err)
	}
	var best *Snapshot
	if data.HasBest {
		bestPop, err := c.codec.LoadPopulation(BestPath(filePath))
		if err != nil {
			return fmt.Errorf("failed to load checkpoint snapshot: %w", err)
		}
		if len(bestPop) != len(data.BestRewards) {
			return &ArchiveFormatError{Frame: -1, Reason: fmt.Sprintf("snapshot has %d frames for %d rewards", len(bestPop), len(data.BestRewards))}
		}
		best = &Snapshot{Population: bestPop, Fitness: data.BestRewards}
	}

	c.Population = pop
	c.Generation = data.Generation
	c.Cycle = data.Cycle
	c.Phase = data.Phase
	c.BestFitness = data.BestFitness
	c.Best = best
	c.Stagnation = &Stagnation{FitnessHistory: data.FitnessHistory, LastImproved: data.LastImproved}
	if data.HasBest {
		c.Stagnation.best = data.BestFitness
		c.Stagnation.seen = true
	}
	if ds, ok := c.Sink.(*DirSink); ok {
		ds.SaveNumber = data.SaveNumber
	}
	if err := c.rebuild(); err != nil {
		return err
	}
	c.Logger.Info("checkpoint loaded", "path", filePath, "generation", c.Generation, "genomes", len(pop))
	return nil
}
