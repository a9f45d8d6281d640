// Package artlife evolves fixed-topology neural controllers with a genetic
// algorithm and stores their weights as pixel images.
//
// A genome is three matrices of 8-bit gene ids (input->hidden, hidden->hidden,
// hidden->output). Gene ids map to weights in [-1, 1] through a 256-entry
// LookupTable. For storage a genome is packed into one square RGB frame, with
// the red, green and blue channels holding the same matrix at three rotations,
// and a population becomes an animated GIF with one frame per genome.
//
// The Coordinator alternates evaluation epochs in an Environment with evolution
// cycles. Each cycle either accepts the population or rolls back to the
// best-known rewards, selects the leaders and applies crossover or mutation, the
// two operators taking turns. The run stops when an agent reaches the goal.
//
// Basic usage:
//
//	config, err := artlife.LoadConfig("configs/maze-config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	rng := rand.New(rand.NewSource(1))
//	pop := artlife.NewRandomPopulation(rng, config.Sizes(), config.Evolution.PopSize)
//	coord, err := artlife.NewCoordinator(config, pop, env, rng)
//	if err != nil {
//		log.Fatalf("Error creating coordinator: %v", err)
//	}
//	coord.Sink = artlife.NewDirSink(config.Archive.SaveDir, config.Sizes())
//
//	if err := coord.Run(0); err != nil {
//		log.Fatalf("Error running evolution: %v", err)
//	}
package artlife
