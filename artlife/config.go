package artlife

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/baldhumanity/artlife-go/artlife/nn"
)

// Config stores the configuration of one evolution run.
type Config struct {
	Network   NetworkConfig
	Evolution EvolutionConfig
	Archive   ArchiveConfig
	Upload    UploadConfig
	Maze      MazeConfig
	Ledger    LedgerConfig
	Metrics   MetricsConfig
}

// NetworkConfig holds the controller layer sizes. They are immutable for a run.
type NetworkConfig struct {
	NumInputs  int    `ini:"num_inputs"`
	NumHidden  int    `ini:"num_hidden"`
	NumOutputs int    `ini:"num_outputs"`
	Activation string `ini:"activation"` // name in nn.ActivationFunctions
}

// EvolutionConfig holds parameters of the genetic algorithm and the epoch loop.
type EvolutionConfig struct {
	PopSize        int   `ini:"pop_size"`
	NumWinners     int   `ini:"num_winners"`     // leaders kept by selection
	MaxEpoch       int   `ini:"max_epoch"`       // tick budget of one epoch
	MaxGenerations int   `ini:"max_generations"` // 0 = run until a winner appears
	Seed           int64 `ini:"seed"`            // 0 = seed from the clock
	StrictRollback bool  `ini:"strict_rollback"` // also revert genomes when rolling back
	OriginMode     bool  `ini:"origin_mode"`     // start from random genomes instead of load_path
}

// ArchiveConfig holds file locations for genome archives.
type ArchiveConfig struct {
	LoadPath       string `ini:"load_path"`
	SaveDir        string `ini:"save_dir"`
	CheckpointPath string `ini:"checkpoint_path"`
}

// UploadConfig controls the winner upload notifier.
type UploadConfig struct {
	Enabled        bool   `ini:"enabled"`
	URL            string `ini:"url"`
	TimeoutSeconds int    `ini:"timeout_seconds"`
}

// MazeConfig holds the environment parameters.
type MazeConfig struct {
	MapPath         string  `ini:"map_path"`
	NumRays         int     `ini:"num_rays"`
	FOVDegrees      float64 `ini:"fov_degrees"`
	MaxDepth        float64 `ini:"max_depth"`
	Speed           float64 `ini:"speed"`
	TurnRate        float64 `ini:"turn_rate"`
	CollisionRadius float64 `ini:"collision_radius"`
}

// LedgerConfig points at the SQLite run ledger. An empty path disables it.
type LedgerConfig struct {
	Path string `ini:"path"`
}

// MetricsConfig sets the Prometheus listen address. Empty disables it.
type MetricsConfig struct {
	Listen string `ini:"listen"`
}

// Sizes returns the layer sizes as used by the codec and the operators.
func (c *Config) Sizes() LayerSizes {
	return LayerSizes{Inputs: c.Network.NumInputs, Hidden: c.Network.NumHidden, Outputs: c.Network.NumOutputs}
}

// DefaultConfig returns the settings of the standard maze run: five rays,
// fifty hidden units, three actions.
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{NumInputs: 5, NumHidden: 50, NumOutputs: 3, Activation: "rectified_tanh"},
		Evolution: EvolutionConfig{
			PopSize:    100,
			NumWinners: 10,
			MaxEpoch:   20000,
			OriginMode: true,
		},
		Archive: ArchiveConfig{SaveDir: "genomes"},
		Upload:  UploadConfig{URL: "http://localhost:8080/upload", TimeoutSeconds: 30},
		Maze: MazeConfig{
			NumRays:         5,
			FOVDegrees:      60,
			MaxDepth:        8,
			Speed:           0.08,
			TurnRate:        0.08,
			CollisionRadius: 0.2,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file. Keys that are
// absent keep the values from DefaultConfig.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true, // Allow # comments starting with # or ;
		UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	// Map sections to structs
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"Network", &config.Network},
		{"Evolution", &config.Evolution},
		{"Archive", &config.Archive},
		{"Upload", &config.Upload},
		{"Maze", &config.Maze},
		{"Ledger", &config.Ledger},
		{"Metrics", &config.Metrics},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	// --- Explicitly clean potentially problematic string values ---
	config.Network.Activation = cleanIniString(config.Network.Activation)
	config.Archive.LoadPath = cleanIniString(config.Archive.LoadPath)
	config.Archive.SaveDir = cleanIniString(config.Archive.SaveDir)
	config.Archive.CheckpointPath = cleanIniString(config.Archive.CheckpointPath)
	config.Upload.URL = cleanIniString(config.Upload.URL)
	config.Maze.MapPath = cleanIniString(config.Maze.MapPath)
	config.Ledger.Path = cleanIniString(config.Ledger.Path)
	config.Metrics.Listen = cleanIniString(config.Metrics.Listen)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the invariants the codec, the operators and the coordinator rely on.
func (c *Config) Validate() error {
	if err := c.Sizes().Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := nn.GetActivation(c.Network.Activation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Evolution.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Evolution.NumWinners <= 0 {
		return fmt.Errorf("config error: num_winners must be positive")
	}
	if c.Evolution.MaxEpoch <= 0 {
		return fmt.Errorf("config error: max_epoch must be positive")
	}
	if c.Evolution.MaxGenerations < 0 {
		return fmt.Errorf("config error: max_generations cannot be negative")
	}
	if !c.Evolution.OriginMode && c.Archive.LoadPath == "" {
		return fmt.Errorf("config error: load_path is required when origin_mode is false")
	}
	if c.Upload.Enabled && c.Upload.URL == "" {
		return fmt.Errorf("config error: upload url is required when upload is enabled")
	}
	if c.Upload.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: timeout_seconds cannot be negative")
	}
	if c.Maze.NumRays != c.Network.NumInputs {
		return fmt.Errorf("config error: num_rays (%d) must equal num_inputs (%d)", c.Maze.NumRays, c.Network.NumInputs)
	}
	if c.Maze.MaxDepth <= 0 {
		return fmt.Errorf("config error: max_depth must be positive")
	}
	if c.Maze.FOVDegrees <= 0 || c.Maze.FOVDegrees > 360 {
		return fmt.Errorf("config error: fov_degrees must be in (0, 360]")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	// Remove comments starting with # or ;
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
