// Package config loads crowpitcher project files: game tuning from
// crowpitcher.yaml and an optional scripted session from scenario.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFile   = "crowpitcher.yaml"
	ScenarioFile = "scenario.yaml"
)

// Defaults returns the stock tuning.
func Defaults() GameConfig {
	return GameConfig{
		Version: "0.1.0",
		Seed:    1,
		Unlock:  Unlock{AreaThreshold: 1.0},
		Spawn: Spawn{
			RockCount:      5,
			MinSeparation:  0.25,
			MaxAttempts:    10,
			SampleTrials:   50,
			PlaneTolerance: 0.05,
		},
		Interaction: Interaction{TapRadius: 0.1, CollectDistance: 1.0},
		Pitcher:     Pitcher{MaxPebbles: 5, InitialFill: 0.1},
		Server:      Server{Port: 8080},
	}
}

// Load reads a game config from a YAML file. Fields absent from the file
// keep their default values.
func Load(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return &cfg, nil
}

// LoadScenario reads a scripted session from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	return &sc, nil
}

// Project is a loaded project directory.
type Project struct {
	Dir      string
	Config   *GameConfig
	Scenario *Scenario // nil when the directory has no scenario.yaml
}

// LoadProject loads crowpitcher.yaml from dir, plus scenario.yaml when present.
func LoadProject(dir string) (*Project, error) {
	cfg, err := Load(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, err
	}
	p := &Project{Dir: dir, Config: cfg}

	sc, err := LoadScenario(filepath.Join(dir, ScenarioFile))
	switch {
	case err == nil:
		p.Scenario = sc
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return p, nil
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
