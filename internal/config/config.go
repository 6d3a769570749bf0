// Package config names the decoder-specific constants of the trace format.
// The numeric property tags and field thresholds are particular to one
// rattletrap version and one game build; treating them as configuration
// keeps the engine usable against other decoder versions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Decoder holds every constant the extraction pipeline needs to interpret
// a decoded trace. Zero values in a YAML override fall back to defaults.
type Decoder struct {
	// Property tags on update replications.
	PhysicsProperty   int `yaml:"physics_property"`    // rigid-body state field
	TeamPaintProperty int `yaml:"team_paint_property"` // car team/color field

	// Actor class names from the trace's object catalogue.
	BallClass string `yaml:"ball_class"`
	CarClass  string `yaml:"car_class"`

	// Scoring-mark value tags, one per team.
	Team0GoalMark string `yaml:"team0_goal_mark"`
	Team1GoalMark string `yaml:"team1_goal_mark"`

	// Field geometry and timing heuristics.
	GoalLineY      float64 `yaml:"goal_line_y"`      // |ball y| beyond this is a goal candidate
	AttackLineY    float64 `yaml:"attack_line_y"`    // attacking-third boundary
	TicksPerSecond float64 `yaml:"ticks_per_second"` // simulation tick rate
	TeamSize       int     `yaml:"team_size"`        // car slots per team in a feature vector
}

// Default returns the constants for rattletrap-decoded standard 3v3 replays.
func Default() *Decoder {
	return &Decoder{
		PhysicsProperty:   42,
		TeamPaintProperty: 66,
		BallClass:         "TAGame.Ball_TA",
		CarClass:          "TAGame.Car_TA",
		Team0GoalMark:     "Team0Goal",
		Team1GoalMark:     "Team1Goal",
		GoalLineY:         510000,
		AttackLineY:       170000,
		TicksPerSecond:    30,
		TeamSize:          3,
	}
}

// Load reads a YAML override file and overlays it onto the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Decoder) validate() error {
	if c.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks_per_second must be positive, got %v", c.TicksPerSecond)
	}
	if c.TeamSize <= 0 {
		return fmt.Errorf("team_size must be positive, got %d", c.TeamSize)
	}
	if c.GoalLineY <= 0 || c.AttackLineY <= 0 {
		return fmt.Errorf("goal_line_y and attack_line_y must be positive")
	}
	return nil
}
