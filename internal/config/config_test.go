package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.PhysicsProperty != 42 {
		t.Errorf("PhysicsProperty: want 42, got %d", cfg.PhysicsProperty)
	}
	if cfg.TeamPaintProperty != 66 {
		t.Errorf("TeamPaintProperty: want 66, got %d", cfg.TeamPaintProperty)
	}
	if cfg.BallClass != "TAGame.Ball_TA" || cfg.CarClass != "TAGame.Car_TA" {
		t.Errorf("unexpected classes: %q / %q", cfg.BallClass, cfg.CarClass)
	}
	if cfg.GoalLineY != 510000 || cfg.AttackLineY != 170000 {
		t.Errorf("unexpected field geometry: %v / %v", cfg.GoalLineY, cfg.AttackLineY)
	}
	if cfg.TicksPerSecond != 30 || cfg.TeamSize != 3 {
		t.Errorf("unexpected timing/size: %v / %d", cfg.TicksPerSecond, cfg.TeamSize)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decoder.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "goal_line_y: 400000\nteam_size: 2\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GoalLineY != 400000 {
		t.Errorf("GoalLineY: want 400000, got %v", cfg.GoalLineY)
	}
	if cfg.TeamSize != 2 {
		t.Errorf("TeamSize: want 2, got %d", cfg.TeamSize)
	}
	// Untouched fields keep their defaults.
	if cfg.PhysicsProperty != 42 || cfg.TicksPerSecond != 30 {
		t.Errorf("defaults not preserved: %d / %v", cfg.PhysicsProperty, cfg.TicksPerSecond)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative tick rate", "ticks_per_second: -1\n"},
		{"zero team size", "team_size: -3\n"},
		{"negative goal line", "goal_line_y: -510000\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "goal_line_y: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
