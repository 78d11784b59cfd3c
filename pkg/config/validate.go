package config

import (
	"fmt"

	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

// Validate checks the config for values the game cannot run with.
func Validate(cfg *GameConfig) *validation.Report {
	report := validation.NewReport()

	positive := func(path string, v float64, suggestion string) {
		if v <= 0 {
			report.AddError(validation.Result{
				Level:       validation.LevelSchema,
				Message:     fmt.Sprintf("%s must be positive", path),
				ConfigPath:  path,
				ActualValue: v,
				Expected:    "> 0",
				Suggestions: []string{suggestion},
			})
		}
	}

	positive("unlock.area_threshold", cfg.Unlock.AreaThreshold, "Use 1.0 square meter")
	positive("spawn.max_attempts", float64(cfg.Spawn.MaxAttempts), "Use 10 attempts per item")
	positive("spawn.sample_trials", float64(cfg.Spawn.SampleTrials), "Use 50 trials")
	positive("spawn.plane_tolerance", cfg.Spawn.PlaneTolerance, "Use 0.05 meters")
	positive("interaction.tap_radius", cfg.Interaction.TapRadius, "Use 0.1 meters")
	positive("interaction.collect_distance", cfg.Interaction.CollectDistance, "Use 1.0 meters")
	positive("pitcher.max_pebbles", float64(cfg.Pitcher.MaxPebbles), "Use 5 pebbles")

	if cfg.Spawn.RockCount < 0 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "spawn.rock_count cannot be negative",
			ConfigPath:  "spawn.rock_count",
			ActualValue: cfg.Spawn.RockCount,
			Expected:    ">= 0",
		})
	}
	if cfg.Spawn.MinSeparation < 0 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "spawn.min_separation cannot be negative",
			ConfigPath:  "spawn.min_separation",
			ActualValue: cfg.Spawn.MinSeparation,
			Expected:    ">= 0",
		})
	}
	if cfg.Pitcher.InitialFill < 0 || cfg.Pitcher.InitialFill > 1 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "pitcher.initial_fill must be between 0 and 1",
			ConfigPath:  "pitcher.initial_fill",
			ActualValue: cfg.Pitcher.InitialFill,
			Expected:    "0..1",
		})
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "server.port out of range",
			ConfigPath:  "server.port",
			ActualValue: cfg.Server.Port,
			Expected:    "0..65535",
		})
	}

	if cfg.Spawn.RockCount < cfg.Pitcher.MaxPebbles {
		report.AddWarning(validation.Result{
			Level:        validation.LevelStory,
			Message:      fmt.Sprintf("only %d rocks spawn but the pitcher needs %d pebbles", cfg.Spawn.RockCount, cfg.Pitcher.MaxPebbles),
			ConfigPath:   "spawn.rock_count",
			ActualValue:  cfg.Spawn.RockCount,
			ConflictWith: "pitcher.max_pebbles",
			Suggestions:  []string{"Raise spawn.rock_count to at least pitcher.max_pebbles"},
		})
	}
	if cfg.Spawn.MinSeparation > 0 && cfg.Interaction.TapRadius >= cfg.Spawn.MinSeparation {
		report.AddWarning(validation.Result{
			Level:        validation.LevelSchema,
			Message:      "tap radius is not smaller than item separation; taps may hit two items",
			ConfigPath:   "interaction.tap_radius",
			ActualValue:  cfg.Interaction.TapRadius,
			ConflictWith: "spawn.min_separation",
		})
	}

	return report
}

// ValidateScenario checks scenario steps for shapes Step cannot convert.
func ValidateScenario(sc *Scenario) *validation.Report {
	report := validation.NewReport()
	for i, st := range sc.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		switch st.Kind {
		case StepFrame:
			for j, d := range append(append([]SurfaceDef{}, st.Added...), st.Updated...) {
				if d.ID == "" {
					report.AddError(validation.Result{
						Level:      validation.LevelSchema,
						Message:    "surface has no id",
						ConfigPath: fmt.Sprintf("%s.surfaces[%d]", path, j),
					})
				}
				if err := d.CheckSize(); err != nil {
					report.AddError(validation.Result{
						Level:       validation.LevelSchema,
						Message:     err.Error(),
						ConfigPath:  fmt.Sprintf("%s.surfaces[%d]", path, j),
						ActualValue: []float64{d.Width, d.Depth},
						Expected:    "width >= 0 and depth >= 0",
					})
				}
				if len(d.Boundary) < 3 {
					report.AddWarning(validation.Result{
						Level:       validation.LevelTracking,
						Message:     fmt.Sprintf("surface %s has fewer than 3 boundary points and will never host items", d.ID),
						ConfigPath:  path,
						ActualValue: len(d.Boundary),
						Expected:    ">= 3",
					})
				}
			}
		case StepTap:
			if len(st.Point) != 3 {
				report.AddError(validation.Result{
					Level:       validation.LevelSchema,
					Message:     "tap point must be [x, y, z]",
					ConfigPath:  path + ".point",
					ActualValue: len(st.Point),
				})
			}
		case StepPlace:
			if st.Place == nil {
				report.AddError(validation.Result{
					Level:      validation.LevelSchema,
					Message:    "place step has no place block",
					ConfigPath: path,
				})
			}
		default:
			report.AddError(validation.Result{
				Level:       validation.LevelSchema,
				Message:     fmt.Sprintf("unknown step kind %q", st.Kind),
				ConfigPath:  path + ".kind",
				ActualValue: st.Kind,
				Expected:    "frame, tap or place",
			})
		}
	}
	return report
}
