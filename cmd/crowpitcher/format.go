package main

import (
	"fmt"

	"github.com/ChicagoDave/crowpitcher/pkg/journal"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.ConfigPath != "" {
				fmt.Printf("    -> %s = %v\n", e.ConfigPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Printf("    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.ConfigPath != "" {
				fmt.Printf("    -> %s = %v\n", w.ConfigPath, w.ActualValue)
			}
			if w.ConflictWith != "" {
				fmt.Printf("    conflicts with: %s\n", w.ConflictWith)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printSamplerStats(stats []samplerStats) {
	fmt.Println("Polygon Sampler")
	fmt.Println("===============")
	fmt.Println()

	fmt.Printf("%-14s %10s %9s %9s %10s %18s\n", "Surface", "Area m²", "Samples", "Inside", "Fallback", "Mean (x, z)")
	fmt.Printf("%-14s %10s %9s %9s %10s %18s\n",
		"--------------", "----------", "---------", "---------", "----------", "------------------")

	for _, st := range stats {
		if st.Err != nil {
			fmt.Printf("%-14s %10.2f  skipped: %v\n", st.ID, st.Area, st.Err)
			continue
		}
		fmt.Printf("%-14s %10.2f %9d %8.1f%% %10d %18s\n",
			st.ID, st.Area, st.Samples, percent(st.Inside, st.Samples), st.Fallbacks,
			fmt.Sprintf("(%.2f, %.2f)", st.Mean.X, st.Mean.Z))
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func printJournal(reports []journal.SessionReport) {
	fmt.Println("Session Journal")
	fmt.Println("===============")
	fmt.Println()

	if len(reports) == 0 {
		fmt.Println("No sessions recorded.")
		return
	}

	for _, r := range reports {
		fmt.Printf("Session %s\n", r.ID)
		if r.Unlock != nil {
			fmt.Printf("  Unlocked at %s with %.2f m² over %d surfaces\n",
				r.Unlock.UnlockedAt.Format("2006-01-02 15:04:05"), r.Unlock.TotalArea, r.Unlock.Surfaces)
		} else {
			fmt.Println("  Never unlocked")
		}

		counts := make(map[string]int)
		for _, p := range r.Placements {
			counts[string(p.Kind)]++
		}
		fmt.Printf("  Placements: %d", len(r.Placements))
		for _, k := range []string{"crow", "rock", "pitcher", "npc", "item"} {
			if counts[k] > 0 {
				fmt.Printf("  %s=%d", k, counts[k])
			}
		}
		fmt.Println()

		for _, p := range r.Placements {
			fmt.Printf("    %-12s %-8s %-10s (%.2f, %.2f, %.2f)\n",
				p.ID, p.Kind, p.SurfaceID, p.Position.X, p.Position.Y, p.Position.Z)
		}
		fmt.Println()
	}
}
