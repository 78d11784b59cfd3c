package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChicagoDave/crowpitcher/internal/server"
	"github.com/ChicagoDave/crowpitcher/pkg/config"
	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/journal"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/scene"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

// loadAndValidate loads the project and runs config and scenario validation.
func loadAndValidate(projectPath string) (*config.Project, *validation.Report, error) {
	project, err := config.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	report := config.Validate(project.Config)
	if project.Scenario != nil {
		report.Merge(config.ValidateScenario(project.Scenario))
	}
	return project, report, nil
}

func runValidate(projectPath string) error {
	_, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	printValidationReport(report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

// openJournal opens the journal at path, relative to the project directory.
// An empty path disables journaling.
func openJournal(projectPath, path string) (*journal.Store, error) {
	if path == "" {
		return nil, nil
	}
	if path != ":memory:" && !filepath.IsAbs(path) {
		path = filepath.Join(projectPath, path)
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return j, nil
}

type stepResult struct {
	Index  int                   `json:"index"`
	Kind   config.StepKind       `json:"kind"`
	Frame  *session.FrameResult  `json:"frame,omitempty"`
	Tap    *session.TapResult    `json:"tap,omitempty"`
	Placed []placement.Placement `json:"placed,omitempty"`
}

func runSimulate(ctx context.Context, projectPath, journalPath string) error {
	project, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("project has validation errors")
	}
	if project.Scenario == nil {
		return fmt.Errorf("%s has no %s to simulate", projectPath, config.ScenarioFile)
	}

	if journalPath == "" {
		journalPath = project.Config.Server.JournalPath
	}
	j, err := openJournal(projectPath, journalPath)
	if err != nil {
		return err
	}
	opts := session.Options{Config: *project.Config, Logger: logger}
	if j != nil {
		defer j.Close()
		opts.Journal = j
	}
	sess := session.New(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sess.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	var results []stepResult
	replayErr := func() error {
		for i, st := range project.Scenario.Steps {
			res := stepResult{Index: i, Kind: st.Kind}
			switch st.Kind {
			case config.StepFrame:
				fr, err := sess.SubmitFrame(gctx, st.Frame())
				if err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
				res.Frame = &fr
			case config.StepTap:
				tr, err := sess.Tap(gctx, st.TapPoint())
				if err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
				if tr.Report != nil {
					report.Merge(tr.Report)
				}
				res.Tap = &tr
			case config.StepPlace:
				placed, pr, err := sess.Place(gctx, placement.Request{
					Kind:          placement.Kind(st.Place.Kind),
					Count:         st.Place.Count,
					MinSeparation: st.Place.MinSeparation,
					MaxAttempts:   st.Place.MaxAttempts,
				})
				if err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
				report.Merge(pr)
				res.Placed = placed
			}
			logger.Debug("scenario step", zap.Int("index", i), zap.String("kind", string(st.Kind)))
			results = append(results, res)
		}
		return nil
	}()

	var snap session.Snapshot
	if replayErr == nil {
		snap, replayErr = sess.Snapshot(gctx)
	}
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if replayErr != nil {
		return replayErr
	}

	graph := scene.Assemble(snap)
	report.Merge(scene.ValidateGraph(graph))

	output := map[string]any{
		"session":     sess.ID(),
		"scenario":    project.Scenario.Name,
		"steps":       results,
		"validation":  report,
		"scene_graph": graph,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func runSample(projectPath string, samples int) error {
	project, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("project has validation errors")
	}
	if project.Scenario == nil {
		return fmt.Errorf("%s has no %s to sample", projectPath, config.ScenarioFile)
	}

	// Keep the last definition of each surface, in first-seen order.
	var order []surface.ID
	latest := make(map[surface.ID]surface.Surface)
	for _, st := range project.Scenario.Steps {
		if st.Kind != config.StepFrame {
			continue
		}
		f := st.Frame()
		for _, sf := range append(f.Added, f.Updated...) {
			if _, seen := latest[sf.ID]; !seen {
				order = append(order, sf.ID)
			}
			latest[sf.ID] = sf
		}
	}

	seed := project.Config.Seed
	rng := rand.New(rand.NewPCG(seed, seed+1))
	stats := make([]samplerStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, sampleSurface(latest[id], samples, project.Config.Spawn.SampleTrials, rng))
	}
	printSamplerStats(stats)
	return nil
}

type samplerStats struct {
	ID        surface.ID
	Area      float64
	Samples   int
	Inside    int
	Fallbacks int
	Mean      geo.Point2D
	Err       error
}

func sampleSurface(sf surface.Surface, n, trials int, rng *rand.Rand) samplerStats {
	st := samplerStats{ID: sf.ID, Area: sf.Boundary.Area(), Samples: n}
	if !sf.HasBoundary() {
		st.Err = geo.ErrDegeneratePolygon
		return st
	}
	var sum geo.Point2D
	for i := 0; i < n; i++ {
		p, err := geo.SamplePointN(sf.Boundary, rng, trials)
		if err != nil {
			st.Fallbacks++
			p = sf.Boundary.Centroid()
		}
		if sf.Boundary.Contains(p) {
			st.Inside++
		}
		sum = sum.Add(p)
	}
	if n > 0 {
		st.Mean = sum.Scale(1 / float64(n))
	}
	return st
}

func runServe(ctx context.Context, projectPath string, port int) error {
	project, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("project has validation errors")
	}
	if port == 0 {
		port = project.Config.Server.Port
	}

	j, err := openJournal(projectPath, project.Config.Server.JournalPath)
	if err != nil {
		return err
	}

	hub := server.NewHub(logger.Named("hub"))
	opts := session.Options{Config: *project.Config, Logger: logger, Notifier: hub}
	if j != nil {
		defer j.Close()
		opts.Journal = j
	}
	sess := session.New(opts)
	srv := server.New(sess, hub, port, logger.Named("server"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sess.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	logger.Info("serving project", zap.String("project", projectPath), zap.Int("port", port))
	return g.Wait()
}

func runJournal(ctx context.Context, projectPath, journalPath, sessionID string, asJSON bool) error {
	project, err := config.LoadProject(projectPath)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if journalPath == "" {
		journalPath = project.Config.Server.JournalPath
	}
	if journalPath == "" || journalPath == ":memory:" {
		return fmt.Errorf("no journal file: set server.journal_path or pass --journal")
	}
	if !filepath.IsAbs(journalPath) {
		journalPath = filepath.Join(projectPath, journalPath)
	}
	if _, err := os.Stat(journalPath); err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}

	j, err := openJournal(projectPath, journalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	var ids []string
	if sessionID != "" {
		ids = []string{sessionID}
	}
	reports, err := j.Reports(ctx, ids...)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	printJournal(reports)
	return nil
}
