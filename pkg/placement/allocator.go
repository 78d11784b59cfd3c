// Package placement chooses world positions for spawned items on tracked
// surfaces, keeping every item a minimum distance from the others.
package placement

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

const (
	// DefaultMaxAttempts is the per-item attempt budget when a request leaves it unset.
	DefaultMaxAttempts = 10
	// DefaultMinSeparation is the spacing between spawned items, in meters.
	DefaultMinSeparation = 0.25
)

// ErrProjectionUnavailable is returned by a Resolver that cannot project the
// point this step (for example, no camera yet). The attempt is rejected.
var ErrProjectionUnavailable = errors.New("placement: projection unavailable")

// Rejection reasons counted in placement reports.
const (
	RejectNoHit                 = "no_hit"
	RejectSurfaceMismatch       = "surface_mismatch"
	RejectProjectionUnavailable = "projection_unavailable"
	RejectResolveFailed         = "resolve_failed"
	RejectTooClose              = "too_close"
)

// Kind names what is being placed.
type Kind string

const (
	KindCrow    Kind = "crow"
	KindRock    Kind = "rock"
	KindPitcher Kind = "pitcher"
	KindNPC     Kind = "npc"
	KindItem    Kind = "item"
)

// Resolver re-validates a candidate world point against the live surfaces.
type Resolver interface {
	Resolve(world geo.Vec3) (surface.Hit, error)
}

// Request asks for Count items of Kind, each at least MinSeparation from
// every occupied position, with MaxAttempts tries per item.
type Request struct {
	Kind          Kind    `json:"kind" yaml:"kind"`
	Count         int     `json:"count" yaml:"count"`
	MinSeparation float64 `json:"min_separation" yaml:"min_separation"`
	MaxAttempts   int     `json:"max_attempts" yaml:"max_attempts"`
}

// Placement is one accepted position.
type Placement struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	SurfaceID surface.ID `json:"surface_id"`
	Position  geo.Vec3   `json:"position"`
}

// Allocator places items. It shares the Registry with everything else that
// occupies space in the session and is not safe for concurrent use.
type Allocator struct {
	resolver     Resolver
	registry     *Registry
	rng          *rand.Rand
	sampleTrials int
	logger       *zap.Logger
	seq          int
}

// NewAllocator wires an allocator. sampleTrials <= 0 selects geo.MaxSampleTrials.
func NewAllocator(resolver Resolver, registry *Registry, rng *rand.Rand, sampleTrials int, logger *zap.Logger) *Allocator {
	if sampleTrials <= 0 {
		sampleTrials = geo.MaxSampleTrials
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		resolver:     resolver,
		registry:     registry,
		rng:          rng,
		sampleTrials: sampleTrials,
		logger:       logger,
	}
}

// Registry returns the registry the allocator writes to.
func (a *Allocator) Registry() *Registry {
	return a.registry
}

// Reserve records an externally chosen position (such as the crow's tap
// point) so later placements keep their distance from it.
func (a *Allocator) Reserve(kind Kind, surfaceID surface.ID, pos geo.Vec3) Placement {
	p := Placement{ID: a.nextID(kind), Kind: kind, SurfaceID: surfaceID, Position: pos}
	a.registry.Add(pos)
	return p
}

// PlaceItems places up to req.Count items on the candidate surfaces. Running
// out of attempts yields a partial result and a warning, never an error
// return; an unusable candidate set yields no placements and an error entry
// explaining why.
func (a *Allocator) PlaceItems(req Request, candidates []surface.Surface) ([]Placement, *validation.Report) {
	report := validation.NewReport()
	if req.Kind == "" {
		req.Kind = KindItem
	}
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = DefaultMaxAttempts
	}
	if req.Count <= 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelPlacement,
			Message: fmt.Sprintf("no %s requested", req.Kind),
		})
		return nil, report
	}

	usable := make([]surface.Surface, 0, len(candidates))
	for _, sf := range candidates {
		if sf.HasBoundary() {
			usable = append(usable, sf)
		}
	}
	if len(usable) == 0 {
		reason := "no candidate surfaces"
		if len(candidates) > 0 {
			reason = fmt.Sprintf("all %d candidate surfaces have fewer than 3 boundary points", len(candidates))
		}
		report.AddError(validation.Result{
			Level:       validation.LevelPlacement,
			Message:     fmt.Sprintf("cannot place %s: %s", req.Kind, reason),
			ActualValue: 0,
			Expected:    fmt.Sprintf("%d placements", req.Count),
			Suggestions: []string{"Scan more of the environment until surfaces with boundaries are tracked"},
		})
		a.logger.Warn("placement skipped", zap.String("kind", string(req.Kind)), zap.String("reason", reason))
		return nil, report
	}

	var placed []Placement
	rejections := make(map[string]int)
	attempts, fallbacks := 0, 0

	for len(placed) < req.Count {
		p, ok, used, fb := a.placeOne(req, usable, rejections)
		attempts += used
		fallbacks += fb
		if !ok {
			break
		}
		placed = append(placed, p)
	}

	stats := fmt.Sprintf("%d attempts, rejections: %s", attempts, formatRejections(rejections))
	if fallbacks > 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelPlacement,
			Message:     fmt.Sprintf("%d samples fell back to the surface centroid", fallbacks),
			ActualValue: fallbacks,
		})
	}
	if len(placed) < req.Count {
		report.AddWarning(validation.Result{
			Level:       validation.LevelPlacement,
			Message:     fmt.Sprintf("only placed %d of %d %s (%s)", len(placed), req.Count, req.Kind, stats),
			ActualValue: len(placed),
			Expected:    fmt.Sprintf("%d", req.Count),
			Suggestions: []string{"Retry after more surface area is tracked", "Lower min_separation"},
		})
		a.logger.Warn("partial placement",
			zap.String("kind", string(req.Kind)),
			zap.Int("placed", len(placed)),
			zap.Int("requested", req.Count),
			zap.Int("attempts", attempts))
	} else {
		report.AddInfo(validation.Result{
			Level:   validation.LevelPlacement,
			Message: fmt.Sprintf("placed %d %s on %d surfaces (%s)", len(placed), req.Kind, len(usable), stats),
		})
		a.logger.Info("placement complete",
			zap.String("kind", string(req.Kind)),
			zap.Int("placed", len(placed)),
			zap.Int("attempts", attempts))
	}
	return placed, report
}

// placeOne spends up to req.MaxAttempts attempts on a single item.
func (a *Allocator) placeOne(req Request, usable []surface.Surface, rejections map[string]int) (Placement, bool, int, int) {
	fallbacks := 0
	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		sf := usable[a.rng.IntN(len(usable))]

		local, err := geo.SamplePointN(sf.Boundary, a.rng, a.sampleTrials)
		if err != nil {
			local = sf.Boundary.Centroid()
			fallbacks++
			a.logger.Warn("no interior point found, using centroid",
				zap.String("surface", string(sf.ID)), zap.Error(err))
		}
		world := sf.Pose.TransformPoint(local.Lift())

		hit, err := a.resolver.Resolve(world)
		if err != nil {
			reason := RejectResolveFailed
			switch {
			case errors.Is(err, surface.ErrNoSurfaceHit):
				reason = RejectNoHit
			case errors.Is(err, ErrProjectionUnavailable):
				reason = RejectProjectionUnavailable
			}
			rejections[reason]++
			a.logger.Debug("candidate rejected",
				zap.String("reason", reason), zap.String("surface", string(sf.ID)), zap.Error(err))
			continue
		}
		if hit.SurfaceID != sf.ID {
			rejections[RejectSurfaceMismatch]++
			a.logger.Debug("candidate rejected",
				zap.String("reason", RejectSurfaceMismatch),
				zap.String("surface", string(sf.ID)),
				zap.String("hit", string(hit.SurfaceID)))
			continue
		}
		if a.registry.TooClose(hit.Position, req.MinSeparation) {
			rejections[RejectTooClose]++
			continue
		}

		p := a.Reserve(req.Kind, sf.ID, hit.Position)
		a.logger.Debug("item placed",
			zap.String("id", p.ID),
			zap.String("surface", string(sf.ID)),
			zap.Int("attempt", attempt))
		return p, true, attempt, fallbacks
	}
	return Placement{}, false, req.MaxAttempts, fallbacks
}

func (a *Allocator) nextID(kind Kind) string {
	a.seq++
	return fmt.Sprintf("%s_%03d", kind, a.seq)
}

func formatRejections(r map[string]int) string {
	if len(r) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, r[k])
	}
	return strings.Join(parts, " ")
}
