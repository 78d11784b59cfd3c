package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

// TapAction is what a tap ended up doing.
type TapAction string

const (
	TapIgnored    TapAction = "ignored"
	TapSpawned    TapAction = "spawned"
	TapInteracted TapAction = "interacted"
	TapMoved      TapAction = "moved"
)

// TapResult describes the effect of one tap.
type TapResult struct {
	Action  TapAction             `json:"action"`
	Reason  string                `json:"reason,omitempty"`
	Target  *placement.Placement  `json:"target,omitempty"`
	Placed  []placement.Placement `json:"placed,omitempty"`
	Outcome story.Outcome         `json:"outcome"`
	Report  *validation.Report    `json:"report,omitempty"`
}

// Tap handles a screen tap that hit the world at point.
func (s *Session) Tap(ctx context.Context, point geo.Vec3) (TapResult, error) {
	var res TapResult
	err := s.do(ctx, func() { res = s.tap(point) })
	return res, err
}

func (s *Session) tap(point geo.Vec3) TapResult {
	if !s.latch.Unlocked() {
		return TapResult{
			Action: TapIgnored,
			Reason: fmt.Sprintf("tracked area %.2f m² is below the %.2f m² threshold", s.acc.CurrentTotal(), s.latch.Threshold()),
		}
	}
	if s.crow == nil {
		return s.spawn(point)
	}
	if target, ok := s.itemAt(point); ok {
		return s.interact(target)
	}
	return s.move(point)
}

// spawn places the crow at the tapped point and the rest of the scene around it.
func (s *Session) spawn(point geo.Vec3) TapResult {
	hit, err := s.surfaces.Resolve(point)
	if err != nil {
		return TapResult{Action: TapIgnored, Reason: "tap is not on a tracked surface"}
	}

	crow := s.alloc.Reserve(placement.KindCrow, hit.SurfaceID, hit.Position)
	placed := []placement.Placement{crow}

	candidates, report := s.surfaces.Candidates()
	wave := []placement.Request{
		{Kind: placement.KindRock, Count: s.cfg.Spawn.RockCount},
		{Kind: placement.KindPitcher, Count: 1},
		{Kind: placement.KindNPC, Count: 1},
	}
	for _, req := range wave {
		items, r := s.alloc.PlaceItems(s.withDefaults(req), candidates)
		report.Merge(r)
		placed = append(placed, items...)
	}
	s.accept(placed)

	out := s.game.Start()
	s.say(out)

	s.logger.Info("crow spawned",
		zap.String("surface", string(hit.SurfaceID)),
		zap.Int("items", len(placed)-1),
		zap.Int("warnings", len(report.Warnings)))
	return TapResult{Action: TapSpawned, Target: &crow, Placed: placed, Outcome: out, Report: report}
}

// itemAt returns the placed item nearest to point within the tap radius.
func (s *Session) itemAt(point geo.Vec3) (placement.Placement, bool) {
	best, bestDist := -1, s.cfg.Interaction.TapRadius
	for i, it := range s.items {
		if d := it.Position.Distance(point); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return placement.Placement{}, false
	}
	return s.items[best], true
}

func (s *Session) interact(target placement.Placement) TapResult {
	dist := s.crow.Position.Distance(target.Position)
	var out story.Outcome

	switch target.Kind {
	case placement.KindRock:
		out = mergeOutcomes(out, s.game.Spot(story.ThingRock))
		collect := s.game.CollectPebble(dist)
		out = mergeOutcomes(out, collect)
		if collect.Collected {
			s.removeItem(target.ID)
		}
	case placement.KindPitcher:
		out = mergeOutcomes(out, s.game.Spot(story.ThingPitcher))
		if s.game.Carrying() {
			out = mergeOutcomes(out, s.game.DropPebble(dist))
		}
	case placement.KindNPC:
		out = mergeOutcomes(out, s.game.Spot(story.ThingNPC))
	default:
		out.Fill = s.game.Fill()
	}
	s.say(out)

	s.logger.Debug("tap interaction",
		zap.String("target", target.ID),
		zap.Float64("distance", dist),
		zap.Bool("collected", out.Collected),
		zap.Bool("dropped", out.Dropped))
	return TapResult{Action: TapInteracted, Target: &target, Outcome: out}
}

// move flies the crow to point and lets it look around.
func (s *Session) move(point geo.Vec3) TapResult {
	hit, err := s.surfaces.Resolve(point)
	if err != nil {
		return TapResult{Action: TapIgnored, Reason: "tap is not on a tracked surface"}
	}
	s.crow.Position = hit.Position
	s.crow.SurfaceID = hit.SurfaceID
	// The registry is append-only, so the old perch stays occupied as well.
	s.alloc.Registry().Add(hit.Position)

	out := story.Outcome{Fill: s.game.Fill()}
	for _, it := range s.items {
		if it.Position.Distance(hit.Position) > s.cfg.Interaction.CollectDistance {
			continue
		}
		if thing, ok := thingFor(it.Kind); ok {
			out = mergeOutcomes(out, s.game.Spot(thing))
		}
	}
	s.say(out)

	crow := *s.crow
	return TapResult{Action: TapMoved, Target: &crow, Outcome: out}
}

func (s *Session) removeItem(id string) {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func thingFor(k placement.Kind) (story.Thing, bool) {
	switch k {
	case placement.KindRock:
		return story.ThingRock, true
	case placement.KindPitcher:
		return story.ThingPitcher, true
	case placement.KindNPC:
		return story.ThingNPC, true
	}
	return "", false
}

func mergeOutcomes(a, b story.Outcome) story.Outcome {
	a.Said = append(a.Said, b.Said...)
	a.Objectives = append(a.Objectives, b.Objectives...)
	a.Collected = a.Collected || b.Collected
	a.Dropped = a.Dropped || b.Dropped
	a.Finished = a.Finished || b.Finished
	a.Fill = b.Fill
	return a
}
