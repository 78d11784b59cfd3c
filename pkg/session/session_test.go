package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ChicagoDave/crowpitcher/pkg/config"
	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/journal"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu         sync.Mutex
	thresholds []ThresholdEvent
	placed     []placement.Placement
	said       []story.Sequence
}

func (r *recorder) ThresholdCrossed(ev ThresholdEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds = append(r.thresholds, ev)
}

func (r *recorder) Placed(ps []placement.Placement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, ps...)
}

func (r *recorder) Said(u story.Utterance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.said = append(r.said, u.Sequence)
}

func (r *recorder) sequences() []story.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]story.Sequence{}, r.said...)
}

func start(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Config.Unlock.AreaThreshold == 0 {
		opts.Config = config.Defaults()
	}
	s := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func square(id surface.ID, side float64) surface.Surface {
	poly := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(0, side), geo.Pt(side, side), geo.Pt(side, 0))
	return surface.Surface{ID: id, Boundary: poly, Size: surface.SizeFromBoundary(poly)}
}

func TestThresholdCrossedOnce(t *testing.T) {
	rec := &recorder{}
	s := start(t, Options{Notifier: rec})
	ctx := context.Background()

	res, err := s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 0.5)}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, res.Total, 1e-9)
	assert.False(t, res.Unlocked)

	res, err = s.SubmitFrame(ctx, surface.Frame{Updated: []surface.Surface{square("floor", 2)}})
	require.NoError(t, err)
	assert.True(t, res.Crossed)
	assert.True(t, res.Unlocked)

	res, err = s.SubmitFrame(ctx, surface.Frame{Removed: []surface.ID{"floor"}})
	require.NoError(t, err)
	assert.False(t, res.Crossed)
	assert.True(t, res.Unlocked, "unlock never reverts")
	assert.Equal(t, 0.0, res.Total)

	require.Len(t, rec.thresholds, 1)
	assert.Equal(t, s.ID(), rec.thresholds[0].SessionID)
	assert.InDelta(t, 4, rec.thresholds[0].Total, 1e-9)
}

func TestTapBeforeUnlockIgnored(t *testing.T) {
	s := start(t, Options{})
	res, err := s.Tap(context.Background(), geo.V3(0.1, 0, 0.1))
	require.NoError(t, err)
	assert.Equal(t, TapIgnored, res.Action)
	assert.Contains(t, res.Reason, "below")
}

func TestTapOffSurfaceIgnored(t *testing.T) {
	s := start(t, Options{})
	ctx := context.Background()
	_, err := s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 3)}})
	require.NoError(t, err)

	res, err := s.Tap(ctx, geo.V3(10, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, TapIgnored, res.Action)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Crow)
}

// approach returns a point on the line from item toward center, just outside
// the tap radius of item.
func approach(item, center geo.Vec3) geo.Vec3 {
	dir := center.Sub(item)
	return item.Add(dir.Scale(0.12 / dir.Length()))
}

func findKind(items []placement.Placement, k placement.Kind) (placement.Placement, bool) {
	for _, it := range items {
		if it.Kind == k {
			return it, true
		}
	}
	return placement.Placement{}, false
}

func TestPlaythrough(t *testing.T) {
	rec := &recorder{}
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	s := start(t, Options{Notifier: rec, Journal: j})
	ctx := context.Background()
	center := geo.V3(1.5, 0, 1.5)

	_, err = s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 3)}})
	require.NoError(t, err)

	res, err := s.Tap(ctx, center)
	require.NoError(t, err)
	require.Equal(t, TapSpawned, res.Action, res.Reason)
	assert.Equal(t, center, res.Target.Position)
	require.Len(t, res.Placed, 1+5+1+1, res.Report.Summary)
	assert.Equal(t, []story.Sequence{story.StartingDialogue}, rec.sequences())

	for i, a := range res.Placed {
		for _, b := range res.Placed[i+1:] {
			assert.GreaterOrEqual(t, a.Position.Distance(b.Position), 0.25, "%s vs %s", a.ID, b.ID)
		}
	}

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 7)
	npc, ok := findKind(snap.Items, placement.KindNPC)
	require.True(t, ok)
	rock, ok := findKind(snap.Items, placement.KindRock)
	require.True(t, ok)
	pitcher, ok := findKind(snap.Items, placement.KindPitcher)
	require.True(t, ok)

	// Talking to the other bird unlocks pebble collection.
	res, err = s.Tap(ctx, npc.Position)
	require.NoError(t, err)
	require.Equal(t, TapInteracted, res.Action)
	require.NotEmpty(t, res.Outcome.Said)
	assert.Equal(t, story.NPCGiveHint, res.Outcome.Said[0].Sequence)

	res, err = s.Tap(ctx, approach(rock.Position, center))
	require.NoError(t, err)
	require.Equal(t, TapMoved, res.Action)

	res, err = s.Tap(ctx, rock.Position)
	require.NoError(t, err)
	require.Equal(t, TapInteracted, res.Action)
	assert.True(t, res.Outcome.Collected)

	res, err = s.Tap(ctx, approach(pitcher.Position, center))
	require.NoError(t, err)
	require.Equal(t, TapMoved, res.Action)

	res, err = s.Tap(ctx, pitcher.Position)
	require.NoError(t, err)
	require.Equal(t, TapInteracted, res.Action)
	assert.True(t, res.Outcome.Dropped)
	assert.InDelta(t, 0.2, res.Outcome.Fill, 1e-9)
	assert.Contains(t, rec.sequences(), story.DropPebble1)
	assert.Contains(t, rec.sequences(), story.FoundPitcher)

	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 6, "the collected rock leaves the scene")
	assert.False(t, snap.Carrying)

	recorded, err := j.Placements(ctx, s.ID())
	require.NoError(t, err)
	assert.Len(t, recorded, 8)
	_, unlocked, err := j.Unlocked(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestMovedCrowKeepsItemsAway(t *testing.T) {
	s := start(t, Options{})
	ctx := context.Background()
	_, err := s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 6)}})
	require.NoError(t, err)

	res, err := s.Tap(ctx, geo.V3(0.5, 0, 0.5))
	require.NoError(t, err)
	require.Equal(t, TapSpawned, res.Action, res.Reason)

	var perch geo.Vec3
	for _, p := range []geo.Vec3{geo.V3(5.5, 0, 5.5), geo.V3(5.5, 0, 0.5), geo.V3(0.5, 0, 5.5)} {
		res, err = s.Tap(ctx, p)
		require.NoError(t, err)
		if res.Action == TapMoved {
			perch = res.Target.Position
			break
		}
	}
	require.NotZero(t, perch, "the crow should have moved to a free corner")

	var occupied bool
	require.NoError(t, s.do(ctx, func() {
		occupied = s.alloc.Registry().TooClose(perch, 1e-6)
	}))
	assert.True(t, occupied, "later placements keep clear of where the crow is now")
}

func TestPlaceAdHoc(t *testing.T) {
	rec := &recorder{}
	s := start(t, Options{Notifier: rec})
	ctx := context.Background()

	placed, report, err := s.Place(ctx, placement.Request{Count: 2})
	require.NoError(t, err)
	assert.Empty(t, placed)
	assert.False(t, report.Valid)

	_, err = s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 4)}})
	require.NoError(t, err)
	placed, report, err = s.Place(ctx, placement.Request{Count: 3, MinSeparation: 0.5})
	require.NoError(t, err)
	assert.Len(t, placed, 3, report.Summary)
	assert.Len(t, rec.placed, 3)
}

func TestProjectionUnavailable(t *testing.T) {
	r := resolverFunc(func(geo.Vec3) (surface.Hit, error) {
		return surface.Hit{}, placement.ErrProjectionUnavailable
	})
	s := start(t, Options{Resolver: r})
	ctx := context.Background()
	_, err := s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square("floor", 4)}})
	require.NoError(t, err)

	placed, report, err := s.Place(ctx, placement.Request{Count: 1})
	require.NoError(t, err)
	assert.Empty(t, placed)
	assert.True(t, report.HasWarnings())
}

type resolverFunc func(geo.Vec3) (surface.Hit, error)

func (f resolverFunc) Resolve(p geo.Vec3) (surface.Hit, error) { return f(p) }

func TestClosedSession(t *testing.T) {
	s := New(Options{Config: config.Defaults()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	_, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	<-s.Done()

	_, err = s.Tap(context.Background(), geo.V3(0, 0, 0))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunOnlyOnce(t *testing.T) {
	s := start(t, Options{})
	_, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
	_, err = s.Snapshot(context.Background())
	assert.NoError(t, err, "the first Run keeps serving")
}

func TestCallerContextCancelled(t *testing.T) {
	// No Run loop: the command can never be accepted.
	s := New(Options{Config: config.Defaults()})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.SubmitFrame(ctx, surface.Frame{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentCallers(t *testing.T) {
	s := start(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := surface.ID(string(rune('a' + i)))
			_, err := s.SubmitFrame(ctx, surface.Frame{Added: []surface.Surface{square(id, 1)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 8, snap.Total, 1e-9)
	assert.Len(t, snap.Surfaces, 8)
}
