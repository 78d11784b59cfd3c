// Package session owns a single AR tracking session. One goroutine (Run)
// holds every piece of mutable state; callers reach it through blocking
// methods that hand commands to that goroutine.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/area"
	"github.com/ChicagoDave/crowpitcher/pkg/config"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

var (
	// ErrClosed is returned once Run has exited.
	ErrClosed = errors.New("session: closed")
	// ErrAlreadyRunning is returned by every Run call after the first.
	ErrAlreadyRunning = errors.New("session: Run called more than once")
)

// ThresholdEvent is emitted once, when tracked area first reaches the threshold.
type ThresholdEvent struct {
	SessionID string  `json:"session_id"`
	Total     float64 `json:"total"`
	Threshold float64 `json:"threshold"`
	Surfaces  int     `json:"surfaces"`
}

// Notifier receives session events. Calls happen on the session goroutine
// and must not block.
type Notifier interface {
	ThresholdCrossed(ThresholdEvent)
	Placed([]placement.Placement)
	Said(story.Utterance)
}

// Journal persists what happened in a session.
type Journal interface {
	StartSession(ctx context.Context, sessionID string, seed uint64, threshold float64) error
	RecordUnlock(ctx context.Context, sessionID string, total float64, surfaces int) error
	RecordPlacement(ctx context.Context, sessionID string, p placement.Placement) error
}

// Options configures a Session. Only Config is required.
type Options struct {
	Config   config.GameConfig
	Logger   *zap.Logger
	Notifier Notifier
	Journal  Journal
	// Resolver overrides the live surface set for placement re-validation.
	Resolver placement.Resolver
}

// Session is one tracking session.
type Session struct {
	id       string
	cfg      config.GameConfig
	logger   *zap.Logger
	notifier Notifier
	journal  Journal

	surfaces *surface.Set
	acc      *area.Accumulator
	latch    *area.Latch
	alloc    *placement.Allocator
	game     *story.Game

	crow  *placement.Placement
	items []placement.Placement

	// ctx is the Run context, valid only on the session goroutine.
	ctx     context.Context
	cmds    chan func()
	started atomic.Bool
	stopped chan struct{}
}

// New builds a session. Nothing happens until Run is called.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	cfg := opts.Config
	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	surfaces := surface.NewSet(cfg.Spawn.PlaneTolerance, logger.Named("surface"))
	var resolver placement.Resolver = surfaces
	if opts.Resolver != nil {
		resolver = opts.Resolver
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))

	return &Session{
		id:       id,
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
		journal:  opts.Journal,
		surfaces: surfaces,
		acc:      area.NewAccumulator(logger.Named("area")),
		latch:    area.NewLatch(cfg.Unlock.AreaThreshold),
		alloc:    placement.NewAllocator(resolver, placement.NewRegistry(), rng, cfg.Spawn.SampleTrials, logger.Named("placement")),
		game: story.NewGame(story.Options{
			PebbleGoal:      cfg.Pitcher.MaxPebbles,
			InitialFill:     cfg.Pitcher.InitialFill,
			CollectDistance: cfg.Interaction.CollectDistance,
		}, logger.Named("story")),
		ctx:     context.Background(),
		cmds:    make(chan func()),
		stopped: make(chan struct{}),
	}
}

// ID returns the session's unique ID.
func (s *Session) ID() string { return s.id }

// Run processes commands until ctx is cancelled. It returns ctx.Err().
// A session runs once; later calls return ErrAlreadyRunning.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.stopped)
	s.ctx = ctx

	if s.journal != nil {
		if err := s.journal.StartSession(ctx, s.id, s.cfg.Seed, s.cfg.Unlock.AreaThreshold); err != nil {
			s.logger.Warn("journal unavailable", zap.Error(err))
			s.journal = nil
		}
	}
	s.logger.Info("session started", zap.Float64("threshold", s.cfg.Unlock.AreaThreshold))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", zap.Int("items", len(s.items)))
			return ctx.Err()
		case fn := <-s.cmds:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.stopped }

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrClosed
	}

	// Once accepted the command always runs to completion before Run can exit.
	<-finished
	return nil
}

// FrameResult describes the area state after a frame.
type FrameResult struct {
	Total    float64 `json:"total"`
	Tracked  int     `json:"tracked"`
	Unlocked bool    `json:"unlocked"`
	Crossed  bool    `json:"crossed"`
}

// SubmitFrame applies one tracking frame.
func (s *Session) SubmitFrame(ctx context.Context, f surface.Frame) (FrameResult, error) {
	var res FrameResult
	err := s.do(ctx, func() { res = s.applyFrame(f) })
	return res, err
}

func (s *Session) applyFrame(f surface.Frame) FrameResult {
	s.surfaces.Apply(f)
	s.acc.Apply(f)

	total := s.acc.CurrentTotal()
	res := FrameResult{
		Total:   total,
		Tracked: s.acc.Tracked(),
		Crossed: s.latch.Observe(total),
	}
	res.Unlocked = s.latch.Unlocked()

	if res.Crossed {
		ev := ThresholdEvent{SessionID: s.id, Total: total, Threshold: s.latch.Threshold(), Surfaces: res.Tracked}
		s.logger.Info("area threshold reached", zap.Float64("total", total), zap.Int("surfaces", res.Tracked))
		s.notifier.ThresholdCrossed(ev)
		if s.journal != nil {
			if err := s.journal.RecordUnlock(s.ctx, s.id, total, res.Tracked); err != nil {
				s.logger.Warn("journal write failed", zap.Error(err))
			}
		}
	}
	return res
}

// Place runs an ad-hoc placement request against the current candidates.
func (s *Session) Place(ctx context.Context, req placement.Request) ([]placement.Placement, *validation.Report, error) {
	var (
		placed []placement.Placement
		report *validation.Report
	)
	err := s.do(ctx, func() {
		candidates, cr := s.surfaces.Candidates()
		placed, report = s.alloc.PlaceItems(s.withDefaults(req), candidates)
		report.Merge(cr)
		s.accept(placed)
	})
	return placed, report, err
}

func (s *Session) withDefaults(req placement.Request) placement.Request {
	if req.MinSeparation <= 0 {
		req.MinSeparation = s.cfg.Spawn.MinSeparation
	}
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = s.cfg.Spawn.MaxAttempts
	}
	return req
}

// accept records newly placed items and tells everyone about them.
func (s *Session) accept(placed []placement.Placement) {
	if len(placed) == 0 {
		return
	}
	for _, p := range placed {
		if p.Kind == placement.KindCrow {
			crow := p
			s.crow = &crow
		} else {
			s.items = append(s.items, p)
		}
		if s.journal != nil {
			if err := s.journal.RecordPlacement(s.ctx, s.id, p); err != nil {
				s.logger.Warn("journal write failed", zap.String("item", p.ID), zap.Error(err))
			}
		}
	}
	s.notifier.Placed(placed)
}

func (s *Session) say(out story.Outcome) {
	for _, u := range out.Said {
		s.notifier.Said(u)
	}
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID         string                `json:"id"`
	Total      float64               `json:"total"`
	Threshold  float64               `json:"threshold"`
	Unlocked   bool                  `json:"unlocked"`
	Surfaces   []surface.Surface     `json:"surfaces"`
	Crow       *placement.Placement  `json:"crow,omitempty"`
	Items      []placement.Placement `json:"items"`
	Objectives []story.Objective     `json:"objectives"`
	Fill       float64               `json:"fill"`
	Carrying   bool                  `json:"carrying"`
	Finished   bool                  `json:"finished"`
	MinSpacing float64               `json:"min_spacing"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		snap = Snapshot{
			ID:         s.id,
			Total:      s.acc.CurrentTotal(),
			Threshold:  s.latch.Threshold(),
			Unlocked:   s.latch.Unlocked(),
			Surfaces:   s.surfaces.All(),
			Items:      append([]placement.Placement{}, s.items...),
			Objectives: s.game.Objectives(),
			Fill:       s.game.Fill(),
			Carrying:   s.game.Carrying(),
			Finished:   s.game.Finished(),
			MinSpacing: s.cfg.Spawn.MinSeparation,
		}
		if s.crow != nil {
			crow := *s.crow
			snap.Crow = &crow
		}
	})
	return snap, err
}

type nopNotifier struct{}

func (nopNotifier) ThresholdCrossed(ThresholdEvent) {}
func (nopNotifier) Placed([]placement.Placement)    {}
func (nopNotifier) Said(story.Utterance)            {}

var _ placement.Resolver = (*surface.Set)(nil)
