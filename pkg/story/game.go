package story

import (
	"go.uber.org/zap"
)

const (
	// DefaultPebbleGoal is how many pebbles raise the water to the brim.
	DefaultPebbleGoal = 5
	// DefaultInitialFill is the water level before any pebble is dropped.
	DefaultInitialFill = 0.1
	// DefaultCollectDistance is how close the crow must be to pick up or drop a pebble.
	DefaultCollectDistance = 1.0
)

// Remarks the crow makes when an interaction is refused.
const (
	RemarkCarryingAlready = "I can only carry one pebble at a time!"
	RemarkNotNeededYet    = "A beautiful pebble!\nBut I don't need it right now."
	RemarkTooFar          = "I need to get closer."
	RemarkNothingToDrop   = "I don't have a pebble to drop."
	RemarkPitcherFull     = "The pitcher is already full."
)

// Thing is what the crow can see or touch.
type Thing string

const (
	ThingRock    Thing = "rock"
	ThingPitcher Thing = "pitcher"
	ThingNPC     Thing = "npc"
)

// Options configures a Game. Zero fields take the package defaults.
type Options struct {
	PebbleGoal      int
	InitialFill     float64
	CollectDistance float64
}

// Outcome is everything a single story step produced.
type Outcome struct {
	Said       []Utterance `json:"said,omitempty"`
	Objectives []Objective `json:"objectives,omitempty"`
	Collected  bool        `json:"collected,omitempty"`
	Dropped    bool        `json:"dropped,omitempty"`
	Fill       float64     `json:"fill"`
	Finished   bool        `json:"finished,omitempty"`
}

// Changed reports whether the step had any visible effect.
func (o Outcome) Changed() bool {
	return len(o.Said) > 0 || len(o.Objectives) > 0 || o.Collected || o.Dropped
}

// Game drives the fable once the crow is in the scene. It is not safe for
// concurrent use.
type Game struct {
	objectives      *Objectives
	pitcher         *Pitcher
	collectDistance float64
	logger          *zap.Logger

	started      bool
	carrying     bool
	collected    int
	pebblesNoted bool
}

// NewGame returns a game in its opening state.
func NewGame(opts Options, logger *zap.Logger) *Game {
	if opts.PebbleGoal <= 0 {
		opts.PebbleGoal = DefaultPebbleGoal
	}
	if opts.InitialFill <= 0 {
		opts.InitialFill = DefaultInitialFill
	}
	if opts.CollectDistance <= 0 {
		opts.CollectDistance = DefaultCollectDistance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{
		objectives:      NewObjectives(opts.PebbleGoal),
		pitcher:         NewPitcher(opts.PebbleGoal, opts.InitialFill),
		collectDistance: opts.CollectDistance,
		logger:          logger,
	}
}

// Objectives returns the visible objectives.
func (g *Game) Objectives() []Objective { return g.objectives.List() }

// Carrying reports whether the crow holds a pebble.
func (g *Game) Carrying() bool { return g.carrying }

// Collected returns the number of pebbles picked up so far.
func (g *Game) Collected() int { return g.collected }

// Fill returns the pitcher's water level.
func (g *Game) Fill() float64 { return g.pitcher.Fill() }

// Finished reports whether the crow can drink.
func (g *Game) Finished() bool { return g.pitcher.Full() }

// Start plays the opening lines. Later calls do nothing.
func (g *Game) Start() Outcome {
	out := g.outcome()
	if g.started {
		return out
	}
	g.started = true
	out.Said = append(out.Said, say(StartingDialogue))
	return out
}

// Spot records that the crow has seen thing.
func (g *Game) Spot(thing Thing) Outcome {
	out := g.outcome()
	switch thing {
	case ThingPitcher:
		if g.objectives.Complete(FindWaterSource) {
			out.Said = append(out.Said, say(FoundPitcher))
			g.syncProgress()
			out.Objectives = g.objectives.List()
			g.logger.Info("water source found")
		}
	case ThingNPC:
		if g.objectives.Complete(AskForHelp) {
			out.Said = append(out.Said, say(NPCGiveHint))
			out.Objectives = g.objectives.List()
			g.logger.Info("hint received")
		}
	case ThingRock:
		if g.objectives.IsCompleted(AskForHelp) && !g.pebblesNoted {
			g.pebblesNoted = true
			out.Said = append(out.Said, say(FoundPebbles))
		}
	}
	return out
}

// CollectPebble tries to pick up a pebble distance meters away.
func (g *Game) CollectPebble(distance float64) Outcome {
	out := g.outcome()
	switch {
	case g.carrying:
		out.Said = append(out.Said, remark(RemarkCarryingAlready))
		return out
	case !g.objectives.IsCompleted(AskForHelp):
		out.Said = append(out.Said, remark(RemarkNotNeededYet))
		return out
	case distance > g.collectDistance:
		out.Said = append(out.Said, remark(RemarkTooFar))
		return out
	}

	g.carrying = true
	g.collected++
	out.Collected = true
	if obj, ok := g.objectives.SetProgress(CollectPebbles, g.collected); ok {
		out.Objectives = append(out.Objectives, obj)
	}
	g.logger.Debug("pebble collected", zap.Int("collected", g.collected))
	return out
}

// DropPebble tries to drop the carried pebble into a pitcher distance meters away.
func (g *Game) DropPebble(distance float64) Outcome {
	out := g.outcome()
	switch {
	case !g.carrying:
		out.Said = append(out.Said, remark(RemarkNothingToDrop))
		return out
	case distance > g.collectDistance:
		out.Said = append(out.Said, remark(RemarkTooFar))
		return out
	case !g.pitcher.AddPebble():
		out.Said = append(out.Said, remark(RemarkPitcherFull))
		return out
	}

	g.carrying = false
	out.Dropped = true
	out.Fill = g.pitcher.Fill()

	obj, ok := g.objectives.SetProgress(PutPebblesInPitcher, g.pitcher.Pebbles())
	if ok {
		out.Objectives = append(out.Objectives, obj)
	}
	switch {
	case g.pitcher.Full():
		out.Said = append(out.Said, say(ReachWater))
		out.Finished = true
		g.logger.Info("pitcher full", zap.Int("pebbles", g.pitcher.Pebbles()))
	case g.pitcher.Pebbles() == 1:
		out.Said = append(out.Said, say(DropPebble1))
	case g.pitcher.Pebbles() == 4:
		out.Said = append(out.Said, say(DropPebble2))
	}
	g.logger.Debug("pebble dropped", zap.Int("pebbles", g.pitcher.Pebbles()), zap.Float64("fill", out.Fill))
	return out
}

// syncProgress catches the pebble objectives up with pebbles handled
// before they were revealed.
func (g *Game) syncProgress() {
	g.objectives.SetProgress(CollectPebbles, g.collected)
	g.objectives.SetProgress(PutPebblesInPitcher, g.pitcher.Pebbles())
}

func (g *Game) outcome() Outcome {
	return Outcome{Fill: g.pitcher.Fill()}
}
