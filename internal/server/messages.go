package server

import (
	"github.com/ChicagoDave/crowpitcher/pkg/config"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
)

// Tracker message types.
const (
	msgFrame     = "frame"
	msgTap       = "tap"
	msgFrameAck  = "frame_ack"
	msgTapResult = "tap_result"
	msgThreshold = "threshold"
	msgPlaced    = "placed"
	msgSaid      = "said"
	msgError     = "error"
)

// inbound is a message from the AR tracker.
type inbound struct {
	Type    string              `json:"type"`
	Added   []config.SurfaceDef `json:"added,omitempty"`
	Updated []config.SurfaceDef `json:"updated,omitempty"`
	Removed []string            `json:"removed,omitempty"`
	Point   []float64           `json:"point,omitempty"`
}

func (m inbound) step() config.Step {
	return config.Step{
		Kind:    config.StepKind(m.Type),
		Added:   m.Added,
		Updated: m.Updated,
		Removed: m.Removed,
		Point:   m.Point,
	}
}

// outbound is a message to the AR tracker. Only the field matching Type is set.
type outbound struct {
	Type      string                  `json:"type"`
	Frame     *session.FrameResult    `json:"frame,omitempty"`
	Tap       *session.TapResult      `json:"tap,omitempty"`
	Threshold *session.ThresholdEvent `json:"threshold,omitempty"`
	Placed    []placement.Placement   `json:"placed,omitempty"`
	Said      *story.Utterance        `json:"said,omitempty"`
	Error     string                  `json:"error,omitempty"`
}
