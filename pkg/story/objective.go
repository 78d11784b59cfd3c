// Package story tracks the crow's progress through the fable: objectives,
// scripted dialogue and the pitcher's water level.
package story

import "fmt"

// ObjectiveType indexes the fixed objective list.
type ObjectiveType string

const (
	FindWaterSource     ObjectiveType = "find_water_source"
	AskForHelp          ObjectiveType = "ask_for_help"
	CollectPebbles      ObjectiveType = "collect_pebbles"
	PutPebblesInPitcher ObjectiveType = "put_pebbles_in_pitcher"
)

// Objective is a single goal shown to the player.
type Objective struct {
	Type          ObjectiveType `json:"type"`
	Description   string        `json:"description"`
	Completed     bool          `json:"completed"`
	Current       int           `json:"current,omitempty"`
	Target        int           `json:"target,omitempty"`
	ProgressBased bool          `json:"progress_based,omitempty"`
}

// Text returns the description, followed by the progress counter for
// progress-based objectives.
func (o Objective) Text() string {
	if !o.ProgressBased {
		return o.Description
	}
	return fmt.Sprintf("%s (%d/%d)", o.Description, o.Current, o.Target)
}

// Objectives is the ordered objective list. Pebble objectives are revealed
// once the water source has been found.
type Objectives struct {
	list        []Objective
	pebbleGoal  int
	pebblesOpen bool
}

// NewObjectives returns the starting objectives. pebbleGoal is the number
// of pebbles both pebble objectives count toward.
func NewObjectives(pebbleGoal int) *Objectives {
	return &Objectives{
		pebbleGoal: pebbleGoal,
		list: []Objective{
			{Type: FindWaterSource, Description: "Find the water resources."},
			{Type: AskForHelp, Description: "Ask another bird for help."},
		},
	}
}

// List returns a copy of the visible objectives in order.
func (o *Objectives) List() []Objective {
	out := make([]Objective, len(o.list))
	copy(out, o.list)
	return out
}

// Get returns the objective of type t if it is visible.
func (o *Objectives) Get(t ObjectiveType) (Objective, bool) {
	if i := o.index(t); i >= 0 {
		return o.list[i], true
	}
	return Objective{}, false
}

// IsCompleted reports whether objective t is visible and complete.
func (o *Objectives) IsCompleted(t ObjectiveType) bool {
	obj, ok := o.Get(t)
	return ok && obj.Completed
}

// Complete marks t done. It reports whether this call changed anything.
func (o *Objectives) Complete(t ObjectiveType) bool {
	i := o.index(t)
	if i < 0 || o.list[i].Completed {
		return false
	}
	o.list[i].Completed = true
	if t == FindWaterSource {
		o.revealPebbleObjectives()
	}
	return true
}

// SetProgress clamps n to the objective's target and completes it when the
// target is reached. Hidden or non-progress objectives are left alone.
func (o *Objectives) SetProgress(t ObjectiveType, n int) (Objective, bool) {
	i := o.index(t)
	if i < 0 || !o.list[i].ProgressBased {
		return Objective{}, false
	}
	obj := &o.list[i]
	obj.Current = max(0, min(n, obj.Target))
	if obj.Current >= obj.Target && !obj.Completed {
		obj.Completed = true
	}
	return *obj, true
}

// AllComplete reports whether every objective, including hidden ones, is done.
func (o *Objectives) AllComplete() bool {
	if !o.pebblesOpen {
		return false
	}
	for _, obj := range o.list {
		if !obj.Completed {
			return false
		}
	}
	return true
}

func (o *Objectives) revealPebbleObjectives() {
	if o.pebblesOpen {
		return
	}
	o.pebblesOpen = true
	o.list = append(o.list,
		Objective{
			Type:          CollectPebbles,
			Description:   fmt.Sprintf("Collect %d pebbles to raise the water level.", o.pebbleGoal),
			Target:        o.pebbleGoal,
			ProgressBased: true,
		},
		Objective{
			Type:          PutPebblesInPitcher,
			Description:   fmt.Sprintf("Put %d pebbles in the pitcher to drink the water.", o.pebbleGoal),
			Target:        o.pebbleGoal,
			ProgressBased: true,
		},
	)
}

func (o *Objectives) index(t ObjectiveType) int {
	for i, obj := range o.list {
		if obj.Type == t {
			return i
		}
	}
	return -1
}
