package game

import (
	"errors"
	"fmt"

	"github.com/colordotrush/dotrush-backend/pkg/layout"
)

// ErrBadTransition reports a phase change the scene flow does not
// allow.
var ErrBadTransition = errors.New("game: illegal phase transition")

// Phase is one state of the scene overlay.
type Phase string

const (
	PhaseBoot      Phase = "boot"
	PhaseMenu      Phase = "menu"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseResults   Phase = "results"
)

// legalTransitions holds the scene flow: boot into the menu, menu
// starts a countdown, play ends in results, and results either replay
// or return to the menu.
var legalTransitions = map[Phase][]Phase{
	PhaseBoot:      {PhaseMenu},
	PhaseMenu:      {PhaseCountdown},
	PhaseCountdown: {PhasePlaying},
	PhasePlaying:   {PhaseResults},
	PhaseResults:   {PhaseCountdown, PhaseMenu},
}

// Overlay tracks the scene phase and the anchor set for the current
// viewport. It is driven by a single scene goroutine and is not safe
// for concurrent use.
type Overlay struct {
	phase   Phase
	width   float64
	height  float64
	anchors map[layout.Anchor]layout.Point
}

// NewOverlay starts in the boot phase with anchors computed for the
// initial viewport.
func NewOverlay(width, height float64) (*Overlay, error) {
	anchors, err := layout.Calculate(width, height)
	if err != nil {
		return nil, err
	}
	return &Overlay{phase: PhaseBoot, width: width, height: height, anchors: anchors}, nil
}

func (o *Overlay) Phase() Phase { return o.phase }

// Transition moves the overlay to next, rejecting anything outside
// the scene flow.
func (o *Overlay) Transition(next Phase) error {
	for _, allowed := range legalTransitions[o.phase] {
		if next == allowed {
			o.phase = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.phase, next)
}

// Resize recomputes the whole anchor set for the new viewport. On
// invalid dimensions the previous set stays in place so the overlay
// never renders from degenerate geometry.
func (o *Overlay) Resize(width, height float64) error {
	anchors, err := layout.Calculate(width, height)
	if err != nil {
		return err
	}
	o.width, o.height = width, height
	o.anchors = anchors
	return nil
}

// Anchor returns the position for one anchor name.
func (o *Overlay) Anchor(name layout.Anchor) (layout.Point, bool) {
	p, ok := o.anchors[name]
	return p, ok
}

// Anchors returns a copy of the current anchor set.
func (o *Overlay) Anchors() map[layout.Anchor]layout.Point {
	out := make(map[layout.Anchor]layout.Point, len(o.anchors))
	for name, p := range o.anchors {
		out[name] = p
	}
	return out
}

// Viewport reports the dimensions the current anchors were computed
// for.
func (o *Overlay) Viewport() (width, height float64) {
	return o.width, o.height
}
