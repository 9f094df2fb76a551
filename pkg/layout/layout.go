// Package layout computes the overlay anchor positions for a given
// viewport. Calculate is a pure function: the scene layer calls it on
// every resize and swaps the whole anchor set, there is no incremental
// diffing.
package layout

import (
	"errors"
	"math"
)

// ErrInvalidDimensions reports a non-positive viewport width or height.
var ErrInvalidDimensions = errors.New("layout: viewport dimensions must be positive")

// Anchor names a screen position consumed by presentation code.
type Anchor string

const (
	AnchorScore       Anchor = "score"
	AnchorCombo       Anchor = "combo"
	AnchorTimer       Anchor = "timer"
	AnchorTargetColor Anchor = "targetColor"
	AnchorPlayfield   Anchor = "playfield"
	AnchorResults     Anchor = "results"
)

// Point is an anchor position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Alignment bounds. Left-aligned anchors keep x in [edgeMargin,
// width-edgeReserve]; right-aligned anchors mirror that. The reserve
// leaves room for the widest HUD text so nothing is drawn off-screen
// on extreme aspect ratios.
const (
	edgeMargin  = 20.0
	edgeReserve = 100.0
)

// HUD placement as fractions of the viewport.
const (
	hudSideFrac   = 0.05
	hudTopFrac    = 0.06
	comboDrop     = 0.12
	targetTopFrac = 0.05
	fieldYFrac    = 0.55
	resultsYFrac  = 0.45
)

// Calculate maps every anchor to its position for a width x height
// viewport. Same inputs always produce the same map. Non-positive
// dimensions fail with ErrInvalidDimensions instead of producing
// degenerate geometry.
func Calculate(width, height float64) (map[Anchor]Point, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	topY := onscreen(height*hudTopFrac, height)
	anchors := map[Anchor]Point{
		AnchorScore:       {X: leftAligned(width*hudSideFrac, width), Y: topY},
		AnchorCombo:       {X: leftAligned(width*hudSideFrac, width), Y: onscreen(height*(hudTopFrac+comboDrop), height)},
		AnchorTimer:       {X: rightAligned(width*(1-hudSideFrac), width), Y: topY},
		AnchorTargetColor: {X: width / 2, Y: onscreen(height*targetTopFrac, height)},
		AnchorPlayfield:   {X: width / 2, Y: onscreen(height*fieldYFrac, height)},
		AnchorResults:     {X: width / 2, Y: onscreen(height*resultsYFrac, height)},
	}

	// Alignment bounds can still exceed the viewport on degenerate
	// sizes; the final clamp keeps every anchor on screen.
	for name, p := range anchors {
		anchors[name] = Point{X: onscreen(p.X, width), Y: onscreen(p.Y, height)}
	}
	return anchors, nil
}

// leftAligned bounds x to [edgeMargin, width-edgeReserve].
func leftAligned(x, width float64) float64 {
	return clamp(x, edgeMargin, width-edgeReserve)
}

// rightAligned bounds x to [edgeReserve, width-edgeMargin].
func rightAligned(x, width float64) float64 {
	return clamp(x, edgeReserve, width-edgeMargin)
}

// onscreen bounds v to [0, limit].
func onscreen(v, limit float64) float64 {
	return clamp(v, 0, limit)
}

// clamp bounds v to [lo, hi]. When the interval is inverted (viewport
// narrower than margin plus reserve) the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}
