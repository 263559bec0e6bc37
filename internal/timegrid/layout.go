package timegrid

import (
	"math"
	"time"
)

type Category string

// DisplayEvent is a calendar entry owned by the caller. The grid only reads it.
type DisplayEvent struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Category Category
}

// RangePolicy decides how events reaching outside the visible hours are shown.
type RangePolicy int

const (
	// ClipToGrid trims partially visible events to the grid and hides
	// events that lie entirely outside it.
	ClipToGrid RangePolicy = iota
	// HideOutOfRange hides every event that is not fully inside the grid.
	HideOutOfRange
)

func ParseRangePolicy(s string) (RangePolicy, bool) {
	switch s {
	case "", "clip":
		return ClipToGrid, true
	case "hide":
		return HideOutOfRange, true
	default:
		return ClipToGrid, false
	}
}

// Placement is an event's position on the grid. Z follows input order, so
// later events are drawn over earlier ones when they overlap.
type Placement struct {
	Event         DisplayEvent
	Top           float64
	Height        float64
	Z             int
	ClippedTop    bool
	ClippedBottom bool
}

// Layout places the events that are visible on date's grid. Events on other
// days, inverted events and events hidden by the policy are left out.
func (g Geometry) Layout(date time.Time, events []DisplayEvent, policy RangePolicy) []Placement {
	gridStart := g.GridStart(date)
	gridEnd := g.GridEnd(date)

	out := make([]Placement, 0, len(events))
	for i, ev := range events {
		start := ev.Start.In(date.Location())
		end := ev.End.In(date.Location())
		if end.Before(start) {
			continue
		}
		overlaps := start.Before(gridEnd) && end.After(gridStart)
		instant := start.Equal(end) && !start.Before(gridStart) && start.Before(gridEnd)
		if !overlaps && !instant {
			continue
		}

		p := Placement{Event: ev, Z: i}
		if start.Before(gridStart) {
			if policy == HideOutOfRange {
				continue
			}
			start = gridStart
			p.ClippedTop = true
		}
		if end.After(gridEnd) {
			if policy == HideOutOfRange {
				continue
			}
			end = gridEnd
			p.ClippedBottom = true
		}

		p.Top = g.YAt(start, date)
		// A repeated hour after a DST fall-back can put end above start.
		p.Height = math.Max(0, g.YAt(end, date)-p.Top)
		out = append(out, p)
	}
	return out
}
