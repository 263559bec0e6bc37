package timegrid

import (
	"fmt"
	"time"
)

const LabelLayout = "15:04"

type TimeSlot struct {
	Start time.Time
	End   time.Time
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Labels formats the slot as "HH:mm" strings. An end at the following
// midnight is written as "24:00".
func (s TimeSlot) Labels() (start, end string) {
	start = s.Start.Format(LabelLayout)
	end = s.End.Format(LabelLayout)
	if end == "00:00" && s.End.After(s.Start) {
		end = "24:00"
	}
	return start, end
}

// Resolve orders a and b and widens a zero-length selection to one cell.
// A one-cell selection that would run past the grid end is moved up so it
// ends at the grid end.
func (g Geometry) Resolve(a, b time.Time) TimeSlot {
	if b.Before(a) {
		a, b = b, a
	}
	if !a.Equal(b) {
		return TimeSlot{Start: a, End: b}
	}

	cell := g.CellDuration()
	end := a.Add(cell)
	if gridEnd := g.GridEnd(a); end.After(gridEnd) && !a.After(gridEnd) {
		return TimeSlot{Start: gridEnd.Add(-cell), End: gridEnd}
	}
	return TimeSlot{Start: a, End: end}
}

// ParseLabel reads an "HH:mm" label as a time on the day of date.
// "24:00" is accepted as midnight at the end of that day.
func ParseLabel(date time.Time, label string) (time.Time, error) {
	y, m, d := date.Date()
	if label == "24:00" {
		return time.Date(y, m, d+1, 0, 0, 0, 0, date.Location()), nil
	}
	t, err := time.Parse(LabelLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time label %q: %w", label, err)
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// ParseSlot is the inverse of TimeSlot.Labels for a given day.
func ParseSlot(date time.Time, startLabel, endLabel string) (TimeSlot, error) {
	start, err := ParseLabel(date, startLabel)
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := ParseLabel(date, endLabel)
	if err != nil {
		return TimeSlot{}, err
	}
	return TimeSlot{Start: start, End: end}, nil
}

// Overlay is the rendered selection rectangle while dragging.
type Overlay struct {
	Top    float64
	Height float64
	Slot   TimeSlot
}

// OverlayFor places a selection on the grid. The height is never below one
// cell so a press without movement stays visible.
func (g Geometry) OverlayFor(slot TimeSlot) Overlay {
	top := g.YAt(slot.Start, slot.Start)
	height := g.YAt(slot.End, slot.Start) - top
	if height < g.CellHeight {
		height = g.CellHeight
	}
	return Overlay{Top: top, Height: height, Slot: slot}
}

const DateLayout = "2006-01-02"

// LoadZone resolves an IANA zone name. "Local" is refused because it names
// a different zone on every machine.
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	if loc == time.Local || loc.String() == "Local" {
		return nil, fmt.Errorf("time zone %q is not an IANA name", name)
	}
	return loc, nil
}

// ParseDate reads a "YYYY-MM-DD" day in the named IANA zone. An empty zone
// means UTC.
func ParseDate(date, zone string) (time.Time, error) {
	loc := time.UTC
	if zone != "" {
		l, err := LoadZone(zone)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d, nil
}
