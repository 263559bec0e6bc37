// Package timegrid maps a vertical day grid to time of day: pointer positions
// become quantized timestamps, drags become time slots, and calendar events
// become pixel placements on the same grid.
package timegrid

import (
	"math"
	"time"
)

// Geometry describes the visible hour range and how tall one cell is.
type Geometry struct {
	StartHour      int     `validate:"gte=0,lte=23"`
	EndHour        int     `validate:"gtfield=StartHour,lte=24"`
	MinutesPerCell int     `validate:"divides60"`
	CellHeight     float64 `validate:"finite,gt=0"`
}

func DefaultGeometry() Geometry {
	return Geometry{
		StartHour:      8,
		EndHour:        20,
		MinutesPerCell: 15,
		CellHeight:     15,
	}
}

func (g Geometry) Validate() error {
	return validate.Struct(g)
}

func (g Geometry) CellDuration() time.Duration {
	return time.Duration(g.MinutesPerCell) * time.Minute
}

func (g Geometry) Cells() int {
	return (g.EndHour - g.StartHour) * 60 / g.MinutesPerCell
}

func (g Geometry) GridHeight() float64 {
	return float64(g.Cells()) * g.CellHeight
}

// GridStart returns StartHour:00 on the calendar day of date, in date's location.
func (g Geometry) GridStart(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, g.StartHour, 0, 0, 0, date.Location())
}

func (g Geometry) GridEnd(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, g.EndHour, 0, 0, 0, date.Location())
}

// ClampY keeps y inside [0, GridHeight]. NaN is treated as the grid top.
func (g Geometry) ClampY(y float64) float64 {
	if math.IsNaN(y) || y < 0 {
		return 0
	}
	if h := g.GridHeight(); y > h {
		return h
	}
	return y
}

// TimeAt converts a y offset, measured from the top of the grid content
// (scroll included), into a cell-aligned time on the day of date.
func (g Geometry) TimeAt(y float64, date time.Time) time.Time {
	cells := int(math.Floor(g.ClampY(y) / g.CellHeight))
	if limit := g.Cells(); cells > limit {
		cells = limit
	}
	total := cells * g.MinutesPerCell
	yy, m, d := date.Date()
	return time.Date(yy, m, d, g.StartHour+total/60, total%60, 0, 0, date.Location())
}

// YAt is the inverse of TimeAt for times on the grid's day. It reads the
// wall clock in date's location, so rows keep their labels across DST
// changes, and a time on a later day continues below the grid. It is not
// clamped.
func (g Geometry) YAt(t time.Time, date time.Time) float64 {
	t = t.In(date.Location())
	days := civilDay(t).Sub(civilDay(date)).Hours() / 24
	minutes := (days*24+float64(t.Hour()-g.StartHour))*60 +
		float64(t.Minute()) +
		float64(t.Second())/60 +
		float64(t.Nanosecond())/float64(time.Minute)
	return minutes / float64(g.MinutesPerCell) * g.CellHeight
}

// civilDay is t's calendar date as UTC midnight, for counting whole days
// without DST skew.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
