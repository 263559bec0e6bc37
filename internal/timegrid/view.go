package timegrid

import (
	"fmt"
	"time"
)

// ViewOptions configures a View. Mode must be fixed for the life of the view.
type ViewOptions struct {
	Geometry     Geometry
	Palette      Palette
	Mode         InputMode
	Leave        LeavePolicy
	Range        RangePolicy
	ViewportSize float64
	OnTimeSelect func(startLabel, endLabel string)
}

// View composes the grid for one surface. It is driven from a single event
// loop and is not safe for concurrent use.
type View struct {
	geo     Geometry
	palette Palette
	rng     RangePolicy
	tracker *Tracker
	onPick  func(startLabel, endLabel string)

	date      time.Time
	events    []DisplayEvent
	placed    []Placement
	scrollTop float64
	viewport  float64
	locks     int
}

func NewView(opts ViewOptions) *View {
	v := &View{
		geo:      opts.Geometry,
		palette:  opts.Palette,
		rng:      opts.Range,
		tracker:  NewTracker(opts.Geometry, opts.Mode, opts.Leave),
		onPick:   opts.OnTimeSelect,
		viewport: opts.ViewportSize,
	}
	v.SetDate(time.Now())
	return v
}

func (v *View) Geometry() Geometry { return v.geo }

func (v *View) Mode() InputMode { return v.tracker.Mode() }

func (v *View) Date() time.Time { return v.date }

// SetDate switches the visible day, clears the event list and drops any
// gesture in progress.
func (v *View) SetDate(date time.Time) {
	y, m, d := date.Date()
	v.date = time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	v.tracker.SetDate(v.date)
	v.events = nil
	v.placed = nil
}

// SetEvents replaces the event list wholesale.
func (v *View) SetEvents(events []DisplayEvent) {
	v.events = append([]DisplayEvent(nil), events...)
	v.placed = v.geo.Layout(v.date, v.events, v.rng)
}

func (v *View) Events() []DisplayEvent { return v.events }

func (v *View) SetViewport(size float64) {
	v.viewport = size
	v.scrollTop = v.clampScroll(v.scrollTop)
}

func (v *View) ScrollTop() float64 { return v.scrollTop }

// ScrollBy moves the viewport and reports whether it moved. Scrolling is
// ignored while a scroll lock is held.
func (v *View) ScrollBy(dy float64) bool {
	if v.locks > 0 {
		return false
	}
	next := v.clampScroll(v.scrollTop + dy)
	if next == v.scrollTop {
		return false
	}
	v.scrollTop = next
	return true
}

func (v *View) clampScroll(top float64) float64 {
	limit := v.geo.GridHeight() - v.viewport
	if limit < 0 {
		limit = 0
	}
	if top > limit {
		top = limit
	}
	if top < 0 {
		top = 0
	}
	return top
}

// LockScroll holds the viewport still until the returned release func runs.
// Release is idempotent so it can be deferred alongside an explicit call.
func (v *View) LockScroll() (release func()) {
	v.locks++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		v.locks--
	}
}

func (v *View) ScrollLocked() bool { return v.locks > 0 }

// Gesturing reports whether a press or touch is being tracked.
func (v *View) Gesturing() bool { return v.tracker.State().Active }

// HandlePointer feeds an event whose Y is relative to the visible surface
// top. The view adds the scroll offset before tracking. OnTimeSelect runs
// when the event completes a gesture.
func (v *View) HandlePointer(ev PointerEvent) (TimeSlot, bool) {
	ev.Y += v.scrollTop
	slot, done := v.tracker.Handle(ev)
	if done && v.onPick != nil {
		v.onPick(slot.Labels())
	}
	return slot, done
}

// GridLine is a horizontal rule; Major lines mark full hours.
type GridLine struct {
	Y     float64
	Label string
	Major bool
}

type Block struct {
	Placement
	Style Style
	Label string
}

// Frame is everything a surface needs to draw the grid once.
type Frame struct {
	Date      time.Time
	Height    float64
	ScrollTop float64
	Lines     []GridLine
	Blocks    []Block
	Selection *Overlay
}

func (v *View) Frame() Frame {
	f := Frame{
		Date:      v.date,
		Height:    v.geo.GridHeight(),
		ScrollTop: v.scrollTop,
		Lines:     v.lines(),
		Blocks:    make([]Block, 0, len(v.placed)),
	}
	for _, p := range v.placed {
		start, end := TimeSlot{Start: p.Event.Start.In(v.date.Location()), End: p.Event.End.In(v.date.Location())}.Labels()
		f.Blocks = append(f.Blocks, Block{
			Placement: p,
			Style:     v.palette.Style(p.Event.Category),
			Label:     fmt.Sprintf("%s-%s %s", start, end, p.Event.Title),
		})
	}
	if slot, ok := v.tracker.Pending(); ok {
		o := v.geo.OverlayFor(slot)
		f.Selection = &o
	}
	return f
}

func (v *View) lines() []GridLine {
	cellsPerHour := 60 / v.geo.MinutesPerCell
	out := make([]GridLine, 0, v.geo.Cells()+1)
	for i := 0; i <= v.geo.Cells(); i++ {
		l := GridLine{Y: float64(i) * v.geo.CellHeight}
		if i%cellsPerHour == 0 {
			l.Major = true
			l.Label = fmt.Sprintf("%02d:00", v.geo.StartHour+i/cellsPerHour)
		}
		out = append(out, l)
	}
	return out
}
