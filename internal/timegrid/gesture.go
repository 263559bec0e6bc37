package timegrid

import "time"

// InputMode is decided once when a surface mounts. Pointer events from the
// other mode are dropped, which keeps synthetic mouse events emitted by
// touch screens from replaying a gesture.
type InputMode int

const (
	InputMouse InputMode = iota
	InputTouch
)

func (m InputMode) String() string {
	switch m {
	case InputTouch:
		return "touch"
	default:
		return "mouse"
	}
}

type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerCancel
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	case PointerCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// PointerEvent carries a y offset relative to the grid content top,
// scroll offset already applied.
type PointerEvent struct {
	Kind   PointerKind
	Source InputMode
	Y      float64
}

// LeavePolicy decides what a pointer leaving the surface mid-drag does.
type LeavePolicy int

const (
	LeaveFinalize LeavePolicy = iota
	LeaveDiscard
)

func ParseLeavePolicy(s string) (LeavePolicy, bool) {
	switch s {
	case "", "finalize":
		return LeaveFinalize, true
	case "discard":
		return LeaveDiscard, true
	default:
		return LeaveFinalize, false
	}
}

type GestureState struct {
	Active   bool
	StartY   float64
	CurrentY float64
	IsTouch  bool
}

// Tracker turns a stream of pointer events into completed time slots.
// It is not safe for concurrent use; surfaces drive it from their event loop.
type Tracker struct {
	geo   Geometry
	mode  InputMode
	leave LeavePolicy

	date    time.Time
	state   GestureState
	start   time.Time
	current time.Time
}

func NewTracker(geo Geometry, mode InputMode, leave LeavePolicy) *Tracker {
	return &Tracker{geo: geo, mode: mode, leave: leave}
}

func (t *Tracker) Mode() InputMode { return t.mode }

func (t *Tracker) State() GestureState { return t.state }

// SetDate changes the reference day. An active gesture is dropped.
func (t *Tracker) SetDate(date time.Time) {
	t.date = date
	t.reset()
}

// Pending returns the resolved selection of the active gesture.
func (t *Tracker) Pending() (TimeSlot, bool) {
	if !t.state.Active {
		return TimeSlot{}, false
	}
	return t.geo.Resolve(t.start, t.current), true
}

// Handle applies ev and reports a slot when it completes a gesture.
func (t *Tracker) Handle(ev PointerEvent) (TimeSlot, bool) {
	if ev.Source != t.mode {
		return TimeSlot{}, false
	}

	switch ev.Kind {
	case PointerDown:
		t.state = GestureState{
			Active:   true,
			StartY:   ev.Y,
			CurrentY: ev.Y,
			IsTouch:  ev.Source == InputTouch,
		}
		t.start = t.geo.TimeAt(ev.Y, t.date)
		t.current = t.start
		return TimeSlot{}, false

	case PointerMove:
		if !t.state.Active {
			return TimeSlot{}, false
		}
		t.state.CurrentY = ev.Y
		t.current = t.geo.TimeAt(ev.Y, t.date)
		return TimeSlot{}, false

	case PointerUp:
		return t.finish()

	case PointerLeave:
		if t.leave == LeaveDiscard {
			t.reset()
			return TimeSlot{}, false
		}
		return t.finish()

	case PointerCancel:
		t.reset()
	}
	return TimeSlot{}, false
}

func (t *Tracker) finish() (TimeSlot, bool) {
	if !t.state.Active {
		return TimeSlot{}, false
	}
	slot := t.geo.Resolve(t.start, t.current)
	t.reset()
	return slot, true
}

func (t *Tracker) reset() {
	t.state = GestureState{}
	t.start = time.Time{}
	t.current = time.Time{}
}
