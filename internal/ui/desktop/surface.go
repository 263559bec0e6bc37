// Package desktop is the windowed day grid. Surface holds the grid state and
// turns per-tick input samples into gestures; the ebiten game in game.go
// reads the samples and draws the frames.
package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/client"
	"aizily/backend/internal/timegrid"
)

const (
	HeaderHeight = 32
	FooterHeight = 28
	GutterWidth  = 56
	wheelStep    = 45.0
)

type Backend interface {
	DayEvents(ctx context.Context, date time.Time) ([]timegrid.DisplayEvent, error)
	BookSelection(ctx context.Context, b client.Booking) (*calendarv1.Appointment, error)
}

type Options struct {
	Geometry timegrid.Geometry
	Palette  timegrid.Palette
	Leave    timegrid.LeavePolicy
	Range    timegrid.RangePolicy
	// Mode is fixed for the window's lifetime; input from the other kind
	// of pointer is ignored.
	Mode    timegrid.InputMode
	Date    time.Time
	Backend Backend
	// CallTimeout bounds each backend call.
	CallTimeout time.Duration
	Width       int
	Height      int
	Log         *slog.Logger
	// OnDateChange is told every day the surface switches to.
	OnDateChange func(date time.Time)
}

// Touch is one finger's position in window pixels.
type Touch struct {
	ID   int
	X, Y int
}

// Sample is the input observed during one tick.
type Sample struct {
	Focused bool

	CursorX, CursorY int
	MousePressed     bool
	MouseReleased    bool
	WheelY           float64

	// TouchesPressed started this tick and Touches are all fingers still
	// down. TouchesReleased ended this tick, at their last known position.
	TouchesPressed  []Touch
	TouchesReleased []Touch
	Touches         []Touch

	Chars []rune
	Keys  []Key
}

type Key int

const (
	KeyEnter Key = iota + 1
	KeyEscape
	KeyBackspace
	KeyPrevDay
	KeyNextDay
	KeyToday
	KeyRefresh
	KeyQuit
)

type result struct {
	loaded *loaded
	booked *bookedResult
}

type loaded struct {
	date   time.Time
	events []timegrid.DisplayEvent
	err    error
}

type bookedResult struct {
	appt *calendarv1.Appointment
	err  error
}

type Surface struct {
	opts    Options
	view    *timegrid.View
	log     *slog.Logger
	results chan result

	touchID  int
	tracking bool

	selStart, selEnd string
	picked           *timegrid.TimeSlot
	title            []rune
	release          func()

	loading bool
	status  string
	err     error
	quit    bool
}

func NewSurface(opts Options) *Surface {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.Width <= 0 {
		opts.Width = 480
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	s := &Surface{
		opts:    opts,
		log:     log.With(slog.String("component", "desktop")),
		results: make(chan result, 16),
	}
	s.view = timegrid.NewView(timegrid.ViewOptions{
		Geometry: opts.Geometry,
		Palette:  opts.Palette,
		Mode:     opts.Mode,
		Leave:    opts.Leave,
		Range:    opts.Range,
		OnTimeSelect: func(start, end string) {
			s.selStart, s.selEnd = start, end
		},
	})
	s.setDate(opts.Date)
	s.Resize(opts.Width, opts.Height)
	return s
}

func (s *Surface) View() *timegrid.View { return s.view }

func (s *Surface) Size() (int, int) { return s.opts.Width, s.opts.Height }

func (s *Surface) Prompting() bool { return s.picked != nil }

func (s *Surface) Quit() bool { return s.quit }

// Prompt is the title typed so far and the selection it will book.
func (s *Surface) Prompt() (string, string, string) {
	return string(s.title), s.selStart, s.selEnd
}

// StatusLine is what the footer shows when no prompt is open.
func (s *Surface) StatusLine() string {
	switch {
	case s.err != nil:
		return "error: " + s.err.Error()
	case s.status != "":
		return s.status
	case s.loading:
		return "loading..."
	default:
		return "drag to select  wheel scroll  ←/→ day  t today  r refresh"
	}
}

func (s *Surface) Resize(w, h int) {
	s.opts.Width, s.opts.Height = w, h
	s.view.SetViewport(float64(h - HeaderHeight - FooterHeight))
}

// Load fetches the current day in the background.
func (s *Surface) Load() {
	if s.opts.Backend == nil {
		return
	}
	s.loading = true
	date := s.view.Date()
	backend, timeout := s.opts.Backend, s.opts.CallTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		events, err := backend.DayEvents(ctx, date)
		s.results <- result{loaded: &loaded{date: date, events: events, err: err}}
	}()
}

// Deliver hands events fetched elsewhere to the surface. It is safe to call
// from any goroutine; stale days are dropped on the next Step.
func (s *Surface) Deliver(date time.Time, events []timegrid.DisplayEvent, err error) {
	select {
	case s.results <- result{loaded: &loaded{date: date, events: events, err: err}}:
	default:
		s.log.Warn("dropping refresh, surface busy")
	}
}

func (s *Surface) setDate(date time.Time) {
	s.tracking = false
	s.view.SetDate(date)
	if s.opts.OnDateChange != nil {
		s.opts.OnDateChange(s.view.Date())
	}
}

// Step applies one tick of input and any finished background calls.
func (s *Surface) Step(in Sample) {
	s.drain()
	if s.picked != nil {
		s.stepPrompt(in)
		return
	}
	if in.WheelY != 0 {
		s.view.ScrollBy(-in.WheelY * wheelStep)
	}
	s.stepKeys(in.Keys)

	for _, ev := range s.pointerEvents(in) {
		slot, done := s.view.HandlePointer(ev)
		if done {
			s.openPrompt(slot)
			return
		}
	}
}

func (s *Surface) drain() {
	for {
		select {
		case r := <-s.results:
			s.apply(r)
		default:
			return
		}
	}
}

func (s *Surface) apply(r result) {
	switch {
	case r.loaded != nil:
		if !sameDay(r.loaded.date, s.view.Date()) {
			return
		}
		s.loading = false
		if r.loaded.err != nil {
			s.err = r.loaded.err
			return
		}
		s.err = nil
		s.view.SetEvents(r.loaded.events)
	case r.booked != nil:
		if r.booked.err != nil {
			s.err = r.booked.err
			return
		}
		s.err = nil
		s.status = fmt.Sprintf("Booked %s", r.booked.appt.Title)
		s.Load()
	}
}

func (s *Surface) stepKeys(keys []Key) {
	for _, k := range keys {
		switch k {
		case KeyPrevDay:
			s.setDate(s.view.Date().AddDate(0, 0, -1))
			s.Load()
		case KeyNextDay:
			s.setDate(s.view.Date().AddDate(0, 0, 1))
			s.Load()
		case KeyToday:
			s.setDate(time.Now().In(s.view.Date().Location()))
			s.Load()
		case KeyRefresh:
			s.Load()
		case KeyQuit:
			s.quit = true
		}
	}
}

func (s *Surface) inGrid(x, y int) bool {
	return x >= 0 && x < s.opts.Width && y >= HeaderHeight && y < s.opts.Height-FooterHeight
}

func gridY(y int) float64 { return float64(y - HeaderHeight) }

// pointerEvents translates the sample for the surface's input mode.
func (s *Surface) pointerEvents(in Sample) []timegrid.PointerEvent {
	if s.opts.Mode == timegrid.InputTouch {
		return s.touchEvents(in)
	}
	return s.mouseEvents(in)
}

func (s *Surface) mouseEvents(in Sample) []timegrid.PointerEvent {
	mk := func(kind timegrid.PointerKind) timegrid.PointerEvent {
		return timegrid.PointerEvent{Kind: kind, Source: timegrid.InputMouse, Y: gridY(in.CursorY)}
	}
	inside := s.inGrid(in.CursorX, in.CursorY)

	var out []timegrid.PointerEvent
	if in.MousePressed && inside {
		out = append(out, mk(timegrid.PointerDown))
	}
	if !s.view.Gesturing() && len(out) == 0 {
		return nil
	}
	switch {
	case !in.Focused || !inside:
		out = append(out, timegrid.PointerEvent{Kind: timegrid.PointerLeave, Source: timegrid.InputMouse})
	case in.MouseReleased:
		out = append(out, mk(timegrid.PointerMove), mk(timegrid.PointerUp))
	default:
		out = append(out, mk(timegrid.PointerMove))
	}
	return out
}

func (s *Surface) touchEvents(in Sample) []timegrid.PointerEvent {
	mk := func(kind timegrid.PointerKind, y int) timegrid.PointerEvent {
		return timegrid.PointerEvent{Kind: kind, Source: timegrid.InputTouch, Y: gridY(y)}
	}

	var out []timegrid.PointerEvent
	if !s.tracking {
		for _, t := range in.TouchesPressed {
			if s.inGrid(t.X, t.Y) {
				s.touchID, s.tracking = t.ID, true
				out = append(out, mk(timegrid.PointerDown, t.Y))
				break
			}
		}
		if !s.tracking {
			return nil
		}
	}

	if !in.Focused {
		s.tracking = false
		return append(out, timegrid.PointerEvent{Kind: timegrid.PointerCancel, Source: timegrid.InputTouch})
	}
	for _, t := range in.TouchesReleased {
		if t.ID == s.touchID {
			s.tracking = false
			return append(out, mk(timegrid.PointerMove, t.Y), mk(timegrid.PointerUp, t.Y))
		}
	}
	for _, t := range in.Touches {
		if t.ID != s.touchID {
			continue
		}
		if !s.inGrid(t.X, t.Y) {
			s.tracking = false
			return append(out, timegrid.PointerEvent{Kind: timegrid.PointerLeave, Source: timegrid.InputTouch})
		}
		return append(out, mk(timegrid.PointerMove, t.Y))
	}
	// The finger is gone without a release.
	s.tracking = false
	return append(out, timegrid.PointerEvent{Kind: timegrid.PointerCancel, Source: timegrid.InputTouch})
}

func (s *Surface) openPrompt(slot timegrid.TimeSlot) {
	s.picked = &slot
	s.title = s.title[:0]
	s.status = ""
	s.release = s.view.LockScroll()
}

func (s *Surface) closePrompt() {
	s.picked = nil
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *Surface) stepPrompt(in Sample) {
	s.title = append(s.title, in.Chars...)
	for _, k := range in.Keys {
		switch k {
		case KeyBackspace:
			if len(s.title) > 0 {
				s.title = s.title[:len(s.title)-1]
			}
		case KeyEscape:
			s.closePrompt()
			s.status = "Selection discarded"
			return
		case KeyEnter:
			title := strings.TrimSpace(string(s.title))
			if title == "" {
				continue
			}
			slot := *s.picked
			s.closePrompt()
			s.status = fmt.Sprintf("Booking %s-%s ...", s.selStart, s.selEnd)
			s.book(slot, title)
			return
		}
	}
}

func (s *Surface) book(slot timegrid.TimeSlot, title string) {
	if s.opts.Backend == nil {
		return
	}
	title, category := client.SplitCategory(title)
	b := client.Booking{Date: s.view.Date(), Slot: slot, Title: title, Category: category}
	backend, timeout := s.opts.Backend, s.opts.CallTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		appt, err := backend.BookSelection(ctx, b)
		s.results <- result{booked: &bookedResult{appt: appt, err: err}}
	}()
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
