// Package tui is the terminal day grid. One terminal row is one grid cell;
// mouse presses, drags and releases select a time range and a title prompt
// books it.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/client"
	"aizily/backend/internal/timegrid"
)

const (
	headerRows = 1
	footerRows = 1
	wheelCells = 3
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
	// Date is the first day shown; its location is the display zone.
	Date    time.Time
	Backend Backend
	// CallTimeout bounds each backend call made from the event loop.
	CallTimeout time.Duration
	// OnDateChange is told every day the model switches to, including the
	// first one.
	OnDateChange func(date time.Time)
}

// EventsLoaded replaces the grid's events when Date is still the day shown.
// Background refreshers send it through tea.Program.Send.
type EventsLoaded struct {
	Date   time.Time
	Events []timegrid.DisplayEvent
	Err    error
}

type booked struct {
	appt *calendarv1.Appointment
	err  error
}

type Model struct {
	opts   Options
	view   *timegrid.View
	styles styles

	width  int
	height int

	// picked holds a finished selection while the title prompt is open.
	picked   *pick
	selStart string
	selEnd   string
	input    textinput.Model
	release  func()

	loading bool
	status  string
	err     error
}

type pick struct {
	slot       timegrid.TimeSlot
	start, end string
}

func New(opts Options) *Model {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}

	m := &Model{
		opts:   opts,
		styles: defaultStyles(),
		width:  80,
		height: 24,
	}
	m.view = timegrid.NewView(timegrid.ViewOptions{
		Geometry: opts.Geometry,
		Palette:  opts.Palette,
		Mode:     timegrid.InputMouse,
		Leave:    opts.Leave,
		Range:    opts.Range,
		OnTimeSelect: func(start, end string) {
			m.selStart, m.selEnd = start, end
		},
	})
	m.input = textinput.New()
	m.input.Placeholder = "Title  (#exam, #lesson, #study ... sets the category)"
	m.input.CharLimit = 200

	m.setDate(opts.Date)
	m.resize(m.width, m.height)
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.fetch()
}

func (m *Model) Date() time.Time { return m.view.Date() }

// Prompting reports whether the title prompt is open.
func (m *Model) Prompting() bool { return m.picked != nil }

func (m *Model) setDate(date time.Time) {
	m.view.SetDate(date)
	if m.opts.OnDateChange != nil {
		m.opts.OnDateChange(m.view.Date())
	}
}

func (m *Model) gridRows() int {
	rows := m.height - headerRows - footerRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.view.SetViewport(float64(m.gridRows()) * m.opts.Geometry.CellHeight)
}

func (m *Model) fetch() tea.Cmd {
	if m.opts.Backend == nil {
		return nil
	}
	m.loading = true
	date := m.view.Date()
	backend, timeout := m.opts.Backend, m.opts.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		events, err := backend.DayEvents(ctx, date)
		return EventsLoaded{Date: date, Events: events, Err: err}
	}
}

func (m *Model) book(p pick, title string) tea.Cmd {
	if m.opts.Backend == nil {
		return nil
	}
	title, category := client.SplitCategory(title)
	b := client.Booking{
		Date:     m.view.Date(),
		Slot:     p.slot,
		Title:    title,
		Category: category,
	}
	backend, timeout := m.opts.Backend, m.opts.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		appt, err := backend.BookSelection(ctx, b)
		return booked{appt: appt, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case EventsLoaded:
		if !sameDay(msg.Date, m.view.Date()) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.view.SetEvents(msg.Events)
		return m, nil

	case booked:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Booked %s", msg.appt.Title)
		return m, m.fetch()

	case tea.MouseMsg:
		if m.picked != nil {
			return m, nil
		}
		return m, m.handleMouse(tea.MouseEvent(msg))

	case tea.KeyMsg:
		if m.picked != nil {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleMouse(ev tea.MouseEvent) tea.Cmd {
	if ev.IsWheel() {
		cell := m.opts.Geometry.CellHeight
		switch ev.Button {
		case tea.MouseButtonWheelUp:
			m.view.ScrollBy(-wheelCells * cell)
		case tea.MouseButtonWheelDown:
			m.view.ScrollBy(wheelCells * cell)
		}
		return nil
	}

	row := ev.Y - headerRows
	inside := row >= 0 && row < m.gridRows()
	y := float64(row) * m.opts.Geometry.CellHeight

	var pe timegrid.PointerEvent
	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button != tea.MouseButtonLeft || !inside {
			return nil
		}
		pe = timegrid.PointerEvent{Kind: timegrid.PointerDown, Source: timegrid.InputMouse, Y: y}
	case tea.MouseActionMotion:
		if !m.view.Gesturing() {
			return nil
		}
		if !inside {
			pe = timegrid.PointerEvent{Kind: timegrid.PointerLeave, Source: timegrid.InputMouse}
		} else {
			pe = timegrid.PointerEvent{Kind: timegrid.PointerMove, Source: timegrid.InputMouse, Y: y}
		}
	case tea.MouseActionRelease:
		pe = timegrid.PointerEvent{Kind: timegrid.PointerUp, Source: timegrid.InputMouse, Y: y}
	default:
		return nil
	}

	slot, done := m.view.HandlePointer(pe)
	if !done {
		return nil
	}
	m.picked = &pick{slot: slot, start: m.selStart, end: m.selEnd}
	m.status = ""
	m.release = m.view.LockScroll()
	m.input.Reset()
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.picked = nil
	m.input.Blur()
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.closePrompt()
		return m, tea.Quit
	case tea.KeyEsc:
		m.closePrompt()
		m.status = "Selection discarded"
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m, nil
		}
		p := *m.picked
		m.closePrompt()
		m.status = fmt.Sprintf("Booking %s-%s ...", p.start, p.end)
		return m, m.book(p, title)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cell := m.opts.Geometry.CellHeight
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.setDate(m.view.Date().AddDate(0, 0, -1))
		return m, m.fetch()
	case "right", "l":
		m.setDate(m.view.Date().AddDate(0, 0, 1))
		return m, m.fetch()
	case "t":
		m.setDate(time.Now().In(m.view.Date().Location()))
		return m, m.fetch()
	case "r":
		return m, m.fetch()
	case "up", "k":
		m.view.ScrollBy(-cell)
	case "down", "j":
		m.view.ScrollBy(cell)
	case "pgup":
		m.view.ScrollBy(-float64(m.gridRows()) * cell)
	case "pgdown":
		m.view.ScrollBy(float64(m.gridRows()) * cell)
	}
	return m, nil
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
