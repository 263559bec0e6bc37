package desktop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/client"
	"aizily/backend/internal/timegrid"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu       sync.Mutex
	bookings []client.Booking
	fetches  int
}

func (f *fakeBackend) DayEvents(context.Context, time.Time) ([]timegrid.DisplayEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return nil, nil
}

func (f *fakeBackend) BookSelection(_ context.Context, b client.Booking) (*calendarv1.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, b)
	return &calendarv1.Appointment{ID: "a1", Title: b.Title}, nil
}

func (f *fakeBackend) booked() []client.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Booking(nil), f.bookings...)
}

func newSurface(t *testing.T, mode timegrid.InputMode, leave timegrid.LeavePolicy, backend Backend) *Surface {
	t.Helper()
	return NewSurface(Options{
		Geometry:    timegrid.DefaultGeometry(),
		Palette:     timegrid.DefaultPalette(),
		Mode:        mode,
		Leave:       leave,
		Date:        day,
		Backend:     backend,
		CallTimeout: time.Second,
		Width:       480,
		Height:      400,
	})
}

func mouse(y int, pressed, released bool) Sample {
	return Sample{Focused: true, CursorX: 100, CursorY: y, MousePressed: pressed, MouseReleased: released}
}

func labels(s *Surface) (string, string) {
	_, start, end := s.Prompt()
	return start, end
}

func TestMouseDragOpensPrompt(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)

	s.Step(mouse(HeaderHeight, true, false))
	s.Step(mouse(HeaderHeight+60, false, false))
	assert.False(t, s.Prompting())
	s.Step(mouse(HeaderHeight+60, false, true))

	require.True(t, s.Prompting())
	start, end := labels(s)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "09:00", end)
	assert.True(t, s.View().ScrollLocked())
}

func TestMouseClickSelectsOneCell(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)

	s.Step(mouse(HeaderHeight+120, true, true))

	require.True(t, s.Prompting())
	start, end := labels(s)
	assert.Equal(t, "10:00", start)
	assert.Equal(t, "10:15", end)
}

func TestMouseMoveAndReleaseInOneTick(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)

	s.Step(mouse(HeaderHeight, true, false))
	s.Step(mouse(HeaderHeight+60, false, true))

	require.True(t, s.Prompting())
	start, end := labels(s)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "09:00", end)
}

func TestTouchReleaseAwayFromLastMove(t *testing.T) {
	s := newSurface(t, timegrid.InputTouch, timegrid.LeaveFinalize, nil)
	f := Touch{ID: 2, X: 50, Y: HeaderHeight}

	s.Step(Sample{Focused: true, TouchesPressed: []Touch{f}, Touches: []Touch{f}})
	f.Y = HeaderHeight + 90
	s.Step(Sample{Focused: true, TouchesReleased: []Touch{f}})

	require.True(t, s.Prompting())
	start, end := labels(s)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "09:30", end)
}

func TestMousePressOutsideGridIsIgnored(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)

	s.Step(mouse(5, true, false))
	s.Step(mouse(5, false, true))

	assert.False(t, s.View().Gesturing())
	assert.False(t, s.Prompting())
}

func TestMouseLeave(t *testing.T) {
	t.Run("finalize", func(t *testing.T) {
		s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)
		s.Step(mouse(HeaderHeight, true, false))
		s.Step(mouse(HeaderHeight+30, false, false))
		s.Step(mouse(5, false, false))

		require.True(t, s.Prompting())
		start, end := labels(s)
		assert.Equal(t, "08:00", start)
		assert.Equal(t, "08:30", end)
	})

	t.Run("discard", func(t *testing.T) {
		s := newSurface(t, timegrid.InputMouse, timegrid.LeaveDiscard, nil)
		s.Step(mouse(HeaderHeight, true, false))
		s.Step(mouse(HeaderHeight+30, false, false))
		s.Step(mouse(5, false, false))

		assert.False(t, s.Prompting())
		assert.False(t, s.View().Gesturing())
	})
}

func TestTouchModeIgnoresMouse(t *testing.T) {
	s := newSurface(t, timegrid.InputTouch, timegrid.LeaveFinalize, nil)

	s.Step(mouse(HeaderHeight+120, true, true))

	assert.False(t, s.Prompting())
}

func TestTouchDrag(t *testing.T) {
	s := newSurface(t, timegrid.InputTouch, timegrid.LeaveFinalize, nil)
	finger := func(y int) Touch { return Touch{ID: 3, X: 50, Y: y} }
	other := Touch{ID: 4, X: 50, Y: HeaderHeight + 300}

	s.Step(Sample{Focused: true, TouchesPressed: []Touch{finger(HeaderHeight)}, Touches: []Touch{finger(HeaderHeight)}})
	s.Step(Sample{Focused: true, TouchesPressed: []Touch{other}, Touches: []Touch{finger(HeaderHeight + 30), other}})
	s.Step(Sample{Focused: true, TouchesReleased: []Touch{finger(HeaderHeight + 30)}, Touches: []Touch{other}})

	require.True(t, s.Prompting())
	start, end := labels(s)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "08:30", end)
}

func TestTouchCancel(t *testing.T) {
	t.Run("focus lost", func(t *testing.T) {
		s := newSurface(t, timegrid.InputTouch, timegrid.LeaveFinalize, nil)
		f := Touch{ID: 1, X: 50, Y: HeaderHeight + 15}
		s.Step(Sample{Focused: true, TouchesPressed: []Touch{f}, Touches: []Touch{f}})
		s.Step(Sample{Focused: false, Touches: []Touch{f}})

		assert.False(t, s.Prompting())
		assert.False(t, s.View().Gesturing())
	})

	t.Run("finger vanished", func(t *testing.T) {
		s := newSurface(t, timegrid.InputTouch, timegrid.LeaveFinalize, nil)
		f := Touch{ID: 1, X: 50, Y: HeaderHeight + 15}
		s.Step(Sample{Focused: true, TouchesPressed: []Touch{f}, Touches: []Touch{f}})
		s.Step(Sample{Focused: true})

		assert.False(t, s.Prompting())
		assert.False(t, s.View().Gesturing())
	})
}

func TestWheelScrollsUntilPrompt(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)

	s.Step(Sample{Focused: true, WheelY: -1})
	assert.Equal(t, wheelStep, s.View().ScrollTop())

	s.Step(mouse(HeaderHeight, true, true))
	require.True(t, s.Prompting())
	start, _ := labels(s)
	assert.Equal(t, "08:45", start)

	s.Step(Sample{Focused: true, WheelY: -1})
	assert.Equal(t, wheelStep, s.View().ScrollTop())

	s.Step(Sample{Focused: true, Keys: []Key{KeyEscape}})
	assert.False(t, s.Prompting())
	assert.False(t, s.View().ScrollLocked())
	assert.Equal(t, "Selection discarded", s.StatusLine())
}

func TestPromptBooksSelection(t *testing.T) {
	backend := &fakeBackend{}
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, backend)

	s.Step(mouse(HeaderHeight+120, true, true))
	require.True(t, s.Prompting())

	s.Step(Sample{Focused: true, Chars: []rune("Revisionx")})
	s.Step(Sample{Focused: true, Keys: []Key{KeyBackspace}})
	s.Step(Sample{Focused: true, Chars: []rune(" #exam")})
	title, _, _ := s.Prompt()
	assert.Equal(t, "Revision #exam", title)

	s.Step(Sample{Focused: true, Keys: []Key{KeyEnter}})
	assert.False(t, s.Prompting())

	require.Eventually(t, func() bool {
		s.Step(Sample{Focused: true})
		return s.StatusLine() == "Booked Revision"
	}, time.Second, 5*time.Millisecond)

	got := backend.booked()
	require.Len(t, got, 1)
	assert.Equal(t, "Revision", got[0].Title)
	assert.Equal(t, "exam", got[0].Category)
	assert.Equal(t, day.Add(10*time.Hour), got[0].Slot.Start)
	assert.Equal(t, day.Add(10*time.Hour+15*time.Minute), got[0].Slot.End)
}

func TestDeliverDropsStaleDays(t *testing.T) {
	s := newSurface(t, timegrid.InputMouse, timegrid.LeaveFinalize, nil)
	events := []timegrid.DisplayEvent{{ID: "e1", Title: "Lecture", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}}

	s.Deliver(day.AddDate(0, 0, 1), events, nil)
	s.Step(Sample{Focused: true})
	assert.Empty(t, s.View().Events())

	s.Deliver(day, events, nil)
	s.Step(Sample{Focused: true})
	assert.Len(t, s.View().Events(), 1)
}

func TestDayKeys(t *testing.T) {
	var dates []time.Time
	s := NewSurface(Options{
		Geometry:     timegrid.DefaultGeometry(),
		Palette:      timegrid.DefaultPalette(),
		Date:         day,
		OnDateChange: func(d time.Time) { dates = append(dates, d) },
	})

	s.Step(Sample{Focused: true, Keys: []Key{KeyNextDay, KeyNextDay, KeyPrevDay}})
	assert.Equal(t, day.AddDate(0, 0, 1), s.View().Date())
	assert.Len(t, dates, 4)

	s.Step(Sample{Focused: true, Keys: []Key{KeyQuit}})
	assert.True(t, s.Quit())
}
