package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_OrdersAndPreservesEndpoints(t *testing.T) {
	g := DefaultGeometry()

	var times []time.Time
	for y := 0.0; y <= g.GridHeight(); y += g.CellHeight {
		times = append(times, g.TimeAt(y, refDate))
	}

	for _, a := range times {
		for _, b := range times {
			slot := g.Resolve(a, b)
			if slot.End.Before(slot.Start) {
				t.Fatalf("Resolve(%v, %v) = %+v, start after end", a, b, slot)
			}
			if a.Equal(b) {
				continue
			}
			sameOrder := slot.Start.Equal(a) && slot.End.Equal(b)
			swapped := slot.Start.Equal(b) && slot.End.Equal(a)
			if !sameOrder && !swapped {
				t.Fatalf("Resolve(%v, %v) = %+v, endpoints changed", a, b, slot)
			}
		}
	}
}

func TestResolve_ZeroLengthIsOneCell(t *testing.T) {
	g := DefaultGeometry()

	slot := g.Resolve(at(9, 0), at(9, 0))
	assert.True(t, slot.Start.Equal(at(9, 0)))
	assert.Equal(t, 15*time.Minute, slot.Duration())

	t.Run("at grid end", func(t *testing.T) {
		slot := g.Resolve(at(20, 0), at(20, 0))
		assert.True(t, slot.Start.Equal(at(19, 45)), "start = %v", slot.Start)
		assert.True(t, slot.End.Equal(at(20, 0)), "end = %v", slot.End)
	})
}

func TestLabels_RoundTrip(t *testing.T) {
	g := DefaultGeometry()

	for y := 0.0; y < g.GridHeight(); y += 7.5 {
		for dy := 0.0; dy <= 90; dy += 30 {
			slot := g.Resolve(g.TimeAt(y, refDate), g.TimeAt(y+dy, refDate))
			start, end := slot.Labels()

			back, err := ParseSlot(refDate, start, end)
			require.NoError(t, err)
			if !back.Start.Equal(slot.Start) || !back.End.Equal(slot.End) {
				t.Fatalf("round trip %s-%s = %+v, want %+v", start, end, back, slot)
			}
		}
	}
}

func TestLabels_MidnightEnd(t *testing.T) {
	g := Geometry{StartHour: 0, EndHour: 24, MinutesPerCell: 30, CellHeight: 20}

	slot := g.Resolve(g.TimeAt(g.GridHeight()-1, refDate), g.TimeAt(g.GridHeight(), refDate))
	start, end := slot.Labels()
	assert.Equal(t, "23:30", start)
	assert.Equal(t, "24:00", end)

	back, err := ParseSlot(refDate, start, end)
	require.NoError(t, err)
	assert.True(t, back.End.Equal(slot.End))
}

func TestParseLabel_Invalid(t *testing.T) {
	for _, label := range []string{"", "9", "25:00", "12:60", "noon"} {
		_, err := ParseLabel(refDate, label)
		assert.Errorf(t, err, "ParseLabel(%q)", label)
	}
}

func TestOverlayFor_MinimumOneCell(t *testing.T) {
	g := DefaultGeometry()

	o := g.OverlayFor(TimeSlot{Start: at(9, 0), End: at(9, 0)})
	assert.Equal(t, 60.0, o.Top)
	assert.Equal(t, g.CellHeight, o.Height)

	o = g.OverlayFor(TimeSlot{Start: at(9, 0), End: at(10, 30)})
	assert.Equal(t, 60.0, o.Top)
	assert.Equal(t, 90.0, o.Height)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02", "Africa/Lagos")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02T00:00:00+01:00", d.Format(time.RFC3339))

	d, err = ParseDate("2026-03-02", "")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDate("02/03/2026", "")
	assert.Error(t, err)
	_, err = ParseDate("2026-03-02", "Nowhere/Special")
	assert.ErrorContains(t, err, "unknown time zone")
	_, err = ParseDate("2026-03-02", "Local")
	assert.ErrorContains(t, err, "not an IANA name")
}
