package timegrid

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id string, start, end time.Time) DisplayEvent {
	return DisplayEvent{ID: id, Title: id, Start: start, End: end}
}

func TestLayout_OverlappingEventsArePlacedIndependently(t *testing.T) {
	g := DefaultGeometry()
	events := []DisplayEvent{
		event("a", at(10, 0), at(11, 0)),
		event("b", at(10, 30), at(11, 30)),
	}

	got := g.Layout(refDate, events, ClipToGrid)

	want := []Placement{
		{Event: events[0], Top: 120, Height: 60, Z: 0},
		{Event: events[1], Top: 150, Height: 60, Z: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLayout_Monotonic(t *testing.T) {
	g := DefaultGeometry()

	var events []DisplayEvent
	for m := 0; m < 12*60; m += 5 {
		start := at(8, 0).Add(time.Duration(m) * time.Minute)
		events = append(events, event("e", start, start.Add(20*time.Minute)))
	}

	placed := g.Layout(refDate, events, ClipToGrid)
	require.Len(t, placed, len(events))
	for i := 1; i < len(placed); i++ {
		if !(placed[i-1].Top < placed[i].Top) {
			t.Fatalf("top[%d] = %v, top[%d] = %v, want strictly increasing", i-1, placed[i-1].Top, i, placed[i].Top)
		}
	}
}

func TestLayout_RangePolicies(t *testing.T) {
	g := DefaultGeometry()
	early := event("early", at(7, 0), at(9, 0))
	late := event("late", at(19, 30), at(21, 0))
	before := event("before", at(6, 0), at(7, 0))
	after := event("after", at(20, 0), at(21, 0))
	inside := event("inside", at(12, 0), at(12, 45))
	events := []DisplayEvent{early, late, before, after, inside}

	t.Run("clip", func(t *testing.T) {
		got := g.Layout(refDate, events, ClipToGrid)
		want := []Placement{
			{Event: early, Top: 0, Height: 60, Z: 0, ClippedTop: true},
			{Event: late, Top: 690, Height: 30, Z: 1, ClippedBottom: true},
			{Event: inside, Top: 240, Height: 45, Z: 4},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Layout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("hide", func(t *testing.T) {
		got := g.Layout(refDate, events, HideOutOfRange)
		want := []Placement{
			{Event: inside, Top: 240, Height: 45, Z: 4},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Layout mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestLayout_SkipsOtherDaysAndInvertedEvents(t *testing.T) {
	g := DefaultGeometry()
	tomorrow := refDate.AddDate(0, 0, 1)
	events := []DisplayEvent{
		event("tomorrow", tomorrow.Add(10*time.Hour), tomorrow.Add(11*time.Hour)),
		event("inverted", at(11, 0), at(10, 0)),
		event("instant", at(9, 0), at(9, 0)),
	}

	got := g.Layout(refDate, events, ClipToGrid)
	require.Len(t, got, 1)
	assert.Equal(t, "instant", got[0].Event.ID)
	assert.Equal(t, 60.0, got[0].Top)
	assert.Equal(t, 0.0, got[0].Height)
}

func TestLayout_ConvertsToDateLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 60*60)
	g := DefaultGeometry()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	// 09:00 UTC is 10:00 on the UTC+1 grid.
	got := g.Layout(date, []DisplayEvent{event("a", at(9, 0), at(10, 0))}, ClipToGrid)
	require.Len(t, got, 1)
	assert.Equal(t, 120.0, got[0].Top)
}

func TestLayout_DSTDayMatchesRowLabels(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	g := Geometry{StartHour: 0, EndHour: 24, MinutesPerCell: 15, CellHeight: 15}
	day := time.Date(2026, 3, 8, 0, 0, 0, 0, ny)
	events := []DisplayEvent{
		event("after", time.Date(2026, 3, 8, 3, 0, 0, 0, ny), time.Date(2026, 3, 8, 4, 0, 0, 0, ny)),
		event("across", time.Date(2026, 3, 8, 1, 0, 0, 0, ny), time.Date(2026, 3, 8, 3, 0, 0, 0, ny)),
	}

	got := g.Layout(day, events, ClipToGrid)

	require.Len(t, got, 2)
	assert.Equal(t, 180.0, got[0].Top)
	assert.Equal(t, 60.0, got[0].Height)
	assert.Equal(t, 60.0, got[1].Top)
	assert.Equal(t, 120.0, got[1].Height)
	assert.True(t, g.TimeAt(got[0].Top, day).Equal(events[0].Start))
}
