package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendarv1 "aizily/backend/internal/api/calendarv1"
)

func TestWrite_OrdersEventsAndKeepsFields(t *testing.T) {
	lagos, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)

	appt := &calendarv1.Appointment{
		ID:        "00000000-0000-0000-0000-000000000001",
		Title:     "Physics exam",
		Notes:     "hall B",
		Category:  "exam",
		StartTime: time.Date(2026, 3, 2, 14, 0, 0, 0, lagos),
		EndTime:   time.Date(2026, 3, 2, 16, 0, 0, 0, lagos),
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	occ := &calendarv1.Occurrence{
		SeriesID:     "00000000-0000-0000-0000-000000000002",
		OccurrenceID: "1772442000000000000",
		Title:        "Lecture",
		Category:     "lesson",
		StartTime:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Write(&buf, "Aizily", Entries([]*calendarv1.Appointment{appt}, []*calendarv1.Occurrence{occ}), now))

	out := buf.String()
	assert.Contains(t, out, "PRODID:"+productID)
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "CATEGORIES:exam")
	assert.Less(t, strings.Index(out, "SUMMARY:Lecture"), strings.Index(out, "SUMMARY:Physics exam"))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "00000000-0000-0000-0000-000000000002-1772442000000000000@aizily", events[0].Id())
	assert.Equal(t, "00000000-0000-0000-0000-000000000001@aizily", events[1].Id())

	start, err := events[1].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(appt.StartTime), "start = %v, want %v", start, appt.StartTime)
	assert.Equal(t, "hall B", events[1].GetProperty(ics.ComponentPropertyDescription).Value)
}

func TestCalendar_EmptyHasNoEvents(t *testing.T) {
	cal := Calendar("", nil, time.Now())
	assert.Empty(t, cal.Events())
	assert.Contains(t, cal.Serialize(), "BEGIN:VCALENDAR")
}
