// Package export renders appointments and recurring occurrences as an
// iCalendar (RFC 5545) feed.
package export

import (
	"io"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"

	calendarv1 "aizily/backend/internal/api/calendarv1"
)

const productID = "-//Aizily//Calendar//EN"

// Entries builds one Entry per appointment and occurrence.
func Entries(appts []*calendarv1.Appointment, occs []*calendarv1.Occurrence) []Entry {
	out := make([]Entry, 0, len(appts)+len(occs))
	for _, a := range appts {
		out = append(out, AppointmentEntry(a))
	}
	for _, o := range occs {
		out = append(out, OccurrenceEntry(o))
	}
	return out
}

// Entry is one VEVENT. Occurrences of a series keep their own UID so a
// subscriber can tell skipped dates apart from moved ones.
type Entry struct {
	UID      string
	Title    string
	Notes    string
	Category string
	Start    time.Time
	End      time.Time
	Updated  time.Time
}

func AppointmentEntry(a *calendarv1.Appointment) Entry {
	return Entry{
		UID:      a.ID + "@aizily",
		Title:    a.Title,
		Notes:    a.Notes,
		Category: a.Category,
		Start:    a.StartTime,
		End:      a.EndTime,
		Updated:  a.UpdatedAt,
	}
}

func OccurrenceEntry(o *calendarv1.Occurrence) Entry {
	return Entry{
		UID:      o.SeriesID + "-" + o.OccurrenceID + "@aizily",
		Title:    o.Title,
		Notes:    o.Notes,
		Category: o.Category,
		Start:    o.StartTime,
		End:      o.EndTime,
	}
}

// Calendar builds a PUBLISH calendar with entries ordered by start time.
// now stamps DTSTAMP on every event.
func Calendar(name string, entries []Entry, now time.Time) *ics.Calendar {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	stamp := now.UTC()
	for _, e := range sorted {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Title)
		if e.Notes != "" {
			ev.SetDescription(e.Notes)
		}
		if e.Category != "" {
			ev.AddCategory(e.Category)
		}
		if !e.Updated.IsZero() {
			ev.SetModifiedAt(e.Updated.UTC())
		}
	}
	return cal
}

// Write serializes the calendar built from entries to w.
func Write(w io.Writer, name string, entries []Entry, now time.Time) error {
	return Calendar(name, entries, now).SerializeTo(w)
}
