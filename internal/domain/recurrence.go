package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"github.com/uptrace/bun"
)

// MaxOccurrencesPerSeries caps a single expansion.
const MaxOccurrencesPerSeries = 1000

type RecurringSeries struct {
	bun.BaseModel `bun:"table:recurring_series"`

	ID              uuid.UUID   `bun:"id,pk,type:uuid"`
	UserID          string      `bun:"user_id,notnull"`
	Title           string      `bun:"title,notnull"`
	Notes           string      `bun:"notes"`
	Category        Category    `bun:"category,notnull"`
	Timezone        string      `bun:"timezone,notnull"`
	DTStart         time.Time   `bun:"dtstart,notnull"`
	DurationSeconds int         `bun:"duration_seconds,notnull"`
	RRule           string      `bun:"rrule,notnull"`
	ExDates         []time.Time `bun:"exdates,array"`
	CreatedAt       time.Time   `bun:"created_at,notnull"`
	UpdatedAt       time.Time   `bun:"updated_at,notnull"`
}

func (s *RecurringSeries) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

type RecurringOccurrence struct {
	ID        string
	SeriesID  uuid.UUID
	UserID    string
	Title     string
	Notes     string
	Category  Category
	StartTime time.Time
	EndTime   time.Time
}

// ParseRule parses an RFC 5545 RRULE value ("FREQ=WEEKLY;BYDAY=MO;COUNT=4"),
// with or without the "RRULE:" prefix, anchored at dtstart. Sub-daily
// frequencies are rejected.
func ParseRule(rule string, dtstart time.Time) (*rrule.RRule, error) {
	value := strings.TrimSpace(rule)
	if len(value) >= 6 && strings.EqualFold(value[:6], "RRULE:") {
		value = value[6:]
	}
	if value == "" {
		return nil, errors.New("rrule is required")
	}

	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}
	switch opt.Freq {
	case rrule.DAILY, rrule.WEEKLY, rrule.MONTHLY, rrule.YEARLY:
	default:
		return nil, errors.New("unsupported recurrence frequency")
	}
	opt.Dtstart = dtstart

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}
	return r, nil
}

// RuleIsBounded reports whether the rule carries COUNT or UNTIL.
func RuleIsBounded(rule string) bool {
	upper := strings.ToUpper(rule)
	return strings.Contains(upper, "COUNT=") || strings.Contains(upper, "UNTIL=")
}

// ExpandOccurrences lists the occurrences of series overlapping
// [windowStart, windowEnd). Local wall-clock time is kept across DST changes.
func ExpandOccurrences(series RecurringSeries, windowStart, windowEnd time.Time) ([]RecurringOccurrence, error) {
	if series.DurationSeconds <= 0 {
		return nil, errors.New("invalid duration")
	}
	loc, err := time.LoadLocation(series.Timezone)
	if err != nil {
		return nil, errors.New("invalid time_zone")
	}

	r, err := ParseRule(series.RRule, series.DTStart.In(loc))
	if err != nil {
		return nil, err
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range series.ExDates {
		set.ExDate(ex.In(loc))
	}

	duration := time.Duration(series.DurationSeconds) * time.Second
	starts := set.Between(windowStart.Add(-duration), windowEnd, true)
	if len(starts) > MaxOccurrencesPerSeries {
		starts = starts[:MaxOccurrencesPerSeries]
	}

	out := make([]RecurringOccurrence, 0, len(starts))
	for _, st := range starts {
		startUTC := st.UTC()
		endUTC := startUTC.Add(duration)
		if !startUTC.Before(windowEnd) || !endUTC.After(windowStart) {
			continue
		}
		out = append(out, RecurringOccurrence{
			ID:        strconv.FormatInt(startUTC.UnixNano(), 10),
			SeriesID:  series.ID,
			UserID:    series.UserID,
			Title:     series.Title,
			Notes:     series.Notes,
			Category:  series.Category,
			StartTime: startUTC,
			EndTime:   endUTC,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// OccurrenceStart decodes an occurrence ID produced by ExpandOccurrences.
func OccurrenceStart(occurrenceID string) (time.Time, error) {
	n, err := strconv.ParseInt(occurrenceID, 10, 64)
	if err != nil {
		return time.Time{}, errors.New("invalid occurrence_id")
	}
	return time.Unix(0, n).UTC(), nil
}
