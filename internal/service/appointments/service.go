package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aizily/backend/internal/domain"
	"aizily/backend/internal/store"
	"aizily/backend/internal/timegrid"
)

// MaxDuration bounds a single appointment or occurrence.
const MaxDuration = 24 * time.Hour

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo store.AppointmentRepository
}

func NewService(repo store.AppointmentRepository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	UserID         string
	Title          string
	Notes          string
	Category       string
	StartTime      time.Time
	EndTime        time.Time
	IdempotencyKey string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Appointment{}, validationError("title is required")
	}
	if in.UserID == "" {
		return domain.Appointment{}, validationError("user_id is required")
	}

	// Postgres keeps microseconds; a replayed idempotency key must compare
	// equal to the stored row.
	start := in.StartTime.UTC().Truncate(time.Microsecond)
	end := in.EndTime.UTC().Truncate(time.Microsecond)
	if err := checkSpan(start, end); err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		UserID:    in.UserID,
		Title:     title,
		Notes:     in.Notes,
		Category:  domain.NormalizeCategory(in.Category),
		StartTime: start,
		EndTime:   end,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Appointment{}, validationError("idempotency_key too long")
		}
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("aizily:create_appointment:"+in.UserID+":"+key))
	}

	return s.repo.Create(ctx, appt)
}

func checkSpan(start, end time.Time) error {
	if !end.After(start) {
		return validationError("end_time must be after start_time")
	}
	if end.Sub(start) > MaxDuration {
		return validationError("duration too long")
	}
	return nil
}

func checkWindow(userID string, windowStart, windowEnd time.Time) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if !windowEnd.After(windowStart) {
		return validationError("window_end must be after window_start")
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	start := windowStart.UTC()
	end := windowEnd.UTC()
	if err := checkWindow(userID, start, end); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID, start, end)
}

func (s *Service) Delete(ctx context.Context, userID string, appointmentID uuid.UUID) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if appointmentID == uuid.Nil {
		return validationError("appointment_id is required")
	}
	return s.repo.Delete(ctx, userID, appointmentID)
}

type CreateRecurringSeriesInput struct {
	UserID    string
	Title     string
	Notes     string
	Category  string
	StartTime time.Time
	EndTime   time.Time
	// RRule is an RFC 5545 rule such as "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=10".
	RRule    string
	TimeZone string
}

func (s *Service) CreateRecurringSeries(ctx context.Context, in CreateRecurringSeriesInput) (domain.RecurringSeries, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.RecurringSeries{}, validationError("title is required")
	}
	if in.UserID == "" {
		return domain.RecurringSeries{}, validationError("user_id is required")
	}

	tz := strings.TrimSpace(in.TimeZone)
	if tz == "" {
		return domain.RecurringSeries{}, validationError("time_zone is required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return domain.RecurringSeries{}, validationError("invalid time_zone")
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if err := checkSpan(start, end); err != nil {
		return domain.RecurringSeries{}, err
	}

	rule, err := domain.ParseRule(in.RRule, start.In(loc))
	if err != nil {
		return domain.RecurringSeries{}, validationError(err.Error())
	}
	if !domain.RuleIsBounded(in.RRule) {
		return domain.RecurringSeries{}, validationError("until or count is required")
	}

	lookaheadEnd := start.Add(store.RecurringLookahead)
	next := rule.Iterator()
	n := 0
	for {
		occ, ok := next()
		if !ok {
			break
		}
		if occ.After(lookaheadEnd) {
			return domain.RecurringSeries{}, validationError("recurrence must end within 365 days of start_time")
		}
		n++
		if n > domain.MaxOccurrencesPerSeries {
			return domain.RecurringSeries{}, validationError(fmt.Sprintf("recurrence exceeds %d occurrences", domain.MaxOccurrencesPerSeries))
		}
	}
	if n == 0 {
		return domain.RecurringSeries{}, validationError("recurrence rule produces no occurrences")
	}

	series := domain.RecurringSeries{
		UserID:          in.UserID,
		Title:           title,
		Notes:           in.Notes,
		Category:        domain.NormalizeCategory(in.Category),
		Timezone:        tz,
		DTStart:         start,
		DurationSeconds: int(end.Sub(start) / time.Second),
		RRule:           strings.TrimSpace(in.RRule),
	}
	return s.repo.CreateRecurringSeries(ctx, series)
}

func (s *Service) ListOccurrences(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error) {
	start := windowStart.UTC()
	end := windowEnd.UTC()
	if err := checkWindow(userID, start, end); err != nil {
		return nil, err
	}
	return s.repo.ListOccurrences(ctx, userID, start, end)
}

// SkipOccurrence removes a single occurrence, identified by the ID that
// ListOccurrences returned, from its series.
func (s *Service) SkipOccurrence(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceID string) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if seriesID == uuid.Nil {
		return validationError("series_id is required")
	}
	start, err := domain.OccurrenceStart(occurrenceID)
	if err != nil {
		return validationError(err.Error())
	}
	return s.repo.SkipOccurrence(ctx, userID, seriesID, start)
}

func (s *Service) DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if seriesID == uuid.Nil {
		return validationError("series_id is required")
	}
	return s.repo.DeleteRecurringSeries(ctx, userID, seriesID)
}

// DayEvents returns everything on the user's calendar for the day of date,
// in date's location, ready to be handed to a time grid. One-off
// appointments and series occurrences are merged and ordered by start.
func (s *Service) DayEvents(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	loc := date.Location()
	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	var (
		appts []domain.Appointment
		occs  []domain.RecurringOccurrence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appts, err = s.repo.List(gctx, userID, dayStart.UTC(), dayEnd.UTC())
		return err
	})
	g.Go(func() error {
		var err error
		occs, err = s.repo.ListOccurrences(gctx, userID, dayStart.UTC(), dayEnd.UTC())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]timegrid.DisplayEvent, 0, len(appts)+len(occs))
	for _, a := range appts {
		out = append(out, timegrid.DisplayEvent{
			ID:       a.ID.String(),
			Title:    a.Title,
			Start:    a.StartTime.In(loc),
			End:      a.EndTime.In(loc),
			Category: timegrid.Category(a.Category),
		})
	}
	for _, o := range occs {
		out = append(out, timegrid.DisplayEvent{
			ID:       OccurrenceEventID(o.SeriesID, o.ID),
			Title:    o.Title,
			Start:    o.StartTime.In(loc),
			End:      o.EndTime.In(loc),
			Category: timegrid.Category(o.Category),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// OccurrenceEventID joins a series ID and an occurrence ID into one display ID.
func OccurrenceEventID(seriesID uuid.UUID, occurrenceID string) string {
	return seriesID.String() + "/" + occurrenceID
}

// ParseOccurrenceEventID is the inverse of OccurrenceEventID.
func ParseOccurrenceEventID(id string) (uuid.UUID, string, error) {
	series, occ, ok := strings.Cut(id, "/")
	if !ok {
		return uuid.Nil, "", errors.New("not an occurrence id")
	}
	seriesID, err := uuid.Parse(series)
	if err != nil {
		return uuid.Nil, "", err
	}
	return seriesID, occ, nil
}

type BookSelectionInput struct {
	UserID         string
	Date           time.Time
	StartLabel     string
	EndLabel       string
	Title          string
	Notes          string
	Category       string
	IdempotencyKey string
}

// BookSelection turns a completed grid selection ("HH:mm" labels on a day)
// into an appointment.
func (s *Service) BookSelection(ctx context.Context, in BookSelectionInput) (domain.Appointment, error) {
	if in.Date.IsZero() {
		return domain.Appointment{}, validationError("date is required")
	}
	slot, err := timegrid.ParseSlot(in.Date, in.StartLabel, in.EndLabel)
	if err != nil {
		return domain.Appointment{}, validationError("invalid time label")
	}
	return s.Create(ctx, CreateInput{
		UserID:         in.UserID,
		Title:          in.Title,
		Notes:          in.Notes,
		Category:       in.Category,
		StartTime:      slot.Start,
		EndTime:        slot.End,
		IdempotencyKey: in.IdempotencyKey,
	})
}
