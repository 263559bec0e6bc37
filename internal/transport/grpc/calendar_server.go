package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/domain"
	"aizily/backend/internal/service/appointments"
	"aizily/backend/internal/service/assistant"
	"aizily/backend/internal/store"
	"aizily/backend/internal/timegrid"
)

type CalendarServer struct {
	calendarv1.UnimplementedCalendarServiceServer

	svc  appointmentsService
	ai   assistantService
	grid GridSettings
	log  *slog.Logger
}

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	List(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	Delete(ctx context.Context, userID string, appointmentID uuid.UUID) error
	CreateRecurringSeries(ctx context.Context, in appointments.CreateRecurringSeriesInput) (domain.RecurringSeries, error)
	ListOccurrences(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error)
	SkipOccurrence(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceID string) error
	DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error
	DayEvents(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error)
	BookSelection(ctx context.Context, in appointments.BookSelectionInput) (domain.Appointment, error)
}

type assistantService interface {
	Ask(ctx context.Context, in assistant.AskInput) (assistant.Answer, error)
}

// GridSettings is the grid the server lays days out on.
type GridSettings struct {
	Geometry timegrid.Geometry
	Palette  timegrid.Palette
	Range    timegrid.RangePolicy
}

func NewCalendarServer(svc appointmentsService, ai assistantService, grid GridSettings, log *slog.Logger) *CalendarServer {
	if log == nil {
		log = slog.Default()
	}
	return &CalendarServer{
		svc:  svc,
		ai:   ai,
		grid: grid,
		log:  log.With(slog.String("component", "grpc.calendar")),
	}
}

// fail logs err at a level matching its cause and converts it to a status.
func (s *CalendarServer) fail(log *slog.Logger, op string, err error, attrs ...any) error {
	var vErr *appointments.ValidationError
	var qErr *assistant.InvalidQuestionError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &qErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, qErr.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info(op+" not found", attrs...)
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info(op+" idempotency conflict", attrs...)
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different appointment. Try again.")
	case errors.Is(err, assistant.ErrDisabled):
		log.Info(op+" unavailable", attrs...)
		return status.Error(codes.Unavailable, "assistant is not configured")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(op+" timed out", attrs...)
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	}
	log.Error(op+" failed", append([]any{slog.Any("err", err)}, attrs...)...)
	return status.Error(codes.Internal, "internal error")
}

func invalid(log *slog.Logger, reason, msg string) error {
	log.Warn("invalid request", slog.String("reason", reason))
	return status.Error(codes.InvalidArgument, msg)
}

// userID prefers the request field and falls back to x-user-id metadata.
func userID(ctx context.Context, fromRequest string) string {
	if id := strings.TrimSpace(fromRequest); id != "" {
		return id
	}
	return firstMetadata(ctx, "x-user-id")
}

func idempotencyKey(ctx context.Context) string {
	if key := firstMetadata(ctx, "idempotency-key"); key != "" {
		return key
	}
	return firstMetadata(ctx, "x-idempotency-key")
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func (s *CalendarServer) CreateAppointment(ctx context.Context, req *calendarv1.CreateAppointmentRequest) (*calendarv1.CreateAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		return nil, invalid(log, "missing_times", "start_time and end_time are required")
	}
	user := userID(ctx, req.UserID)

	appt, err := s.svc.Create(ctx, appointments.CreateInput{
		UserID:         user,
		Title:          req.Title,
		Notes:          req.Notes,
		Category:       req.Category,
		StartTime:      *req.StartTime,
		EndTime:        *req.EndTime,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.fail(log, "appointment create", err, slog.String("user_id", user))
	}

	log.Info(
		"appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("user_id", appt.UserID),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	return &calendarv1.CreateAppointmentResponse{Appointment: toAPIAppointment(appt)}, nil
}

func (s *CalendarServer) ListAppointments(ctx context.Context, req *calendarv1.ListAppointmentsRequest) (*calendarv1.ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		return nil, invalid(log, "missing_window", "window_start and window_end are required")
	}
	user := userID(ctx, req.UserID)

	appts, err := s.svc.List(ctx, user, *req.WindowStart, *req.WindowEnd)
	if err != nil {
		return nil, s.fail(log, "appointments list", err, slog.String("user_id", user))
	}

	out := make([]*calendarv1.Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAPIAppointment(a))
	}
	log.Debug("appointments listed", slog.String("user_id", user), slog.Int("count", len(out)))
	return &calendarv1.ListAppointmentsResponse{Appointments: out}, nil
}

func (s *CalendarServer) DeleteAppointment(ctx context.Context, req *calendarv1.DeleteAppointmentRequest) (*calendarv1.DeleteAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteAppointment"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, invalid(log, "invalid_uuid", "appointment_id must be a UUID")
	}
	user := userID(ctx, req.UserID)

	if err := s.svc.Delete(ctx, user, id); err != nil {
		return nil, s.fail(log, "appointment delete", err, slog.String("appointment_id", id.String()), slog.String("user_id", user))
	}
	log.Info("appointment deleted", slog.String("appointment_id", id.String()), slog.String("user_id", user))
	return &calendarv1.DeleteAppointmentResponse{}, nil
}

func (s *CalendarServer) CreateRecurringSeries(ctx context.Context, req *calendarv1.CreateRecurringSeriesRequest) (*calendarv1.CreateRecurringSeriesResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateRecurringSeries"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		return nil, invalid(log, "missing_times", "start_time and end_time are required")
	}
	user := userID(ctx, req.UserID)

	series, err := s.svc.CreateRecurringSeries(ctx, appointments.CreateRecurringSeriesInput{
		UserID:    user,
		Title:     req.Title,
		Notes:     req.Notes,
		Category:  req.Category,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
		RRule:     req.RRule,
		TimeZone:  req.TimeZone,
	})
	if err != nil {
		return nil, s.fail(log, "recurring series create", err, slog.String("user_id", user))
	}

	log.Info(
		"recurring series created",
		slog.String("series_id", series.ID.String()),
		slog.String("user_id", series.UserID),
		slog.Time("dtstart", series.DTStart),
		slog.String("rrule", series.RRule),
	)
	return &calendarv1.CreateRecurringSeriesResponse{Series: toAPIRecurringSeries(series)}, nil
}

func (s *CalendarServer) ListOccurrences(ctx context.Context, req *calendarv1.ListOccurrencesRequest) (*calendarv1.ListOccurrencesResponse, error) {
	log := s.log.With(slog.String("rpc", "ListOccurrences"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		return nil, invalid(log, "missing_window", "window_start and window_end are required")
	}
	user := userID(ctx, req.UserID)

	occs, err := s.svc.ListOccurrences(ctx, user, *req.WindowStart, *req.WindowEnd)
	if err != nil {
		return nil, s.fail(log, "occurrences list", err, slog.String("user_id", user))
	}

	out := make([]*calendarv1.Occurrence, 0, len(occs))
	for _, o := range occs {
		out = append(out, toAPIOccurrence(o))
	}
	log.Debug("occurrences listed", slog.String("user_id", user), slog.Int("count", len(out)))
	return &calendarv1.ListOccurrencesResponse{Occurrences: out}, nil
}

func (s *CalendarServer) SkipOccurrence(ctx context.Context, req *calendarv1.SkipOccurrenceRequest) (*calendarv1.SkipOccurrenceResponse, error) {
	log := s.log.With(slog.String("rpc", "SkipOccurrence"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	seriesID, err := uuid.Parse(req.SeriesID)
	if err != nil {
		return nil, invalid(log, "invalid_uuid", "series_id must be a UUID")
	}
	user := userID(ctx, req.UserID)

	if err := s.svc.SkipOccurrence(ctx, user, seriesID, req.OccurrenceID); err != nil {
		return nil, s.fail(log, "occurrence skip", err, slog.String("series_id", seriesID.String()), slog.String("user_id", user))
	}
	log.Info("occurrence skipped", slog.String("series_id", seriesID.String()), slog.String("occurrence_id", req.OccurrenceID))
	return &calendarv1.SkipOccurrenceResponse{}, nil
}

func (s *CalendarServer) DeleteRecurringSeries(ctx context.Context, req *calendarv1.DeleteRecurringSeriesRequest) (*calendarv1.DeleteRecurringSeriesResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteRecurringSeries"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	seriesID, err := uuid.Parse(req.SeriesID)
	if err != nil {
		return nil, invalid(log, "invalid_uuid", "series_id must be a UUID")
	}
	user := userID(ctx, req.UserID)

	if err := s.svc.DeleteRecurringSeries(ctx, user, seriesID); err != nil {
		return nil, s.fail(log, "recurring series delete", err, slog.String("series_id", seriesID.String()), slog.String("user_id", user))
	}
	log.Info("recurring series deleted", slog.String("series_id", seriesID.String()), slog.String("user_id", user))
	return &calendarv1.DeleteRecurringSeriesResponse{}, nil
}

func (s *CalendarServer) dayEvents(ctx context.Context, log *slog.Logger, req *calendarv1.DayRequest) (time.Time, []timegrid.DisplayEvent, error) {
	if req == nil {
		return time.Time{}, nil, invalid(log, "nil_request", "request is required")
	}
	date, err := timegrid.ParseDate(req.Date, req.TimeZone)
	if err != nil {
		return time.Time{}, nil, invalid(log, "invalid_date", err.Error())
	}
	user := userID(ctx, req.UserID)
	events, err := s.svc.DayEvents(ctx, user, date)
	if err != nil {
		return time.Time{}, nil, s.fail(log, "day events", err, slog.String("user_id", user), slog.String("date", req.Date))
	}
	return date, events, nil
}

func (s *CalendarServer) DayEvents(ctx context.Context, req *calendarv1.DayRequest) (*calendarv1.DayEventsResponse, error) {
	log := s.log.With(slog.String("rpc", "DayEvents"))

	_, events, err := s.dayEvents(ctx, log, req)
	if err != nil {
		return nil, err
	}
	out := make([]*calendarv1.DisplayEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, toAPIDisplayEvent(ev))
	}
	log.Debug("day events listed", slog.String("date", req.Date), slog.Int("count", len(out)))
	return &calendarv1.DayEventsResponse{Events: out}, nil
}

func (s *CalendarServer) LayoutDay(ctx context.Context, req *calendarv1.DayRequest) (*calendarv1.LayoutDayResponse, error) {
	log := s.log.With(slog.String("rpc", "LayoutDay"))

	date, events, err := s.dayEvents(ctx, log, req)
	if err != nil {
		return nil, err
	}
	placed := s.grid.Geometry.Layout(date, events, s.grid.Range)
	out := make([]*calendarv1.Placement, 0, len(placed))
	for _, p := range placed {
		style := s.grid.Palette.Style(p.Event.Category)
		out = append(out, &calendarv1.Placement{
			Event:         toAPIDisplayEvent(p.Event),
			Top:           p.Top,
			Height:        p.Height,
			Z:             p.Z,
			ClippedTop:    p.ClippedTop,
			ClippedBottom: p.ClippedBottom,
			Style:         &calendarv1.Style{Fill: style.Fill, Border: style.Border, Text: style.Text},
		})
	}
	return &calendarv1.LayoutDayResponse{GridHeight: s.grid.Geometry.GridHeight(), Placements: out}, nil
}

func (s *CalendarServer) ResolveSelection(ctx context.Context, req *calendarv1.ResolveSelectionRequest) (*calendarv1.ResolveSelectionResponse, error) {
	log := s.log.With(slog.String("rpc", "ResolveSelection"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	date, err := timegrid.ParseDate(req.Date, req.TimeZone)
	if err != nil {
		return nil, invalid(log, "invalid_date", err.Error())
	}

	geo := s.grid.Geometry
	slot := geo.Resolve(geo.TimeAt(req.StartY, date), geo.TimeAt(req.EndY, date))
	overlay := geo.OverlayFor(slot)
	start, end := slot.Labels()
	return &calendarv1.ResolveSelectionResponse{
		StartLabel: start,
		EndLabel:   end,
		Start:      slot.Start,
		End:        slot.End,
		Top:        overlay.Top,
		Height:     overlay.Height,
	}, nil
}

func (s *CalendarServer) BookSelection(ctx context.Context, req *calendarv1.BookSelectionRequest) (*calendarv1.BookSelectionResponse, error) {
	log := s.log.With(slog.String("rpc", "BookSelection"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	date, err := timegrid.ParseDate(req.Date, req.TimeZone)
	if err != nil {
		return nil, invalid(log, "invalid_date", err.Error())
	}
	user := userID(ctx, req.UserID)

	appt, err := s.svc.BookSelection(ctx, appointments.BookSelectionInput{
		UserID:         user,
		Date:           date,
		StartLabel:     req.StartLabel,
		EndLabel:       req.EndLabel,
		Title:          req.Title,
		Notes:          req.Notes,
		Category:       req.Category,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.fail(log, "selection booking", err, slog.String("user_id", user), slog.String("date", req.Date))
	}

	log.Info(
		"selection booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("user_id", user),
		slog.String("start", req.StartLabel),
		slog.String("end", req.EndLabel),
	)
	return &calendarv1.BookSelectionResponse{Appointment: toAPIAppointment(appt)}, nil
}

func (s *CalendarServer) Ask(ctx context.Context, req *calendarv1.AskRequest) (*calendarv1.AskResponse, error) {
	log := s.log.With(slog.String("rpc", "Ask"))

	if req == nil {
		return nil, invalid(log, "nil_request", "request is required")
	}
	if s.ai == nil {
		return nil, s.fail(log, "assistant ask", assistant.ErrDisabled)
	}
	date, err := timegrid.ParseDate(req.Date, req.TimeZone)
	if err != nil {
		return nil, invalid(log, "invalid_date", err.Error())
	}
	user := userID(ctx, req.UserID)

	ans, err := s.ai.Ask(ctx, assistant.AskInput{UserID: user, Date: date, Question: req.Question})
	if err != nil {
		return nil, s.fail(log, "assistant ask", err, slog.String("user_id", user))
	}
	return &calendarv1.AskResponse{Answer: ans.Text, Events: ans.Events}, nil
}

func toAPIAppointment(a domain.Appointment) *calendarv1.Appointment {
	return &calendarv1.Appointment{
		ID:        a.ID.String(),
		UserID:    a.UserID,
		Title:     a.Title,
		Notes:     a.Notes,
		Category:  string(a.Category),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAPIRecurringSeries(s domain.RecurringSeries) *calendarv1.RecurringSeries {
	duration := time.Duration(s.DurationSeconds) * time.Second
	return &calendarv1.RecurringSeries{
		ID:        s.ID.String(),
		UserID:    s.UserID,
		Title:     s.Title,
		Notes:     s.Notes,
		Category:  string(s.Category),
		StartTime: s.DTStart,
		EndTime:   s.DTStart.Add(duration),
		RRule:     s.RRule,
		TimeZone:  s.Timezone,
		ExDates:   s.ExDates,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toAPIOccurrence(o domain.RecurringOccurrence) *calendarv1.Occurrence {
	return &calendarv1.Occurrence{
		SeriesID:     o.SeriesID.String(),
		OccurrenceID: o.ID,
		UserID:       o.UserID,
		Title:        o.Title,
		Notes:        o.Notes,
		Category:     string(o.Category),
		StartTime:    o.StartTime,
		EndTime:      o.EndTime,
	}
}

func toAPIDisplayEvent(ev timegrid.DisplayEvent) *calendarv1.DisplayEvent {
	return &calendarv1.DisplayEvent{
		ID:       ev.ID,
		Title:    ev.Title,
		Category: string(ev.Category),
		Start:    ev.Start,
		End:      ev.End,
	}
}
