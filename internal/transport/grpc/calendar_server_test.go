package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/domain"
	"aizily/backend/internal/service/appointments"
	"aizily/backend/internal/service/assistant"
	"aizily/backend/internal/store"
	"aizily/backend/internal/timegrid"
)

type fakeAppointmentsService struct {
	createFn              func(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	listFn                func(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	deleteFn              func(ctx context.Context, userID string, appointmentID uuid.UUID) error
	createRecurringSeries func(ctx context.Context, in appointments.CreateRecurringSeriesInput) (domain.RecurringSeries, error)
	listOccurrencesFn     func(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error)
	skipOccurrenceFn      func(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceID string) error
	deleteSeriesFn        func(ctx context.Context, userID string, seriesID uuid.UUID) error
	dayEventsFn           func(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error)
	bookSelectionFn       func(ctx context.Context, in appointments.BookSelectionInput) (domain.Appointment, error)
}

func (f *fakeAppointmentsService) Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeAppointmentsService) List(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx, userID, windowStart, windowEnd)
}

func (f *fakeAppointmentsService) Delete(ctx context.Context, userID string, appointmentID uuid.UUID) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, userID, appointmentID)
}

func (f *fakeAppointmentsService) CreateRecurringSeries(ctx context.Context, in appointments.CreateRecurringSeriesInput) (domain.RecurringSeries, error) {
	if f.createRecurringSeries == nil {
		panic("CreateRecurringSeries not configured")
	}
	return f.createRecurringSeries(ctx, in)
}

func (f *fakeAppointmentsService) ListOccurrences(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error) {
	if f.listOccurrencesFn == nil {
		panic("ListOccurrences not configured")
	}
	return f.listOccurrencesFn(ctx, userID, windowStart, windowEnd)
}

func (f *fakeAppointmentsService) SkipOccurrence(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceID string) error {
	if f.skipOccurrenceFn == nil {
		panic("SkipOccurrence not configured")
	}
	return f.skipOccurrenceFn(ctx, userID, seriesID, occurrenceID)
}

func (f *fakeAppointmentsService) DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error {
	if f.deleteSeriesFn == nil {
		panic("DeleteRecurringSeries not configured")
	}
	return f.deleteSeriesFn(ctx, userID, seriesID)
}

func (f *fakeAppointmentsService) DayEvents(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error) {
	if f.dayEventsFn == nil {
		panic("DayEvents not configured")
	}
	return f.dayEventsFn(ctx, userID, date)
}

func (f *fakeAppointmentsService) BookSelection(ctx context.Context, in appointments.BookSelectionInput) (domain.Appointment, error) {
	if f.bookSelectionFn == nil {
		panic("BookSelection not configured")
	}
	return f.bookSelectionFn(ctx, in)
}

type fakeAssistant struct {
	askFn func(ctx context.Context, in assistant.AskInput) (assistant.Answer, error)
}

func (f fakeAssistant) Ask(ctx context.Context, in assistant.AskInput) (assistant.Answer, error) {
	return f.askFn(ctx, in)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGrid() GridSettings {
	return GridSettings{Geometry: timegrid.DefaultGeometry(), Palette: timegrid.DefaultPalette()}
}

func newServer(svc *fakeAppointmentsService) *CalendarServer {
	return NewCalendarServer(svc, nil, testGrid(), testLogger())
}

func ptr(t time.Time) *time.Time { return &t }

func TestIdempotencyKey_ReadsHeadersAndTrims(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "  abc  "))
	if got := idempotencyKey(ctx); got != "abc" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "abc")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-idempotency-key", "xyz"))
	if got := idempotencyKey(ctx); got != "xyz" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "xyz")
	}
}

func TestUserID_FallsBackToMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-user-id", "meta-user"))
	if got := userID(ctx, ""); got != "meta-user" {
		t.Fatalf("userID = %q, want %q", got, "meta-user")
	}
	if got := userID(ctx, "req-user"); got != "req-user" {
		t.Fatalf("userID = %q, want %q", got, "req-user")
	}
}

func TestCreateAppointment_RejectsMissingTimes(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.CreateAppointment(context.Background(), &calendarv1.CreateAppointmentRequest{UserID: "u1"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestCreateAppointment_PassesIdempotencyKeyAndCategory(t *testing.T) {
	var got appointments.CreateInput
	srv := newServer(&fakeAppointmentsService{
		createFn: func(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error) {
			got = in
			return domain.Appointment{ID: uuid.MustParse("00000000-0000-0000-0000-000000000010"), Category: domain.CategoryExam}, nil
		},
	})

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "k1"))

	resp, err := srv.CreateAppointment(ctx, &calendarv1.CreateAppointmentRequest{
		UserID:    "u1",
		Title:     "t",
		Category:  "exam",
		StartTime: ptr(start),
		EndTime:   ptr(start.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if got.IdempotencyKey != "k1" || got.Category != "exam" {
		t.Fatalf("input = %+v", got)
	}
	if resp.Appointment.Category != "exam" {
		t.Fatalf("category = %q, want exam", resp.Appointment.Category)
	}
}

func TestErrorMapping(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "validation", err: &appointments.ValidationError{}, want: codes.InvalidArgument},
		{name: "idempotency", err: store.ErrIdempotencyConflict, want: codes.FailedPrecondition},
		{name: "not found", err: store.ErrNotFound, want: codes.NotFound},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "other", err: errors.New("boom"), want: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(&fakeAppointmentsService{
				createFn: func(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error) {
					return domain.Appointment{}, tt.err
				},
			})
			_, err := srv.CreateAppointment(context.Background(), &calendarv1.CreateAppointmentRequest{
				UserID:    "u1",
				Title:     "t",
				StartTime: ptr(start),
				EndTime:   ptr(start.Add(time.Hour)),
			})
			if status.Code(err) != tt.want {
				t.Fatalf("code = %s, want %s", status.Code(err), tt.want)
			}
		})
	}
}

func TestDeleteAppointment_RejectsInvalidUUID(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.DeleteAppointment(context.Background(), &calendarv1.DeleteAppointmentRequest{
		UserID:        "u1",
		AppointmentID: "not-a-uuid",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestSkipOccurrence_PassesIDs(t *testing.T) {
	seriesID := uuid.MustParse("00000000-0000-0000-0000-000000000030")
	var gotOcc string
	srv := newServer(&fakeAppointmentsService{
		skipOccurrenceFn: func(ctx context.Context, userID string, id uuid.UUID, occurrenceID string) error {
			if id != seriesID {
				t.Fatalf("series id = %s", id)
			}
			gotOcc = occurrenceID
			return nil
		},
	})

	_, err := srv.SkipOccurrence(context.Background(), &calendarv1.SkipOccurrenceRequest{
		UserID:       "u1",
		SeriesID:     seriesID.String(),
		OccurrenceID: "1768208400000000000",
	})
	if err != nil {
		t.Fatalf("SkipOccurrence error: %v", err)
	}
	if gotOcc != "1768208400000000000" {
		t.Fatalf("occurrence id = %q", gotOcc)
	}
}

func TestLayoutDay_PlacesEventsWithStyles(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{
		dayEventsFn: func(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error) {
			return []timegrid.DisplayEvent{
				{ID: "a", Title: "A", Start: date.Add(10 * time.Hour), End: date.Add(11 * time.Hour), Category: "exam"},
				{ID: "b", Title: "B", Start: date.Add(10*time.Hour + 30*time.Minute), End: date.Add(11*time.Hour + 30*time.Minute), Category: "lesson"},
			}, nil
		},
	})

	resp, err := srv.LayoutDay(context.Background(), &calendarv1.DayRequest{UserID: "u1", Date: "2026-03-02"})
	if err != nil {
		t.Fatalf("LayoutDay error: %v", err)
	}
	if resp.GridHeight != 720 {
		t.Fatalf("grid height = %v, want 720", resp.GridHeight)
	}
	if len(resp.Placements) != 2 {
		t.Fatalf("len(placements) = %d, want 2", len(resp.Placements))
	}
	if resp.Placements[0].Top != 120 || resp.Placements[0].Height != 60 {
		t.Fatalf("first placement = %+v", resp.Placements[0])
	}
	if resp.Placements[1].Top != 150 || resp.Placements[1].Z != 1 {
		t.Fatalf("second placement = %+v", resp.Placements[1])
	}
	if resp.Placements[0].Style.Fill != timegrid.DefaultPalette().Style("exam").Fill {
		t.Fatalf("style = %+v", resp.Placements[0].Style)
	}
}

func TestDayEvents_RejectsBadDate(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.DayEvents(context.Background(), &calendarv1.DayRequest{UserID: "u1", Date: "yesterday"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestResolveSelection(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	tests := []struct {
		name           string
		startY, endY   float64
		wantStart      string
		wantEnd        string
		wantTop, wantH float64
	}{
		{name: "drag down", startY: 0, endY: 60, wantStart: "08:00", wantEnd: "09:00", wantTop: 0, wantH: 60},
		{name: "drag up", startY: 60, endY: 0, wantStart: "08:00", wantEnd: "09:00", wantTop: 0, wantH: 60},
		{name: "click", startY: 120, endY: 120, wantStart: "10:00", wantEnd: "10:15", wantTop: 120, wantH: 15},
		{name: "click at bottom", startY: 5000, endY: 5000, wantStart: "19:45", wantEnd: "20:00", wantTop: 705, wantH: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.ResolveSelection(context.Background(), &calendarv1.ResolveSelectionRequest{
				Date:   "2026-03-02",
				StartY: tt.startY,
				EndY:   tt.endY,
			})
			if err != nil {
				t.Fatalf("ResolveSelection error: %v", err)
			}
			if resp.StartLabel != tt.wantStart || resp.EndLabel != tt.wantEnd {
				t.Fatalf("labels = %s-%s, want %s-%s", resp.StartLabel, resp.EndLabel, tt.wantStart, tt.wantEnd)
			}
			if resp.Top != tt.wantTop || resp.Height != tt.wantH {
				t.Fatalf("overlay = %v/%v, want %v/%v", resp.Top, resp.Height, tt.wantTop, tt.wantH)
			}
		})
	}
}

func TestAsk_UnavailableWithoutAssistant(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.Ask(context.Background(), &calendarv1.AskRequest{UserID: "u1", Date: "2026-03-02", Question: "hi"})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unavailable)
	}
}

func TestAsk_MapsInvalidQuestion(t *testing.T) {
	srv := NewCalendarServer(&fakeAppointmentsService{}, fakeAssistant{
		askFn: func(ctx context.Context, in assistant.AskInput) (assistant.Answer, error) {
			return assistant.Answer{}, &assistant.InvalidQuestionError{}
		},
	}, testGrid(), testLogger())

	_, err := srv.Ask(context.Background(), &calendarv1.AskRequest{UserID: "u1", Date: "2026-03-02"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	srv := NewCalendarServer(&fakeAppointmentsService{}, fakeAssistant{
		askFn: func(ctx context.Context, in assistant.AskInput) (assistant.Answer, error) {
			if in.Date.Format(timegrid.DateLayout) != "2026-03-02" {
				t.Fatalf("date = %s", in.Date)
			}
			return assistant.Answer{Text: "free after 11", Events: 2}, nil
		},
	}, testGrid(), testLogger())

	resp, err := srv.Ask(context.Background(), &calendarv1.AskRequest{UserID: "u1", Date: "2026-03-02", Question: "when am I free?"})
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if resp.Answer != "free after 11" || resp.Events != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}

// dialBufconn serves srv over an in-memory listener and returns a client.
func dialBufconn(t *testing.T, srv calendarv1.CalendarServiceServer) calendarv1.CalendarServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(Recover(testLogger()), DefaultRequestTimeout(time.Second)))
	calendarv1.RegisterCalendarServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return calendarv1.NewCalendarServiceClient(conn)
}

func TestBufconn_BookSelectionRoundTrip(t *testing.T) {
	var got appointments.BookSelectionInput
	client := dialBufconn(t, newServer(&fakeAppointmentsService{
		bookSelectionFn: func(ctx context.Context, in appointments.BookSelectionInput) (domain.Appointment, error) {
			got = in
			return domain.Appointment{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000040"),
				UserID:    in.UserID,
				Title:     in.Title,
				Category:  domain.CategoryStudy,
				StartTime: in.Date.Add(10 * time.Hour),
				EndTime:   in.Date.Add(10*time.Hour + 15*time.Minute),
			}, nil
		},
	}))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-user-id", "u9", "idempotency-key", "k9")
	resp, err := client.BookSelection(ctx, &calendarv1.BookSelectionRequest{
		Date:       "2026-03-02",
		TimeZone:   "Africa/Lagos",
		StartLabel: "10:00",
		EndLabel:   "10:15",
		Title:      "revision",
		Category:   "study",
	})
	if err != nil {
		t.Fatalf("BookSelection error: %v", err)
	}
	if got.UserID != "u9" || got.IdempotencyKey != "k9" {
		t.Fatalf("input = %+v", got)
	}
	if got.Date.Location().String() != "Africa/Lagos" {
		t.Fatalf("date location = %s", got.Date.Location())
	}
	if resp.Appointment.ID != "00000000-0000-0000-0000-000000000040" || resp.Appointment.Category != "study" {
		t.Fatalf("appointment = %+v", resp.Appointment)
	}
}

func TestBufconn_PanicBecomesInternal(t *testing.T) {
	client := dialBufconn(t, newServer(&fakeAppointmentsService{}))

	_, err := client.DayEvents(context.Background(), &calendarv1.DayRequest{UserID: "u1", Date: "2026-03-02"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Internal)
	}
}
