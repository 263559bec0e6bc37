// Package client is the calendar service client used by the grid surfaces.
// Calls carry the user's identity as metadata and are retried on transient
// gRPC failures; bookings send an idempotency key so a retry cannot book twice.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/export"
	"aizily/backend/internal/retry"
	"aizily/backend/internal/timegrid"
)

type Options struct {
	UserID string
	// CallTimeout bounds each attempt. Zero leaves deadlines to the caller.
	CallTimeout time.Duration
	Retry       retry.Policy
	Log         *slog.Logger
}

type Client struct {
	conn   *grpc.ClientConn
	api    calendarv1.CalendarServiceClient
	opts   Options
	policy retry.Policy
	log    *slog.Logger
}

// Dial connects to the calendar server at addr without transport security.
func Dial(addr string, opts Options) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := New(conn, opts)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection. Close does not close cc.
func New(cc grpc.ClientConnInterface, opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	policy := opts.Retry
	policy.Retryable = Transient
	return &Client{
		api:    calendarv1.NewCalendarServiceClient(cc),
		opts:   opts,
		policy: policy,
		log:    log.With(slog.String("component", "client")),
	}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Transient reports whether a failed call may succeed if sent again.
func Transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error, md ...string) error {
	ctx = metadata.AppendToOutgoingContext(ctx, append([]string{"x-user-id", c.opts.UserID}, md...)...)
	attempt := 0
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		attempt++
		if c.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
			defer cancel()
		}
		err := fn(ctx)
		if err != nil && Transient(err) {
			c.log.Debug("call failed, will retry", slog.String("op", op), slog.Int("attempt", attempt), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func dayRequest(date time.Time) (*calendarv1.DayRequest, error) {
	zone, err := zoneName(date.Location())
	if err != nil {
		return nil, err
	}
	return &calendarv1.DayRequest{
		Date:     date.Format(timegrid.DateLayout),
		TimeZone: zone,
	}, nil
}

// zoneName is the IANA name the server resolves loc by. UTC is sent as "".
// Local and fixed zones have no name the server could resolve.
func zoneName(loc *time.Location) (string, error) {
	if loc == time.UTC {
		return "", nil
	}
	if _, err := timegrid.LoadZone(loc.String()); err != nil {
		return "", fmt.Errorf("day zone: %w", err)
	}
	return loc.String(), nil
}

// DayEvents fetches everything on the user's calendar for date's day.
func (c *Client) DayEvents(ctx context.Context, date time.Time) ([]timegrid.DisplayEvent, error) {
	req, err := dayRequest(date)
	if err != nil {
		return nil, err
	}
	var resp *calendarv1.DayEventsResponse
	err = c.call(ctx, "day events", func(ctx context.Context) error {
		var err error
		resp, err = c.api.DayEvents(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]timegrid.DisplayEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		out = append(out, timegrid.DisplayEvent{
			ID:       ev.ID,
			Title:    ev.Title,
			Start:    ev.Start.In(date.Location()),
			End:      ev.End.In(date.Location()),
			Category: timegrid.Category(ev.Category),
		})
	}
	return out, nil
}

type Booking struct {
	Date     time.Time
	Slot     timegrid.TimeSlot
	Title    string
	Notes    string
	Category string
	// IdempotencyKey defaults to a fresh random key shared by every retry.
	IdempotencyKey string
}

// SplitCategory takes a trailing "#word" off a typed title as the category.
func SplitCategory(title string) (string, string) {
	title = strings.TrimSpace(title)
	i := strings.LastIndex(title, "#")
	if i < 0 || strings.ContainsAny(title[i+1:], " \t") {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.ToLower(title[i+1:])
}

// BookSelection books a selected slot on the grid.
func (c *Client) BookSelection(ctx context.Context, b Booking) (*calendarv1.Appointment, error) {
	key := b.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	zone, err := zoneName(b.Date.Location())
	if err != nil {
		return nil, err
	}
	startLabel, endLabel := b.Slot.Labels()
	req := &calendarv1.BookSelectionRequest{
		Date:       b.Date.Format(timegrid.DateLayout),
		TimeZone:   zone,
		StartLabel: startLabel,
		EndLabel:   endLabel,
		Title:      b.Title,
		Notes:      b.Notes,
		Category:   b.Category,
	}

	var resp *calendarv1.BookSelectionResponse
	err = c.call(ctx, "book selection", func(ctx context.Context) error {
		var err error
		resp, err = c.api.BookSelection(ctx, req)
		return err
	}, "idempotency-key", key)
	if err != nil {
		return nil, err
	}
	return resp.Appointment, nil
}

// Ask asks the assistant about date's day.
func (c *Client) Ask(ctx context.Context, date time.Time, question string) (string, error) {
	req, err := dayRequest(date)
	if err != nil {
		return "", err
	}
	var resp *calendarv1.AskResponse
	err = c.call(ctx, "ask", func(ctx context.Context) error {
		var err error
		resp, err = c.api.Ask(ctx, &calendarv1.AskRequest{Date: req.Date, TimeZone: req.TimeZone, Question: question})
		return err
	})
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// ExportEntries collects appointments and occurrences in [from, to) for an
// iCalendar export.
func (c *Client) ExportEntries(ctx context.Context, from, to time.Time) ([]export.Entry, error) {
	var appts *calendarv1.ListAppointmentsResponse
	err := c.call(ctx, "list appointments", func(ctx context.Context) error {
		var err error
		appts, err = c.api.ListAppointments(ctx, &calendarv1.ListAppointmentsRequest{WindowStart: &from, WindowEnd: &to})
		return err
	})
	if err != nil {
		return nil, err
	}

	var occs *calendarv1.ListOccurrencesResponse
	err = c.call(ctx, "list occurrences", func(ctx context.Context) error {
		var err error
		occs, err = c.api.ListOccurrences(ctx, &calendarv1.ListOccurrencesRequest{WindowStart: &from, WindowEnd: &to})
		return err
	})
	if err != nil {
		return nil, err
	}
	return export.Entries(appts.Appointments, occs.Occurrences), nil
}
