package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/metadata"

	calendarv1 "aizily/backend/internal/api/calendarv1"
	"aizily/backend/internal/export"
	"aizily/backend/internal/timegrid"
)

const (
	headerUserID         = "X-User-Id"
	headerIdempotencyKey = "Idempotency-Key"

	defaultExportDays = 30
	maxExportDays     = 366
)

type calendarAPI struct {
	cal calendarv1.CalendarServiceServer
}

// callContext carries the caller's identity headers into the calendar
// service the same way gRPC metadata would.
func callContext(c echo.Context) context.Context {
	req := c.Request()
	var pairs []string
	if v := req.Header.Get(headerUserID); v != "" {
		pairs = append(pairs, "x-user-id", v)
	}
	if v := req.Header.Get(headerIdempotencyKey); v != "" {
		pairs = append(pairs, "idempotency-key", v)
	}
	return metadata.NewIncomingContext(req.Context(), metadata.Pairs(pairs...))
}

func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func (a calendarAPI) dayRequest(c echo.Context) *calendarv1.DayRequest {
	return &calendarv1.DayRequest{Date: c.Param("date"), TimeZone: c.QueryParam("tz")}
}

func (a calendarAPI) dayEvents(c echo.Context) error {
	resp, err := a.cal.DayEvents(callContext(c), a.dayRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (a calendarAPI) layoutDay(c echo.Context) error {
	resp, err := a.cal.LayoutDay(callContext(c), a.dayRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type selectionBody struct {
	StartY   *float64 `json:"start_y" validate:"required"`
	EndY     *float64 `json:"end_y" validate:"required"`
	TimeZone string   `json:"time_zone"`
}

func (a calendarAPI) resolveSelection(c echo.Context) error {
	var body selectionBody
	if err := bindValid(c, &body); err != nil {
		return err
	}
	resp, err := a.cal.ResolveSelection(callContext(c), &calendarv1.ResolveSelectionRequest{
		Date:     c.Param("date"),
		TimeZone: body.TimeZone,
		StartY:   *body.StartY,
		EndY:     *body.EndY,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type bookingBody struct {
	StartLabel string `json:"start_label" validate:"required"`
	EndLabel   string `json:"end_label" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
	Notes      string `json:"notes" validate:"max=2000"`
	Category   string `json:"category"`
	TimeZone   string `json:"time_zone"`
}

func (a calendarAPI) bookSelection(c echo.Context) error {
	var body bookingBody
	if err := bindValid(c, &body); err != nil {
		return err
	}
	resp, err := a.cal.BookSelection(callContext(c), &calendarv1.BookSelectionRequest{
		Date:       c.Param("date"),
		TimeZone:   body.TimeZone,
		StartLabel: body.StartLabel,
		EndLabel:   body.EndLabel,
		Title:      body.Title,
		Notes:      body.Notes,
		Category:   body.Category,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

type appointmentBody struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Notes     string     `json:"notes" validate:"max=2000"`
	Category  string     `json:"category"`
	StartTime *time.Time `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
}

func (a calendarAPI) createAppointment(c echo.Context) error {
	var body appointmentBody
	if err := bindValid(c, &body); err != nil {
		return err
	}
	resp, err := a.cal.CreateAppointment(callContext(c), &calendarv1.CreateAppointmentRequest{
		Title:     body.Title,
		Notes:     body.Notes,
		Category:  body.Category,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (a calendarAPI) deleteAppointment(c echo.Context) error {
	_, err := a.cal.DeleteAppointment(callContext(c), &calendarv1.DeleteAppointmentRequest{AppointmentID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type askBody struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeZone string `json:"time_zone"`
	Question string `json:"question" validate:"required"`
}

func (a calendarAPI) ask(c echo.Context) error {
	var body askBody
	if err := bindValid(c, &body); err != nil {
		return err
	}
	resp, err := a.cal.Ask(callContext(c), &calendarv1.AskRequest{
		Date:     body.Date,
		TimeZone: body.TimeZone,
		Question: body.Question,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// exportICS serves the days from..to (inclusive) as an iCalendar feed.
// from defaults to today and to defaults to 30 days later.
func (a calendarAPI) exportICS(c echo.Context) error {
	tz := c.QueryParam("tz")

	fromParam := c.QueryParam("from")
	if fromParam == "" {
		loc := time.UTC
		if tz != "" {
			var err error
			if loc, err = time.LoadLocation(tz); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown time zone %q", tz))
			}
		}
		fromParam = time.Now().In(loc).Format(timegrid.DateLayout)
	}
	from, err := timegrid.ParseDate(fromParam, tz)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to := from.AddDate(0, 0, defaultExportDays)
	if p := c.QueryParam("to"); p != "" {
		if to, err = timegrid.ParseDate(p, tz); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if to.Before(from) {
		return echo.NewHTTPError(http.StatusBadRequest, "to must not be before from")
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("export covers at most %d days", maxExportDays))
	}
	windowEnd := to.AddDate(0, 0, 1)

	ctx := callContext(c)
	appts, err := a.cal.ListAppointments(ctx, &calendarv1.ListAppointmentsRequest{WindowStart: &from, WindowEnd: &windowEnd})
	if err != nil {
		return err
	}
	occs, err := a.cal.ListOccurrences(ctx, &calendarv1.ListOccurrencesRequest{WindowStart: &from, WindowEnd: &windowEnd})
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="aizily.ics"`)
	res.WriteHeader(http.StatusOK)
	return export.Write(res, "Aizily", export.Entries(appts.Appointments, occs.Occurrences), time.Now())
}
