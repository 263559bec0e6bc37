// Package httpapi is the HTTP/JSON gateway in front of the calendar service.
// Handlers translate requests into calendarv1 calls, so the gRPC and HTTP
// surfaces share validation and error semantics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	calendarv1 "aizily/backend/internal/api/calendarv1"
)

type Options struct {
	Address        string
	Calendar       calendarv1.CalendarServiceServer
	Log            *slog.Logger
	DisableReqLogs bool
}

type Server struct {
	opts Options
	app  *echo.Echo
	log  *slog.Logger
}

type appValidator struct {
	validate *validator.Validate
}

func (v appValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		opts: opts,
		app:  echo.New(),
		log:  log.With(slog.String("component", "http")),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = appValidator{validate: newValidator()}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.log)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("panic in handler",
				slog.String("path", c.Path()),
				slog.Any("err", err),
				slog.String("stack", string(stack)),
			)
			return err
		},
	}))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				s.log.Info("request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				)
				return nil
			},
		}))
	}

	s.app.GET("/healthz", healthz)

	api := calendarAPI{cal: s.opts.Calendar}
	v1 := s.app.Group("/v1")

	days := v1.Group("/days/:date")
	days.GET("/events", api.dayEvents)
	days.GET("/layout", api.layoutDay)
	days.POST("/selection", api.resolveSelection)
	days.POST("/bookings", api.bookSelection)

	v1.POST("/appointments", api.createAppointment)
	v1.DELETE("/appointments/:id", api.deleteAppointment)
	v1.POST("/assistant/ask", api.ask)
	v1.GET("/calendar.ics", api.exportICS)
}

// Start blocks serving on opts.Address until Stop is called, after which it
// returns nil.
func (s *Server) Start() error {
	s.log.Info("http server started", slog.String("http_addr", s.opts.Address))
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP serves one request without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
