//go:build desktop

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"aizily/backend/internal/refresh"
	"aizily/backend/internal/timegrid"
	"aizily/backend/internal/ui/desktop"
)

var touchInput bool

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Show the day grid in a window",
	Long: `Show the day grid in a window. Pass --touch on touch screens; mouse and
touch input are never mixed in one window.

Keys: ←/→ change day, t today, r refresh, q quit.`,
	RunE: runDesktop,
}

func init() {
	desktopCmd.Flags().BoolVar(&touchInput, "touch", false, "take touch input instead of the mouse")
}

func runDesktop(cmd *cobra.Command, args []string) error {
	date, err := startDate(dateFlag, cfg.ClientTimeZone, time.Now())
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	mode := timegrid.InputMouse
	if touchInput {
		mode = timegrid.InputTouch
	}

	var surface *desktop.Surface
	feed := &dayFeed{
		events: c,
		deliver: func(date time.Time, events []timegrid.DisplayEvent) {
			surface.Deliver(date, events, nil)
		},
	}
	surface = desktop.NewSurface(desktop.Options{
		Geometry:     cfg.Grid.Geometry,
		Palette:      cfg.Grid.Palette,
		Leave:        cfg.Grid.Leave,
		Range:        cfg.Grid.Range,
		Mode:         mode,
		Date:         date,
		Backend:      c,
		CallTimeout:  cfg.GRPCRequestTimeout,
		Log:          logger,
		OnDateChange: feed.SetDate,
	})

	r, err := refresh.New(cfg.RefreshSchedule, feed.Fetch, feed.Deliver, logger)
	if err != nil {
		return err
	}
	r.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Stop(ctx); err != nil {
			logger.Warn("refresher stop timed out", slog.Any("err", err))
		}
	}()

	logger.Info("desktop started", slog.String("server", cfg.ClientServerAddr), slog.String("input", mode.String()))
	return desktop.Run(surface, "aizily")
}
