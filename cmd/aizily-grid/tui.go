package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"aizily/backend/internal/refresh"
	"aizily/backend/internal/timegrid"
	"aizily/backend/internal/ui/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the day grid in the terminal",
	Long: `Show the day grid in the terminal. Needs a terminal with mouse reporting.

Keys: ←/→ change day, t today, r refresh, ↑/↓ and PgUp/PgDn scroll, q quit.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	date, err := startDate(dateFlag, cfg.ClientTimeZone, time.Now())
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	var p *tea.Program
	feed := &dayFeed{
		events: c,
		deliver: func(date time.Time, events []timegrid.DisplayEvent) {
			p.Send(tui.EventsLoaded{Date: date, Events: events})
		},
	}

	model := tui.New(tui.Options{
		Geometry:     cfg.Grid.Geometry,
		Palette:      cfg.Grid.Palette,
		Leave:        cfg.Grid.Leave,
		Range:        cfg.Grid.Range,
		Date:         date,
		Backend:      c,
		CallTimeout:  cfg.GRPCRequestTimeout,
		OnDateChange: feed.SetDate,
	})
	p = tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

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

	logger.Info("tui started", slog.String("server", cfg.ClientServerAddr), slog.String("date", date.Format(timegrid.DateLayout)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
