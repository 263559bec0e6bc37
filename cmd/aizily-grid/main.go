package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aizily/backend/internal/client"
	"aizily/backend/internal/config"
	"aizily/backend/internal/timegrid"
)

var (
	serverAddr string
	userID     string
	timeZone   string
	dateFlag   string
	logFile    string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "aizily-grid",
	Short: "Day grid for the aizily calendar",
	Long: `aizily-grid shows one day of your calendar as a time grid.

Drag (or tap) across the grid to pick a time range, type a title and press
enter to book it. A trailing #word in the title sets the category.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverAddr != "" {
			cfg.ClientServerAddr = serverAddr
		}
		if userID != "" {
			cfg.ClientUserID = userID
		}
		if timeZone != "" {
			if _, err := timegrid.LoadZone(timeZone); err != nil {
				return fmt.Errorf("--tz: %w", err)
			}
			cfg.ClientTimeZone = timeZone
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		logger, closer, err = newLogger(logFile, cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer != nil {
			_ = closer.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverAddr, "server", "", "calendar server address (default from AIZILY_CLIENT_SERVER_ADDR)")
	pf.StringVar(&userID, "user", "", "user id sent with every call (default from AIZILY_CLIENT_USER_ID)")
	pf.StringVar(&timeZone, "tz", "", "IANA time zone the grid is shown in (default from AIZILY_CLIENT_TIME_ZONE)")
	pf.StringVar(&dateFlag, "date", "", "day to open, YYYY-MM-DD (default today)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(tuiCmd, desktopCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger writes JSON logs to path. The grid owns the terminal, so with no
// path logs are dropped.
func newLogger(path, level string) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, opts)), nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewJSONHandler(f, opts)).With(slog.String("service", "aizily-grid"))
	return log, f, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startDate is the day to open: --date in the client zone, or today there.
func startDate(date, zone string, now time.Time) (time.Time, error) {
	if date == "" {
		loc, err := timegrid.LoadZone(zone)
		if err != nil {
			return time.Time{}, err
		}
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	return timegrid.ParseDate(date, zone)
}

func dial() (*client.Client, error) {
	if cfg.ClientUserID == "" {
		return nil, fmt.Errorf("no user id: pass --user or set AIZILY_CLIENT_USER_ID")
	}
	return client.Dial(cfg.ClientServerAddr, client.Options{
		UserID:      cfg.ClientUserID,
		CallTimeout: cfg.GRPCRequestTimeout,
		Retry:       cfg.RetryPolicy(),
		Log:         logger,
	})
}
