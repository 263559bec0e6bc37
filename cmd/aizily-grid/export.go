package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aizily/backend/internal/export"
	"aizily/backend/internal/timegrid"
)

const (
	defaultExportDays = 30
	maxExportDays     = 366
)

var (
	exportTo   string
	exportDays int
	exportOut  string
	exportName string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write appointments and recurring occurrences as an iCalendar file",
	Long: `Write appointments and recurring occurrences as an iCalendar (.ics) file.

The range starts at --date (default today) and runs through --to, or for
--days days when --to is not given. Both ends are whole days in --tz.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportTo, "to", "", "last day to include, YYYY-MM-DD")
	f.IntVar(&exportDays, "days", defaultExportDays, "number of days to include when --to is not given")
	f.StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&exportName, "name", "aizily", "calendar name")
}

// exportWindow is the half-open range [from, to+1d) covering whole days.
func exportWindow(from time.Time, to string, days int, zone string) (time.Time, time.Time, error) {
	if to == "" {
		if days < 1 || days > maxExportDays {
			return time.Time{}, time.Time{}, fmt.Errorf("--days must be between 1 and %d", maxExportDays)
		}
		return from, from.AddDate(0, 0, days), nil
	}
	last, err := timegrid.ParseDate(to, zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before the start day", to)
	}
	end := last.AddDate(0, 0, 1)
	if end.After(from.AddDate(0, 0, maxExportDays)) {
		return time.Time{}, time.Time{}, fmt.Errorf("range is longer than %d days", maxExportDays)
	}
	return from, end, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	date, err := startDate(dateFlag, cfg.ClientTimeZone, time.Now())
	if err != nil {
		return err
	}
	from, to, err := exportWindow(date, exportTo, exportDays, cfg.ClientTimeZone)
	if err != nil {
		return err
	}

	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.ExportEntries(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error {
		return export.Write(w, exportName, entries, time.Now())
	}
	if exportOut == "-" {
		err = write(cmd.OutOrStdout())
	} else {
		err = writeFile(exportOut, write)
	}
	if err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	logger.Info("exported calendar",
		slog.Int("entries", len(entries)),
		slog.String("from", from.Format(timegrid.DateLayout)),
		slog.String("to", to.Format(timegrid.DateLayout)),
	)
	return nil
}

// writeFile creates path and runs write on it. A failed close is returned
// like a failed write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
