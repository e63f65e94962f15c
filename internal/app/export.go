package app

import (
	"context"
	"errors"
	"os"
	"time"

	"sessionwatch/internal/aggregate"
	"sessionwatch/internal/market"
	"sessionwatch/internal/service"
	"sessionwatch/internal/session"
)

// Export fetches one calendar month of hourly futures candles and renders
// the session aggregation as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	loc := a.Config.Location()
	now := time.Now().In(loc)

	year := opts.Year
	if year == 0 {
		year = now.Year()
	}
	month := opts.Month
	if month == 0 {
		month = now.Month()
	}

	anchor := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if anchor.After(now) {
		return errors.New("export month is in the future")
	}
	probe := anchor.AddDate(0, 1, 0).Add(-time.Millisecond)
	if probe.After(now) {
		probe = now
	}
	start, end := service.MonthRange(probe)

	_, futures := a.newSources()
	query := market.KlineQuery{
		Symbol:    a.Config.Feed.Symbol,
		Interval:  "1h",
		StartTime: start,
		EndTime:   end,
		Limit:     1000,
	}
	candles, err := futures.FetchKlines(ctx, query)
	if err != nil {
		return err
	}

	sessions := a.sessionWindows()
	buckets := aggregate.Aggregate(candles, sessions, loc)
	if len(buckets) == 0 {
		a.Logger.Info().Msg("no candles found for export window")
		return nil
	}

	a.Logger.Info().
		Str("month", anchor.Format("2006-01")).
		Int("days", len(buckets)).
		Msg("exporting session aggregation")

	if opts.CSVPath != "" {
		if err := writeBucketsCSV(opts.CSVPath, buckets, sessions); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := aggregate.WriteChartPNG(opts.PNGPath, buckets); err != nil {
			return err
		}
	}

	return nil
}

func writeBucketsCSV(path string, buckets []aggregate.DayBucket, sessions []session.Session) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return aggregate.WriteCSV(file, buckets, sessions)
}
