package app

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"sessionwatch/internal/aggregate"
	"sessionwatch/internal/market"
	"sessionwatch/internal/session"
)

// Show 一次性抓取最近 K 线并打印分时段高低点表格。
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	spot, _ := a.newSources()

	limit := opts.Limit
	if limit <= 0 {
		limit = a.Config.Feed.Limit
	}

	query := market.KlineQuery{
		Symbol:   a.Config.Feed.Symbol,
		Interval: a.Config.Feed.Interval,
		Limit:    limit,
	}
	candles, err := spot.FetchKlines(ctx, query)
	if err != nil {
		return err
	}

	sessions := a.sessionWindows()
	buckets := aggregate.Aggregate(candles, sessions, a.Config.Location())
	if len(buckets) == 0 {
		fmt.Fprintln(os.Stdout, "no candles returned")
		return nil
	}

	ticker, err := spot.FetchTicker(ctx, a.Config.Feed.Symbol)
	if err == nil {
		fmt.Fprintf(os.Stdout, "%s  last %s  (%s%% 24h)\n\n",
			a.Config.Feed.Symbol, ticker.LastPrice.String(), ticker.PriceChangePercent.StringFixed(2))
	}

	renderBucketTable(buckets, sessions)
	return nil
}

func (a *App) sessionWindows() []session.Session {
	windows := make([]session.Session, 0, len(a.Config.Sessions))
	for _, s := range a.Config.Sessions {
		windows = append(windows, session.Session{Name: s.Name, StartHour: s.StartHour, EndHour: s.EndHour})
	}
	if len(windows) == 0 {
		windows = session.Defaults()
	}
	return windows
}

func renderBucketTable(buckets []aggregate.DayBucket, sessions []session.Session) {
	header := []string{"Date", "Day"}
	for _, s := range sessions {
		header = append(header, s.Name+" H", s.Name+" L")
	}
	header = append(header, "Daily H", "Daily L")

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader(header),
	)

	for _, bucket := range buckets {
		row := []string{bucket.Date.Format("2006-01-02"), bucket.Weekday}
		for _, s := range sessions {
			r := bucket.Sessions[s.Name]
			row = append(row, formatCell(r.High), formatCell(r.Low))
		}
		row = append(row, formatCell(bucket.Daily.High), formatCell(bucket.Daily.Low))
		table.Append(row)
	}

	table.Render()
}

// formatCell renders zero extrema as a dash: no candle fell in the window.
func formatCell(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
