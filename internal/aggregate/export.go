package aggregate

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"sessionwatch/internal/session"
)

// WriteCSV serialises buckets as flat rows. The column order (date, weekday,
// per-session high/low in configured session order, daily high/low) is fixed
// for downstream consumers and must not change.
func WriteCSV(w io.Writer, buckets []DayBucket, sessions []session.Session) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Date", "Day"}
	for _, s := range sessions {
		header = append(header, titleCase(s.Name)+" High", titleCase(s.Name)+" Low")
	}
	header = append(header, "Daily High", "Daily Low")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, bucket := range buckets {
		record := []string{bucket.Date.Format("2006-01-02"), bucket.Weekday}
		for _, s := range sessions {
			r := bucket.Sessions[s.Name]
			record = append(record, formatPrice(r.High), formatPrice(r.Low))
		}
		record = append(record, formatPrice(bucket.Daily.High), formatPrice(bucket.Daily.Low))
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// WriteChartPNG renders the daily high/low series as a PNG chart.
func WriteChartPNG(path string, buckets []DayBucket) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	// Buckets arrive newest first; the x axis wants ascending time.
	x := make([]time.Time, len(buckets))
	highs := make([]float64, len(buckets))
	lows := make([]float64, len(buckets))
	for i, bucket := range buckets {
		j := len(buckets) - 1 - i
		x[j] = bucket.Date
		highs[j] = bucket.Daily.High
		lows[j] = bucket.Daily.Low
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Daily High",
				XValues: x,
				YValues: highs,
			},
			chart.TimeSeries{
				Name:    "Daily Low",
				XValues: x,
				YValues: lows,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
