package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sessionwatch/internal/app"
)

var (
	exportMonth   int
	exportYear    int
	exportPNGPath string
	exportCSVPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one month of session aggregation as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportMonth < 0 || exportMonth > 12 {
			return fmt.Errorf("invalid --month value: %d", exportMonth)
		}
		if exportYear < 0 {
			return fmt.Errorf("invalid --year value: %d", exportYear)
		}

		opts := app.ExportOptions{
			Month:   time.Month(exportMonth),
			Year:    exportYear,
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportMonth, "month", 0, "Calendar month 1-12 (defaults to current)")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "Calendar year (defaults to current)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
