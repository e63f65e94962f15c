package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulatePrices []float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一串价格并触发配置中的告警规则",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(simulatePrices) == 0 {
			return errors.New("--price 至少提供一个")
		}
		for _, p := range simulatePrices {
			if p <= 0 {
				return errors.New("--price 必须大于 0")
			}
		}

		return getApp().SimulateAlert(cmd.Context(), simulatePrices)
	},
}

func init() {
	simulateCmd.Flags().Float64SliceVar(&simulatePrices, "price", nil, "价格序列, 可重复指定")
}
