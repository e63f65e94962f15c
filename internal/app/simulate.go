package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sessionwatch/internal/notify"
)

// SimulateAlert 将给定价格序列依次送入评估器, 模拟一次完整的告警流程。
// 规则来自配置; 通知走真实渠道, 未配置渠道时仅打印。
func (a *App) SimulateAlert(ctx context.Context, prices []float64) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}
	if len(a.Config.Alerting.Rules) == 0 {
		return errors.New("未配置任何告警规则")
	}

	store, eval, err := a.newAlerting()
	if err != nil {
		return err
	}
	notifier := a.newNotifier()
	a.Logger.Info().Int("rules", len(store.List())).Int("ticks", len(prices)).Msg("simulating alert flow")

	now := time.Now()
	total := 0
	for i, price := range prices {
		// Space the ticks out so a later price is not eaten by the
		// cooldown of an earlier one.
		at := now.Add(time.Duration(i) * time.Minute * 6)
		for _, fired := range eval.Evaluate(price, at) {
			total++
			event := notify.NewEvent(a.Config.Feed.Symbol, fired)
			if notifier == nil {
				fmt.Fprintf(os.Stdout, "tick %g: rule %s %s %g fired\n",
					price, fired.RuleID, fired.Direction, fired.Target)
				continue
			}
			if err := notifier.Notify(ctx, event); err != nil {
				return err
			}
		}
	}

	if total == 0 {
		fmt.Fprintln(os.Stdout, "no rules fired for the given prices")
	}
	return nil
}
