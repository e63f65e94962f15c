package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunFiresImmediatelyAndPeriodically(t *testing.T) {
	s := New(Options{Name: "test", Interval: 20 * time.Millisecond}, zerolog.Nop())

	var ticks atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, func(ctx context.Context, tick time.Time) error {
		ticks.Add(1)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("取消后应返回 ctx 错误, 实际 %v", err)
	}

	// One immediate tick plus several periodic ones.
	if got := ticks.Load(); got < 3 {
		t.Fatalf("150ms 内至少应触发 3 次, 实际 %d", got)
	}
}

func TestRunSurvivesTickErrors(t *testing.T) {
	s := New(Options{Name: "test", Interval: 10 * time.Millisecond}, zerolog.Nop())

	var ticks atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx, func(ctx context.Context, tick time.Time) error {
		ticks.Add(1)
		return errors.New("boom")
	})

	if got := ticks.Load(); got < 2 {
		t.Fatalf("tick 出错后循环应继续, 实际只执行 %d 次", got)
	}
}

func TestRunHonoursStartupDelay(t *testing.T) {
	s := New(Options{Name: "test", Interval: time.Hour, StartupDelay: 30 * time.Millisecond}, zerolog.Nop())

	var fired atomic.Bool
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx, func(ctx context.Context, tick time.Time) error {
		fired.Store(true)
		return nil
	})

	if fired.Load() {
		t.Fatal("启动延迟内不应触发 tick")
	}
}

func TestNewPanicsOnBadInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("非正 interval 应 panic")
		}
	}()
	New(Options{Name: "bad"}, zerolog.Nop())
}
