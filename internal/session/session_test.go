package session

import (
	"testing"
	"time"
)

func TestContainsPlainWindow(t *testing.T) {
	s := Session{Name: "morning", StartHour: 4, EndHour: 8}

	cases := []struct {
		hour int
		want bool
	}{
		{3, false},
		{4, true},
		{7, true},
		{8, false},
		{23, false},
	}
	for _, c := range cases {
		if got := s.Contains(c.hour); got != c.want {
			t.Errorf("hour=%d: 期望 %v, 实际 %v", c.hour, c.want, got)
		}
	}
}

func TestContainsWrappingWindow(t *testing.T) {
	s := Session{Name: "night", StartHour: 19, EndHour: 1}

	cases := []struct {
		hour int
		want bool
	}{
		{18, false},
		{19, true},
		{23, true},
		{0, true},
		{1, false},
		{2, false},
	}
	for _, c := range cases {
		if got := s.Contains(c.hour); got != c.want {
			t.Errorf("hour=%d: 期望 %v, 实际 %v", c.hour, c.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	sessions := Defaults()

	at := func(hour, minute int) time.Time {
		return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
	}

	if got := Classify(at(23, 30), sessions, time.UTC); len(got) != 1 || got[0] != "night" {
		t.Fatalf("23:30 应归入 night, 实际 %v", got)
	}
	if got := Classify(at(2, 0), sessions, time.UTC); len(got) != 0 {
		t.Fatalf("02:00 不应归入任何时段, 实际 %v", got)
	}
	if got := Classify(at(5, 0), sessions, time.UTC); len(got) != 1 || got[0] != "morning" {
		t.Fatalf("05:00 应归入 morning, 实际 %v", got)
	}
}

func TestClassifyOverlappingWindows(t *testing.T) {
	sessions := []Session{
		{Name: "early", StartHour: 4, EndHour: 10},
		{Name: "mid", StartHour: 8, EndHour: 14},
	}

	got := Classify(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), sessions, time.UTC)
	if len(got) != 2 {
		t.Fatalf("重叠窗口下 09:00 应同时命中两个时段, 实际 %v", got)
	}
}

func TestClassifyUsesLocation(t *testing.T) {
	sessions := Defaults()

	// 20:00 UTC is 05:00 the next day in UTC+9.
	tokyo := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

	if got := Classify(ts, sessions, tokyo); len(got) != 1 || got[0] != "morning" {
		t.Fatalf("UTC+9 下 20:00 UTC 应归入 morning, 实际 %v", got)
	}
}
