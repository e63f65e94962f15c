package session

import "time"

// Session names a sub-daily time window used to bucket intraday extrema.
// StartHour is inclusive, EndHour exclusive, both in [0, 24). A window whose
// StartHour is greater than its EndHour wraps past midnight (19 -> 1 covers
// 19:00-23:59 plus 00:00-00:59).
type Session struct {
	Name      string
	StartHour int
	EndHour   int
}

// Defaults 返回参考配置的三个交易时段。
func Defaults() []Session {
	return []Session{
		{Name: "morning", StartHour: 4, EndHour: 8},
		{Name: "afternoon", StartHour: 12, EndHour: 15},
		{Name: "night", StartHour: 19, EndHour: 1},
	}
}

// Contains reports whether the given hour-of-day falls inside the window.
func (s Session) Contains(hour int) bool {
	if s.StartHour <= s.EndHour {
		return hour >= s.StartHour && hour < s.EndHour
	}
	return hour >= s.StartHour || hour < s.EndHour
}

// Classify returns the names of every session the timestamp falls into,
// judged purely by the hour-of-day component in the given location. Windows
// may overlap; a timestamp can match zero, one, or several sessions.
func Classify(t time.Time, sessions []Session, loc *time.Location) []string {
	hour := t.In(loc).Hour()
	var names []string
	for _, s := range sessions {
		if s.Contains(hour) {
			names = append(names, s.Name)
		}
	}
	return names
}
