package flow_metrics

import "time"

// PeriodAll disables the period filter
const PeriodAll = "all"

var periodDays = map[string]int{
	"7d":  7,
	"14d": 14,
	"1m":  30,
	"3m":  90,
}

// Window is an inclusive time range
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowFor resolves a period code relative to now. Unknown codes and "all"
// report false, meaning no filter.
func WindowFor(code string, now time.Time) (Window, bool) {
	days, ok := periodDays[code]
	if !ok {
		return Window{}, false
	}
	return Window{
		Start: now.Add(-time.Duration(days) * 24 * time.Hour),
		End:   now,
	}, true
}

// IsKnownPeriod reports whether code selects a bounded window
func IsKnownPeriod(code string) bool {
	_, ok := periodDays[code]
	return ok
}
