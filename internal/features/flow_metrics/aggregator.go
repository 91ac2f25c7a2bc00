package flow_metrics

import (
	"math"
	"time"
)

const secondsPerDay = 86400

// CanonicalStageDeal is one deal's passage from a canonical stage's start to its end
type CanonicalStageDeal struct {
	DealID          int       `json:"dealId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	DurationSeconds int64     `json:"durationSeconds"`
}

// CalculatedMetrics values are days with two-decimal precision
type CalculatedMetrics struct {
	Average    float64 `json:"average"`
	Best       float64 `json:"best"`
	Worst      float64 `json:"worst"`
	TotalDeals int     `json:"totalDeals"`
}

// DealPerformance is a deal row annotated for table highlighting
type DealPerformance struct {
	CanonicalStageDeal
	PreciseDays float64 `json:"preciseDays"`
	DisplayDays int     `json:"displayDays"`
	IsBest      bool    `json:"isBest"`
	IsWorst     bool    `json:"isWorst"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PreciseDays converts seconds to days rounded to two decimals. Best and worst
// comparisons use this value.
func PreciseDays(seconds int64) float64 {
	return round2(float64(seconds) / secondsPerDay)
}

// DisplayDays rounds to the nearest whole day for cards
func DisplayDays(days float64) int {
	return int(math.Round(days))
}

// Eligible drops deals with negative durations and, for a known period, deals
// whose start date lies outside the window.
func Eligible(deals []CanonicalStageDeal, period string, now time.Time) []CanonicalStageDeal {
	window, filtered := WindowFor(period, now)

	out := make([]CanonicalStageDeal, 0, len(deals))
	for _, d := range deals {
		if d.DurationSeconds < 0 {
			continue
		}
		if filtered && !window.Contains(d.StartDate) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Aggregate filters deals by period and summarizes them
func Aggregate(deals []CanonicalStageDeal, period string, now time.Time) CalculatedMetrics {
	return Summarize(Eligible(deals, period, now))
}

// Summarize computes the statistics over deals without filtering
func Summarize(deals []CanonicalStageDeal) CalculatedMetrics {
	if len(deals) == 0 {
		return CalculatedMetrics{}
	}

	var sum float64
	best := math.Inf(1)
	worst := math.Inf(-1)
	for _, d := range deals {
		days := PreciseDays(d.DurationSeconds)
		sum += days
		best = math.Min(best, days)
		worst = math.Max(worst, days)
	}

	return CalculatedMetrics{
		Average:    round2(sum / float64(len(deals))),
		Best:       best,
		Worst:      worst,
		TotalDeals: len(deals),
	}
}

// Classify flags every deal tying for best or worst
func Classify(deals []CanonicalStageDeal, m CalculatedMetrics) []DealPerformance {
	rows := make([]DealPerformance, 0, len(deals))
	for _, d := range deals {
		days := PreciseDays(d.DurationSeconds)
		rows = append(rows, DealPerformance{
			CanonicalStageDeal: d,
			PreciseDays:        days,
			DisplayDays:        DisplayDays(days),
			IsBest:             m.TotalDeals > 0 && days == m.Best,
			IsWorst:            m.TotalDeals > 0 && days == m.Worst,
		})
	}
	return rows
}
