package flow_metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func secondsDeals(start time.Time, seconds ...int64) []CanonicalStageDeal {
	out := make([]CanonicalStageDeal, 0, len(seconds))
	for i, s := range seconds {
		out = append(out, CanonicalStageDeal{
			DealID:          i + 1,
			StartDate:       start,
			EndDate:         start.Add(time.Duration(s) * time.Second),
			DurationSeconds: s,
		})
	}
	return out
}

func TestPreciseAndDisplayDays(t *testing.T) {
	assert.Equal(t, 4.05, PreciseDays(349899))
	assert.Equal(t, 1.77, PreciseDays(152622))
	assert.Equal(t, 3.0, PreciseDays(259200))

	assert.Equal(t, 4, DisplayDays(4.05))
	assert.Equal(t, 2, DisplayDays(1.77))
	assert.Equal(t, 3, DisplayDays(2.5))
}

func TestAggregate_Scenario1(t *testing.T) {
	deals := secondsDeals(now.Add(-time.Hour), 259200, 1036800, 3888000)

	m := Aggregate(deals, PeriodAll, now)

	assert.Equal(t, 20.0, m.Average)
	assert.Equal(t, 20, DisplayDays(m.Average))
	assert.Equal(t, 3.0, m.Best)
	assert.Equal(t, 45.0, m.Worst)
	assert.Equal(t, 3, m.TotalDeals)
}

func TestAggregate_Scenario2(t *testing.T) {
	var days []float64
	for i := 0; i < 8; i++ {
		days = append(days, 4)
	}
	for i := 0; i < 6; i++ {
		days = append(days, 6)
	}
	days = append(days, 7, 7)

	m := Aggregate(dealsWithDays(now.Add(-time.Hour), days...), "", now)

	assert.InDelta(t, 5.125, m.Average, 0.01)
	assert.Equal(t, 5, DisplayDays(m.Average))
	assert.Equal(t, 4.0, m.Best)
	assert.Equal(t, 7.0, m.Worst)
	assert.Equal(t, 16, m.TotalDeals)
}

func TestAggregate_Scenario3(t *testing.T) {
	m := Aggregate(secondsDeals(now.Add(-time.Hour), 349899, 152622), PeriodAll, now)

	assert.Equal(t, 2.91, m.Average)
	assert.Equal(t, 3, DisplayDays(m.Average))
	assert.Equal(t, 2, DisplayDays(m.Best))
	assert.Equal(t, 4, DisplayDays(m.Worst))
	assert.Equal(t, 2, m.TotalDeals)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, CalculatedMetrics{}, Aggregate(nil, "7d", now))
	assert.Equal(t, CalculatedMetrics{}, Aggregate([]CanonicalStageDeal{}, PeriodAll, now))
}

func TestAggregate_BestAverageWorstBounds(t *testing.T) {
	sets := [][]int64{
		{1},
		{86399, 86401},
		{349899, 152622, 7, 999999},
		{100, 100, 100},
		{3888000, 259200, 1036800, 1, 2, 3},
	}
	for _, seconds := range sets {
		m := Aggregate(secondsDeals(now.Add(-time.Hour), seconds...), PeriodAll, now)
		require.Equal(t, len(seconds), m.TotalDeals)
		assert.LessOrEqual(t, m.Best, m.Average+0.01)
		assert.LessOrEqual(t, m.Average, m.Worst+0.01)
	}
}

func TestClassify_AllTiesFlagged(t *testing.T) {
	// 86400 and 86401 both round to 1.00 precise days
	deals := secondsDeals(now.Add(-time.Hour), 86400, 86401, 432000, 432000, 200000)
	m := Summarize(deals)

	rows := Classify(deals, m)
	require.Len(t, rows, 5)

	assert.True(t, rows[0].IsBest)
	assert.True(t, rows[1].IsBest)
	assert.True(t, rows[2].IsWorst)
	assert.True(t, rows[3].IsWorst)
	assert.False(t, rows[4].IsBest)
	assert.False(t, rows[4].IsWorst)
}

func TestClassify_UsesPreciseNotDisplayDays(t *testing.T) {
	// 1.6 and 2.4 days both display as 2 but only the shorter is best
	deals := secondsDeals(now.Add(-time.Hour), 138240, 207360)
	m := Summarize(deals)

	rows := Classify(deals, m)
	assert.Equal(t, rows[0].DisplayDays, rows[1].DisplayDays)
	assert.True(t, rows[0].IsBest)
	assert.False(t, rows[1].IsBest)
	assert.True(t, rows[1].IsWorst)
}

func TestClassify_SingleDealIsBestAndWorst(t *testing.T) {
	deals := secondsDeals(now, 3600)
	rows := Classify(deals, Summarize(deals))
	assert.True(t, rows[0].IsBest)
	assert.True(t, rows[0].IsWorst)
}

func TestAggregate_PeriodExcludesOutsideWindow(t *testing.T) {
	inside := CanonicalStageDeal{DealID: 1, StartDate: now.AddDate(0, 0, -3), DurationSeconds: 86400}
	onEdge := CanonicalStageDeal{DealID: 2, StartDate: now.AddDate(0, 0, -7), DurationSeconds: 172800}
	outside := CanonicalStageDeal{DealID: 3, StartDate: now.AddDate(0, 0, -8), DurationSeconds: 864000}
	deals := []CanonicalStageDeal{inside, onEdge, outside}

	week := Aggregate(deals, "7d", now)
	assert.Equal(t, 2, week.TotalDeals)
	assert.Equal(t, 2.0, week.Worst)

	all := Aggregate(deals, PeriodAll, now)
	assert.Equal(t, 3, all.TotalDeals)
	assert.Equal(t, 10.0, all.Worst)

	unknown := Aggregate(deals, "fortnight", now)
	assert.Equal(t, 3, unknown.TotalDeals)
}

func TestAggregate_PeriodFiltersOnStartDate(t *testing.T) {
	// started long ago, finished yesterday
	deal := CanonicalStageDeal{
		DealID:          1,
		StartDate:       now.AddDate(0, 0, -40),
		EndDate:         now.AddDate(0, 0, -1),
		DurationSeconds: 39 * secondsPerDay,
	}

	assert.Equal(t, 0, Aggregate([]CanonicalStageDeal{deal}, "1m", now).TotalDeals)
	assert.Equal(t, 1, Aggregate([]CanonicalStageDeal{deal}, "3m", now).TotalDeals)
}

func TestAggregate_ExcludesNegativeDurations(t *testing.T) {
	deals := secondsDeals(now.Add(-time.Hour), 86400, -3600, 172800)

	m := Aggregate(deals, PeriodAll, now)
	assert.Equal(t, 2, m.TotalDeals)
	assert.Equal(t, 1.0, m.Best)
	assert.Equal(t, 1.5, m.Average)
}
