package history

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

type PeriodStats struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Avg   float64   `json:"avg"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Count int       `json:"count"`
}

// Comparison contrasts two periods of one series. Differences are
// second minus first.
type Comparison struct {
	Metric         Metric      `json:"metric"`
	Label          string      `json:"label,omitempty"`
	First          PeriodStats `json:"first"`
	Second         PeriodStats `json:"second"`
	AvgDiff        float64     `json:"avg_diff"`
	AvgDiffPercent float64     `json:"avg_diff_percent"`
}

// Compare computes statistics for two periods. The first period is half-open,
// [firstStart, firstEnd), so a sample on the shared boundary only counts in
// the second. The percentage is zero when the first period's average is
// (nearly) zero.
func (s *Store) Compare(metric Metric, firstStart, firstEnd, secondStart, secondEnd time.Time, label string) (Comparison, error) {
	if err := s.Flush(); err != nil {
		return Comparison{}, err
	}
	first, err := s.periodStats(metric, firstStart, firstEnd, label, false)
	if err != nil {
		return Comparison{}, err
	}
	second, err := s.periodStats(metric, secondStart, secondEnd, label, true)
	if err != nil {
		return Comparison{}, err
	}

	c := Comparison{
		Metric:  metric,
		Label:   label,
		First:   first,
		Second:  second,
		AvgDiff: second.Avg - first.Avg,
	}
	if math.Abs(first.Avg) > 0.0001 {
		c.AvgDiffPercent = c.AvgDiff / first.Avg * 100
	}
	return c, nil
}

// CompareTodayWithYesterday compares yesterday (midnight to midnight) with
// today so far, in local time.
func (s *Store) CompareTodayWithYesterday(metric Metric, label string) (Comparison, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	return s.Compare(metric, yesterday, today, today, now, label)
}

// CompareThisWeekWithLastWeek compares last week with this week so far. Weeks
// start on Monday.
func (s *Store) CompareThisWeekWithLastWeek(metric Metric, label string) (Comparison, error) {
	now := s.now()
	offset := (int(now.Weekday()) + 6) % 7
	thisWeek := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, now.Location())
	lastWeek := thisWeek.AddDate(0, 0, -7)
	return s.Compare(metric, lastWeek, thisWeek, thisWeek, now, label)
}

func (s *Store) periodStats(metric Metric, start, end time.Time, label string, inclusive bool) (PeriodStats, error) {
	upper := "ts < ?"
	if inclusive {
		upper = "ts <= ?"
	}
	q, args := labelFilter(
		`SELECT AVG(value), MIN(value), MAX(value), COUNT(*) FROM metrics WHERE metric = ? AND ts >= ? AND `+upper,
		[]any{string(metric), start.UnixMilli(), end.UnixMilli()}, label)

	var avg, lo, hi sql.NullFloat64
	st := PeriodStats{Start: start, End: end}
	if err := s.db.QueryRow(q, args...).Scan(&avg, &lo, &hi, &st.Count); err != nil {
		return PeriodStats{}, fmt.Errorf("history: period stats: %w", err)
	}
	st.Avg, st.Min, st.Max = avg.Float64, lo.Float64, hi.Float64
	return st, nil
}
