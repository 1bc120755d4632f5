package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Point is one stored sample.
type Point struct {
	Time  time.Time `json:"timestamp"`
	Value float64   `json:"value"`
	Label string    `json:"label,omitempty"`
}

// Aggregate summarises the samples in one bucket.
type Aggregate struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Avg   float64   `json:"avg"`
	Count int       `json:"count"`
}

// labelFilter appends the label condition when label is set; an empty label
// matches every series of the metric.
func labelFilter(query string, args []any, label string) (string, []any) {
	if label == "" {
		return query, args
	}
	return query + " AND label = ?", append(args, label)
}

// Query returns samples of metric in [from, to], oldest first. When there are
// more than maxPoints they are averaged down to maxPoints.
func (s *Store) Query(metric Metric, from, to time.Time, label string, maxPoints int) ([]Point, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	q, args := labelFilter(
		`SELECT ts, value, label FROM metrics WHERE metric = ? AND ts >= ? AND ts <= ?`,
		[]any{string(metric), from.UnixMilli(), to.UnixMilli()}, label)
	rows, err := s.db.Query(q+" ORDER BY ts ASC, label ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("history: query %s: %w", metric, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var ts int64
		var p Point
		if err := rows.Scan(&ts, &p.Value, &p.Label); err != nil {
			return nil, fmt.Errorf("history: scan %s: %w", metric, err)
		}
		p.Time = time.UnixMilli(ts)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: query %s: %w", metric, err)
	}
	if maxPoints > 0 {
		points = Downsample(points, maxPoints)
	}
	return points, nil
}

// QueryRange is Query over a look-back window ending now.
func (s *Store) QueryRange(metric Metric, r TimeRange, label string, maxPoints int) ([]Point, error) {
	from, to := r.Bounds(s.now())
	return s.Query(metric, from, to, label, maxPoints)
}

// Downsample averages consecutive runs of points so at most target remain.
// Each output point takes the timestamp of the middle of its run.
func Downsample(points []Point, target int) []Point {
	if target <= 0 || len(points) <= target {
		return points
	}
	out := make([]Point, 0, target)
	step := float64(len(points)) / float64(target)
	for i := 0; i < target; i++ {
		start := int(float64(i) * step)
		end := min(int(float64(i+1)*step), len(points))
		if start >= end {
			continue
		}
		var sum float64
		for _, p := range points[start:end] {
			sum += p.Value
		}
		out = append(out, Point{
			Time:  points[(start+end)/2].Time,
			Value: sum / float64(end-start),
			Label: points[start].Label,
		})
	}
	return out
}

// Aggregate groups samples into buckets of the given width, aligned to the
// Unix epoch.
func (s *Store) Aggregate(metric Metric, from, to time.Time, bucket time.Duration, label string) ([]Aggregate, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("history: aggregate bucket must be positive, got %s", bucket)
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	width := bucket.Milliseconds()
	q, args := labelFilter(
		`SELECT (ts / ?) * ? AS bucket_start, MIN(value), MAX(value), AVG(value), COUNT(*)
         FROM metrics WHERE metric = ? AND ts >= ? AND ts <= ?`,
		[]any{width, width, string(metric), from.UnixMilli(), to.UnixMilli()}, label)
	rows, err := s.db.Query(q+" GROUP BY bucket_start ORDER BY bucket_start ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("history: aggregate %s: %w", metric, err)
	}
	defer rows.Close()

	var out []Aggregate
	for rows.Next() {
		var start int64
		var a Aggregate
		if err := rows.Scan(&start, &a.Min, &a.Max, &a.Avg, &a.Count); err != nil {
			return nil, fmt.Errorf("history: scan aggregate: %w", err)
		}
		a.Start = time.UnixMilli(start)
		a.End = a.Start.Add(bucket)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Labels lists the distinct labels recorded for metric, sorted.
func (s *Store) Labels(metric Metric) ([]string, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT DISTINCT label FROM metrics WHERE metric = ? ORDER BY label`, string(metric))
	if err != nil {
		return nil, fmt.Errorf("history: labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("history: labels: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// DataRange returns the oldest and newest sample times of metric. ok is false
// when nothing has been recorded.
func (s *Store) DataRange(metric Metric) (first, last time.Time, ok bool, err error) {
	if err := s.Flush(); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	var lo, hi sql.NullInt64
	err = s.db.QueryRow(`SELECT MIN(ts), MAX(ts) FROM metrics WHERE metric = ?`, string(metric)).Scan(&lo, &hi)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("history: data range: %w", err)
	}
	if !lo.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return time.UnixMilli(lo.Int64), time.UnixMilli(hi.Int64), true, nil
}
