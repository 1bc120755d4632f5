package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvTime keeps millisecond precision, which is what samples are stored at.
const csvTime = "2006-01-02T15:04:05.000Z07:00"

// ExportCSV writes every sample of metrics in [from, to] as
// timestamp,metric,label,value rows. No metrics means all of them.
func (s *Store) ExportCSV(w io.Writer, from, to time.Time, metrics []Metric) error {
	if len(metrics) == 0 {
		metrics = Metrics
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "metric", "label", "value"}); err != nil {
		return fmt.Errorf("history: export csv: %w", err)
	}
	for _, m := range metrics {
		points, err := s.Query(m, from, to, "", 0)
		if err != nil {
			return err
		}
		for _, p := range points {
			row := []string{
				p.Time.UTC().Format(csvTime),
				string(m),
				p.Label,
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("history: export csv: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("history: export csv: %w", err)
	}
	return nil
}

// Export is the JSON export document.
type Export struct {
	ExportedAt time.Time          `json:"exported_at"`
	From       time.Time          `json:"from"`
	To         time.Time          `json:"to"`
	Metrics    map[Metric][]Point `json:"metrics"`
}

// ExportJSON writes an Export document for metrics in [from, to]. No metrics
// means all of them.
func (s *Store) ExportJSON(w io.Writer, from, to time.Time, metrics []Metric) error {
	if len(metrics) == 0 {
		metrics = Metrics
	}
	doc := Export{
		ExportedAt: s.now().UTC(),
		From:       from.UTC(),
		To:         to.UTC(),
		Metrics:    make(map[Metric][]Point, len(metrics)),
	}
	for _, m := range metrics {
		points, err := s.Query(m, from, to, "", 0)
		if err != nil {
			return err
		}
		if points == nil {
			points = []Point{}
		}
		doc.Metrics[m] = points
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("history: export json: %w", err)
	}
	return nil
}
