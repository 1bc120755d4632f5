// Package history persists sampled metrics in SQLite and answers range,
// aggregate and comparison queries over them.
package history

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownRange  = errors.New("unknown time range")
)

// Metric names a recorded series. Per-core and per-device series share a
// metric and differ by label.
type Metric string

const (
	CPUUsage        Metric = "cpu_usage"
	CPUTemperature  Metric = "cpu_temperature"
	CPUCoreUsage    Metric = "cpu_core_usage"
	MemoryUsed      Metric = "memory_used"
	MemoryAvailable Metric = "memory_available"
	DiskRead        Metric = "disk_read"
	DiskWrite       Metric = "disk_write"
	NetworkSend     Metric = "network_send"
	NetworkReceive  Metric = "network_receive"
	BatteryPercent  Metric = "battery_percent"
	BatteryHealth   Metric = "battery_health"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{
	CPUUsage, CPUTemperature, CPUCoreUsage,
	MemoryUsed, MemoryAvailable,
	DiskRead, DiskWrite,
	NetworkSend, NetworkReceive,
	BatteryPercent, BatteryHealth,
}

// Unit is the unit values of a metric are stored in.
type Unit string

const (
	UnitPercent     Unit = "%"
	UnitCelsius     Unit = "°C"
	UnitBytes       Unit = "B"
	UnitBytesPerSec Unit = "B/s"
)

func (m Metric) Unit() Unit {
	switch m {
	case CPUTemperature:
		return UnitCelsius
	case MemoryAvailable:
		return UnitBytes
	case DiskRead, DiskWrite, NetworkSend, NetworkReceive:
		return UnitBytesPerSec
	default:
		return UnitPercent
	}
}

func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// TimeRange is a look-back window ending now.
type TimeRange string

const (
	LastHour    TimeRange = "1h"
	Last6Hours  TimeRange = "6h"
	Last24Hours TimeRange = "24h"
	Last7Days   TimeRange = "7d"
	Last30Days  TimeRange = "30d"
)

var TimeRanges = []TimeRange{LastHour, Last6Hours, Last24Hours, Last7Days, Last30Days}

func (r TimeRange) Duration() time.Duration {
	switch r {
	case Last6Hours:
		return 6 * time.Hour
	case Last24Hours:
		return 24 * time.Hour
	case Last7Days:
		return 7 * 24 * time.Hour
	case Last30Days:
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// Bounds returns [now-d, now].
func (r TimeRange) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-r.Duration()), now
}

func ParseTimeRange(s string) (TimeRange, error) {
	for _, r := range TimeRanges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}
