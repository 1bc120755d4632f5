package history

import (
	"errors"
	"strconv"

	"github.com/prabalesh/perftop/internal/models"
)

// RecordStats stores every metric derivable from one snapshot. It is shaped to
// be subscribed to a collector.Sampler.
func (s *Store) RecordStats(stats models.SystemStats) error {
	var errs []error
	rec := func(m Metric, v float64, label string) {
		if err := s.Record(m, v, label); err != nil {
			errs = append(errs, err)
		}
	}

	rec(CPUUsage, stats.CPU.Usage, "")
	if stats.CPU.Temp > 0 {
		rec(CPUTemperature, stats.CPU.Temp, "")
	}
	for i, core := range stats.CPU.Cores {
		rec(CPUCoreUsage, core, strconv.Itoa(i))
	}

	if stats.Memory.Total > 0 {
		rec(MemoryUsed, stats.Memory.UsagePercent, "")
		rec(MemoryAvailable, float64(stats.Memory.Available), "")
	}

	read, write := models.DiskIOTotals(stats.Disk)
	rec(DiskRead, read, "")
	rec(DiskWrite, write, "")
	rec(NetworkSend, stats.Network.TxRate, "")
	rec(NetworkReceive, stats.Network.RxRate, "")

	if stats.Battery.Present {
		rec(BatteryPercent, float64(stats.Battery.Level), "")
		rec(BatteryHealth, float64(stats.Battery.Health), "")
	}
	return errors.Join(errs...)
}
