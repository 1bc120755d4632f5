package collector

import (
	"os"
	"strconv"
	"strings"

	"github.com/prabalesh/perftop/internal/models"
)

func (s *StatsCollector) getMemoryStats() models.MemoryStats {
	content, err := os.ReadFile(s.procPath("meminfo"))
	if err != nil {
		return models.MemoryStats{}
	}

	memInfo := make(map[string]uint64)
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		if value, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
			memInfo[key] = value * 1024 // kB
		}
	}

	total := memInfo["MemTotal"]
	available := memInfo["MemAvailable"]
	var used uint64
	if total > available {
		used = total - available
	}

	var usagePercent float64
	if total > 0 {
		usagePercent = float64(used) / float64(total) * 100
	}

	var swapUsed uint64
	if memInfo["SwapTotal"] > memInfo["SwapFree"] {
		swapUsed = memInfo["SwapTotal"] - memInfo["SwapFree"]
	}

	return models.MemoryStats{
		Total:        total,
		Used:         used,
		Free:         memInfo["MemFree"],
		Available:    available,
		Cached:       memInfo["Cached"] + memInfo["Buffers"],
		UsagePercent: usagePercent,
		SwapTotal:    memInfo["SwapTotal"],
		SwapUsed:     swapUsed,
	}
}
