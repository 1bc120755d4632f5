package collector

import (
	"os"
	"strconv"
	"strings"

	"github.com/prabalesh/perftop/internal/models"
)

func (s *StatsCollector) getCPUStats() models.CPUStats {
	model, frequency := s.getCPUInfo()
	temp := s.getCPUTemperature()
	usage, cores := s.getCPUUsage()

	return models.CPUStats{
		Usage:     usage,
		Cores:     cores,
		Frequency: frequency,
		Temp:      temp,
		Model:     model,
	}
}

func (s *StatsCollector) getCPUInfo() (string, float64) {
	if s.cpuCache.IsModelCacheValid() && s.cpuCache.IsFrequencyCacheValid() {
		return s.cpuCache.GetCachedModel()
	}

	content, err := os.ReadFile(s.procPath("cpuinfo"))
	if err != nil {
		return "Unknown CPU", 0
	}

	modelName := "Unknown CPU"
	freq := 0.0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "model name") {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				modelName = strings.TrimSpace(parts[1])
			}
		} else if strings.HasPrefix(line, "cpu MHz") {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				if f, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
					freq = f
				}
			}
		}
		if modelName != "Unknown CPU" && freq != 0.0 {
			break
		}
	}

	s.cpuCache.SetCachedModel(modelName)
	s.cpuCache.SetCachedFrequency(freq)
	return modelName, freq
}

func (s *StatsCollector) getCPUTemperature() float64 {
	if s.cpuCache.IsTemperatureCacheValid() {
		return s.cpuCache.GetCachedTemperature()
	}

	tempPaths := []string{
		s.sysPath("class", "thermal", "thermal_zone0", "temp"),
		s.sysPath("class", "hwmon", "hwmon0", "temp1_input"),
		s.sysPath("class", "hwmon", "hwmon1", "temp1_input"),
	}

	for _, path := range tempPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		temp, err := strconv.ParseFloat(strings.TrimSpace(string(content)), 64)
		if err != nil {
			continue
		}
		// sysfs reports millidegrees
		if temp > 1000 {
			temp /= 1000.0
		}
		s.cpuCache.SetCachedTemperature(temp)
		return temp
	}
	return 0
}

// getCPUUsage reports utilisation since the previous call. The first call has
// nothing to diff against and reports the average since boot.
func (s *StatsCollector) getCPUUsage() (float64, []float64) {
	content, err := os.ReadFile(s.procPath("stat"))
	if err != nil {
		return 0, nil
	}

	previous, _ := s.cpuCache.GetPreviousStats()
	current := make(map[string]CPUTimes)

	var overallUsage float64
	var coreUsages []float64

	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		name, times, ok := parseCPULine(line)
		if !ok {
			continue
		}
		current[name] = times
		usage := times.usageSince(previous[name])
		if name == "cpu" {
			overallUsage = usage
		} else {
			coreUsages = append(coreUsages, usage)
		}
	}

	s.cpuCache.SetPreviousStats(current)
	return overallUsage, coreUsages
}

// parseCPULine reads the user, nice, system, idle, iowait, irq and softirq
// columns of a /proc/stat cpu line.
func parseCPULine(line string) (string, CPUTimes, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return "", CPUTimes{}, false
	}

	var t CPUTimes
	for i := 1; i < len(fields) && i < 8; i++ {
		val, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return "", CPUTimes{}, false
		}
		t.Total += val
		// idle and iowait
		if i == 4 || i == 5 {
			t.Idle += val
		}
	}
	return fields[0], t, true
}

func (t CPUTimes) usageSince(prev CPUTimes) float64 {
	total := t.Total
	idle := t.Idle
	if prev.Total > 0 && t.Total > prev.Total && t.Idle >= prev.Idle {
		total -= prev.Total
		idle -= prev.Idle
	}
	if total == 0 {
		return 0
	}
	busy := float64(total-min(idle, total)) / float64(total) * 100
	return busy
}
