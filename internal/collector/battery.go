package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prabalesh/perftop/internal/models"
)

func (s *StatsCollector) getBatteryStats() models.BatteryStats {
	batteryDirs, err := filepath.Glob(s.sysPath("class", "power_supply", "BAT*"))
	if err != nil || len(batteryDirs) == 0 {
		// desktop system
		return models.BatteryStats{
			Level:    100,
			Status:   "Not Available",
			TimeLeft: "N/A",
			Health:   100,
		}
	}

	batteryDir := batteryDirs[0]
	level := readInt(filepath.Join(batteryDir, "capacity"))
	status := readString(filepath.Join(batteryDir, "status"))
	isCharging := status == "Charging"

	return models.BatteryStats{
		Present:    true,
		Level:      level,
		Status:     status,
		TimeLeft:   batteryTimeLeft(batteryDir, isCharging),
		IsCharging: isCharging,
		Health:     batteryHealth(batteryDir),
	}
}

// batteryTimeLeft divides the remaining energy by the current draw. Not every
// driver reports power_now, in which case the estimate is unavailable.
func batteryTimeLeft(batteryDir string, charging bool) string {
	if charging {
		return "N/A"
	}
	energy := readInt(filepath.Join(batteryDir, "energy_now"))
	power := readInt(filepath.Join(batteryDir, "power_now"))
	if energy <= 0 || power <= 0 {
		return "N/A"
	}
	minutes := energy * 60 / power
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func batteryHealth(batteryDir string) int {
	energyFull := readInt(filepath.Join(batteryDir, "energy_full"))
	energyFullDesign := readInt(filepath.Join(batteryDir, "energy_full_design"))

	if energyFullDesign > 0 && energyFull > 0 {
		return min(energyFull*100/energyFullDesign, 100)
	}
	return 100
}

func readInt(path string) int {
	if content, err := os.ReadFile(path); err == nil {
		if val, err := strconv.Atoi(strings.TrimSpace(string(content))); err == nil {
			return val
		}
	}
	return 0
}

func readString(path string) string {
	if content, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(content))
	}
	return "Unknown"
}
