package collector

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/prabalesh/perftop/internal/models"
)

// getNetworkStats must be called with s.mu held.
func (s *StatsCollector) getNetworkStats(elapsed float64) models.NetworkStats {
	content, err := os.ReadFile(s.procPath("net", "dev"))
	if err != nil {
		return models.NetworkStats{}
	}

	lines := strings.Split(string(content), "\n")
	var stats models.NetworkStats
	seen := make(map[string]ioSample)

	for i, line := range lines {
		// two header lines
		if i < 2 {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// "eth0:123 ..." has no space after the colon on some kernels
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		parts := strings.Fields(rest)
		if len(parts) < 16 || name == "lo" {
			continue
		}

		rxBytes, _ := strconv.ParseUint(parts[0], 10, 64)
		rxPackets, _ := strconv.ParseUint(parts[1], 10, 64)
		txBytes, _ := strconv.ParseUint(parts[8], 10, 64)
		txPackets, _ := strconv.ParseUint(parts[9], 10, 64)

		prev, hadPrev := s.lastNet[name]
		iface := models.NetworkInterface{
			Name:      name,
			RxBytes:   rxBytes,
			TxBytes:   txBytes,
			RxPackets: rxPackets,
			TxPackets: txPackets,
			Status:    s.getInterfaceStatus(name),
			Speed:     s.getInterfaceSpeed(name),
		}
		if hadPrev {
			iface.RxRate = rate(rxBytes, prev.read, elapsed)
			iface.TxRate = rate(txBytes, prev.write, elapsed)
		}
		seen[name] = ioSample{read: rxBytes, write: txBytes}

		stats.Interfaces = append(stats.Interfaces, iface)
		stats.TotalRx += rxBytes
		stats.TotalTx += txBytes
		stats.RxRate += iface.RxRate
		stats.TxRate += iface.TxRate
	}

	s.lastNet = seen
	return stats
}

func (s *StatsCollector) getInterfaceStatus(name string) string {
	if content, err := os.ReadFile(s.sysPath("class", "net", name, "operstate")); err == nil {
		return strings.TrimSpace(string(content))
	}
	return "unknown"
}

func (s *StatsCollector) getInterfaceSpeed(name string) string {
	content, err := os.ReadFile(s.sysPath("class", "net", name, "speed"))
	if err != nil {
		return "unknown"
	}
	speed, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || speed <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d Mb/s", speed)
}
