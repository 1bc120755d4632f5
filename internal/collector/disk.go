package collector

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prabalesh/perftop/internal/models"
)

const sectorSize = 512

type diskCounters struct {
	readBytes, writeBytes uint64
	readOps, writeOps     uint64
}

// getDiskStats must be called with s.mu held.
func (s *StatsCollector) getDiskStats(elapsed float64) []models.DiskStats {
	content, err := os.ReadFile(s.procPath("mounts"))
	if err != nil {
		return nil
	}

	counters := s.readDiskCounters()
	seen := make(map[string]ioSample)
	mounted := make(map[string]bool)
	var diskStats []models.DiskStats

	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		device, mountpoint, filesystem := fields[0], fields[1], fields[2]

		if !strings.HasPrefix(device, "/dev") ||
			strings.Contains(device, "loop") ||
			filesystem == "tmpfs" ||
			mounted[device] {
			continue
		}

		total, free, err := s.statfs(mountpoint)
		if err != nil {
			s.logger.Debug("collector: statfs failed", "mount", mountpoint, "error", err)
			continue
		}
		mounted[device] = true
		used := total - min(free, total)

		var usagePercent float64
		if total > 0 {
			usagePercent = float64(used) / float64(total) * 100
		}

		d := models.DiskStats{
			Device:       device,
			Mountpoint:   mountpoint,
			Total:        total,
			Used:         used,
			Free:         free,
			UsagePercent: usagePercent,
			Filesystem:   filesystem,
		}
		if io, ok := lookupDiskCounters(counters, device); ok {
			d.ReadBytes, d.WriteBytes = io.readBytes, io.writeBytes
			d.ReadOps, d.WriteOps = io.readOps, io.writeOps
			if prev, ok := s.lastDisk[device]; ok {
				d.ReadRate = rate(io.readBytes, prev.read, elapsed)
				d.WriteRate = rate(io.writeBytes, prev.write, elapsed)
			}
			seen[device] = ioSample{read: io.readBytes, write: io.writeBytes}
		}
		diskStats = append(diskStats, d)
	}

	s.lastDisk = seen
	return diskStats
}

func (s *StatsCollector) readDiskCounters() map[string]diskCounters {
	content, err := os.ReadFile(s.procPath("diskstats"))
	if err != nil {
		return nil
	}

	counters := make(map[string]diskCounters)
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		readOps, _ := strconv.ParseUint(fields[3], 10, 64)
		readSectors, _ := strconv.ParseUint(fields[5], 10, 64)
		writeOps, _ := strconv.ParseUint(fields[7], 10, 64)
		writeSectors, _ := strconv.ParseUint(fields[9], 10, 64)

		counters[fields[2]] = diskCounters{
			readBytes:  readSectors * sectorSize,
			writeBytes: writeSectors * sectorSize,
			readOps:    readOps,
			writeOps:   writeOps,
		}
	}
	return counters
}

// lookupDiskCounters finds the partition's own line, falling back to the whole
// disk (sda1 -> sda, nvme0n1p2 -> nvme0n1).
func lookupDiskCounters(counters map[string]diskCounters, device string) (diskCounters, bool) {
	name := filepath.Base(device)
	if c, ok := counters[name]; ok {
		return c, true
	}
	parent := strings.TrimRight(name, "0123456789")
	if strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "mmcblk") {
		parent = strings.TrimSuffix(parent, "p")
	}
	c, ok := counters[parent]
	return c, ok
}
