package collector

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/prabalesh/perftop/internal/models"
)

// Options points the collector at the kernel's pseudo filesystems. Tests use
// a temporary directory laid out like /proc and /sys.
type Options struct {
	ProcRoot string
	SysRoot  string
	Logger   *slog.Logger
}

// ioSample is a cumulative byte counter pair used to derive per-second rates.
type ioSample struct {
	read  uint64
	write uint64
}

type StatsCollector struct {
	procRoot string
	sysRoot  string
	logger   *slog.Logger

	bootTime time.Time
	host     models.HostInfo
	cpuCache *CPUCache

	// statfs reports total and available bytes for a mount point.
	statfs func(path string) (total, free uint64, err error)

	mu       sync.Mutex
	lastNet  map[string]ioSample
	lastDisk map[string]ioSample
	lastIOAt time.Time

	lastProc   map[int32]procSample
	lastProcAt time.Time
}

func NewStatsCollector(opts Options) *StatsCollector {
	if opts.ProcRoot == "" {
		opts.ProcRoot = "/proc"
	}
	if opts.SysRoot == "" {
		opts.SysRoot = "/sys"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &StatsCollector{
		procRoot: opts.ProcRoot,
		sysRoot:  opts.SysRoot,
		logger:   opts.Logger,
		cpuCache: NewCPUCache(),
		statfs:   statfs,
		lastNet:  make(map[string]ioSample),
		lastDisk: make(map[string]ioSample),
		lastProc: make(map[int32]procSample),
	}
	s.bootTime = s.getBootTime()
	s.host = s.getHostInfo()
	return s
}

func (s *StatsCollector) GetSystemStats() models.SystemStats {
	now := time.Now()

	s.mu.Lock()
	elapsed := now.Sub(s.lastIOAt).Seconds()
	if s.lastIOAt.IsZero() {
		elapsed = 0
	}
	network := s.getNetworkStats(elapsed)
	disks := s.getDiskStats(elapsed)
	s.lastIOAt = now
	s.mu.Unlock()

	return models.SystemStats{
		Timestamp: now,
		Host:      s.host,
		CPU:       s.getCPUStats(),
		Memory:    s.getMemoryStats(),
		Network:   network,
		Disk:      disks,
		Battery:   s.getBatteryStats(),
		Uptime:    now.Sub(s.bootTime),
	}
}

func (s *StatsCollector) procPath(parts ...string) string {
	return filepath.Join(append([]string{s.procRoot}, parts...)...)
}

func (s *StatsCollector) sysPath(parts ...string) string {
	return filepath.Join(append([]string{s.sysRoot}, parts...)...)
}

func (s *StatsCollector) getHostInfo() models.HostInfo {
	info, err := host.Info()
	if err != nil {
		s.logger.Warn("collector: host info unavailable", slog.String("error", err.Error()))
		return models.HostInfo{Hostname: "unknown"}
	}
	return models.HostInfo{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: info.Platform + " " + info.PlatformVersion,
		Kernel:   info.KernelVersion,
	}
}

// rate turns the growth of a cumulative counter into a per-second value.
// Counter resets (the new value is smaller) report zero.
func rate(cur, prev uint64, elapsed float64) float64 {
	if elapsed <= 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}
