package collector

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/prabalesh/perftop/internal/models"
)

type fakeRoot struct {
	proc string
	sys  string
}

func newFakeRoot(t *testing.T) fakeRoot {
	t.Helper()
	dir := t.TempDir()
	return fakeRoot{proc: filepath.Join(dir, "proc"), sys: filepath.Join(dir, "sys")}
}

func (r fakeRoot) write(t *testing.T, base string, rel, content string) {
	t.Helper()
	path := filepath.Join(base, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (r fakeRoot) collector(t *testing.T) *StatsCollector {
	t.Helper()
	c := NewStatsCollector(Options{ProcRoot: r.proc, SysRoot: r.sys})
	c.statfs = func(string) (uint64, uint64, error) {
		return 1000, 250, nil
	}
	return c
}

func TestCPUUsage_FromDeltas(t *testing.T) {
	r := newFakeRoot(t)
	r.write(t, r.proc, "stat", "cpu  100 0 100 800 0 0 0 0\ncpu0 100 0 100 800 0 0 0 0\nbtime 1700000000\n")
	c := r.collector(t)

	usage, cores := c.getCPUUsage()
	if math.Abs(usage-20) > 1e-9 {
		t.Errorf("first usage = %v, want 20 (since boot)", usage)
	}
	if len(cores) != 1 {
		t.Fatalf("got %d cores, want 1", len(cores))
	}

	// +100 busy, +100 idle
	r.write(t, r.proc, "stat", "cpu  150 0 150 900 0 0 0 0\ncpu0 150 0 150 900 0 0 0 0\nbtime 1700000000\n")
	usage, _ = c.getCPUUsage()
	if math.Abs(usage-50) > 1e-9 {
		t.Errorf("second usage = %v, want 50", usage)
	}
}

func TestParseCPULine_CountsIOWaitAsIdle(t *testing.T) {
	name, times, ok := parseCPULine("cpu3 10 0 10 70 10 0 0")
	if !ok {
		t.Fatal("parseCPULine rejected a valid line")
	}
	if name != "cpu3" {
		t.Errorf("name = %q, want cpu3", name)
	}
	if diff := cmp.Diff(CPUTimes{Total: 100, Idle: 80}, times); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if _, _, ok := parseCPULine("cpu 1 2"); ok {
		t.Error("short line accepted")
	}
}

func TestBootTime(t *testing.T) {
	r := newFakeRoot(t)
	r.write(t, r.proc, "stat", "cpu 1 1 1 1\nbtime 1700000000\n")
	c := r.collector(t)
	if got := c.bootTime; !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("bootTime = %v", got)
	}
}

func TestMemoryStats(t *testing.T) {
	r := newFakeRoot(t)
	r.write(t, r.proc, "meminfo", `MemTotal:        1000 kB
MemFree:          200 kB
MemAvailable:     400 kB
Buffers:           50 kB
Cached:           100 kB
SwapTotal:        500 kB
SwapFree:         250 kB
`)
	got := r.collector(t).getMemoryStats()
	want := models.MemoryStats{
		Total:        1000 * 1024,
		Used:         600 * 1024,
		Free:         200 * 1024,
		Available:    400 * 1024,
		Cached:       150 * 1024,
		UsagePercent: 60,
		SwapTotal:    500 * 1024,
		SwapUsed:     250 * 1024,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("memory mismatch (-want +got):\n%s", diff)
	}
	if got.SwapPercent() != 50 {
		t.Errorf("SwapPercent() = %v, want 50", got.SwapPercent())
	}
}

func TestNetworkStats_Rates(t *testing.T) {
	r := newFakeRoot(t)
	const header = "Inter-|   Receive |  Transmit\n face |bytes packets errs drop fifo frame compressed multicast|bytes packets errs drop fifo colls carrier compressed\n"
	r.write(t, r.proc, "net/dev", header+
		"    lo: 999 9 0 0 0 0 0 0 999 9 0 0 0 0 0 0\n"+
		"  eth0: 1000 10 0 0 0 0 0 0 2000 20 0 0 0 0 0 0\n")
	r.write(t, r.sys, "class/net/eth0/operstate", "up\n")
	r.write(t, r.sys, "class/net/eth0/speed", "1000\n")
	c := r.collector(t)

	first := c.getNetworkStats(0)
	if len(first.Interfaces) != 1 {
		t.Fatalf("got %d interfaces, want 1 (loopback skipped)", len(first.Interfaces))
	}
	iface := first.Interfaces[0]
	if iface.Status != "up" || iface.Speed != "1000 Mb/s" {
		t.Errorf("status/speed = %q/%q", iface.Status, iface.Speed)
	}
	if first.RxRate != 0 || first.TxRate != 0 {
		t.Errorf("first sample rates = %v/%v, want 0", first.RxRate, first.TxRate)
	}

	r.write(t, r.proc, "net/dev", header+
		"  eth0:3000 30 0 0 0 0 0 0 6000 60 0 0 0 0 0 0\n")
	second := c.getNetworkStats(2)
	if second.RxRate != 1000 || second.TxRate != 2000 {
		t.Errorf("rates = %v/%v, want 1000/2000", second.RxRate, second.TxRate)
	}
	if second.TotalRx != 3000 || second.TotalTx != 6000 {
		t.Errorf("totals = %v/%v", second.TotalRx, second.TotalTx)
	}
}

func TestDiskStats(t *testing.T) {
	r := newFakeRoot(t)
	r.write(t, r.proc, "mounts", `/dev/sda1 / ext4 rw 0 0
tmpfs /tmp tmpfs rw 0 0
/dev/loop0 /snap/core squashfs ro 0 0
/dev/sda1 /var/bind ext4 rw 0 0
proc /proc proc rw 0 0
`)
	r.write(t, r.proc, "diskstats", "   8       0 sda 100 0 2000 0 50 0 4000 0 0 0 0\n")
	c := r.collector(t)

	disks := c.getDiskStats(0)
	if len(disks) != 1 {
		t.Fatalf("got %d disks, want 1: %+v", len(disks), disks)
	}
	d := disks[0]
	if d.Total != 1000 || d.Free != 250 || d.Used != 750 || d.UsagePercent != 75 {
		t.Errorf("usage = %+v", d)
	}
	if d.ReadBytes != 2000*sectorSize || d.WriteBytes != 4000*sectorSize {
		t.Errorf("counters = %d/%d, want whole-disk fallback", d.ReadBytes, d.WriteBytes)
	}

	r.write(t, r.proc, "diskstats", "   8       0 sda 100 0 2004 0 50 0 4008 0 0 0 0\n")
	d = c.getDiskStats(1)[0]
	if d.ReadRate != 4*sectorSize || d.WriteRate != 8*sectorSize {
		t.Errorf("rates = %v/%v", d.ReadRate, d.WriteRate)
	}
	read, write := models.DiskIOTotals([]models.DiskStats{d, d})
	if read != 2*d.ReadRate || write != 2*d.WriteRate {
		t.Errorf("DiskIOTotals = %v/%v", read, write)
	}
}

func TestDiskStats_StatfsFailureSkipsMount(t *testing.T) {
	r := newFakeRoot(t)
	r.write(t, r.proc, "mounts", "/dev/sdb1 /mnt ext4 rw 0 0\n")
	c := r.collector(t)
	c.statfs = func(string) (uint64, uint64, error) { return 0, 0, errors.New("boom") }

	if disks := c.getDiskStats(0); len(disks) != 0 {
		t.Errorf("got %d disks, want none", len(disks))
	}
}

func TestLookupDiskCounters(t *testing.T) {
	counters := map[string]diskCounters{
		"sda":     {readBytes: 1},
		"nvme0n1": {readBytes: 2},
		"mmcblk0": {readBytes: 3},
	}
	tests := []struct {
		device string
		want   uint64
		ok     bool
	}{
		{"/dev/sda3", 1, true},
		{"/dev/nvme0n1p2", 2, true},
		{"/dev/mmcblk0p1", 3, true},
		{"/dev/sdz1", 0, false},
	}
	for _, tt := range tests {
		got, ok := lookupDiskCounters(counters, tt.device)
		if ok != tt.ok || got.readBytes != tt.want {
			t.Errorf("lookupDiskCounters(%q) = (%d, %v), want (%d, %v)", tt.device, got.readBytes, ok, tt.want, tt.ok)
		}
	}
}

func TestBatteryStats(t *testing.T) {
	r := newFakeRoot(t)
	c := r.collector(t)
	if b := c.getBatteryStats(); b.Present {
		t.Errorf("battery reported present without a power supply: %+v", b)
	}

	r.write(t, r.sys, "class/power_supply/BAT0/capacity", "42\n")
	r.write(t, r.sys, "class/power_supply/BAT0/status", "Discharging\n")
	r.write(t, r.sys, "class/power_supply/BAT0/energy_now", "30000000\n")
	r.write(t, r.sys, "class/power_supply/BAT0/power_now", "10000000\n")
	r.write(t, r.sys, "class/power_supply/BAT0/energy_full", "45000000\n")
	r.write(t, r.sys, "class/power_supply/BAT0/energy_full_design", "50000000\n")

	want := models.BatteryStats{
		Present:  true,
		Level:    42,
		Status:   "Discharging",
		TimeLeft: "3h 0m",
		Health:   90,
	}
	if diff := cmp.Diff(want, c.getBatteryStats()); diff != "" {
		t.Errorf("battery mismatch (-want +got):\n%s", diff)
	}
}

func TestRate(t *testing.T) {
	if got := rate(300, 100, 2); got != 100 {
		t.Errorf("rate = %v, want 100", got)
	}
	if got := rate(50, 100, 1); got != 0 {
		t.Errorf("counter reset rate = %v, want 0", got)
	}
	if got := rate(300, 100, 0); got != 0 {
		t.Errorf("zero interval rate = %v, want 0", got)
	}
}

func TestGetSystemStats_MissingFilesDegrade(t *testing.T) {
	r := newFakeRoot(t)
	stats := r.collector(t).GetSystemStats()
	if stats.CPU.Usage != 0 || stats.Memory.Total != 0 || len(stats.Disk) != 0 {
		t.Errorf("expected zero values from an empty root, got %+v", stats)
	}
	if stats.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}
