package collector

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/prabalesh/perftop/internal/models"
)

const (
	DefaultImpactWindow     = 5 * time.Minute
	DefaultSpikeThreshold   = 50.0
	DefaultMaxTrackedImpact = 100
)

type ImpactOptions struct {
	// Window is how far back samples are kept.
	Window time.Duration
	// SpikeThreshold is the CPU percentage above which a sample is a spike.
	SpikeThreshold float64
	// MaxTracked caps the number of processes followed at once.
	MaxTracked int
}

type impactSample struct {
	at    time.Time
	cpu   float64
	rss   uint64
	read  float64
	write float64
}

type impactState struct {
	name    string
	samples []impactSample
}

// ImpactTracker keeps a sliding window of process samples and ranks processes
// by their resource use over it. It is safe for concurrent use.
type ImpactTracker struct {
	opts ImpactOptions

	mu    sync.Mutex
	procs map[int32]*impactState
}

func NewImpactTracker(opts ImpactOptions) *ImpactTracker {
	if opts.Window <= 0 {
		opts.Window = DefaultImpactWindow
	}
	if opts.SpikeThreshold <= 0 {
		opts.SpikeThreshold = DefaultSpikeThreshold
	}
	if opts.MaxTracked <= 0 {
		opts.MaxTracked = DefaultMaxTrackedImpact
	}
	return &ImpactTracker{opts: opts, procs: make(map[int32]*impactState)}
}

// Observe adds one process list taken at now. Processes missing from the list
// are forgotten. Processes already tracked keep their place; new ones are
// taken in list order while there is room.
func (t *ImpactTracker) Observe(list models.ProcessList, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[int32]bool, len(list.Processes))
	for _, p := range list.Processes {
		seen[p.PID] = true
	}
	for pid := range t.procs {
		if !seen[pid] {
			delete(t.procs, pid)
		}
	}

	cutoff := now.Add(-t.opts.Window)
	for _, p := range list.Processes {
		st, ok := t.procs[p.PID]
		if !ok {
			if len(t.procs) >= t.opts.MaxTracked {
				continue
			}
			st = &impactState{}
			t.procs[p.PID] = st
		}
		st.name = p.Name
		st.samples = append(st.samples, impactSample{
			at:    now,
			cpu:   p.CPUPercent,
			rss:   p.MemRSS,
			read:  p.IORead,
			write: p.IOWrite,
		})
		drop := 0
		for drop < len(st.samples) && st.samples[drop].at.Before(cutoff) {
			drop++
		}
		st.samples = slices.Delete(st.samples, 0, drop)
	}
}

// Impact returns the summary for pid.
func (t *ImpactTracker) Impact(pid int32) (models.ProcessImpact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.procs[pid]
	if !ok || len(st.samples) == 0 {
		return models.ProcessImpact{}, false
	}
	return summarize(pid, st, t.opts.SpikeThreshold), true
}

// Top returns up to n summaries ordered by sortBy, highest first. n <= 0
// returns all of them.
func (t *ImpactTracker) Top(sortBy models.ImpactSort, n int) []models.ProcessImpact {
	t.mu.Lock()
	out := make([]models.ProcessImpact, 0, len(t.procs))
	for pid, st := range t.procs {
		if len(st.samples) > 0 {
			out = append(out, summarize(pid, st, t.opts.SpikeThreshold))
		}
	}
	t.mu.Unlock()

	SortImpacts(out, sortBy)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ProcessSource lists running processes. StatsCollector is one.
type ProcessSource interface {
	GetProcessList(sortBy models.ProcessSort) models.ProcessList
}

// Run observes src immediately and then every interval until ctx is done,
// returning the context's error.
func (t *ImpactTracker) Run(ctx context.Context, src ProcessSource, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t.Observe(src.GetProcessList(models.SortByCPU), time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.Observe(src.GetProcessList(models.SortByCPU), now)
		}
	}
}

// Tracked reports how many processes are being followed.
func (t *ImpactTracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// SortImpacts orders list in place, highest first, ties by PID.
func SortImpacts(list []models.ProcessImpact, sortBy models.ImpactSort) {
	key := func(p models.ProcessImpact) float64 {
		switch sortBy {
		case models.ImpactByCPU:
			return p.AvgCPU
		case models.ImpactByMemory:
			return float64(p.MemRSS)
		case models.ImpactByDisk:
			return p.AvgRead + p.AvgWrite
		default:
			return p.Score
		}
	}
	slices.SortStableFunc(list, func(a, b models.ProcessImpact) int {
		return cmp.Or(cmp.Compare(key(b), key(a)), cmp.Compare(a.PID, b.PID))
	})
}

func summarize(pid int32, st *impactState, spike float64) models.ProcessImpact {
	first, last := st.samples[0], st.samples[len(st.samples)-1]
	imp := models.ProcessImpact{
		PID:       pid,
		Name:      st.name,
		Samples:   len(st.samples),
		Span:      last.at.Sub(first.at),
		MemRSS:    last.rss,
		MemGrowth: int64(last.rss) - int64(first.rss),
	}

	var cpu, read, write float64
	for i, s := range st.samples {
		cpu += s.cpu
		read += s.read
		write += s.write
		imp.PeakCPU = max(imp.PeakCPU, s.cpu)
		imp.PeakRead = max(imp.PeakRead, s.read)
		imp.PeakWrite = max(imp.PeakWrite, s.write)
		imp.PeakMemRSS = max(imp.PeakMemRSS, s.rss)
		if s.cpu > spike {
			imp.CPUSpikes++
		}
		if i > 0 {
			dt := s.at.Sub(st.samples[i-1].at).Seconds()
			imp.ReadBytes += uint64(s.read * dt)
			imp.WriteBytes += uint64(s.write * dt)
		}
	}
	n := float64(len(st.samples))
	imp.AvgCPU = cpu / n
	imp.AvgRead = read / n
	imp.AvgWrite = write / n

	imp.DiskScore, imp.Score = impactScores(imp)
	return imp
}

// impactScores rates disk traffic against 50 MiB/s and memory against 4 GiB
// as heavy; CPU is already a percentage.
func impactScores(imp models.ProcessImpact) (disk, overall float64) {
	const mib, gib = 1 << 20, 1 << 30
	disk = math.Min((imp.AvgRead+imp.AvgWrite)/mib*2, 100)
	mem := math.Min(float64(imp.MemRSS)/gib*25, 100)
	cpu := math.Min(imp.AvgCPU, 100)
	return disk, (cpu + mem + disk) / 3
}
