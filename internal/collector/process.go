package collector

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/prabalesh/perftop/internal/models"
)

const maxCommandLen = 120

type procSample struct {
	cpuTotal float64 // user+system seconds
	io       ioSample
	hasIO    bool
}

// GetProcessList enumerates running processes ordered by sortBy. CPU
// percentages cover the time since the previous call; the first call reports
// each process's lifetime average.
func (s *StatsCollector) GetProcessList(sortBy models.ProcessSort) models.ProcessList {
	procs, err := process.Processes()
	if err != nil {
		s.logger.Warn("collector: list processes", "error", err)
		return models.ProcessList{}
	}

	now := time.Now()
	s.mu.Lock()
	prev := s.lastProc
	elapsed := now.Sub(s.lastProcAt).Seconds()
	if s.lastProcAt.IsZero() {
		elapsed = 0
	}
	s.mu.Unlock()

	samples := make(map[int32]procSample, len(procs))
	list := make([]models.Process, 0, len(procs))
	for _, p := range procs {
		proc, sample, ok := describeProcess(p, prev, elapsed, now)
		if !ok {
			continue
		}
		samples[p.Pid] = sample
		list = append(list, proc)
	}

	s.mu.Lock()
	s.lastProc = samples
	s.lastProcAt = now
	s.mu.Unlock()

	SortProcesses(list, sortBy)
	out := models.ProcessList{Processes: list, Total: len(list)}
	out.Running, out.Sleeping, out.Zombie = countStates(list)
	return out
}

func describeProcess(p *process.Process, prev map[int32]procSample, elapsed float64, now time.Time) (models.Process, procSample, bool) {
	name, err := p.Name()
	if err != nil {
		// exited between listing and inspection
		return models.Process{}, procSample{}, false
	}

	proc := models.Process{PID: p.Pid, Name: name, User: "unknown", Status: "?"}
	var sample procSample

	if times, err := p.Times(); err == nil {
		sample.cpuTotal = times.User + times.System
		if last, ok := prev[p.Pid]; ok && elapsed > 0 && sample.cpuTotal >= last.cpuTotal {
			proc.CPUPercent = (sample.cpuTotal - last.cpuTotal) / elapsed * 100
		} else if pct, err := p.CPUPercent(); err == nil {
			proc.CPUPercent = pct
		}
	}
	if counters, err := p.IOCounters(); err == nil && counters != nil {
		sample.io = ioSample{read: counters.ReadBytes, write: counters.WriteBytes}
		sample.hasIO = true
		if last, ok := prev[p.Pid]; ok && last.hasIO {
			proc.IORead = rate(sample.io.read, last.io.read, elapsed)
			proc.IOWrite = rate(sample.io.write, last.io.write, elapsed)
		}
	}
	if pct, err := p.MemoryPercent(); err == nil {
		proc.MemPercent = float64(pct)
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		proc.MemRSS = mem.RSS
	}
	if threads, err := p.NumThreads(); err == nil {
		proc.Threads = threads
	}
	if user, err := p.Username(); err == nil {
		proc.User = user
	}
	if status, err := p.Status(); err == nil && len(status) > 0 {
		proc.Status = status[0]
	}
	if created, err := p.CreateTime(); err == nil && created > 0 {
		proc.Runtime = now.Sub(time.UnixMilli(created)).Truncate(time.Second)
	}
	proc.Command = name
	if cmdline, err := p.Cmdline(); err == nil && strings.TrimSpace(cmdline) != "" {
		proc.Command = truncate(cmdline, maxCommandLen)
	}
	return proc, sample, true
}

// SortProcesses orders list in place. CPU and memory sort descending, PID and
// name ascending.
func SortProcesses(list []models.Process, sortBy models.ProcessSort) {
	slices.SortStableFunc(list, func(a, b models.Process) int {
		switch sortBy {
		case models.SortByMemory:
			return cmp.Or(cmp.Compare(b.MemPercent, a.MemPercent), cmp.Compare(a.PID, b.PID))
		case models.SortByPID:
			return cmp.Compare(a.PID, b.PID)
		case models.SortByName:
			return cmp.Or(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.PID, b.PID))
		default:
			return cmp.Or(cmp.Compare(b.CPUPercent, a.CPUPercent), cmp.Compare(a.PID, b.PID))
		}
	})
}

func countStates(list []models.Process) (running, sleeping, zombie int) {
	for _, p := range list {
		switch p.Status {
		case process.Running:
			running++
		case process.Sleep, process.Idle, process.Wait, process.Blocked:
			sleeping++
		case process.Zombie:
			zombie++
		}
	}
	return running, sleeping, zombie
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
