package ui

import (
	"github.com/prabalesh/perftop/internal/models"
)

const mib = 1 << 20

// procGraph holds the detail graphs of one process.
type procGraph struct {
	name   string
	cpu    *series
	memory *series
	io     *series
}

func (p *procGraph) all() []*series { return []*series{p.cpu, p.memory, p.io} }

func (g *graphSet) newProcGraph(name string) *procGraph {
	return &procGraph{
		name:   name,
		cpu:    g.newSeries("CPU", primary, scalePercent, percent),
		memory: g.newSeries("Memory", fixed(coolLine), scaleSize, mebibytes),
		io:     g.newSeries("Disk I/O", fixed(warmLine), scaleSize, mebibytesPerSec),
	}
}

// pushProcesses appends one sample per listed process and forgets processes
// that left the list. A reused PID with a new name starts over.
func (g *graphSet) pushProcesses(list models.ProcessList) {
	if g.procs == nil {
		g.procs = make(map[int32]*procGraph, len(list.Processes))
	}
	seen := make(map[int32]bool, len(list.Processes))
	for _, p := range list.Processes {
		seen[p.PID] = true
		pg, ok := g.procs[p.PID]
		if !ok || pg.name != p.Name {
			pg = g.newProcGraph(p.Name)
			g.procs[p.PID] = pg
		}
		pg.cpu.buf.Append(p.CPUPercent)
		pg.memory.buf.Append(float64(p.MemRSS) / mib)
		pg.io.buf.Append((p.IORead + p.IOWrite) / mib)
	}
	for pid := range g.procs {
		if !seen[pid] {
			delete(g.procs, pid)
		}
	}
}

func (g *graphSet) process(pid int32) (*procGraph, bool) {
	pg, ok := g.procs[pid]
	return pg, ok
}
