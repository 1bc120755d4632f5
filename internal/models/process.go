package models

import "time"

type Process struct {
	PID        int32         `json:"pid"`
	Name       string        `json:"name"`
	Command    string        `json:"command"`
	CPUPercent float64       `json:"cpu_percent"`
	MemPercent float64       `json:"mem_percent"`
	MemRSS     uint64        `json:"mem_rss"`
	Threads    int32         `json:"threads"`
	Status     string        `json:"status"`
	User       string        `json:"user"`
	Runtime    time.Duration `json:"runtime"`
	// IORead and IOWrite are storage bytes per second since the previous
	// sample. They stay zero when the counters are not readable.
	IORead  float64 `json:"io_read"`
	IOWrite float64 `json:"io_write"`
}

type ProcessList struct {
	Processes []Process `json:"processes"`
	Total     int       `json:"total"`
	Running   int       `json:"running"`
	Sleeping  int       `json:"sleeping"`
	Zombie    int       `json:"zombie"`
}

// ProcessSort names the column a process list is ordered by.
type ProcessSort string

const (
	SortByCPU    ProcessSort = "cpu"
	SortByMemory ProcessSort = "mem"
	SortByPID    ProcessSort = "pid"
	SortByName   ProcessSort = "name"
)

// ProcessSorts lists the orderings in the order a view cycles through them.
var ProcessSorts = []ProcessSort{SortByCPU, SortByMemory, SortByPID, SortByName}
