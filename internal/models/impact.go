package models

import "time"

// ProcessImpact summarizes one process over a sliding window of samples.
type ProcessImpact struct {
	PID     int32         `json:"pid"`
	Name    string        `json:"name"`
	Samples int           `json:"samples"`
	Span    time.Duration `json:"span"`

	AvgCPU    float64 `json:"avg_cpu"`
	PeakCPU   float64 `json:"peak_cpu"`
	CPUSpikes int     `json:"cpu_spikes"`

	MemRSS     uint64 `json:"mem_rss"`
	PeakMemRSS uint64 `json:"peak_mem_rss"`
	// MemGrowth is the newest RSS minus the oldest in the window.
	MemGrowth int64 `json:"mem_growth"`

	AvgRead    float64 `json:"avg_read"`
	AvgWrite   float64 `json:"avg_write"`
	PeakRead   float64 `json:"peak_read"`
	PeakWrite  float64 `json:"peak_write"`
	ReadBytes  uint64  `json:"read_bytes"`
	WriteBytes uint64  `json:"write_bytes"`

	// DiskScore and Score run from 0 to 100.
	DiskScore float64 `json:"disk_score"`
	Score     float64 `json:"score"`
}

// ImpactSort names the figure an impact ranking is ordered by.
type ImpactSort string

const (
	ImpactByScore  ImpactSort = "score"
	ImpactByCPU    ImpactSort = "cpu"
	ImpactByMemory ImpactSort = "memory"
	ImpactByDisk   ImpactSort = "disk"
)

var ImpactSorts = []ImpactSort{ImpactByScore, ImpactByCPU, ImpactByMemory, ImpactByDisk}
