package models

type DiskStats struct {
	Device       string  `json:"device"`
	Mountpoint   string  `json:"mountpoint"`
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	UsagePercent float64 `json:"usage_percent"`
	Filesystem   string  `json:"filesystem"`
	ReadBytes    uint64  `json:"read_bytes"`
	WriteBytes   uint64  `json:"write_bytes"`
	ReadOps      uint64  `json:"read_ops"`
	WriteOps     uint64  `json:"write_ops"`
	// ReadRate and WriteRate are bytes per second since the previous sample.
	ReadRate  float64 `json:"read_rate"`
	WriteRate float64 `json:"write_rate"`
}

// DiskIOTotals sums the per-second rates over every disk.
func DiskIOTotals(disks []DiskStats) (read, write float64) {
	for _, d := range disks {
		read += d.ReadRate
		write += d.WriteRate
	}
	return read, write
}
