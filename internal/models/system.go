package models

import "time"

type SystemStats struct {
	Timestamp time.Time     `json:"timestamp"`
	Host      HostInfo      `json:"host"`
	CPU       CPUStats      `json:"cpu"`
	Memory    MemoryStats   `json:"memory"`
	Network   NetworkStats  `json:"network"`
	Disk      []DiskStats   `json:"disk"`
	Battery   BatteryStats  `json:"battery"`
	Uptime    time.Duration `json:"uptime"`
}

type HostInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Platform string `json:"platform"`
	Kernel   string `json:"kernel"`
}

type CPUStats struct {
	Usage     float64   `json:"usage"`
	Cores     []float64 `json:"cores"`
	Frequency float64   `json:"frequency"`
	Temp      float64   `json:"temperature"`
	Model     string    `json:"model"`
}

type MemoryStats struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	Available    uint64  `json:"available"`
	Cached       uint64  `json:"cached"`
	UsagePercent float64 `json:"usage_percent"`
	SwapTotal    uint64  `json:"swap_total"`
	SwapUsed     uint64  `json:"swap_used"`
}

// SwapPercent is zero when there is no swap configured.
func (m MemoryStats) SwapPercent() float64 {
	if m.SwapTotal == 0 {
		return 0
	}
	return float64(m.SwapUsed) / float64(m.SwapTotal) * 100
}

type BatteryStats struct {
	Present    bool   `json:"present"`
	Level      int    `json:"level"`
	Status     string `json:"status"`
	TimeLeft   string `json:"time_left"`
	IsCharging bool   `json:"is_charging"`
	Health     int    `json:"health"`
}
