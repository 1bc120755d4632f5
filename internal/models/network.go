package models

type NetworkStats struct {
	Interfaces []NetworkInterface `json:"interfaces"`
	TotalRx    uint64             `json:"total_rx"`
	TotalTx    uint64             `json:"total_tx"`
	// RxRate and TxRate are bytes per second since the previous sample.
	RxRate float64 `json:"rx_rate"`
	TxRate float64 `json:"tx_rate"`
}

type NetworkInterface struct {
	Name      string  `json:"name"`
	RxBytes   uint64  `json:"rx_bytes"`
	TxBytes   uint64  `json:"tx_bytes"`
	RxPackets uint64  `json:"rx_packets"`
	TxPackets uint64  `json:"tx_packets"`
	RxRate    float64 `json:"rx_rate"`
	TxRate    float64 `json:"tx_rate"`
	Status    string  `json:"status"`
	Speed     string  `json:"speed"`
}
