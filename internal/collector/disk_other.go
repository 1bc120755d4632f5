//go:build !linux && !darwin

package collector

import "github.com/shirou/gopsutil/v3/disk"

func statfs(path string) (uint64, uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return usage.Total, usage.Free, nil
}
