package collector

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func (s *StatsCollector) getBootTime() time.Time {
	content, err := os.ReadFile(s.procPath("stat"))
	if err != nil {
		return time.Now()
	}

	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 {
			if bootTime, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				return time.Unix(bootTime, 0)
			}
		}
	}
	return time.Now()
}
