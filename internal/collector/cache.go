package collector

import (
	"maps"
	"sync"
	"time"
)

// cache durations
const (
	ModelCacheDuration       = 24 * time.Hour
	FrequencyCacheDuration   = 30 * time.Second
	TemperatureCacheDuration = 5 * time.Second
)

// CPUTimes holds cumulative jiffies from one /proc/stat cpu line.
type CPUTimes struct {
	Total uint64
	Idle  uint64
}

// CPUCache holds CPU readings that are either slow to change or needed as the
// baseline for the next usage calculation.
type CPUCache struct {
	model     string
	modelTime time.Time

	frequency     float64
	frequencyTime time.Time

	temperature     float64
	temperatureTime time.Time

	previousStats map[string]CPUTimes
	previousTime  time.Time

	mutex sync.RWMutex
}

func NewCPUCache() *CPUCache {
	return &CPUCache{
		previousStats: make(map[string]CPUTimes),
	}
}

func (c *CPUCache) IsModelCacheValid() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.model != "" && time.Since(c.modelTime) < ModelCacheDuration
}

func (c *CPUCache) IsFrequencyCacheValid() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.frequency != 0 && time.Since(c.frequencyTime) < FrequencyCacheDuration
}

func (c *CPUCache) IsTemperatureCacheValid() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.temperature != 0 && time.Since(c.temperatureTime) < TemperatureCacheDuration
}

func (c *CPUCache) GetCachedModel() (string, float64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.model, c.frequency
}

func (c *CPUCache) SetCachedModel(model string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.model = model
	c.modelTime = time.Now()
}

func (c *CPUCache) SetCachedFrequency(frequency float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.frequency = frequency
	c.frequencyTime = time.Now()
}

func (c *CPUCache) GetCachedTemperature() float64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.temperature
}

func (c *CPUCache) SetCachedTemperature(temp float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.temperature = temp
	c.temperatureTime = time.Now()
}

// GetPreviousStats returns a copy of the last cpu readings.
func (c *CPUCache) GetPreviousStats() (map[string]CPUTimes, time.Time) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return maps.Clone(c.previousStats), c.previousTime
}

func (c *CPUCache) SetPreviousStats(stats map[string]CPUTimes) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.previousStats = stats
	c.previousTime = time.Now()
}
