package collector

import (
	"context"
	"sync"
	"time"

	"github.com/prabalesh/perftop/internal/models"
)

// Source produces one system snapshot per call.
type Source interface {
	GetSystemStats() models.SystemStats
}

// Observer receives every snapshot taken by a Sampler.
type Observer func(models.SystemStats)

// Sampler polls a Source on a fixed interval and hands each snapshot to its
// observers in subscription order.
type Sampler struct {
	source   Source
	interval time.Duration

	mu        sync.Mutex
	nextID    int
	observers map[int]Observer
	order     []int
}

func NewSampler(source Source, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sampler{
		source:    source,
		interval:  interval,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Sampler) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Sample takes a single snapshot and notifies every observer.
func (s *Sampler) Sample() models.SystemStats {
	stats := s.source.GetSystemStats()

	s.mu.Lock()
	fns := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.observers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(stats)
	}
	return stats
}

// Run samples immediately and then on every tick until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sample()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sample()
		}
	}
}
