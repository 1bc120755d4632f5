package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prabalesh/perftop/internal/models"
)

type countingSource struct {
	n atomic.Int64
}

func (c *countingSource) GetSystemStats() models.SystemStats {
	n := c.n.Add(1)
	return models.SystemStats{CPU: models.CPUStats{Usage: float64(n)}}
}

func TestSampler_NotifiesInOrder(t *testing.T) {
	s := NewSampler(&countingSource{}, time.Second)

	var got []string
	s.Subscribe(func(models.SystemStats) { got = append(got, "a") })
	unsub := s.Subscribe(func(models.SystemStats) { got = append(got, "b") })
	s.Subscribe(func(models.SystemStats) { got = append(got, "c") })

	s.Sample()
	unsub()
	s.Sample()

	want := "abcac"
	var joined string
	for _, g := range got {
		joined += g
	}
	if joined != want {
		t.Errorf("notifications = %q, want %q", joined, want)
	}
}

func TestSampler_RunStopsOnCancel(t *testing.T) {
	src := &countingSource{}
	s := NewSampler(src, 5*time.Millisecond)

	seen := make(chan float64, 100)
	s.Subscribe(func(st models.SystemStats) {
		select {
		case seen <- st.CPU.Usage:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sample %d", i+1)
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
