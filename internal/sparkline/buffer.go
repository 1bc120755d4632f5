// Package sparkline keeps short rolling histories of a single metric and turns
// them into small auto-scaled terminal charts.
package sparkline

import "math"

const (
	// DefaultCapacity is the number of samples kept when no capacity is given.
	DefaultCapacity = 60
	// DefaultMax is the upper bound used for a fixed scale and as the
	// fallback when an auto-scaled buffer has nothing to scale from.
	DefaultMax = 100.0

	minCapacity = 2
)

// Buffer is a fixed-capacity window of the most recent samples, oldest first.
// It is not safe for concurrent use; the owning view appends to it from its
// update loop.
type Buffer struct {
	data  []float64
	head  int // next write position
	count int

	autoScale bool
	maxValue  float64

	headroom float64
	floor    float64

	// cached auto-scale bounds, valid when !dirty
	dirty      bool
	currentMin float64
	currentMax float64
}

// Option configures a Buffer at construction time.
type Option func(*Buffer)

// WithAutoScale derives the range from the buffer contents.
func WithAutoScale(enabled bool) Option {
	return func(b *Buffer) { b.autoScale = enabled }
}

// WithMaxValue sets the fixed upper bound used when auto-scale is off.
func WithMaxValue(v float64) Option {
	return func(b *Buffer) {
		if v > 0 && !math.IsInf(v, 0) {
			b.maxValue = v
		}
	}
}

// WithHeadroom scales the auto-scaled maximum by factor and never lets it drop
// below floor. A factor of 1 and a floor of 0 leave the largest sample as the
// maximum.
func WithHeadroom(factor, floor float64) Option {
	return func(b *Buffer) {
		if factor >= 1 {
			b.headroom = factor
		}
		if floor >= 0 {
			b.floor = floor
		}
	}
}

// New returns an empty buffer holding at most capacity samples.
func New(capacity int, opts ...Option) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity < minCapacity {
		capacity = minCapacity
	}
	b := &Buffer{
		data:       make([]float64, capacity),
		maxValue:   DefaultMax,
		headroom:   1,
		currentMax: DefaultMax,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dirty = true
	return b
}

// Append adds v as the newest sample, evicting the oldest once the buffer is
// full. NaN and infinite values are dropped.
func (b *Buffer) Append(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
	if b.autoScale {
		b.dirty = true
	}
}

// Clear removes every sample and resets the cached range.
func (b *Buffer) Clear() {
	b.head = 0
	b.count = 0
	b.currentMin = 0
	b.currentMax = DefaultMax
	b.dirty = true
}

// SetCapacity resizes the window. Shrinking drops the oldest samples.
func (b *Buffer) SetCapacity(n int) {
	if n < minCapacity {
		n = minCapacity
	}
	if n == len(b.data) {
		return
	}
	values := b.Values()
	if len(values) > n {
		values = values[len(values)-n:]
	}
	b.data = make([]float64, n)
	copy(b.data, values)
	b.count = len(values)
	b.head = b.count % n
	b.dirty = true
}

// SetAutoScale switches between a content-derived and a fixed range.
func (b *Buffer) SetAutoScale(enabled bool) {
	b.autoScale = enabled
	b.dirty = true
}

// SetMaxValue sets the fixed upper bound. Non-positive values are ignored.
func (b *Buffer) SetMaxValue(v float64) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	b.maxValue = v
	b.dirty = true
}

// SetHeadroom changes the auto-scale headroom factor and floor; see WithHeadroom.
func (b *Buffer) SetHeadroom(factor, floor float64) {
	WithHeadroom(factor, floor)(b)
	b.dirty = true
}

// AutoScale reports whether the range follows the buffer contents.
func (b *Buffer) AutoScale() bool { return b.autoScale }

// MaxValue returns the fixed upper bound.
func (b *Buffer) MaxValue() float64 { return b.maxValue }

// Len returns the number of samples held.
func (b *Buffer) Len() int { return b.count }

// Capacity returns the maximum number of samples held.
func (b *Buffer) Capacity() int { return len(b.data) }

// Values returns the samples in chronological order (oldest first).
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.count)
	start := (b.head - b.count + len(b.data)) % len(b.data)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}

// Last returns the newest sample and false when the buffer is empty.
func (b *Buffer) Last() (float64, bool) {
	if b.count == 0 {
		return 0, false
	}
	return b.data[(b.head-1+len(b.data))%len(b.data)], true
}

// Range returns the bounds for the next render. The minimum is always 0.
// With auto-scale on the maximum is the largest sample (after headroom), or
// DefaultMax when there is nothing usable to scale from.
func (b *Buffer) Range() (float64, float64) {
	if !b.autoScale {
		return 0, b.maxValue
	}
	if b.dirty {
		b.rescale()
	}
	return b.currentMin, b.currentMax
}

func (b *Buffer) rescale() {
	b.dirty = false
	b.currentMin = 0
	if b.count == 0 {
		b.currentMax = DefaultMax
		return
	}
	largest := math.Inf(-1)
	for _, v := range b.Values() {
		largest = math.Max(largest, v)
	}
	largest = math.Max(largest*b.headroom, b.floor)
	if largest <= b.currentMin {
		largest = DefaultMax
	}
	b.currentMax = largest
}
