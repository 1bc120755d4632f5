package sparkline

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuffer_NeverExceedsCapacity(t *testing.T) {
	b := New(5)
	for i := 0; i < 50; i++ {
		b.Append(float64(i))
		if b.Len() > b.Capacity() {
			t.Fatalf("after %d appends Len() = %d, Capacity() = %d", i+1, b.Len(), b.Capacity())
		}
	}
}

func TestBuffer_KeepsLastCapacityValuesInOrder(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		extra    int
	}{
		{"one over", 4, 1},
		{"several over", 4, 7},
		{"wraps twice", 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.capacity)
			total := tt.capacity + tt.extra
			for i := 1; i <= total; i++ {
				b.Append(float64(i))
			}
			var want []float64
			for i := total - tt.capacity + 1; i <= total; i++ {
				want = append(want, float64(i))
			}
			if diff := cmp.Diff(want, b.Values()); diff != "" {
				t.Errorf("Values() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuffer_EvictsOldest(t *testing.T) {
	b := New(3)
	for _, v := range []float64{10, 20, 30, 40} {
		b.Append(v)
	}
	if diff := cmp.Diff([]float64{20, 30, 40}, b.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_ClearResetsRange(t *testing.T) {
	b := New(10, WithAutoScale(true))
	b.Append(500)
	b.Append(42)
	if _, hi := b.Range(); hi != 500 {
		t.Fatalf("Range() max = %v before clear, want 500", hi)
	}

	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", b.Len())
	}
	lo, hi := b.Range()
	if lo != 0 || hi != 100 {
		t.Errorf("Range() = (%v, %v) after Clear, want (0, 100)", lo, hi)
	}
}

func TestBuffer_AutoScaleUsesLargestSample(t *testing.T) {
	b := New(10, WithAutoScale(true))
	for _, v := range []float64{10, 50, 30} {
		b.Append(v)
	}
	lo, hi := b.Range()
	if lo != 0 || hi != 50 {
		t.Errorf("Range() = (%v, %v), want (0, 50)", lo, hi)
	}
}

func TestBuffer_AutoScaleEmptyFallsBackToDefault(t *testing.T) {
	b := New(10, WithAutoScale(true))
	lo, hi := b.Range()
	if lo != 0 || hi != 100 {
		t.Errorf("Range() = (%v, %v), want (0, 100)", lo, hi)
	}
}

func TestBuffer_AutoScaleAllZerosAvoidsEmptyRange(t *testing.T) {
	b := New(10, WithAutoScale(true))
	b.Append(0)
	b.Append(0)
	lo, hi := b.Range()
	if hi <= lo {
		t.Errorf("Range() = (%v, %v), want max > min", lo, hi)
	}
}

func TestBuffer_FixedMaxIgnoresContents(t *testing.T) {
	b := New(10, WithMaxValue(200))
	for _, v := range []float64{1, 999, 5000, 3} {
		b.Append(v)
		lo, hi := b.Range()
		if lo != 0 || hi != 200 {
			t.Fatalf("Range() = (%v, %v) after appending %v, want (0, 200)", lo, hi, v)
		}
	}
}

func TestBuffer_ToggleAutoScale(t *testing.T) {
	b := New(10, WithMaxValue(200))
	b.Append(40)

	b.SetAutoScale(true)
	if _, hi := b.Range(); hi != 40 {
		t.Errorf("auto-scale max = %v, want 40", hi)
	}

	b.SetAutoScale(false)
	if _, hi := b.Range(); hi != 200 {
		t.Errorf("fixed max = %v, want 200", hi)
	}
}

func TestBuffer_AutoScaleTracksEviction(t *testing.T) {
	b := New(2, WithAutoScale(true))
	b.Append(90)
	b.Append(10)
	b.Append(20)
	if _, hi := b.Range(); hi != 20 {
		t.Errorf("Range() max = %v after the peak was evicted, want 20", hi)
	}
}

func TestBuffer_Headroom(t *testing.T) {
	b := New(10, WithAutoScale(true), WithHeadroom(1.1, 10))
	b.Append(2)
	if _, hi := b.Range(); hi != 10 {
		t.Errorf("Range() max = %v, want floor 10", hi)
	}
	b.Append(100)
	if _, hi := b.Range(); math.Abs(hi-110) > 1e-9 {
		t.Errorf("Range() max = %v, want 110", hi)
	}
}

func TestBuffer_IgnoresNonFinite(t *testing.T) {
	b := New(5, WithAutoScale(true))
	b.Append(7)
	b.Append(math.NaN())
	b.Append(math.Inf(1))
	b.Append(math.Inf(-1))

	if diff := cmp.Diff([]float64{7}, b.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
	if _, hi := b.Range(); hi != 7 {
		t.Errorf("Range() max = %v, want 7", hi)
	}
}

func TestBuffer_SetCapacity(t *testing.T) {
	b := New(5)
	for i := 1; i <= 5; i++ {
		b.Append(float64(i))
	}

	b.SetCapacity(3)
	if diff := cmp.Diff([]float64{3, 4, 5}, b.Values()); diff != "" {
		t.Errorf("after shrink (-want +got):\n%s", diff)
	}

	b.SetCapacity(6)
	b.Append(6)
	b.Append(7)
	if diff := cmp.Diff([]float64{3, 4, 5, 6, 7}, b.Values()); diff != "" {
		t.Errorf("after grow (-want +got):\n%s", diff)
	}
	if b.Capacity() != 6 {
		t.Errorf("Capacity() = %d, want 6", b.Capacity())
	}

	b.SetCapacity(0)
	if b.Capacity() != 2 {
		t.Errorf("Capacity() = %d, want minimum 2", b.Capacity())
	}
	if diff := cmp.Diff([]float64{6, 7}, b.Values()); diff != "" {
		t.Errorf("after clamp (-want +got):\n%s", diff)
	}
}

func TestBuffer_Last(t *testing.T) {
	b := New(3)
	if _, ok := b.Last(); ok {
		t.Error("Last() on empty buffer reported ok")
	}
	for _, v := range []float64{1, 2, 3, 4} {
		b.Append(v)
	}
	if v, ok := b.Last(); !ok || v != 4 {
		t.Errorf("Last() = (%v, %v), want (4, true)", v, ok)
	}
}

func TestBuffer_SetHeadroom(t *testing.T) {
	b := New(4, WithAutoScale(true))
	b.Append(50)
	b.SetHeadroom(2, 0)
	if _, hi := b.Range(); hi != 100 {
		t.Errorf("Range() max = %v after SetHeadroom(2, 0), want 100", hi)
	}
	b.SetHeadroom(1, 80)
	if _, hi := b.Range(); hi != 80 {
		t.Errorf("Range() max = %v with floor 80, want 80", hi)
	}
}
