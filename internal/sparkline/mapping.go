package sparkline

import "math"

// Point is a sample position on a drawing surface. The origin is the top-left
// corner, y grows downward.
type Point struct {
	X, Y  float64
	Value float64
}

// MapY converts v to a vertical coordinate on a surface of height h using the
// bounds lo and hi. The result is clamped to [0, h].
func MapY(v, lo, hi, h float64) float64 {
	if hi <= lo {
		return h
	}
	y := h - (v-lo)/(hi-lo)*h
	return math.Max(0, math.Min(h, y))
}

// StepX is the horizontal distance between consecutive samples. The full
// width is always divided by capacity-1 so a partly filled buffer draws a
// shorter line instead of a stretched one.
func (b *Buffer) StepX(w float64) float64 {
	return w / float64(len(b.data)-1)
}

// Points maps every sample onto a w x h surface, oldest on the left.
func (b *Buffer) Points(w, h float64) []Point {
	lo, hi := b.Range()
	step := b.StepX(w)
	values := b.Values()
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{
			X:     float64(i) * step,
			Y:     MapY(v, lo, hi, h),
			Value: v,
		}
	}
	return points
}
