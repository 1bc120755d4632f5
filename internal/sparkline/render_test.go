package sparkline

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestMapY_Bounds(t *testing.T) {
	const h = 40.0
	if y := MapY(100, 0, 100, h); y != 0 {
		t.Errorf("max maps to y = %v, want 0", y)
	}
	if y := MapY(0, 0, 100, h); y != h {
		t.Errorf("min maps to y = %v, want %v", y, h)
	}
	if y := MapY(250, 0, 100, h); y != 0 {
		t.Errorf("value above max maps to y = %v, want clamp to 0", y)
	}
	if y := MapY(-5, 0, 100, h); y != h {
		t.Errorf("value below min maps to y = %v, want clamp to %v", y, h)
	}
	if y := MapY(5, 10, 10, h); y != h {
		t.Errorf("empty range maps to y = %v, want %v", y, h)
	}
}

func TestMapY_Monotonic(t *testing.T) {
	prev := MapY(0, 0, 100, 20)
	for v := 1.0; v <= 100; v++ {
		y := MapY(v, 0, 100, 20)
		if y > prev {
			t.Fatalf("MapY(%v) = %v is below MapY(%v) = %v", v, y, v-1, prev)
		}
		prev = y
	}
}

func TestPoints_SpreadOverCapacity(t *testing.T) {
	b := New(5)
	b.Append(0)
	b.Append(50)
	b.Append(100)

	points := b.Points(100, 10)
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	wantX := []float64{0, 25, 50}
	wantY := []float64{10, 5, 0}
	for i, p := range points {
		if p.X != wantX[i] || p.Y != wantY[i] {
			t.Errorf("points[%d] = (%v, %v), want (%v, %v)", i, p.X, p.Y, wantX[i], wantY[i])
		}
	}
}

func TestRender_Dimensions(t *testing.T) {
	b := New(10, WithAutoScale(true))
	for _, v := range []float64{5, 20, 15, 40, 30} {
		b.Append(v)
	}

	out := Render(b, DefaultStyle("39"), 30, 6)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d rows, want 6", len(lines))
	}
	for i, l := range lines {
		if w := ansi.StringWidth(l); w != 30 {
			t.Errorf("row %d width = %d, want 30: %q", i, w, ansi.Strip(l))
		}
	}
}

func TestRender_Labels(t *testing.T) {
	b := New(10, WithAutoScale(true))
	b.Append(80)

	s := DefaultStyle("39")
	s.AutoScale = true
	lines := strings.Split(ansi.Strip(Render(b, s, 20, 5)), "\n")

	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "80") {
		t.Errorf("top label = %q, want 80", lines[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[2]), "40") {
		t.Errorf("middle label = %q, want 40", lines[2])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[4]), "0") {
		t.Errorf("bottom label = %q, want 0", lines[4])
	}
}

func TestRender_PartialBufferStopsMidWidth(t *testing.T) {
	b := New(10, WithMaxValue(100))
	for i := 0; i < 5; i++ {
		b.Append(100)
	}
	s := DefaultStyle("39")
	s.ShowLabels = false
	s.ShowGrid = false

	top := []rune(ansi.Strip(strings.Split(Render(b, s, 19, 2), "\n")[0]))
	if top[0] != '█' {
		t.Errorf("first column = %q, want full block", top[0])
	}
	if top[len(top)-1] != ' ' {
		t.Errorf("last column = %q, want empty for a half-filled buffer", top[len(top)-1])
	}
}

func TestRender_EmptyBufferDrawsGridOnly(t *testing.T) {
	b := New(10)
	out := ansi.Strip(Render(b, DefaultStyle("39"), 24, 4))
	if strings.ContainsAny(out, string(blocks)) {
		t.Errorf("empty buffer rendered data blocks:\n%s", out)
	}
	if !strings.ContainsRune(out, gridRune) {
		t.Errorf("expected grid rows in:\n%s", out)
	}
}

func TestRender_ZeroSize(t *testing.T) {
	if out := Render(New(10), DefaultStyle("39"), 0, 5); out != "" {
		t.Errorf("zero width rendered %q", out)
	}
}

func TestInline_Ascending(t *testing.T) {
	b := New(8, WithAutoScale(true))
	for i := 1; i <= 8; i++ {
		b.Append(float64(i * 10))
	}

	runes := []rune(ansi.Strip(Inline(b, Style{}, 8)))
	if len(runes) != 8 {
		t.Fatalf("got %d runes, want 8", len(runes))
	}
	for i := 1; i < len(runes); i++ {
		if runes[i] < runes[i-1] {
			t.Errorf("rune %d (%c) lower than rune %d (%c)", i, runes[i], i-1, runes[i-1])
		}
	}
	if runes[len(runes)-1] != blocks[len(blocks)-1] {
		t.Errorf("max sample drawn as %c, want full block", runes[len(runes)-1])
	}
}

func TestInline_PadsShortBuffer(t *testing.T) {
	b := New(8)
	b.Append(50)
	out := ansi.Strip(Inline(b, Style{}, 6))
	if len([]rune(out)) != 6 {
		t.Errorf("width = %d, want 6: %q", len([]rune(out)), out)
	}
	if !strings.HasSuffix(out, "     ") {
		t.Errorf("expected trailing padding, got %q", out)
	}
}
