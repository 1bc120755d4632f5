package sparkline

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// blocks holds the eighth-height runes, lowest first.
var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const (
	gridRune      = '┈'
	gridColRune   = '┊'
	eighthsPerRow = 8
	verticalGrids = 6
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGrid
	cellFill
	cellLine
	cellHead
)

type cell struct {
	kind cellKind
	r    rune
}

// Render draws b into a width x height block of terminal cells. Oldest samples
// are on the left; the line only reaches the right edge once the buffer is full.
func Render(b *Buffer, s Style, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lo, hi := b.Range()

	labels, margin := axisLabels(hi, height, width, s.ShowLabels)
	plotW := width - margin

	levels, head := columnLevels(b, plotW, height*eighthsPerRow, lo, hi)

	rows := make([]string, height)
	for r := 0; r < height; r++ {
		var sb strings.Builder
		if margin > 0 {
			sb.WriteString(s.label().Render(fmt.Sprintf("%*s ", margin-1, labels[r])))
		}
		cells := make([]cell, plotW)
		for c := 0; c < plotW; c++ {
			cells[c] = cellAt(levels[c], r, c, height, plotW, c == head, s.ShowGrid)
		}
		writeRuns(&sb, cells, s)
		rows[r] = sb.String()
	}
	return strings.Join(rows, "\n")
}

// Inline draws the newest width samples as a single row of block runes.
func Inline(b *Buffer, s Style, width int) string {
	if width <= 0 {
		width = b.Capacity()
	}
	values := b.Values()
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := b.Range()

	runes := make([]rune, len(values))
	for i, v := range values {
		norm := 1 - MapY(v, lo, hi, 1)
		idx := int(math.Round(norm * float64(len(blocks)-1)))
		runes[i] = blocks[idx]
	}

	out := string(runes)
	if s.LineColor != "" {
		out = lipgloss.NewStyle().Foreground(s.LineColor).Render(out)
	}
	if pad := width - len(values); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// axisLabels returns one label per row (max at the top, half way in the middle,
// zero at the bottom) and the margin they need, or a zero margin when labels
// are off or would leave no room to plot.
func axisLabels(hi float64, height, width int, show bool) ([]string, int) {
	labels := make([]string, height)
	if !show {
		return labels, 0
	}
	labels[0] = formatLabel(hi)
	if height >= 3 {
		labels[height/2] = formatLabel(hi / 2)
	}
	if height >= 2 {
		labels[height-1] = "0"
	}
	margin := 0
	for _, l := range labels {
		margin = max(margin, len(l))
	}
	margin++
	if margin >= width {
		return make([]string, height), 0
	}
	return labels, margin
}

func formatLabel(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.0fG", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.0fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// columnLevels computes, for each plot column, the filled height in eighths of
// a cell, or -1 for columns past the newest sample. It also returns the column
// holding the newest sample.
func columnLevels(b *Buffer, plotW, totalH int, lo, hi float64) ([]int, int) {
	levels := make([]int, plotW)
	values := b.Values()
	if len(values) == 0 || plotW <= 0 {
		for i := range levels {
			levels[i] = -1
		}
		return levels, -1
	}

	span := float64(b.Capacity() - 1)
	last := float64(len(values) - 1)
	head := 0
	if plotW > 1 {
		head = int(math.Round(last * float64(plotW-1) / span))
	}

	for c := 0; c < plotW; c++ {
		t := 0.0
		if plotW > 1 {
			t = float64(c) * span / float64(plotW-1)
		}
		if t > last+1e-9 {
			levels[c] = -1
			continue
		}
		i0 := int(math.Floor(t))
		i1 := min(i0+1, len(values)-1)
		frac := t - float64(i0)
		v := values[i0] + (values[i1]-values[i0])*frac

		level := int(math.Round(float64(totalH) - MapY(v, lo, hi, float64(totalH))))
		levels[c] = max(level, 1)
	}
	return levels, head
}

func cellAt(level, row, col, height, plotW int, isHead, grid bool) cell {
	if level >= 0 {
		bottom := (height - 1 - row) * eighthsPerRow
		filled := level - bottom
		switch {
		case filled > eighthsPerRow:
			return cell{kind: cellFill, r: blocks[len(blocks)-1]}
		case filled > 0:
			kind := cellLine
			if isHead {
				kind = cellHead
			}
			return cell{kind: kind, r: blocks[filled-1]}
		}
	}
	if grid {
		if height >= 4 {
			for i := 1; i < 4; i++ {
				if row == height*i/4 {
					return cell{kind: cellGrid, r: gridRune}
				}
			}
		}
		if plotW >= verticalGrids*2 {
			for i := 1; i < verticalGrids; i++ {
				if col == plotW*i/verticalGrids {
					return cell{kind: cellGrid, r: gridColRune}
				}
			}
		}
	}
	return cell{kind: cellEmpty, r: ' '}
}

// writeRuns renders consecutive cells of the same kind with a single style
// so a row carries a handful of escape sequences rather than one per cell.
func writeRuns(sb *strings.Builder, cells []cell, s Style) {
	styles := map[cellKind]lipgloss.Style{
		cellEmpty: s.base(),
		cellGrid:  s.grid(),
		cellFill:  s.fill(),
		cellLine:  s.line(),
		cellHead:  s.line().Bold(true),
	}
	var run []rune
	kind := cellEmpty
	flush := func() {
		if len(run) > 0 {
			sb.WriteString(styles[kind].Render(string(run)))
			run = run[:0]
		}
	}
	for _, c := range cells {
		if c.kind != kind {
			flush()
			kind = c.kind
		}
		run = append(run, c.r)
	}
	flush()
}
