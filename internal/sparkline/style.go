package sparkline

import "github.com/charmbracelet/lipgloss"

// Style controls how a buffer is drawn.
type Style struct {
	LineColor       lipgloss.Color
	FillColor       lipgloss.Color // empty: faint LineColor
	BackgroundColor lipgloss.Color
	GridColor       lipgloss.Color

	ShowGrid   bool
	ShowLabels bool

	AutoScale bool
	MaxValue  float64
}

// DefaultStyle mirrors the look of the desktop graphs: dark background, dim
// grid, labels and grid on, fixed 0-100 scale.
func DefaultStyle(line lipgloss.Color) Style {
	return Style{
		LineColor:       line,
		BackgroundColor: lipgloss.Color("235"),
		GridColor:       lipgloss.Color("238"),
		ShowGrid:        true,
		ShowLabels:      true,
		MaxValue:        DefaultMax,
	}
}

// Apply pushes the scaling part of the style into b.
func (s Style) Apply(b *Buffer) {
	b.SetAutoScale(s.AutoScale)
	if s.MaxValue > 0 {
		b.SetMaxValue(s.MaxValue)
	}
}

func (s Style) base() lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.BackgroundColor != "" {
		st = st.Background(s.BackgroundColor)
	}
	return st
}

func (s Style) line() lipgloss.Style {
	return s.base().Foreground(s.LineColor)
}

func (s Style) fill() lipgloss.Style {
	if s.FillColor != "" {
		return s.base().Foreground(s.FillColor)
	}
	return s.base().Foreground(s.LineColor).Faint(true)
}

func (s Style) grid() lipgloss.Style {
	return s.base().Foreground(s.GridColor)
}

func (s Style) label() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
}
