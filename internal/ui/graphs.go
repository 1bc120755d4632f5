package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/prabalesh/perftop/internal/config"
	"github.com/prabalesh/perftop/internal/models"
	"github.com/prabalesh/perftop/internal/sparkline"
)

// Rate and size graphs never use a fixed scale: there is no natural maximum
// for bytes. Their floor keeps an idle series from looking busy.
const (
	rateHeadroom = 1.1
	rateFloor    = 1024
	sizeFloor    = 1
)

// scaleKind selects how a buffer's range is computed.
type scaleKind int

const (
	// scalePercent follows the configured max value and auto-scale switch.
	scalePercent scaleKind = iota
	// scaleRate always auto-scales bytes per second.
	scaleRate
	// scaleSize always auto-scales values already expressed in MiB.
	scaleSize
)

// series is one sparkline with its title, color and value formatting.
type series struct {
	title  string
	buf    *sparkline.Buffer
	color  lipgloss.Color
	shade  shade
	scale  scaleKind
	format func(float64) string
}

// shade picks a series color from the sparkline config.
type shade func(config.SparklineConfig) lipgloss.Color

func primary(cfg config.SparklineConfig) lipgloss.Color { return lipgloss.Color(cfg.LineColor) }

func secondary(cfg config.SparklineConfig) lipgloss.Color {
	if cfg.SecondaryColor == "" {
		return secondaryLine
	}
	return lipgloss.Color(cfg.SecondaryColor)
}

func fixed(c lipgloss.Color) shade {
	return func(config.SparklineConfig) lipgloss.Color { return c }
}

func percent(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func bytesPerSec(v float64) string {
	if v < 0 {
		v = 0
	}
	return humanize.IBytes(uint64(v)) + "/s"
}

func mebibytes(v float64) string { return fmt.Sprintf("%.1f MiB", v) }

func mebibytesPerSec(v float64) string { return fmt.Sprintf("%.2f MiB/s", v) }

// graphSet owns every rolling buffer shown by the TUI. Buffers are only
// touched from the bubbletea update loop.
type graphSet struct {
	cfg config.SparklineConfig

	cpu       *series
	memory    *series
	swap      *series
	netRx     *series
	netTx     *series
	diskRead  *series
	diskWrite *series
	battery   *series

	cores []*sparkline.Buffer
	procs map[int32]*procGraph
}

func newGraphSet(cfg config.SparklineConfig) *graphSet {
	g := &graphSet{cfg: cfg}
	g.cpu = g.newSeries("CPU", primary, scalePercent, percent)
	g.memory = g.newSeries("Memory", primary, scalePercent, percent)
	g.swap = g.newSeries("Swap", secondary, scalePercent, percent)
	g.netRx = g.newSeries("Receive", primary, scaleRate, bytesPerSec)
	g.netTx = g.newSeries("Send", secondary, scaleRate, bytesPerSec)
	g.diskRead = g.newSeries("Read", primary, scaleRate, bytesPerSec)
	g.diskWrite = g.newSeries("Write", secondary, scaleRate, bytesPerSec)
	g.battery = g.newSeries("Battery", fixed(batteryLine), scalePercent, percent)
	return g
}

func (g *graphSet) newSeries(title string, sh shade, scale scaleKind, format func(float64) string) *series {
	s := &series{
		title:  title,
		buf:    sparkline.New(g.cfg.Capacity),
		color:  sh(g.cfg),
		shade:  sh,
		scale:  scale,
		format: format,
	}
	g.configure(s.buf, scale)
	return s
}

// restyle refreshes the color and scale of s from the current config.
func (g *graphSet) restyle(s *series) {
	s.color = s.shade(g.cfg)
	g.configure(s.buf, s.scale)
}

func (g *graphSet) all() []*series {
	return []*series{g.cpu, g.memory, g.swap, g.netRx, g.netTx, g.diskRead, g.diskWrite, g.battery}
}

func (g *graphSet) configure(b *sparkline.Buffer, scale scaleKind) {
	b.SetCapacity(g.cfg.Capacity)
	g.style("", scale).Apply(b)
	switch scale {
	case scaleRate:
		b.SetHeadroom(rateHeadroom, rateFloor)
	case scaleSize:
		b.SetHeadroom(rateHeadroom, sizeFloor)
	default:
		b.SetHeadroom(g.cfg.Headroom, g.cfg.HeadroomFloor)
	}
}

// push appends one snapshot to every buffer.
func (g *graphSet) push(stats models.SystemStats) {
	g.cpu.buf.Append(stats.CPU.Usage)
	g.memory.buf.Append(stats.Memory.UsagePercent)
	g.swap.buf.Append(stats.Memory.SwapPercent())
	g.netRx.buf.Append(stats.Network.RxRate)
	g.netTx.buf.Append(stats.Network.TxRate)
	read, write := models.DiskIOTotals(stats.Disk)
	g.diskRead.buf.Append(read)
	g.diskWrite.buf.Append(write)
	if stats.Battery.Present {
		g.battery.buf.Append(float64(stats.Battery.Level))
	}

	if len(g.cores) != len(stats.CPU.Cores) {
		g.cores = make([]*sparkline.Buffer, len(stats.CPU.Cores))
		for i := range g.cores {
			g.cores[i] = sparkline.New(g.cfg.Capacity)
			g.configure(g.cores[i], scalePercent)
		}
	}
	for i, v := range stats.CPU.Cores {
		g.cores[i].Append(v)
	}
}

// apply restyles and rescales every buffer from cfg, keeping their samples.
func (g *graphSet) apply(cfg config.SparklineConfig) {
	g.cfg = cfg
	for _, s := range g.all() {
		g.restyle(s)
	}
	for _, b := range g.cores {
		g.configure(b, scalePercent)
	}
	for _, pg := range g.procs {
		for _, s := range pg.all() {
			g.restyle(s)
		}
	}
}

func (g *graphSet) toggleGrid() {
	g.cfg.ShowGrid = !g.cfg.ShowGrid
}

// toggleAutoScale flips the scale of the percentage graphs.
func (g *graphSet) toggleAutoScale() {
	cfg := g.cfg
	cfg.AutoScale = !cfg.AutoScale
	g.apply(cfg)
}

func (g *graphSet) clear() {
	for _, s := range g.all() {
		s.buf.Clear()
	}
	for _, b := range g.cores {
		b.Clear()
	}
	for _, pg := range g.procs {
		for _, s := range pg.all() {
			s.buf.Clear()
		}
	}
}

func (g *graphSet) style(color lipgloss.Color, scale scaleKind) sparkline.Style {
	return sparkline.Style{
		LineColor:       color,
		FillColor:       lipgloss.Color(g.cfg.FillColor),
		BackgroundColor: lipgloss.Color(g.cfg.BackgroundColor),
		GridColor:       lipgloss.Color(g.cfg.GridColor),
		ShowGrid:        g.cfg.ShowGrid,
		ShowLabels:      g.cfg.ShowLabels,
		AutoScale:       scale != scalePercent || g.cfg.AutoScale,
		MaxValue:        g.cfg.MaxValue,
	}
}

// chart renders s with a title line carrying its newest value.
func (g *graphSet) chart(s *series, width, height int) string {
	width = max(width, 10)
	current := "n/a"
	if v, ok := s.buf.Last(); ok {
		current = s.format(v)
	}
	_, hi := s.buf.Range()
	title := fmt.Sprintf("%s %s", LabelStyle.Render(s.title), ValueStyle.Render(current))
	scale := MutedStyle.Render(fmt.Sprintf("max %s", s.format(hi)))
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(scale))
	header := title + strings.Repeat(" ", gap) + scale

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		sparkline.Render(s.buf, g.style(s.color, s.scale), width, height),
	)
}

// inline renders a one-row sparkline for b.
func (g *graphSet) inline(b *sparkline.Buffer, color lipgloss.Color, width int) string {
	return sparkline.Inline(b, sparkline.Style{LineColor: color}, width)
}

// pair renders two charts side by side, or stacked when the width is tight.
func (g *graphSet) pair(a, b *series, width, height int) string {
	if width < 60 {
		return lipgloss.JoinVertical(lipgloss.Left, g.chart(a, width, height), "", g.chart(b, width, height))
	}
	half := (width - 2) / 2
	return lipgloss.JoinHorizontal(lipgloss.Top, g.chart(a, half, height), "  ", g.chart(b, half, height))
}
