package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/prabalesh/perftop/internal/history"
	"github.com/prabalesh/perftop/internal/models"
	"github.com/prabalesh/perftop/internal/sparkline"
)

const (
	mainGraphHeight = 8
	pairGraphHeight = 5
)

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	name := "perftop"
	if host := a.stats.Host.Hostname; host != "" {
		name += " · " + host
	}
	title := TitleStyle.Width(a.width).Render(name)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverview()
	case tabCPU:
		content = a.renderCPU()
	case tabMemory:
		content = a.renderMemory()
	case tabProcesses:
		content = a.renderProcesses()
	case tabNetwork:
		content = a.renderNetwork()
	case tabDisk:
		content = a.renderDisk()
	case tabBattery:
		content = a.renderBattery()
	case tabHistory:
		content = a.renderHistory()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		a.renderTabs(),
		"",
		a.applyVerticalScroll(content),
		a.renderStatus(),
		a.help.View(a.keys),
	)
}

func (a *App) renderStatus() string {
	if a.pending != nil {
		verb := "Terminate"
		if a.pending.force {
			verb = "Kill"
		}
		return WarningStyle.Render(fmt.Sprintf("%s %s (%d)? y/n", verb, a.pending.name, a.pending.pid))
	}
	return MutedStyle.Render(a.status)
}

func gib(b uint64) float64 { return float64(b) / (1 << 30) }

func (a *App) renderOverview() string {
	w := a.graphWidth()
	stats := a.stats
	read, write := models.DiskIOTotals(stats.Disk)
	inlineW := max(10, w-28)
	row := func(label, value string, buf *sparkline.Buffer, color lipgloss.Color) string {
		return fmt.Sprintf("%-10s %12s  %s", LabelStyle.Render(label), ValueStyle.Render(value), a.graphs.inline(buf, color, inlineW))
	}

	return a.panel(
		HeaderStyle.Render("System Overview"),
		"",
		a.graphs.chart(a.graphs.cpu, w, mainGraphHeight),
		"",
		row("Memory", percent(stats.Memory.UsagePercent), a.graphs.memory.buf, a.graphs.memory.color),
		row("Net RX", bytesPerSec(stats.Network.RxRate), a.graphs.netRx.buf, a.graphs.netRx.color),
		row("Net TX", bytesPerSec(stats.Network.TxRate), a.graphs.netTx.buf, a.graphs.netTx.color),
		row("Disk R", bytesPerSec(read), a.graphs.diskRead.buf, a.graphs.diskRead.color),
		row("Disk W", bytesPerSec(write), a.graphs.diskWrite.buf, a.graphs.diskWrite.color),
		"",
		HeaderStyle.Render("Quick Stats"),
		fmt.Sprintf("%s %s", LabelStyle.Render("Host:"), ValueStyle.Render(strings.TrimSpace(stats.Host.Platform+" "+stats.Host.Kernel))),
		fmt.Sprintf("%s %v", LabelStyle.Render("Uptime:"), stats.Uptime.Truncate(time.Second)),
		fmt.Sprintf("%s %d (%d running)", LabelStyle.Render("Processes:"), a.processes.Total, a.processes.Running),
		fmt.Sprintf("%s %d", LabelStyle.Render("CPU Cores:"), len(stats.CPU.Cores)),
		fmt.Sprintf("%s %.1f°C", LabelStyle.Render("CPU Temperature:"), stats.CPU.Temp),
		fmt.Sprintf("%s %.1f GB", LabelStyle.Render("Memory Total:"), gib(stats.Memory.Total)),
	)
}

func (a *App) renderCPU() string {
	cpu := a.stats.CPU
	w := a.graphWidth()
	content := []string{
		HeaderStyle.Render("CPU Information"),
		"",
		fmt.Sprintf("%s %s", LabelStyle.Render("Model:"), ValueStyle.Render(cpu.Model)),
		fmt.Sprintf("%s %.1f MHz", LabelStyle.Render("Frequency:"), cpu.Frequency),
		fmt.Sprintf("%s %.1f°C", LabelStyle.Render("Temperature:"), cpu.Temp),
		"",
		a.graphs.chart(a.graphs.cpu, w, mainGraphHeight),
		a.cpuProgress.ViewAs(cpu.Usage / 100.0),
		"",
		HeaderStyle.Render("Per-Core Usage"),
	}

	inlineW := max(10, w-20)
	for i, usage := range cpu.Cores {
		if i >= len(a.graphs.cores) {
			break
		}
		content = append(content, fmt.Sprintf("Core %-3d %s %s",
			i,
			levelStyle(usage, false).Render(fmt.Sprintf("%6.1f%%", usage)),
			a.graphs.inline(a.graphs.cores[i], a.graphs.cpu.color, inlineW),
		))
	}
	return a.panel(content...)
}

func (a *App) renderMemory() string {
	mem := a.stats.Memory
	w := a.graphWidth()
	return a.panel(
		HeaderStyle.Render("Memory Information"),
		"",
		fmt.Sprintf("%s %.1f GB", LabelStyle.Render("Total:"), gib(mem.Total)),
		fmt.Sprintf("%s %.1f GB", LabelStyle.Render("Used:"), gib(mem.Used)),
		fmt.Sprintf("%s %.1f GB", LabelStyle.Render("Available:"), gib(mem.Available)),
		fmt.Sprintf("%s %.1f GB", LabelStyle.Render("Cached:"), gib(mem.Cached)),
		"",
		fmt.Sprintf("%s %.1f%% (%.1f GB/%.1f GB)", LabelStyle.Render("Usage:"), mem.UsagePercent, gib(mem.Used), gib(mem.Total)),
		a.memoryProgress.ViewAs(mem.UsagePercent/100.0),
		"",
		a.graphs.chart(a.graphs.memory, w, mainGraphHeight),
		"",
		HeaderStyle.Render("Swap"),
		fmt.Sprintf("%s %.1f GB / %.1f GB", LabelStyle.Render("Used:"), gib(mem.SwapUsed), gib(mem.SwapTotal)),
		a.graphs.chart(a.graphs.swap, w, pairGraphHeight),
	)
}

func (a *App) renderNetwork() string {
	net := a.stats.Network
	content := []string{
		HeaderStyle.Render("Network"),
		"",
		a.graphs.pair(a.graphs.netRx, a.graphs.netTx, a.graphWidth(), pairGraphHeight),
		"",
		fmt.Sprintf("%s %s", LabelStyle.Render("Total RX:"), humanize.IBytes(net.TotalRx)),
		fmt.Sprintf("%s %s", LabelStyle.Render("Total TX:"), humanize.IBytes(net.TotalTx)),
		"",
	}

	for _, iface := range net.Interfaces {
		content = append(content,
			HeaderStyle.Render("Interface: "+iface.Name),
			fmt.Sprintf("%s %s  %s %s", LabelStyle.Render("Status:"), ValueStyle.Render(iface.Status), LabelStyle.Render("Speed:"), ValueStyle.Render(iface.Speed)),
			fmt.Sprintf("%s %s (%s)  %s %s (%s)",
				LabelStyle.Render("RX:"), humanize.IBytes(iface.RxBytes), bytesPerSec(iface.RxRate),
				LabelStyle.Render("TX:"), humanize.IBytes(iface.TxBytes), bytesPerSec(iface.TxRate)),
			fmt.Sprintf("%s %d  %s %d", LabelStyle.Render("RX Packets:"), iface.RxPackets, LabelStyle.Render("TX Packets:"), iface.TxPackets),
			"",
		)
	}
	return a.panel(content...)
}

func (a *App) renderDisk() string {
	content := []string{
		HeaderStyle.Render("Disk"),
		"",
		a.graphs.pair(a.graphs.diskRead, a.graphs.diskWrite, a.graphWidth(), pairGraphHeight),
		"",
	}

	for _, disk := range a.stats.Disk {
		content = append(content,
			HeaderStyle.Render(disk.Device+" ("+disk.Mountpoint+")"),
			fmt.Sprintf("%s %s", LabelStyle.Render("Filesystem:"), ValueStyle.Render(disk.Filesystem)),
			fmt.Sprintf("%s %s of %s, %s free", LabelStyle.Render("Used:"),
				humanize.IBytes(disk.Used), humanize.IBytes(disk.Total), humanize.IBytes(disk.Free)),
			fmt.Sprintf("%s %s  %s %s", LabelStyle.Render("Read:"), bytesPerSec(disk.ReadRate), LabelStyle.Render("Write:"), bytesPerSec(disk.WriteRate)),
			levelStyle(disk.UsagePercent, false).Render(fmt.Sprintf("%.1f%%", disk.UsagePercent)),
			a.diskProgress.ViewAs(disk.UsagePercent/100.0),
			"",
		)
	}
	return a.panel(content...)
}

func (a *App) renderBattery() string {
	battery := a.stats.Battery
	if !battery.Present {
		return a.panel(HeaderStyle.Render("Battery Information"), "", MutedStyle.Render("No battery detected"))
	}

	return a.panel(
		HeaderStyle.Render("Battery Information"),
		"",
		fmt.Sprintf("%s %s", LabelStyle.Render("Status:"), levelStyle(float64(battery.Level), true).Render(battery.Status)),
		fmt.Sprintf("%s %d%%", LabelStyle.Render("Level:"), battery.Level),
		a.batteryProgress.ViewAs(float64(battery.Level)/100.0),
		"",
		fmt.Sprintf("%s %s", LabelStyle.Render("Time Left:"), ValueStyle.Render(battery.TimeLeft)),
		fmt.Sprintf("%s %d%%", LabelStyle.Render("Health:"), battery.Health),
		fmt.Sprintf("%s %v", LabelStyle.Render("Charging:"), battery.IsCharging),
		"",
		a.graphs.chart(a.graphs.battery, a.graphWidth(), pairGraphHeight),
	)
}

func (a *App) renderHistory() string {
	header := HeaderStyle.Render(fmt.Sprintf("History (last %s)", a.histRange))
	if a.history == nil {
		return a.panel(header, "", MutedStyle.Render("History recording is disabled (history.enabled in the config file)."))
	}
	if a.histErr != nil {
		return a.panel(header, "", ErrorStyle.Render(a.histErr.Error()))
	}

	w := a.graphWidth()
	return a.panel(
		header,
		MutedStyle.Render("t: change range  r: reload"),
		"",
		a.historyChart("CPU", a.histCPU, w),
		"",
		a.historyChart("Memory", a.histMemory, w),
	)
}

// historyChart fills a sparkline buffer sized to the stored points so the
// whole period spans the chart width.
func (a *App) historyChart(title string, points []history.Point, width int) string {
	if len(points) == 0 {
		return LabelStyle.Render(title) + " " + MutedStyle.Render("no samples recorded yet")
	}
	s := &series{
		title:  title,
		buf:    sparkline.New(len(points), sparkline.WithMaxValue(100)),
		color:  primary(a.cfg.Sparkline),
		format: percent,
	}
	for _, p := range points {
		s.buf.Append(p.Value)
	}
	span := fmt.Sprintf("%s to %s", points[0].Time.Format("Jan 2 15:04"), points[len(points)-1].Time.Format("Jan 2 15:04"))
	return lipgloss.JoinVertical(lipgloss.Left, a.graphs.chart(s, width, pairGraphHeight), MutedStyle.Render(span))
}
