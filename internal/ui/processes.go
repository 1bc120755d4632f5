package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/prabalesh/perftop/internal/models"
)

// processChrome is the rows the process panel spends on its border, header,
// counters and footer.
const processChrome = 10

func (a *App) processRows() int {
	return max(1, a.contentAreaHeight()-processChrome)
}

func (a *App) renderProcesses() string {
	if a.detailPID != 0 {
		return a.renderProcessDetail()
	}
	procs := a.processes.Processes
	visibleRows := a.processRows()

	startIdx := 0
	if a.selectedRow >= visibleRows {
		startIdx = a.selectedRow - visibleRows + 1
	}
	endIdx := min(startIdx+visibleRows, len(procs))

	var content strings.Builder
	content.WriteString(HeaderStyle.Render("Process List"))
	content.WriteString("\n\n")
	fmt.Fprintf(&content, "Total: %d | Running: %d | Sleeping: %d | Zombie: %d | Sort: %s\n\n",
		a.processes.Total, a.processes.Running, a.processes.Sleeping, a.processes.Zombie, a.procSort)

	header := fmt.Sprintf("%-8s %-20s %8s %8s %9s %-10s %-s",
		sortHeader("PID", models.SortByPID, a.procSort),
		sortHeader("NAME", models.SortByName, a.procSort),
		sortHeader("CPU%", models.SortByCPU, a.procSort),
		sortHeader("MEM%", models.SortByMemory, a.procSort),
		"RSS", "USER", "COMMAND")
	content.WriteString(TableHeaderStyle.Render(header))
	content.WriteString("\n")

	// PID, name, cpu, mem, rss, user and the separators between them
	usedWidth := 8 + 1 + 20 + 1 + 8 + 1 + 8 + 1 + 9 + 1 + 10 + 1
	commandWidth := max(10, a.width-usedWidth-12)

	for i := startIdx; i < endIdx; i++ {
		proc := procs[i]
		row := fmt.Sprintf("%-8d %-20s %7.1f%% %7.1f%% %9s %-10s %s",
			proc.PID,
			truncateString(proc.Name, 20),
			proc.CPUPercent,
			proc.MemPercent,
			humanize.IBytes(proc.MemRSS),
			truncateString(proc.User, 10),
			truncateString(proc.Command, commandWidth))

		var rowStyle lipgloss.Style
		switch {
		case i == a.selectedRow:
			rowStyle = SelectedRowStyle
		case (i-startIdx)%2 == 0:
			rowStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1).Foreground(lipgloss.Color("252"))
		default:
			rowStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1).Foreground(lipgloss.Color("245"))
		}
		content.WriteString(rowStyle.Render(row))
		content.WriteString("\n")
	}

	if len(procs) > visibleRows {
		content.WriteString("\n")
		content.WriteString(MutedStyle.Italic(true).PaddingLeft(1).Render(
			fmt.Sprintf("Showing %d-%d of %d processes • s sort • enter details • x terminate • X kill",
				startIdx+1, endIdx, len(procs))))
	}

	return BaseStyle.Width(max(20, a.width-4)).Render(content.String())
}

// renderProcessDetail shows the CPU, memory and disk graphs of one process
// with its impact over the tracking window.
func (a *App) renderProcessDetail() string {
	pid := a.detailPID
	var content strings.Builder

	pg, ok := a.graphs.process(pid)
	if !ok {
		content.WriteString(HeaderStyle.Render(fmt.Sprintf("Process %d", pid)))
		content.WriteString("\n\n")
		content.WriteString(MutedStyle.Render("The process has exited. esc to go back."))
		return BaseStyle.Width(max(20, a.width-4)).Render(content.String())
	}

	content.WriteString(HeaderStyle.Render(fmt.Sprintf("%s (%d)", pg.name, pid)))
	content.WriteString("\n")
	content.WriteString(MutedStyle.Render("enter/esc: back to the list"))
	content.WriteString("\n\n")

	if imp, ok := a.impact.Impact(pid); ok {
		content.WriteString(impactSummary(imp))
		content.WriteString("\n\n")
	}

	w := a.graphWidth()
	content.WriteString(lipgloss.JoinVertical(lipgloss.Left,
		a.graphs.chart(pg.cpu, w, pairGraphHeight),
		"",
		a.graphs.chart(pg.memory, w, pairGraphHeight),
		"",
		a.graphs.chart(pg.io, w, pairGraphHeight),
	))
	return BaseStyle.Width(max(20, a.width-4)).Render(content.String())
}

func impactSummary(imp models.ProcessImpact) string {
	growth := humanize.IBytes(uint64(max(imp.MemGrowth, -imp.MemGrowth)))
	if imp.MemGrowth < 0 {
		growth = "-" + growth
	} else {
		growth = "+" + growth
	}
	lines := []string{
		fmt.Sprintf("%s %s  %s %s  %s %d",
			LabelStyle.Render("Avg CPU"), ValueStyle.Render(percent(imp.AvgCPU)),
			LabelStyle.Render("Peak"), ValueStyle.Render(percent(imp.PeakCPU)),
			LabelStyle.Render("Spikes"), imp.CPUSpikes),
		fmt.Sprintf("%s %s (%s)  %s %s / %s",
			LabelStyle.Render("Memory"), ValueStyle.Render(humanize.IBytes(imp.MemRSS)), growth,
			LabelStyle.Render("Disk"), bytesPerSec(imp.AvgRead), bytesPerSec(imp.AvgWrite)),
		fmt.Sprintf("%s %s  %s",
			LabelStyle.Render("Impact"),
			levelStyle(imp.Score, false).Render(fmt.Sprintf("%.0f/100", imp.Score)),
			MutedStyle.Render(fmt.Sprintf("over %s, %d samples", imp.Span.Truncate(time.Second), imp.Samples))),
	}
	return strings.Join(lines, "\n")
}

func sortHeader(name string, col, active models.ProcessSort) string {
	if col == active {
		return name + "▼"
	}
	return name
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
