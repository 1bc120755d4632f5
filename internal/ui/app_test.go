package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/config"
	"github.com/prabalesh/perftop/internal/history"
	"github.com/prabalesh/perftop/internal/models"
)

type fakeSource struct {
	stats models.SystemStats
	procs models.ProcessList
	sorts []models.ProcessSort
}

func (f *fakeSource) GetSystemStats() models.SystemStats { return f.stats }

func (f *fakeSource) GetProcessList(sortBy models.ProcessSort) models.ProcessList {
	f.sorts = append(f.sorts, sortBy)
	return f.procs
}

type fakeHistory struct {
	recorded int
	points   []history.Point
	queried  []history.Metric
}

func (f *fakeHistory) RecordStats(models.SystemStats) error {
	f.recorded++
	return nil
}

func (f *fakeHistory) QueryRange(m history.Metric, _ history.TimeRange, _ string, _ int) ([]history.Point, error) {
	f.queried = append(f.queried, m)
	return f.points, nil
}

func sampleStats() models.SystemStats {
	return models.SystemStats{
		Host: models.HostInfo{Hostname: "box"},
		CPU:  models.CPUStats{Usage: 42, Cores: []float64{40, 44}, Model: "Test CPU"},
		Memory: models.MemoryStats{
			Total:        8 << 30,
			Used:         2 << 30,
			UsagePercent: 25,
		},
		Network: models.NetworkStats{RxRate: 2048, TxRate: 512},
		Disk:    []models.DiskStats{{Device: "/dev/sda1", Mountpoint: "/", ReadRate: 100, WriteRate: 300}},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// listMsg wraps list the way a terminate refresh delivers it.
func listMsg(list models.ProcessList) processesMsg {
	return processesMsg{list: list, at: time.Now()}
}

func newTestApp(t *testing.T) (*App, *fakeSource) {
	t.Helper()
	src := &fakeSource{
		stats: sampleStats(),
		procs: models.ProcessList{
			Processes: []models.Process{
				{PID: 10, Name: "alpha", CPUPercent: 5, MemPercent: 1},
				{PID: 20, Name: "beta", CPUPercent: 1, MemPercent: 9},
			},
			Total: 2,
		},
	}
	a := NewApp(Options{Source: src})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return a, src
}

func TestApp_StatsAppendToBuffers(t *testing.T) {
	a, src := newTestApp(t)

	for i := 0; i < 3; i++ {
		a.Update(statsMsg(src.stats))
	}

	if got := a.graphs.cpu.buf.Len(); got != 3 {
		t.Errorf("cpu buffer Len() = %d, want 3", got)
	}
	if got := len(a.graphs.cores); got != 2 {
		t.Fatalf("core buffers = %d, want 2", got)
	}
	if diff := cmp.Diff([]float64{44, 44, 44}, a.graphs.cores[1].Values()); diff != "" {
		t.Errorf("core 1 values (-want +got):\n%s", diff)
	}
	if v, _ := a.graphs.diskWrite.buf.Last(); v != 300 {
		t.Errorf("disk write last = %v, want 300", v)
	}
	if a.graphs.battery.buf.Len() != 0 {
		t.Error("battery buffer filled without a battery")
	}
}

func TestApp_FetchStatsRecordsHistory(t *testing.T) {
	src := &fakeSource{stats: sampleStats()}
	hist := &fakeHistory{}
	a := NewApp(Options{Source: src, History: hist})

	msg := a.fetchStats()()
	if _, ok := msg.(statsMsg); !ok {
		t.Fatalf("fetchStats returned %T, want statsMsg", msg)
	}
	if hist.recorded != 1 {
		t.Errorf("recorded = %d, want 1", hist.recorded)
	}
}

func TestApp_TickWaitsForSample(t *testing.T) {
	a, _ := newTestApp(t)

	_, cmd := a.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick did not fetch stats")
	}
	// the fetch alone, not a batch with the next tick
	msg := cmd()
	if _, ok := msg.(statsMsg); !ok {
		t.Fatalf("tick produced %T, want statsMsg", msg)
	}
	if _, cmd := a.Update(msg); cmd == nil {
		t.Error("applying a sample did not arm the next tick")
	}
}

func TestApp_ProcessTickRearmsOnlyWhenScheduled(t *testing.T) {
	a, _ := newTestApp(t)

	_, cmd := a.Update(processTickMsg(time.Now()))
	msg, ok := cmd().(processesMsg)
	if !ok || !msg.scheduled {
		t.Fatalf("process tick produced %+v, want a scheduled fetch", msg)
	}
	if _, cmd := a.Update(msg); cmd == nil {
		t.Error("scheduled fetch did not re-arm the process tick")
	}

	_, cmd = a.Update(terminateMsg{result: collector.TerminateResult{PID: 10, Name: "alpha"}})
	refresh, ok := cmd().(processesMsg)
	if !ok || refresh.scheduled {
		t.Fatalf("terminate refresh = %+v, want an unscheduled fetch", refresh)
	}
	if _, cmd := a.Update(refresh); cmd != nil {
		t.Error("terminate refresh armed a second process tick")
	}
}

func TestApp_StaleProcessListIgnored(t *testing.T) {
	a, src := newTestApp(t)
	now := time.Now()
	a.Update(processesMsg{list: src.procs, at: now})

	old := models.ProcessList{Processes: []models.Process{{PID: 99, Name: "gone"}}, Total: 1}
	a.Update(processesMsg{list: old, at: now.Add(-time.Second)})
	if a.processes.Total != 2 {
		t.Errorf("older list replaced the newer one: %+v", a.processes)
	}
}

func TestApp_ProcessGraphs(t *testing.T) {
	a, _ := newTestApp(t)
	list := func(procs ...models.Process) models.ProcessList {
		return models.ProcessList{Processes: procs, Total: len(procs)}
	}
	alpha := models.Process{PID: 10, Name: "alpha", CPUPercent: 12, MemRSS: 64 << 20, IORead: 1 << 20, IOWrite: 1 << 20}
	beta := models.Process{PID: 20, Name: "beta", CPUPercent: 3, MemRSS: 8 << 20}

	start := time.Now()
	a.Update(processesMsg{list: list(alpha, beta), at: start})
	alpha.CPUPercent = 30
	a.Update(processesMsg{list: list(alpha), at: start.Add(2 * time.Second)})

	pg, ok := a.graphs.process(10)
	if !ok {
		t.Fatal("no graphs for pid 10")
	}
	if diff := cmp.Diff([]float64{12, 30}, pg.cpu.buf.Values()); diff != "" {
		t.Errorf("cpu values (-want +got):\n%s", diff)
	}
	if v, _ := pg.memory.buf.Last(); v != 64 {
		t.Errorf("memory last = %v MiB, want 64", v)
	}
	if v, _ := pg.io.buf.Last(); v != 2 {
		t.Errorf("io last = %v MiB/s, want 2", v)
	}
	if pg.cpu.buf.Capacity() != a.cfg.Sparkline.Capacity {
		t.Errorf("capacity = %d, want %d", pg.cpu.buf.Capacity(), a.cfg.Sparkline.Capacity)
	}
	if _, ok := a.graphs.process(20); ok {
		t.Error("graphs kept for a process that left the list")
	}
	if imp, ok := a.impact.Impact(10); !ok || imp.Samples != 2 || imp.PeakCPU != 30 {
		t.Errorf("impact = %+v", imp)
	}

	// a reused pid starts a fresh graph
	a.Update(processesMsg{list: list(models.Process{PID: 10, Name: "other"}), at: start.Add(4 * time.Second)})
	if pg, _ := a.graphs.process(10); pg.cpu.buf.Len() != 1 {
		t.Errorf("reused pid kept %d samples", pg.cpu.buf.Len())
	}
}

func TestApp_ProcessDetails(t *testing.T) {
	a, src := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	a.Update(listMsg(src.procs))
	a.activeTab = tabProcesses
	a.Update(tea.KeyMsg{Type: tea.KeyDown})

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.detailPID != 20 {
		t.Fatalf("detailPID = %d, want 20", a.detailPID)
	}
	out := ansi.Strip(a.View())
	for _, want := range []string{"beta (20)", "CPU", "Memory", "Disk I/O", "Impact"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q", want)
		}
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.detailPID != 0 {
		t.Error("esc did not close the details")
	}

	a.Update(keyPress("d"))
	a.Update(listMsg(models.ProcessList{}))
	if out := ansi.Strip(a.View()); !strings.Contains(out, "has exited") {
		t.Error("details of an exited process not reported")
	}
	a.Update(tea.KeyMsg{Type: tea.KeyRight})
	if a.detailPID != 0 {
		t.Error("switching tabs kept the details open")
	}
}

func TestApp_ConfigColorsApplyToEverySeries(t *testing.T) {
	a, src := newTestApp(t)
	a.Update(listMsg(src.procs))

	cfg := config.DefaultConfig()
	cfg.Sparkline.LineColor = "33"
	cfg.Sparkline.SecondaryColor = "99"
	a.applyConfig(cfg)

	for _, s := range []*series{a.graphs.cpu, a.graphs.memory, a.graphs.netRx, a.graphs.diskRead} {
		if s.color != "33" {
			t.Errorf("%s color = %q, want 33", s.title, s.color)
		}
	}
	for _, s := range []*series{a.graphs.swap, a.graphs.netTx, a.graphs.diskWrite} {
		if s.color != "99" {
			t.Errorf("%s color = %q, want 99", s.title, s.color)
		}
	}
	if pg, _ := a.graphs.process(10); pg.cpu.color != "33" {
		t.Errorf("process cpu color = %q, want 33", pg.cpu.color)
	}
}

func TestApp_GraphKeys(t *testing.T) {
	a, src := newTestApp(t)
	a.Update(statsMsg(src.stats))

	grid := a.graphs.cfg.ShowGrid
	a.Update(keyPress("g"))
	if a.graphs.cfg.ShowGrid == grid {
		t.Error("g did not toggle the grid")
	}

	auto := a.graphs.cpu.buf.AutoScale()
	a.Update(keyPress("a"))
	if a.graphs.cpu.buf.AutoScale() == auto {
		t.Error("a did not toggle auto-scale on the cpu graph")
	}
	if !a.graphs.netRx.buf.AutoScale() {
		t.Error("rate graphs must stay auto-scaled")
	}

	a.Update(keyPress("c"))
	if a.graphs.cpu.buf.Len() != 0 || a.graphs.cores[0].Len() != 0 {
		t.Error("c did not clear the buffers")
	}
}

func TestApp_TabNavigation(t *testing.T) {
	a, _ := newTestApp(t)

	a.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if a.activeTab != tabOverview {
		t.Errorf("left on first tab moved to %d", a.activeTab)
	}
	for range tabNames {
		a.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if a.activeTab != tabHistory {
		t.Errorf("activeTab = %d after moving past the end, want %d", a.activeTab, tabHistory)
	}
}

func TestApp_SortCyclesOnProcessTab(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(listMsg(a.source.GetProcessList(models.SortByCPU)))
	a.activeTab = tabProcesses

	var got []models.ProcessSort
	for range models.ProcessSorts {
		a.Update(keyPress("s"))
		got = append(got, a.procSort)
	}
	want := []models.ProcessSort{models.SortByMemory, models.SortByPID, models.SortByName, models.SortByCPU}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort cycle (-want +got):\n%s", diff)
	}

	a.Update(keyPress("s"))
	if a.processes.Processes[0].Name != "beta" {
		t.Errorf("memory sort put %q first, want beta", a.processes.Processes[0].Name)
	}
}

func TestApp_TerminateConfirm(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(listMsg(a.source.GetProcessList(models.SortByCPU)))
	a.activeTab = tabProcesses
	a.Update(tea.KeyMsg{Type: tea.KeyDown})

	type call struct {
		pid   int32
		force bool
	}
	var calls []call
	a.terminate = func(pid int32, force bool) (collector.TerminateResult, error) {
		calls = append(calls, call{pid, force})
		return collector.TerminateResult{PID: pid, Name: "beta", Forced: force}, nil
	}

	a.Update(keyPress("X"))
	if a.pending == nil || a.pending.pid != 20 || !a.pending.force {
		t.Fatalf("pending = %+v, want kill of 20", a.pending)
	}
	if !strings.Contains(ansi.Strip(a.View()), "Kill beta (20)?") {
		t.Error("confirmation prompt not shown")
	}

	_, cmd := a.Update(keyPress("y"))
	if cmd == nil {
		t.Fatal("confirm returned no command")
	}
	a.Update(cmd())

	if diff := cmp.Diff([]call{{20, true}}, calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Errorf("terminate calls (-want +got):\n%s", diff)
	}
	if !strings.Contains(ansi.Strip(a.status), "killed beta (20)") {
		t.Errorf("status = %q", ansi.Strip(a.status))
	}
}

func TestApp_TerminateCancel(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(listMsg(a.source.GetProcessList(models.SortByCPU)))
	a.activeTab = tabProcesses
	a.terminate = func(int32, bool) (collector.TerminateResult, error) {
		t.Fatal("terminate called after cancel")
		return collector.TerminateResult{}, nil
	}

	a.Update(keyPress("x"))
	if a.pending == nil {
		t.Fatal("x did not ask for confirmation")
	}
	// quit is swallowed while a prompt is open
	if _, cmd := a.Update(keyPress("q")); cmd != nil {
		t.Error("q while confirming returned a command")
	}
	if a.pending != nil {
		t.Error("prompt still open after cancel")
	}
}

func TestApp_TerminateErrorStatus(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(terminateMsg{result: collector.TerminateResult{PID: 7}, err: collector.ErrPermissionDenied})
	if !strings.Contains(ansi.Strip(a.status), "could not stop 7") {
		t.Errorf("status = %q", ansi.Strip(a.status))
	}
}

func TestApp_ConfigReload(t *testing.T) {
	updates := make(chan *config.Config, 1)
	src := &fakeSource{stats: sampleStats()}
	a := NewApp(Options{Source: src, ConfigUpdates: updates})
	for i := 0; i < 5; i++ {
		a.Update(statsMsg(src.stats))
	}

	cfg := config.DefaultConfig()
	cfg.Sparkline.Capacity = 3
	cfg.Sparkline.AutoScale = true
	updates <- cfg

	msg := a.waitForConfig()()
	_, cmd := a.Update(msg)
	if cmd == nil {
		t.Error("config reload did not wait for the next update")
	}
	if got := a.graphs.cpu.buf.Capacity(); got != 3 {
		t.Errorf("cpu capacity = %d, want 3", got)
	}
	if got := a.graphs.cpu.buf.Len(); got != 3 {
		t.Errorf("cpu Len() = %d, want samples trimmed to 3", got)
	}
	if !a.graphs.cpu.buf.AutoScale() {
		t.Error("auto-scale not applied")
	}
	if !strings.Contains(a.status, "reloaded") {
		t.Errorf("status = %q", a.status)
	}
}

func TestApp_HistoryTab(t *testing.T) {
	hist := &fakeHistory{points: []history.Point{
		{Time: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), Value: 10},
		{Time: time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC), Value: 60},
	}}
	a := NewApp(Options{Source: &fakeSource{stats: sampleStats()}, History: hist})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	cmd := a.switchTab(tabHistory)
	if cmd == nil {
		t.Fatal("switching to history did not load it")
	}
	a.Update(cmd())

	if diff := cmp.Diff([]history.Metric{history.CPUUsage, history.MemoryUsed}, hist.queried); diff != "" {
		t.Errorf("queried metrics (-want +got):\n%s", diff)
	}
	if len(a.histCPU) != 2 {
		t.Fatalf("histCPU = %d points, want 2", len(a.histCPU))
	}

	_, cmd = a.Update(keyPress("t"))
	if a.histRange != history.Last6Hours {
		t.Errorf("histRange = %s, want %s", a.histRange, history.Last6Hours)
	}
	if cmd == nil {
		t.Error("changing range did not reload")
	}

	// a result for a range no longer shown is dropped
	a.Update(historyMsg{rng: history.LastHour})
	if len(a.histCPU) != 2 {
		t.Error("stale history result replaced current data")
	}
}

func TestApp_ViewRendersEveryTab(t *testing.T) {
	a, src := newTestApp(t)
	if got := NewApp(Options{Source: src}).View(); got != "Loading..." {
		t.Errorf("View() before sizing = %q", got)
	}
	a.Update(statsMsg(src.stats))
	a.Update(listMsg(src.procs))

	for tab, name := range tabNames {
		a.activeTab = tab
		out := ansi.Strip(a.View())
		if !strings.Contains(out, "perftop · box") {
			t.Errorf("%s: missing title", name)
		}
		if !strings.Contains(out, name) {
			t.Errorf("%s: missing tab label", name)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a-long-process-name", 10, "a-long-..."},
		{"abcdef", 3, "abc"},
		{"ünïcödé-name", 8, "ünïcö..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
