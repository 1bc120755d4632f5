package ui

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/config"
	"github.com/prabalesh/perftop/internal/history"
	"github.com/prabalesh/perftop/internal/logging"
	"github.com/prabalesh/perftop/internal/models"
)

const (
	tabOverview = iota
	tabCPU
	tabMemory
	tabProcesses
	tabNetwork
	tabDisk
	tabBattery
	tabHistory
)

var tabNames = []string{"Overview", "CPU", "Memory", "Processes", "Network", "Disk", "Battery", "History"}

// Source is what the TUI samples on every tick.
type Source interface {
	GetSystemStats() models.SystemStats
	GetProcessList(sortBy models.ProcessSort) models.ProcessList
}

// HistoryStore records snapshots and serves the History tab.
type HistoryStore interface {
	RecordStats(stats models.SystemStats) error
	QueryRange(metric history.Metric, r history.TimeRange, label string, maxPoints int) ([]history.Point, error)
}

type Options struct {
	Source Source
	Config *config.Config
	// ConfigUpdates delivers reloaded configurations while the TUI runs.
	ConfigUpdates <-chan *config.Config
	// History is optional; without it nothing is recorded.
	History HistoryStore
	Logger  *slog.Logger
}

type (
	tickMsg        time.Time
	processTickMsg time.Time
	statsMsg       models.SystemStats
	configMsg      struct{ cfg *config.Config }
	processesMsg   struct {
		list models.ProcessList
		at   time.Time
		// scheduled is set for fetches driven by the process tick, which
		// re-arm it once applied.
		scheduled bool
	}
	terminateMsg   struct {
		result collector.TerminateResult
		err    error
	}
	historyMsg struct {
		rng    history.TimeRange
		cpu    []history.Point
		memory []history.Point
		err    error
	}
)

// pendingAction is a process operation waiting for confirmation.
type pendingAction struct {
	pid   int32
	name  string
	force bool
}

type App struct {
	source        Source
	cfg           *config.Config
	configUpdates <-chan *config.Config
	history       HistoryStore
	logger        *slog.Logger
	terminate     func(pid int32, force bool) (collector.TerminateResult, error)

	keys keyMap
	help help.Model

	stats       models.SystemStats
	processes   models.ProcessList
	processesAt time.Time
	graphs      *graphSet
	impact      *collector.ImpactTracker
	procSort    models.ProcessSort

	// detailPID is the process whose graphs replace the table; zero for none.
	detailPID int32

	activeTab       int
	width           int
	height          int
	selectedRow     int
	tabScrollOffset int

	verticalScrollOffset int
	contentHeight        int

	pending *pendingAction
	status  string

	histRange  history.TimeRange
	histCPU    []history.Point
	histMemory []history.Point
	histErr    error

	cpuProgress     progress.Model
	memoryProgress  progress.Model
	diskProgress    progress.Model
	batteryProgress progress.Model
}

func NewApp(opts Options) *App {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &App{
		source:          opts.Source,
		cfg:             opts.Config,
		configUpdates:   opts.ConfigUpdates,
		history:         opts.History,
		logger:          opts.Logger,
		terminate:       collector.TerminateProcess,
		keys:            defaultKeyMap(),
		help:            help.New(),
		graphs:          newGraphSet(opts.Config.Sparkline),
		impact:          collector.NewImpactTracker(collector.ImpactOptions{}),
		procSort:        models.SortByCPU,
		histRange:       history.LastHour,
		cpuProgress:     progress.New(progress.WithDefaultGradient()),
		memoryProgress:  progress.New(progress.WithDefaultGradient()),
		diskProgress:    progress.New(progress.WithDefaultGradient()),
		batteryProgress: progress.New(progress.WithDefaultGradient()),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.fetchStats(),
		a.fetchProcesses(true),
		a.waitForConfig(),
	)
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.cfg.RefreshInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) processTick() tea.Cmd {
	return tea.Tick(a.cfg.ProcessInterval(), func(t time.Time) tea.Msg {
		return processTickMsg(t)
	})
}

// fetchStats samples off the update loop and records the snapshot.
func (a *App) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats := a.source.GetSystemStats()
		if a.history != nil {
			if err := a.history.RecordStats(stats); err != nil {
				a.logger.Warn("ui: record history", "error", err)
			}
		}
		return statsMsg(stats)
	}
}

func (a *App) fetchProcesses(scheduled bool) tea.Cmd {
	sortBy := a.procSort
	return func() tea.Msg {
		list := a.source.GetProcessList(sortBy)
		return processesMsg{list: list, at: time.Now(), scheduled: scheduled}
	}
}

func (a *App) waitForConfig() tea.Cmd {
	if a.configUpdates == nil {
		return nil
	}
	ch := a.configUpdates
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.history == nil {
		return nil
	}
	store := a.history
	rng := a.histRange
	points := max(a.graphWidth(), 10)
	return func() tea.Msg {
		msg := historyMsg{rng: rng}
		msg.cpu, msg.err = store.QueryRange(history.CPUUsage, rng, "", points)
		if msg.err == nil {
			msg.memory, msg.err = store.QueryRange(history.MemoryUsed, rng, "", points)
		}
		return msg
	}
}

func (a *App) requestTerminate(p pendingAction) tea.Cmd {
	terminate := a.terminate
	return func() tea.Msg {
		res, err := terminate(p.pid, p.force)
		return terminateMsg{result: res, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width

		progressWidth := max(10, min(50, a.width-20))
		a.cpuProgress.Width = progressWidth
		a.memoryProgress.Width = progressWidth
		a.diskProgress.Width = max(10, min(40, a.width-25))
		a.batteryProgress.Width = max(10, min(40, a.width-25))
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	// The next tick is armed only once the previous sample has landed, so a
	// slow sample never overlaps the next one.
	case tickMsg:
		return a, a.fetchStats()

	case processTickMsg:
		return a, a.fetchProcesses(true)

	case statsMsg:
		a.stats = models.SystemStats(msg)
		a.graphs.push(a.stats)
		return a, a.tick()

	case processesMsg:
		if !msg.at.Before(a.processesAt) {
			a.applyProcesses(msg.list, msg.at)
		}
		if msg.scheduled {
			return a, a.processTick()
		}

	case configMsg:
		a.applyConfig(msg.cfg)
		return a, a.waitForConfig()

	case terminateMsg:
		a.status = terminateStatus(msg.result, msg.err)
		return a, a.fetchProcesses(false)

	case historyMsg:
		if msg.rng == a.histRange {
			a.histCPU, a.histMemory, a.histErr = msg.cpu, msg.memory, msg.err
		}
	}

	return a, nil
}

func (a *App) applyProcesses(list models.ProcessList, at time.Time) {
	a.processes = list
	a.processesAt = at
	a.selectedRow = max(0, min(a.selectedRow, len(list.Processes)-1))
	a.graphs.pushProcesses(list)
	a.impact.Observe(list, at)
}

func (a *App) applyConfig(cfg *config.Config) {
	refreshChanged := cfg.RefreshInterval() != a.cfg.RefreshInterval()
	a.cfg = cfg
	a.graphs.apply(cfg.Sparkline)
	a.status = "configuration reloaded"
	if refreshChanged {
		a.status += fmt.Sprintf(", refresh %s", cfg.RefreshInterval())
	}
	a.logger.Info("ui: configuration reloaded")
}

func terminateStatus(res collector.TerminateResult, err error) string {
	if err != nil {
		return ErrorStyle.Render(fmt.Sprintf("could not stop %d: %v", res.PID, err))
	}
	how := "terminated"
	if res.Forced {
		how = "killed"
	}
	return SuccessStyle.Render(fmt.Sprintf("%s %s (%d)", how, res.Name, res.PID))
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.pending != nil {
		switch {
		case key.Matches(msg, a.keys.Confirm):
			p := *a.pending
			a.pending = nil
			a.status = fmt.Sprintf("stopping %s (%d)...", p.name, p.pid)
			return a.requestTerminate(p)
		case key.Matches(msg, a.keys.Cancel), key.Matches(msg, a.keys.Quit):
			a.pending = nil
			a.status = ""
		}
		return nil
	}

	if a.detailPID != 0 && key.Matches(msg, a.keys.Cancel) {
		a.detailPID = 0
		return nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, a.keys.PrevTab):
		return a.switchTab(a.activeTab - 1)
	case key.Matches(msg, a.keys.NextTab):
		return a.switchTab(a.activeTab + 1)
	case key.Matches(msg, a.keys.ScrollTabL):
		a.tabScrollOffset = max(0, a.tabScrollOffset-1)
	case key.Matches(msg, a.keys.ScrollTabR):
		if _, _, right := a.visibleTabs(); right {
			a.tabScrollOffset++
		}

	case key.Matches(msg, a.keys.Up):
		if a.activeTab == tabProcesses && a.detailPID == 0 {
			a.selectedRow = max(0, a.selectedRow-1)
		} else {
			a.verticalScrollOffset = max(0, a.verticalScrollOffset-1)
		}
	case key.Matches(msg, a.keys.Down):
		if a.activeTab == tabProcesses && a.detailPID == 0 {
			a.selectedRow = min(a.selectedRow+1, max(0, len(a.processes.Processes)-1))
		} else {
			a.verticalScrollOffset++
			a.clampVerticalScroll()
		}
	case key.Matches(msg, a.keys.PageUp):
		a.verticalScrollOffset = max(0, a.verticalScrollOffset-max(1, a.contentAreaHeight()/2))
	case key.Matches(msg, a.keys.PageDown):
		a.verticalScrollOffset += max(1, a.contentAreaHeight()/2)
		a.clampVerticalScroll()
	case key.Matches(msg, a.keys.Top):
		a.verticalScrollOffset = 0
	case key.Matches(msg, a.keys.Bottom):
		a.verticalScrollOffset = a.maxScrollOffset()

	case key.Matches(msg, a.keys.Grid):
		a.graphs.toggleGrid()
	case key.Matches(msg, a.keys.AutoScale):
		a.graphs.toggleAutoScale()
		if a.graphs.cfg.AutoScale {
			a.status = "auto-scale on"
		} else {
			a.status = "auto-scale off"
		}
	case key.Matches(msg, a.keys.Clear):
		a.graphs.clear()
		a.status = "graphs cleared"

	case key.Matches(msg, a.keys.Sort):
		if a.activeTab == tabProcesses {
			a.procSort = nextSort(a.procSort)
			collector.SortProcesses(a.processes.Processes, a.procSort)
			a.selectedRow = 0
		}
	case key.Matches(msg, a.keys.Details):
		if a.activeTab != tabProcesses {
			break
		}
		switch {
		case a.detailPID != 0:
			a.detailPID = 0
		case a.selectedRow < len(a.processes.Processes):
			a.detailPID = a.processes.Processes[a.selectedRow].PID
		}
	case key.Matches(msg, a.keys.Terminate), key.Matches(msg, a.keys.Kill):
		if a.activeTab == tabProcesses && a.selectedRow < len(a.processes.Processes) {
			p := a.processes.Processes[a.selectedRow]
			a.pending = &pendingAction{pid: p.PID, name: p.Name, force: key.Matches(msg, a.keys.Kill)}
		}

	case key.Matches(msg, a.keys.Range):
		if a.activeTab == tabHistory {
			i := slices.Index(history.TimeRanges, a.histRange)
			a.histRange = history.TimeRanges[(i+1)%len(history.TimeRanges)]
			return a.loadHistory()
		}
	case key.Matches(msg, a.keys.Refresh):
		if a.activeTab == tabHistory {
			return a.loadHistory()
		}
	}
	return nil
}

func nextSort(cur models.ProcessSort) models.ProcessSort {
	i := slices.Index(models.ProcessSorts, cur)
	return models.ProcessSorts[(i+1)%len(models.ProcessSorts)]
}

func (a *App) switchTab(tab int) tea.Cmd {
	if tab < 0 || tab >= len(tabNames) || tab == a.activeTab {
		return nil
	}
	a.activeTab = tab
	a.verticalScrollOffset = 0
	a.detailPID = 0
	a.ensureActiveTabVisible()
	if tab == tabHistory {
		return a.loadHistory()
	}
	return nil
}
