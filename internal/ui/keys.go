package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	PrevTab    key.Binding
	NextTab    key.Binding
	ScrollTabL key.Binding
	ScrollTabR key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding

	Grid      key.Binding
	AutoScale key.Binding
	Clear     key.Binding

	Sort      key.Binding
	Details   key.Binding
	Terminate key.Binding
	Kill      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding

	Range   key.Binding
	Refresh key.Binding
	Help    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		PrevTab:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
		NextTab:    key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next tab")),
		ScrollTabL: key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "scroll tabs left")),
		ScrollTabR: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "scroll tabs right")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:        key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
		Bottom:     key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "bottom")),

		Grid:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grid")),
		AutoScale: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-scale")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear graphs")),

		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Details:   key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("enter", "details")),
		Terminate: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "terminate")),
		Kill:      key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "kill")),
		Confirm:   key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
		Cancel:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),

		Range:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload history")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevTab, k.NextTab, k.Up, k.Down, k.Grid, k.AutoScale, k.Clear, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevTab, k.NextTab, k.ScrollTabL, k.ScrollTabR},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Grid, k.AutoScale, k.Clear},
		{k.Sort, k.Details, k.Terminate, k.Kill, k.Confirm, k.Cancel},
		{k.Range, k.Refresh, k.Help, k.Quit},
	}
}
