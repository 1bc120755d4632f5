package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// chrome is the number of rows taken by the title, tabs, status and help.
const chrome = 9

// visibleTabs returns the tab indices that fit from the current scroll offset
// and whether more tabs are hidden on either side.
func (a *App) visibleTabs() (indices []int, left, right bool) {
	if a.width <= 0 {
		for i := range tabNames {
			indices = append(indices, i)
		}
		return indices, false, false
	}

	available := a.width - 10
	used := 0
	for i := a.tabScrollOffset; i < len(tabNames); i++ {
		// name plus padding and margin
		w := lipgloss.Width(tabNames[i]) + 4
		if used+w > available && len(indices) > 0 {
			break
		}
		indices = append(indices, i)
		used += w
	}
	return indices, a.tabScrollOffset > 0, a.tabScrollOffset+len(indices) < len(tabNames)
}

func (a *App) ensureActiveTabVisible() {
	if a.activeTab < a.tabScrollOffset {
		a.tabScrollOffset = a.activeTab
		return
	}
	for {
		indices, _, _ := a.visibleTabs()
		if len(indices) == 0 || a.activeTab <= indices[len(indices)-1] {
			return
		}
		a.tabScrollOffset++
	}
}

func (a *App) renderTabs() string {
	indices, left, right := a.visibleTabs()

	var parts []string
	if left {
		parts = append(parts, ScrollIndicatorStyle.Render("‹"))
	}
	for _, i := range indices {
		if i == a.activeTab {
			parts = append(parts, ActiveTabStyle.Render(tabNames[i]))
		} else {
			parts = append(parts, InactiveTabStyle.Render(tabNames[i]))
		}
	}
	if right {
		parts = append(parts, ScrollIndicatorStyle.Render("›"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func (a *App) contentAreaHeight() int {
	return max(1, a.height-chrome)
}

func (a *App) maxScrollOffset() int {
	return max(0, a.contentHeight-a.contentAreaHeight())
}

func (a *App) clampVerticalScroll() {
	a.verticalScrollOffset = max(0, min(a.verticalScrollOffset, a.maxScrollOffset()))
}

// applyVerticalScroll cuts content to the rows that fit, with markers when
// rows are hidden above or below.
func (a *App) applyVerticalScroll(content string) string {
	lines := strings.Split(content, "\n")
	a.contentHeight = len(lines)
	a.clampVerticalScroll()

	available := a.contentAreaHeight()
	if len(lines) <= available {
		return content
	}

	end := min(a.verticalScrollOffset+available, len(lines))
	out := strings.Join(lines[a.verticalScrollOffset:end], "\n")
	if a.verticalScrollOffset > 0 {
		out = ScrollIndicatorStyle.Render("▲ more above") + "\n" + out
	}
	if a.verticalScrollOffset < a.maxScrollOffset() {
		out += "\n" + ScrollIndicatorStyle.Render("▼ more below")
	}
	return out
}

// graphWidth is the plot width inside a bordered panel.
func (a *App) graphWidth() int {
	// border 2, padding 4, outer margin 4
	return max(10, a.width-10)
}

func (a *App) panel(content ...string) string {
	return BaseStyle.Width(max(20, a.width-4)).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}
