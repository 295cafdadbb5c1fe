package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/auth"
	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/export"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
)

// App is the root Bubble Tea model. It is the UI collaborator: it holds
// the latest engine snapshot, renders it, and forwards intents.
type App struct {
	eng     *engine.Engine
	source  *location.ManualSource
	confirm *ConfirmBridge

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	snap   engine.Snapshot
	snapCh chan engine.Snapshot

	// Pending fallback confirmation, rendered as an overlay. The send
	// channel answers the gate goroutine blocked inside Verify.
	confirming      bool
	confirmPrompt   string
	confirmRespSend chan<- bool

	tasks    tasksModel
	zones    zonesModel
	loc      locationModel
	stats    statsModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(eng *engine.Engine, source *location.ManualSource, confirm *ConfirmBridge) *App {
	h := help.New()
	h.ShowAll = false

	a := &App{
		eng:        eng,
		source:     source,
		confirm:    confirm,
		activeView: viewTasks,
		snapCh:     make(chan engine.Snapshot, 8),
		tasks:      newTasksModel(eng),
		zones:      newZonesModel(eng),
		loc:        newLocationModel(eng, source),
		stats:      newStatsModel(),
		settings:   newSettingsModel(eng),
		help:       h,
	}

	eng.Subscribe(func(s engine.Snapshot) {
		// Keep only the freshest snapshot if the UI lags behind.
		for {
			select {
			case a.snapCh <- s:
				return
			default:
				select {
				case <-a.snapCh:
				default:
				}
			}
		}
	})

	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitForSnapshot(),
		a.confirm.next(),
		a.zones.refresh(),
		a.settings.refresh(),
	)
}

func (a *App) waitForSnapshot() tea.Cmd {
	ch := a.snapCh
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tasks.setSize(a.width, contentHeight)
		a.zones.setSize(a.width, contentHeight)
		a.loc.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case snapshotMsg:
		a.snap = engine.Snapshot(msg)
		a.tasks.setSnapshot(a.snap)
		a.loc.setSnapshot(a.snap)
		a.stats.setSnapshot(a.snap)
		return a, a.waitForSnapshot()

	case confirmPromptMsg:
		a.confirming = true
		a.confirmPrompt = msg.prompt
		a.confirmRespSend = msg.resp
		return a, nil

	case authDoneMsg:
		if msg.err != nil {
			a.status = authErrorText(msg.action, msg.err)
		} else {
			a.status = msg.action + " ok"
		}
		return a, tea.Batch(a.zones.refresh(), a.settings.refresh())

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case tea.KeyMsg:
		// The confirmation overlay captures everything until answered.
		if a.confirming {
			return a.updateConfirm(msg)
		}
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.eng.StopWatching()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Private):
			return a, a.togglePrivateCmd()
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewZones
			return a, a.zones.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewLocation
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewStats
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}
	}

	return a.updateActiveView(msg)
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		a.answerConfirm(true)
	case "n", "N", "esc":
		a.answerConfirm(false)
	default:
		return a, nil
	}
	// Re-arm the listener for the next guarded action.
	return a, a.confirm.next()
}

func (a *App) answerConfirm(ok bool) {
	if a.confirmRespSend != nil {
		a.confirmRespSend <- ok
		a.confirmRespSend = nil
	}
	a.confirming = false
	a.confirmPrompt = ""
}

func (a *App) togglePrivateCmd() tea.Cmd {
	if a.snap.PrivateMode {
		eng := a.eng
		return func() tea.Msg {
			eng.DisablePrivateMode()
			return statusMsg{text: "Private mode off"}
		}
	}
	eng := a.eng
	return func() tea.Msg {
		err := eng.EnablePrivateMode(context.Background())
		return authDoneMsg{action: "Private mode", err: err}
	}
}

func (a *App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewZones:
		a.zones, cmd = a.zones.update(msg)
	case viewLocation:
		a.loc, cmd = a.loc.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a *App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewZones:
		return a.zones.formActive
	case viewLocation:
		return a.loc.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a *App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewZones:
		return a.zones.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTasks:
		content = a.tasks.view()
	case viewZones:
		content = a.zones.view()
	case viewLocation:
		content = a.loc.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}
	if a.confirming {
		content = a.renderConfirm()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a *App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("secure-todo")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a *App) renderFooter() string {
	helpView := a.help.View(keys)

	// Context indicators on the right: state, private badge, hidden count.
	label := stateLabel(a.snap.State)
	stateBadge := lipgloss.NewStyle().Bold(true).Foreground(stateColors[label]).Render("◉ " + label)

	right := stateBadge
	if a.snap.PrivateMode {
		right += " " + privateBadgeStyle.Render("PRIVATE")
	}
	if a.snap.HiddenTotal > 0 {
		right += mutedStyle.Render(fmt.Sprintf("  %d hidden", a.snap.HiddenTotal))
	}
	if a.snap.LocationErr != nil {
		right += " " + errorStyle.Render("⚠ "+locationErrorText(a.snap.LocationErr))
	}
	if a.status != "" {
		right += mutedStyle.Render("  " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a *App) renderConfirm() string {
	title := titleStyle.Render("Confirm")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, normalItemStyle.Render("  "+a.confirmPrompt))
	rows = append(rows, "")
	rows = append(rows, warningStyle.Render("  This is a confirmation prompt, not strong authentication."))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  y: confirm  n: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderExportPicker() string {
	title := titleStyle.Render("Export Visible Tasks")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the currently visible tasks only; tasks the location
// policy hides never reach the file.
func (a *App) doExport(format int) tea.Cmd {
	tasks := a.snap.Tasks
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("secure-todo-export-%s.csv", dateStr))
			if err := export.ToCSV(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("secure-todo-export-%s.json", dateStr))
			if err := export.ToJSON(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

func authErrorText(action string, err error) string {
	switch {
	case errors.Is(err, auth.ErrNotRegistered):
		return action + " needs a credential: register one in Settings"
	case errors.Is(err, auth.ErrDeclined):
		return action + " cancelled"
	case errors.Is(err, auth.ErrUnavailable):
		return "Authentication unavailable"
	case errors.Is(err, engine.ErrAssuranceTooLow):
		return action + " requires strong authentication"
	default:
		return fmt.Sprintf("%s failed: %v", action, err)
	}
}

func locationErrorText(err error) string {
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		return "location permission denied"
	case errors.Is(err, location.ErrTimeout):
		return "location timed out"
	default:
		return "position unavailable"
	}
}
