package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/geo"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
)

// nudgeStep is roughly 50 m of latitude per arrow key press.
const nudgeStep = 0.00045

// locationModel drives the manual coordinate source and shows what the
// resolver made of the last sample.
type locationModel struct {
	eng    *engine.Engine
	source *location.ManualSource
	width  int
	height int

	snap engine.Snapshot

	formActive bool
	form       *huh.Form

	formLat *string
	formLon *string
	formAcc *string
}

func newLocationModel(eng *engine.Engine, source *location.ManualSource) locationModel {
	lat, lon, acc := "", "", "25"
	return locationModel{
		eng:     eng,
		source:  source,
		formLat: &lat,
		formLon: &lon,
		formAcc: &acc,
	}
}

func (m *locationModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *locationModel) setSnapshot(s engine.Snapshot) {
	m.snap = s
}

func (m locationModel) update(msg tea.Msg) (locationModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return m.showForm()
		case key.Matches(msg, keys.Up):
			m.nudge(nudgeStep, 0)
		case key.Matches(msg, keys.Down):
			m.nudge(-nudgeStep, 0)
		case key.Matches(msg, keys.Left):
			m.nudge(0, -nudgeStep)
		case key.Matches(msg, keys.Right):
			m.nudge(0, nudgeStep)
		}
	}
	return m, nil
}

// nudge moves the simulated position. No-op until a first fix exists.
func (m locationModel) nudge(dLat, dLon float64) {
	if m.snap.Sample == nil {
		return
	}
	c := m.snap.Sample.Coord
	c.Lat += dLat
	c.Lon += dLon
	if !c.Valid() {
		return
	}
	m.source.Set(c, m.snap.Sample.AccuracyMeters)
}

func (m locationModel) showForm() (locationModel, tea.Cmd) {
	if m.snap.Sample != nil {
		*m.formLat = strconv.FormatFloat(m.snap.Sample.Coord.Lat, 'f', 6, 64)
		*m.formLon = strconv.FormatFloat(m.snap.Sample.Coord.Lon, 'f', 6, 64)
	} else {
		*m.formLat = ""
		*m.formLon = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Latitude").Value(m.formLat),
			huh.NewInput().Title("Longitude").Value(m.formLon),
			huh.NewInput().Title("Accuracy (m)").Value(m.formAcc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m locationModel) updateForm(msg tea.Msg) (locationModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(*m.formLat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(*m.formLon), 64)
		acc, errAcc := strconv.ParseFloat(strings.TrimSpace(*m.formAcc), 64)
		if errLat != nil || errLon != nil || errAcc != nil {
			return m, func() tea.Msg { return statusMsg{text: "Invalid position", isError: true} }
		}
		coord := geo.Coordinate{Lat: lat, Lon: lon}
		if !coord.Valid() {
			return m, func() tea.Msg { return statusMsg{text: "Coordinate out of range", isError: true} }
		}

		source := m.source
		return m, func() tea.Msg {
			source.Set(coord, acc)
			return statusMsg{text: "Position updated"}
		}
	}

	return m, cmd
}

func (m locationModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Set Position")
		formView := m.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Location")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	label := stateLabel(m.snap.State)
	state := lipgloss.NewStyle().Bold(true).Foreground(stateColors[label]).Render(label)
	rows = append(rows, "  State:     "+state)

	if m.snap.Sample != nil {
		rows = append(rows, "  Position:  "+highlightStyle.Render(formatCoord(m.snap.Sample.Coord.Lat, m.snap.Sample.Coord.Lon)))
		rows = append(rows, "  Accuracy:  "+normalItemStyle.Render(formatMeters(m.snap.Sample.AccuracyMeters)))
		rows = append(rows, "  Fixed at:  "+mutedStyle.Render(m.snap.Sample.Time.Format("15:04:05")))
	} else {
		rows = append(rows, mutedStyle.Render("  No position yet. Press enter to set one."))
	}

	if m.snap.LocationErr != nil {
		rows = append(rows, "")
		rows = append(rows, errorStyle.Render("  ⚠ "+locationErrorText(m.snap.LocationErr)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: set position  arrows: nudge ~50 m"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
