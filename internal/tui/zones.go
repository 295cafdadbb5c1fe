package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

type zonesModel struct {
	eng    *engine.Engine
	width  int
	height int

	zones  []store.Zone
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName   *string
	formLat    *string
	formLon    *string
	formRadius *string
	formKind   *string
}

func newZonesModel(eng *engine.Engine) zonesModel {
	name, lat, lon, radius, kind := "", "", "", "", string(store.ZoneHome)
	return zonesModel{
		eng:        eng,
		formName:   &name,
		formLat:    &lat,
		formLon:    &lon,
		formRadius: &radius,
		formKind:   &kind,
	}
}

func (m *zonesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type zonesDataMsg struct {
	zones []store.Zone
}

func (m zonesModel) refresh() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		zones, _ := eng.Zones()
		return zonesDataMsg{zones: zones}
	}
}

func (m zonesModel) update(msg tea.Msg) (zonesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case zonesDataMsg:
		m.zones = msg.zones
		if m.cursor >= len(m.zones) {
			m.cursor = max(0, len(m.zones)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.zones)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewForm()
		case key.Matches(msg, keys.Delete):
			if len(m.zones) > 0 {
				id := m.zones[m.cursor].ID
				eng := m.eng
				return m, func() tea.Msg {
					// Blocks until the gate resolves; the confirm overlay
					// may appear in the meantime.
					err := eng.DeleteZone(context.Background(), id)
					return authDoneMsg{action: "Zone deletion", err: err}
				}
			}
		}
	}
	return m, nil
}

func (m zonesModel) showNewForm() (zonesModel, tea.Cmd) {
	*m.formName = ""
	*m.formLat = ""
	*m.formLon = ""
	*m.formRadius = "200"
	*m.formKind = string(store.ZoneHome)

	kindOptions := make([]huh.Option[string], len(store.ZoneKinds))
	for i, k := range store.ZoneKinds {
		kindOptions[i] = huh.NewOption(string(k), string(k))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Zone Name").Value(m.formName),
			huh.NewInput().Title("Latitude").Value(m.formLat),
			huh.NewInput().Title("Longitude").Value(m.formLon),
			huh.NewInput().Title("Radius (m)").Value(m.formRadius),
			huh.NewSelect[string]().Title("Kind").Options(kindOptions...).Value(m.formKind),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m zonesModel) updateForm(msg tea.Msg) (zonesModel, tea.Cmd) {
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

		name := strings.TrimSpace(*m.formName)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(*m.formLat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(*m.formLon), 64)
		radius, errRad := strconv.ParseFloat(strings.TrimSpace(*m.formRadius), 64)
		kind := store.ZoneKind(*m.formKind)

		if name == "" {
			return m, func() tea.Msg { return statusMsg{text: "Zone name is required", isError: true} }
		}
		if errLat != nil || errLon != nil || errRad != nil {
			return m, func() tea.Msg { return statusMsg{text: "Invalid coordinate or radius", isError: true} }
		}

		eng := m.eng
		return m, func() tea.Msg {
			_, err := eng.CreateZone(context.Background(), name, lat, lon, radius, kind)
			return authDoneMsg{action: "Zone registration", err: err}
		}
	}

	return m, cmd
}

func (m zonesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Zone")
		formView := m.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Zones")

	if len(m.zones) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No zones registered. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-20s %-8s %-20s %10s", "Name", "Kind", "Center", "Radius"))
	rows = append(rows, header)

	for i, z := range m.zones {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-20s %-8s %-20s %10s",
			cursor, z.Name, z.Kind, formatCoord(z.Lat, z.Lon), formatMeters(z.Radius)))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new (auth)  d: delete (auth)"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
