package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// statsModel charts how many tasks each category has visible vs hidden
// at the current location state.
type statsModel struct {
	width  int
	height int

	snap  engine.Snapshot
	chart barchart.Model
}

func newStatsModel() statsModel {
	return statsModel{
		chart: barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *statsModel) setSnapshot(s engine.Snapshot) {
	m.snap = s
	m.buildChart()
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	_ = msg
	return m, nil
}

func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	visible := make(map[store.Category]int)
	for _, t := range m.snap.Tasks {
		visible[t.Category]++
	}

	var bars []barchart.BarData
	for _, c := range store.Categories {
		catStyle := lipgloss.NewStyle().Foreground(categoryColors[string(c)])
		values := []barchart.BarValue{
			{Name: "visible", Value: float64(visible[c]), Style: catStyle},
			{Name: "hidden", Value: float64(m.snap.HiddenCounts[c]), Style: lipgloss.NewStyle().Foreground(colorSubtle)},
		}
		bars = append(bars, barchart.BarData{
			Label:  string(c),
			Values: values,
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	label := stateLabel(m.snap.State)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ",
		mutedStyle.Render(fmt.Sprintf("at %s", label)),
	)

	chartView := m.chart.View()

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s", "Category", "Visible", "Hidden"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", 30)))

	visible := make(map[store.Category]int)
	for _, t := range m.snap.Tasks {
		visible[t.Category]++
	}
	for _, c := range store.Categories {
		dot := lipgloss.NewStyle().Foreground(categoryColors[string(c)]).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-10s %8d %8d", dot, c, visible[c], m.snap.HiddenCounts[c]))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d of %d tasks visible", len(m.snap.Tasks), m.snap.Total)))

	table := strings.Join(rows, "\n")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", chartView, "", table),
	)
}
