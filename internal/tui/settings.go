package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/auth"
	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
)

type settingsModel struct {
	eng    *engine.Engine
	width  int
	height int

	registered bool
	strategy   location.Strategy
	accuracy   string

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formStrategy *string
	formAccuracy *string
}

func newSettingsModel(eng *engine.Engine) settingsModel {
	strategy, accuracy := "", ""
	return settingsModel{
		eng:          eng,
		formStrategy: &strategy,
		formAccuracy: &accuracy,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type settingsDataMsg struct {
	registered bool
	strategy   location.Strategy
	accuracy   string
}

func (m settingsModel) refresh() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		return settingsDataMsg{
			registered: eng.Gate().Registered(),
			strategy:   eng.Strategy(),
			accuracy:   eng.Accuracy(),
		}
	}
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		m.registered = msg.registered
		m.strategy = msg.strategy
		m.accuracy = msg.accuracy
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return m.showForm()
		case key.Matches(msg, keys.New): // n: register credential
			if !m.registered {
				eng := m.eng
				return m, func() tea.Msg {
					assurance, err := eng.Gate().Register(context.Background())
					if err != nil {
						return authDoneMsg{action: "Registration", err: err}
					}
					return statusMsg{text: fmt.Sprintf("Credential registered (%s assurance)", assurance)}
				}
			}
		case key.Matches(msg, keys.Delete): // d: reset credential
			if m.registered {
				eng := m.eng
				return m, func() tea.Msg {
					if err := eng.Gate().Reset(); err != nil {
						return authDoneMsg{action: "Reset", err: err}
					}
					return statusMsg{text: "Credential cleared; private mode off"}
				}
			}
		}
	}
	return m, nil
}

func (m settingsModel) showForm() (settingsModel, tea.Cmd) {
	*m.formStrategy = m.strategy.String()
	*m.formAccuracy = m.accuracy

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Zone matching").
				Options(
					huh.NewOption("Nearest zone wins", "nearest"),
					huh.NewOption("Registration order wins", "first"),
				).Value(m.formStrategy),
			huh.NewSelect[string]().Title("Location accuracy").
				Options(
					huh.NewOption("High", "high"),
					huh.NewOption("Low", "low"),
				).Value(m.formAccuracy),
		).Title("Location"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		strategy := location.ParseStrategy(*m.formStrategy)
		accuracy := *m.formAccuracy
		eng := m.eng
		return m, tea.Batch(
			func() tea.Msg {
				if err := eng.SetStrategy(strategy); err != nil {
					return statusMsg{text: fmt.Sprintf("save: %v", err), isError: true}
				}
				if err := eng.SetAccuracy(accuracy); err != nil {
					return statusMsg{text: fmt.Sprintf("save: %v", err), isError: true}
				}
				return statusMsg{text: "Settings saved"}
			},
			m.refresh(),
		)
	}

	return m, cmd
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Settings")
		formView := m.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")

	credential := errorStyle.Render("not registered")
	credHint := "n: register credential"
	if m.registered {
		state := "registered"
		if m.eng.Gate().State() == auth.AwaitingVerification {
			state = "verifying…"
		}
		credential = successStyle.Render(state)
		credHint = "d: reset credential"
	}

	strategyLabel := "Nearest zone wins"
	if m.strategy == location.FirstMatch {
		strategyLabel = "Registration order wins"
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Credential"), credential))
	rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Zone matching"), highlightStyle.Render(strategyLabel)))
	rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Location accuracy"), highlightStyle.Render(m.accuracy)))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: edit  "+credHint))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
