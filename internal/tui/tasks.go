package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

type tasksModel struct {
	eng    *engine.Engine
	width  int
	height int

	snap   engine.Snapshot
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "task", "edit_task"

	// Form field pointers (survive value copies)
	formTitle    *string
	formDetail   *string
	formCategory *string

	editingID int64
}

func newTasksModel(eng *engine.Engine) tasksModel {
	title, detail, category := "", "", string(store.CategoryPersonal)
	return tasksModel{
		eng:          eng,
		formTitle:    &title,
		formDetail:   &detail,
		formCategory: &category,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *tasksModel) setSnapshot(s engine.Snapshot) {
	m.snap = s
	if m.cursor >= len(s.Tasks) {
		m.cursor = max(0, len(s.Tasks)-1)
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.snap.Tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if len(m.snap.Tasks) > 0 {
				id := m.snap.Tasks[m.cursor].ID
				eng := m.eng
				return m, func() tea.Msg {
					if err := eng.ToggleTask(id); err != nil {
						return statusMsg{text: fmt.Sprintf("toggle: %v", err), isError: true}
					}
					return nil
				}
			}
		case key.Matches(msg, keys.New):
			return m.showNewForm()
		case key.Matches(msg, keys.Edit):
			if len(m.snap.Tasks) > 0 {
				return m.showEditForm()
			}
		case key.Matches(msg, keys.Delete):
			if len(m.snap.Tasks) > 0 {
				id := m.snap.Tasks[m.cursor].ID
				eng := m.eng
				return m, func() tea.Msg {
					if err := eng.DeleteTask(id); err != nil {
						return statusMsg{text: fmt.Sprintf("delete: %v", err), isError: true}
					}
					return statusMsg{text: "Task deleted"}
				}
			}
		case key.Matches(msg, keys.Clear):
			eng := m.eng
			return m, func() tea.Msg {
				n, err := eng.DeleteCompleted()
				if err != nil {
					return statusMsg{text: fmt.Sprintf("clear: %v", err), isError: true}
				}
				return statusMsg{text: fmt.Sprintf("Removed %d completed", n)}
			}
		}
	}
	return m, nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(store.Categories))
	for i, c := range store.Categories {
		opts[i] = huh.NewOption(string(c), string(c))
	}
	return opts
}

func (m tasksModel) showNewForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formDetail = ""
	*m.formCategory = string(store.CategoryPersonal)
	m.formType = "task"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewInput().Title("Detail").Value(m.formDetail),
			huh.NewSelect[string]().Title("Category").Options(categoryOptions()...).Value(m.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showEditForm() (tasksModel, tea.Cmd) {
	t := m.snap.Tasks[m.cursor]
	*m.formTitle = t.Title
	*m.formDetail = t.Detail
	*m.formCategory = string(t.Category)
	m.formType = "edit_task"
	m.editingID = t.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewInput().Title("Detail").Value(m.formDetail),
			huh.NewSelect[string]().Title("Category").Options(categoryOptions()...).Value(m.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
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
		title := strings.TrimSpace(*m.formTitle)
		if title == "" {
			return m, func() tea.Msg {
				return statusMsg{text: "Title is required", isError: true}
			}
		}
		detail := *m.formDetail
		category := store.Category(*m.formCategory)
		eng := m.eng

		switch m.formType {
		case "task":
			return m, func() tea.Msg {
				if _, err := eng.CreateTask(title, detail, category); err != nil {
					return statusMsg{text: fmt.Sprintf("create: %v", err), isError: true}
				}
				return statusMsg{text: "Task added"}
			}
		case "edit_task":
			id := m.editingID
			return m, func() tea.Msg {
				if err := eng.UpdateTask(id, title, detail, category); err != nil {
					return statusMsg{text: fmt.Sprintf("update: %v", err), isError: true}
				}
				return statusMsg{text: "Task updated"}
			}
		}
	}

	return m, cmd
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		if m.formType == "edit_task" {
			title = titleStyle.Render("Edit Task")
		}
		formView := m.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Tasks")
	if m.snap.HiddenTotal > 0 {
		title += mutedStyle.Render(fmt.Sprintf("  (%d hidden here)", m.snap.HiddenTotal))
	}

	if len(m.snap.Tasks) == 0 {
		hint := "No tasks yet. Press n to create one."
		if m.snap.Total > 0 {
			hint = fmt.Sprintf("All %d tasks are hidden at this location.", m.snap.Total)
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render(hint),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, t := range m.snap.Tasks {
		check := "☐"
		if t.Completed {
			check = "☑"
		}
		catDot := lipgloss.NewStyle().Foreground(categoryColors[string(t.Category)]).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s %-32s", cursor, check, catDot, t.Title)
		if t.Completed {
			rows = append(rows, completedStyle.Render(line)+mutedStyle.Render(string(t.Category)))
		} else {
			rows = append(rows, style.Render(line)+mutedStyle.Render(string(t.Category)))
		}
		if i == m.cursor && t.Detail != "" {
			rows = append(rows, mutedStyle.Render("      "+t.Detail))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  space: toggle  c: clear done"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
