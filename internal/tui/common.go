package tui

import (
	"fmt"

	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewZones
	viewLocation
	viewStats
	viewSettings
)

var viewNames = []string{"Tasks", "Zones", "Location", "Stats", "Settings"}

// --- Messages ---

// snapshotMsg carries a fresh engine snapshot into the update loop.
type snapshotMsg engine.Snapshot

// confirmPromptMsg asks the user the fallback-assurance question for a
// pending guarded action.
type confirmPromptMsg struct {
	prompt string
	resp   chan<- bool
}

// authDoneMsg reports the outcome of a guarded action or registration.
type authDoneMsg struct {
	action string
	err    error
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatCoord(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

func formatMeters(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}

func stateLabel(s location.State) string {
	switch s {
	case location.StateHome:
		return "HOME"
	case location.StateSchool:
		return "SCHOOL"
	case location.StateWork:
		return "WORK"
	default:
		return "OUTSIDE"
	}
}
