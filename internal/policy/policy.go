// Package policy decides which tasks are visible in which location
// context. Everything here is pure: callers pass the state in.
package policy

import (
	"github.com/Tomone-Nomura/secure-todo/internal/location"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// Visible reports whether a task of the given category may be shown.
// Private mode overrides location gating entirely. Otherwise:
// home shows everything, school shows school+other, work shows
// work+other, and outside any zone only "other" tasks appear.
func Visible(category store.Category, state location.State, privateMode bool) bool {
	if privateMode {
		return true
	}
	switch state {
	case location.StateHome:
		return true
	case location.StateSchool:
		return category == store.CategorySchool || category == store.CategoryOther
	case location.StateWork:
		return category == store.CategoryWork || category == store.CategoryOther
	default:
		return category == store.CategoryOther
	}
}

// Filter returns the tasks Visible allows, preserving order.
func Filter(tasks []store.Task, state location.State, privateMode bool) []store.Task {
	var out []store.Task
	for _, t := range tasks {
		if Visible(t.Category, state, privateMode) {
			out = append(out, t)
		}
	}
	return out
}

// HiddenCounts tallies hidden tasks per category, for the
// "N tasks hidden" footer. Categories with nothing hidden are absent.
func HiddenCounts(tasks []store.Task, state location.State, privateMode bool) map[store.Category]int {
	counts := make(map[store.Category]int)
	for _, t := range tasks {
		if !Visible(t.Category, state, privateMode) {
			counts[t.Category]++
		}
	}
	return counts
}

// HiddenTotal sums HiddenCounts.
func HiddenTotal(counts map[store.Category]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
