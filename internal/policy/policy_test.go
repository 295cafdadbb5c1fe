package policy

import (
	"testing"

	"github.com/Tomone-Nomura/secure-todo/internal/location"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

var allStates = []location.State{
	location.StateHome,
	location.StateSchool,
	location.StateWork,
	location.StateOutside,
}

// TestVisibleTruthTable covers the full 4 states x 4 categories x 2
// private-mode domain.
func TestVisibleTruthTable(t *testing.T) {
	// want[state][category] without private mode.
	want := map[location.State]map[store.Category]bool{
		location.StateHome: {
			store.CategoryPersonal: true,
			store.CategorySchool:   true,
			store.CategoryWork:     true,
			store.CategoryOther:    true,
		},
		location.StateSchool: {
			store.CategoryPersonal: false,
			store.CategorySchool:   true,
			store.CategoryWork:     false,
			store.CategoryOther:    true,
		},
		location.StateWork: {
			store.CategoryPersonal: false,
			store.CategorySchool:   false,
			store.CategoryWork:     true,
			store.CategoryOther:    true,
		},
		location.StateOutside: {
			store.CategoryPersonal: false,
			store.CategorySchool:   false,
			store.CategoryWork:     false,
			store.CategoryOther:    true,
		},
	}

	for _, state := range allStates {
		for _, cat := range store.Categories {
			got := Visible(cat, state, false)
			if got != want[state][cat] {
				t.Errorf("Visible(%s, %s, false) = %v, want %v", cat, state, got, want[state][cat])
			}
			// Private mode dominates everything.
			if !Visible(cat, state, true) {
				t.Errorf("Visible(%s, %s, true) = false, want true", cat, state)
			}
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	tasks := []store.Task{
		{ID: 1, Title: "a", Category: store.CategoryWork},
		{ID: 2, Title: "b", Category: store.CategoryOther},
		{ID: 3, Title: "c", Category: store.CategoryWork},
		{ID: 4, Title: "d", Category: store.CategorySchool},
	}

	got := Filter(tasks, location.StateWork, false)
	if len(got) != 3 {
		t.Fatalf("expected 3 visible at work, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 3 {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestFilterEmpty(t *testing.T) {
	if got := Filter(nil, location.StateHome, false); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}

func TestHiddenCounts(t *testing.T) {
	tasks := []store.Task{
		{Category: store.CategoryPersonal},
		{Category: store.CategoryPersonal},
		{Category: store.CategoryWork},
		{Category: store.CategorySchool},
		{Category: store.CategoryOther},
	}

	counts := HiddenCounts(tasks, location.StateSchool, false)
	if counts[store.CategoryPersonal] != 2 {
		t.Fatalf("expected 2 hidden personal, got %d", counts[store.CategoryPersonal])
	}
	if counts[store.CategoryWork] != 1 {
		t.Fatalf("expected 1 hidden work, got %d", counts[store.CategoryWork])
	}
	if _, ok := counts[store.CategorySchool]; ok {
		t.Fatal("school tasks are visible at school, should not be counted")
	}
	if _, ok := counts[store.CategoryOther]; ok {
		t.Fatal("other tasks are always visible, should not be counted")
	}

	if HiddenTotal(counts) != 3 {
		t.Fatalf("expected total 3, got %d", HiddenTotal(counts))
	}
}

func TestHiddenCountsPrivateMode(t *testing.T) {
	tasks := []store.Task{
		{Category: store.CategoryPersonal},
		{Category: store.CategoryWork},
	}

	counts := HiddenCounts(tasks, location.StateOutside, true)
	if len(counts) != 0 {
		t.Fatalf("private mode should hide nothing, got %+v", counts)
	}
}

// TestHiddenComplement checks hidden + visible always sums to the total.
func TestHiddenComplement(t *testing.T) {
	tasks := []store.Task{
		{Category: store.CategoryPersonal},
		{Category: store.CategorySchool},
		{Category: store.CategoryWork},
		{Category: store.CategoryOther},
		{Category: store.CategoryWork},
	}

	for _, state := range allStates {
		visible := len(Filter(tasks, state, false))
		hidden := HiddenTotal(HiddenCounts(tasks, state, false))
		if visible+hidden != len(tasks) {
			t.Fatalf("state %s: visible %d + hidden %d != %d", state, visible, hidden, len(tasks))
		}
	}
}
