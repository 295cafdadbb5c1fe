package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tomone-Nomura/secure-todo/internal/auth"
	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
	"github.com/Tomone-Nomura/secure-todo/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath, store.Options{SeedZones: store.DefaultSeedZones})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	keyPath, err := auth.DefaultKeyPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	confirm := tui.NewConfirmBridge()
	gate := auth.NewGate(auth.NewKeyProvider(keyPath), confirm, s)
	eng := engine.New(s, gate, engine.Config{})

	source := location.NewManualSource()
	opts := location.WatchOptions{Accuracy: location.ParseAccuracy(eng.Accuracy())}
	if err := eng.Watch(source, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer eng.StopWatching()

	app := tui.NewApp(eng, source, confirm)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
