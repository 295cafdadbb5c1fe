package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmRequest struct {
	prompt string
	resp   chan bool
}

// ConfirmBridge carries fallback-assurance confirmation requests from a
// blocked auth.Gate.Verify (running in a command goroutine) into the
// Bubble Tea update loop, where the user answers them. It satisfies
// auth.Confirmer.
type ConfirmBridge struct {
	ch chan confirmRequest
}

func NewConfirmBridge() *ConfirmBridge {
	return &ConfirmBridge{ch: make(chan confirmRequest)}
}

func (b *ConfirmBridge) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, resp: make(chan bool, 1)}
	select {
	case b.ch <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.resp:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// next blocks until a confirmation is requested and surfaces it as a
// message. The app re-arms it after every prompt.
func (b *ConfirmBridge) next() tea.Cmd {
	return func() tea.Msg {
		req := <-b.ch
		return confirmPromptMsg{prompt: req.prompt, resp: req.resp}
	}
}
