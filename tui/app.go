// Package tui is the interactive terminal frontend: login, search, read,
// draft with Gemini, and send.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type App struct {
	program *tea.Program
}

// NewApp wires the credential store, mail client, and draft generator into
// the interactive program. A non-empty initialQuery runs as the first search.
func NewApp(ctx context.Context, creds Auth, mail Mail, gen Replier, maxResults int64, initialQuery string) *App {
	model := NewModel(ctx, creds, mail, gen, maxResults, initialQuery)
	return &App{
		program: tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)),
	}
}

// Run blocks until the user quits or the context is canceled.
func (a *App) Run() error {
	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
