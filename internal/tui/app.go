package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stormlightlabs/memoria/internal/search"
)

// Backend is what the browser searches and reads records through.
// *search.Service implements it.
type Backend interface {
	Run(ctx context.Context, mode search.Mode, q search.Query) (search.Result, error)
	GetByID(ctx context.Context, typ string, id int64) (search.Record, error)
}

// Options scopes the browser to one project and ranking mode.
type Options struct {
	ProjectID int64
	Mode      search.Mode
	Limit     int
}

// Run starts the Bubble Tea program against the given backend.
func Run(b Backend, opts Options) error {
	p := tea.NewProgram(NewRootModel(b, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
