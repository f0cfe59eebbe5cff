package tui

import (
	"context"
	"errors"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/search"
	tea "github.com/charmbracelet/bubbletea"
)

// NewCoordinator builds the search coordinator for a running program.
// sink delivers results into the program's update loop.
type NewCoordinator func(sink func(search.Result)) *search.Coordinator

// RunBrowser launches the interactive browser and blocks until the user quits
// or ctx is canceled. Bus events are forwarded into the program so rows
// reflect mutations made elsewhere.
func RunBrowser(ctx context.Context, d Deps, newCoord NewCoordinator, bus *events.Bus, typ api.SearchType) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.Ctx = ctx

	m := NewBrowserModel(&d, typ)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	d.Search = newCoord(func(r search.Result) { p.Send(resultMsg{r}) })
	defer d.Search.Close()

	defer forwardEvents(bus, p)()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forwardEvents subscribes p to bus and returns the unsubscribe function.
//
// CollectionReplaced is published by the page while the update loop applies
// a result, and the model already syncs on that result; sending it back would
// block the loop on its own unbuffered channel. Other events come from
// mutation commands running off the loop.
func forwardEvents(bus *events.Bus, p *tea.Program) func() {
	if bus == nil {
		return func() {}
	}
	return bus.Subscribe(func(e events.Event) {
		if e.Kind == events.CollectionReplaced {
			return
		}
		p.Send(eventMsg{e})
	})
}
