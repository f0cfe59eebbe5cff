package tui

import (
	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/blackwell-systems/shelfview/internal/search"
)

// resultMsg carries a resolved collection load from the search coordinator.
type resultMsg struct{ search.Result }

// mutationDoneMsg carries the terminal result of an add, remove or delete.
type mutationDoneMsg struct{ mutation.Result }

// eventMsg forwards a bus event into the program.
type eventMsg struct{ events.Event }
