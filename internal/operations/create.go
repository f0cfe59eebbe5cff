package operations

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/mutation"
)

// Runner runs a mutation intent to its terminal result.
type Runner interface {
	Run(ctx context.Context, in mutation.Intent) mutation.Result
}

// BookInput is the raw form of a new book as typed by the user.
type BookInput struct {
	Title       string
	ISBN        string
	Description string
	Price       string
	Authors     []string
	Categories  []string
	Image       string
}

// Parse trims the input and converts it to an api.NewBook. Field problems
// come back as one *api.ValidationError.
func (in BookInput) Parse() (api.NewBook, error) {
	nb := api.NewBook{
		Title:       strings.TrimSpace(in.Title),
		ISBN:        normalizeISBN(in.ISBN),
		Description: strings.TrimSpace(in.Description),
		Authors:     splitList(in.Authors),
		Categories:  splitList(in.Categories),
		ImagePath:   strings.TrimSpace(in.Image),
	}
	if p := strings.TrimSpace(in.Price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nb, &api.ValidationError{Fields: map[string]string{"price": fmt.Sprintf("%q is not a number", p)}}
		}
		nb.Price = &v
	}
	return nb, nb.Validate()
}

// CreateBook validates the input and creates the book through the mutation
// executor, so an ambiguous network failure is resolved by looking the book
// up by title and ISBN. gen is the collection generation the created book
// should be added to.
// This function is shared by both CLI (create) and TUI.
func CreateBook(ctx context.Context, r Runner, in BookInput, gen uint64) mutation.Result {
	nb, err := in.Parse()
	if err != nil {
		res := mutation.Result{
			Intent:  mutation.Intent{Op: mutation.OpCreate, Book: &nb},
			Outcome: mutation.Rejected,
			Err:     err,
			Trace:   []mutation.State{mutation.StateIdle, mutation.StateTerminal},
		}
		res.Message = mutation.Message(res)
		return res
	}
	return r.Run(ctx, mutation.Intent{Op: mutation.OpCreate, Book: &nb, Generation: gen})
}

func normalizeISBN(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// splitList accepts repeated values and comma-separated values alike.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
