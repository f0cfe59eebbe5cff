package mutation

import (
	"errors"
	"fmt"

	"github.com/blackwell-systems/shelfview/internal/api"
)

// Message renders a one-line, user-facing description of a result.
func Message(r Result) string {
	switch r.Outcome {
	case Success:
		s := successText(r.Intent)
		if r.Verified {
			s += " (confirmed after a connection problem)"
		}
		return s
	case AlreadyDone:
		return alreadyText(r.Intent)
	case Canceled:
		return "Cancelled."
	case Failed:
		if api.Classify(r.Err) == api.KindNetwork {
			return fmt.Sprintf("Could not %s: the server could not be reached after %d attempts.", verb(r.Intent.Op), r.Attempts)
		}
		return fmt.Sprintf("Could not %s: the server failed after %d attempts.", verb(r.Intent.Op), r.Attempts)
	}

	var ve *api.ValidationError
	switch {
	case errors.As(r.Err, &ve):
		return "Please fix the highlighted fields: " + ve.Error()
	case api.Classify(r.Err) == api.KindAuth:
		return "You need to log in to " + verb(r.Intent.Op) + "."
	case errors.Is(r.Err, api.ErrNotFound):
		return "That book no longer exists."
	case r.Err != nil:
		return fmt.Sprintf("Could not %s: %v", verb(r.Intent.Op), r.Err)
	}
	return "Could not " + verb(r.Intent.Op) + "."
}

func verb(op Op) string {
	switch op {
	case OpAddToLibrary:
		return "add the book to your library"
	case OpRemoveFromLibrary:
		return "remove the book from your library"
	case OpDelete:
		return "delete the book"
	case OpCreate:
		return "create the book"
	}
	return string(op)
}

func successText(in Intent) string {
	switch in.Op {
	case OpAddToLibrary:
		return "Added to your library."
	case OpRemoveFromLibrary:
		return "Removed from your library."
	case OpDelete:
		return "Book deleted."
	case OpCreate:
		return "Book created."
	}
	return "Done."
}

func alreadyText(in Intent) string {
	switch in.Op {
	case OpAddToLibrary:
		return "This book is already in your library."
	case OpRemoveFromLibrary:
		return "This book is not in your library."
	case OpDelete:
		return "This book was already deleted."
	case OpCreate:
		return "A book with this ISBN already exists."
	}
	return "Nothing to do."
}
