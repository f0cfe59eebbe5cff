package catalog

// Append adds a book to a copy of the list and returns it.
// If a book with the same ID already exists it is replaced in place.
func Append(books []Book, b Book) []Book {
	out := make([]Book, len(books), len(books)+1)
	copy(out, books)
	for i, existing := range out {
		if existing.ID == b.ID {
			out[i] = b
			return out
		}
	}
	return append(out, b)
}

// Remove returns a copy of the list without the book with the given ID, and
// whether a book was actually removed.
func Remove(books []Book, id int64) ([]Book, bool) {
	for i, b := range books {
		if b.ID == id {
			out := make([]Book, 0, len(books)-1)
			out = append(out, books[:i]...)
			return append(out, books[i+1:]...), true
		}
	}
	return books, false
}

// SetInLibrary returns a copy of the list with the InLibrary flag of the
// given book set to v, and whether the book was present.
func SetInLibrary(books []Book, id int64, v bool) ([]Book, bool) {
	for i := range books {
		if books[i].ID == id {
			out := make([]Book, len(books))
			copy(out, books)
			out[i].InLibrary = v
			return out, true
		}
	}
	return books, false
}

// ByID returns the first book with the given ID, or nil.
func ByID(books []Book, id int64) *Book {
	for i := range books {
		if books[i].ID == id {
			return &books[i]
		}
	}
	return nil
}
