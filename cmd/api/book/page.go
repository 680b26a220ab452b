package book

import (
	"github.com/book-network/cmd/api/pkgerrors"
)

const PageSizeDefault = 10
const PageSizeMax = 30

// Page is one zero-based slice of an ordered listing.
type Page[T any] struct {
	Items         []T
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
	First         bool
	Last          bool
}

func NewPage[T any](items []T, number, size, total int) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	return Page[T]{
		Items:         items,
		Number:        number,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         number == 0,
		Last:          number >= totalPages-1,
	}
}

func ValidPageParams(page, size int) bool {
	return page >= 0 && 0 < size && size <= PageSizeMax
}

/* Counts first and only fetches the rows when the requested page is inside the result set. */
func fetchPage[T any](page, size int, count func() (int, error), list func() ([]T, error)) (Page[T], error) {
	if !ValidPageParams(page, size) {
		return Page[T]{}, pkgerrors.ErrResponseQueryPageInvalid
	}

	total, err := count()
	if err != nil {
		return Page[T]{}, err
	}
	if page*size >= total {
		return NewPage([]T{}, page, size, total), nil
	}

	items, err := list()
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(items, page, size, total), nil
}
