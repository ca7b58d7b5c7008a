package store

// Page selects one page of a list. Numbers start at 1.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane values.
func (p Page) Normalize() Page {
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	if p.Number < 1 {
		p.Number = 1
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult is one page of items plus what the paginator needs.
type PageResult[T any] struct {
	Items  []T `json:"items"`
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
}

// NewPageResult assembles a result for page p.
func NewPageResult[T any](items []T, p Page, total int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Number: p.Number, Size: p.Size, Total: total}
}

// NumPages is at least 1 so an empty list still renders "page 1 of 1".
func (r PageResult[T]) NumPages() int {
	if r.Size <= 0 || r.Total == 0 {
		return 1
	}
	return (r.Total + r.Size - 1) / r.Size
}

// HasPrev reports whether there is a page before this one.
func (r PageResult[T]) HasPrev() bool { return r.Number > 1 }

// HasNext reports whether there is a page after this one.
func (r PageResult[T]) HasNext() bool { return r.Number < r.NumPages() }

// Prev is the previous page number.
func (r PageResult[T]) Prev() int { return r.Number - 1 }

// Next is the next page number.
func (r PageResult[T]) Next() int { return r.Number + 1 }
