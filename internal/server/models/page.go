package models

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	PageSize    int
	TotalCount  int
}

// TotalPages rounds TotalCount/PageSize up.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}
