package calendar

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page — страница списка бронирований или событий.
type Page[T any] struct {
	Items    []T
	Page     int // с 1
	PageSize int
	Pages    int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// Paginate режет items на страницы. page < 1 считается первой страницей,
// pageSize вне (0, MaxPageSize] заменяется на DefaultPageSize или MaxPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	page = max(page, 1)

	total := len(items)
	from := min((page-1)*pageSize, total)
	to := min(from+pageSize, total)

	return Page[T]{
		Items:    items[from:to],
		Page:     page,
		PageSize: pageSize,
		Pages:    (total + pageSize - 1) / pageSize,
		Total:    total,
		HasNext:  to < total,
		HasPrev:  page > 1,
	}
}
