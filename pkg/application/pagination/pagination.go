package pagination

// DefaultPageSize applies when a request carries no page size
const DefaultPageSize = 10

// Request selects one page; PageNumber is 1-based
type Request struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps the page number to 1 and fills a missing size with defaultSize
func (r Request) Normalize(defaultSize int) Request {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if r.PageNumber < 1 {
		r.PageNumber = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultSize
	}
	return r
}

// Page is one slice of a fully materialized result
type Page[T any] struct {
	Items      []T
	PageNumber int
	PageSize   int
	TotalCount int
	TotalPages int
}

// Paginate slices items in memory. A page past the end is empty but keeps the totals.
func Paginate[T any](items []T, req Request, defaultSize int) Page[T] {
	req = req.Normalize(defaultSize)
	total := len(items)

	page := Page[T]{
		Items:      []T{},
		PageNumber: req.PageNumber,
		PageSize:   req.PageSize,
		TotalCount: total,
		TotalPages: total / req.PageSize,
	}
	if total%req.PageSize != 0 {
		page.TotalPages++
	}

	// compared before multiplying so huge page numbers cannot wrap
	if total == 0 || req.PageNumber-1 > (total-1)/req.PageSize {
		return page
	}
	start := (req.PageNumber - 1) * req.PageSize
	end := total
	if req.PageSize < total-start {
		end = start + req.PageSize
	}
	page.Items = items[start:end]
	return page
}
