package pipeline

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize applies when the requested size is not selectable.
const DefaultPageSize = 25

// NormalizePageSize snaps size to a selectable value.
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return DefaultPageSize
}

// Paged is one slice of a list plus the state of the paging controls.
type Paged[E any] struct {
	Items      []E  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Paginate slices items into [(page-1)*size, page*size). Out of range pages are
// clamped to the nearest valid page.
func Paginate[E any](items []E, page, size int) Paged[E] {
	size = NormalizePageSize(size)
	total := len(items)
	totalPages := (total + size - 1) / size

	page = clampPage(page, totalPages)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]E, end-start)
	copy(out, items[start:end])

	return Paged[E]{
		Items:      out,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// clampPage keeps page in [1, totalPages]. An empty list still has page 1.
func clampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Pager holds list paging state across interactions.
type Pager struct {
	Page int
	Size int
}

// NewPager starts on page 1 with the default size.
func NewPager() Pager {
	return Pager{Page: 1, Size: DefaultPageSize}
}

// SetSize changes the page size and returns to page 1.
func (p *Pager) SetSize(size int) {
	p.Size = NormalizePageSize(size)
	p.Page = 1
}

// Next advances one page unless already on the last one.
func (p *Pager) Next(total int) {
	p.Page = clampPage(p.Page+1, p.totalPages(total))
}

// Prev goes back one page unless already on the first one.
func (p *Pager) Prev(total int) {
	p.Page = clampPage(p.Page-1, p.totalPages(total))
}

func (p *Pager) totalPages(total int) int {
	size := NormalizePageSize(p.Size)
	return (total + size - 1) / size
}
