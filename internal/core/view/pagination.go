package view

// Pagination describes the page control under the list.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
	Pages      []int `json:"pages"`
}

const pageWindow = 5

// Paginate computes the page control for total results. Pages holds up to
// five page numbers centred on page where possible.
func Paginate(total, page, pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	p := Pagination{Page: page, PageSize: pageSize, Pages: []int{}}
	if total <= 0 {
		return p
	}
	p.TotalPages = (total + pageSize - 1) / pageSize
	p.HasPrev = page > 1
	p.HasNext = page < p.TotalPages

	start := page - pageWindow/2
	if start > p.TotalPages-pageWindow+1 {
		start = p.TotalPages - pageWindow + 1
	}
	if start < 1 {
		start = 1
	}
	for n := start; n <= p.TotalPages && len(p.Pages) < pageWindow; n++ {
		p.Pages = append(p.Pages, n)
	}
	return p
}
