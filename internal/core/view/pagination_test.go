package view_test

import (
	"testing"

	"github.com/samirrijal/diadiem/internal/core/view"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		total, page int
		pages       []int
		prev, next  bool
		totalPages  int
	}{
		{0, 1, []int{}, false, false, 0},
		{15, 1, []int{1}, false, false, 1},
		{41, 1, []int{1, 2, 3}, false, true, 3},
		{200, 1, []int{1, 2, 3, 4, 5}, false, true, 10},
		{200, 6, []int{4, 5, 6, 7, 8}, true, true, 10},
		{200, 10, []int{6, 7, 8, 9, 10}, true, false, 10},
		{200, 9, []int{6, 7, 8, 9, 10}, true, true, 10},
	}
	for _, c := range cases {
		p := view.Paginate(c.total, c.page, 20)
		if p.TotalPages != c.totalPages || p.HasPrev != c.prev || p.HasNext != c.next {
			t.Errorf("Paginate(%d, %d): got %+v", c.total, c.page, p)
			continue
		}
		if len(p.Pages) != len(c.pages) {
			t.Errorf("Paginate(%d, %d): pages %v, want %v", c.total, c.page, p.Pages, c.pages)
			continue
		}
		for i := range c.pages {
			if p.Pages[i] != c.pages[i] {
				t.Errorf("Paginate(%d, %d): pages %v, want %v", c.total, c.page, p.Pages, c.pages)
				break
			}
		}
	}
}
