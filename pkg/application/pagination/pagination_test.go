package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name          string
		req           Request
		expectedItems []string
		expectedPage  int
		expectedSize  int
		expectedPages int
	}{
		{"first_page", Request{PageNumber: 1, PageSize: 2}, []string{"a", "b"}, 1, 2, 3},
		{"last_partial_page", Request{PageNumber: 3, PageSize: 2}, []string{"e"}, 3, 2, 3},
		{"past_the_end", Request{PageNumber: 9, PageSize: 2}, []string{}, 9, 2, 3},
		{"defaults", Request{}, []string{"a", "b", "c", "d", "e"}, 1, DefaultPageSize, 1},
		{"negative_page", Request{PageNumber: -3, PageSize: 4}, []string{"a", "b", "c", "d"}, 1, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(items, tt.req, 0)
			assert.Equal(t, tt.expectedItems, page.Items)
			assert.Equal(t, tt.expectedPage, page.PageNumber)
			assert.Equal(t, tt.expectedSize, page.PageSize)
			assert.Equal(t, tt.expectedPages, page.TotalPages)
			assert.Equal(t, len(items), page.TotalCount)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]int(nil), Request{PageNumber: 1, PageSize: 5}, 0)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.TotalCount)
	assert.Zero(t, page.TotalPages)
}

func TestRequest_NormalizeUsesConfiguredDefault(t *testing.T) {
	assert.Equal(t, Request{PageNumber: 1, PageSize: 25}, Request{}.Normalize(25))
}

func TestPaginate_HugeRequests(t *testing.T) {
	items := []int{1, 2, 3}

	page := Paginate(items, Request{PageNumber: math.MaxInt/10 + 2, PageSize: 10}, 0)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)

	page = Paginate(items, Request{PageNumber: math.MaxInt, PageSize: math.MaxInt}, 0)
	assert.Empty(t, page.Items)

	page = Paginate(items, Request{PageNumber: 1, PageSize: math.MaxInt}, 0)
	assert.Equal(t, []int{1, 2, 3}, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 3, page.TotalCount)
}
