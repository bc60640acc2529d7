package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, size, want int
	}{
		{0, 100, 1},
		{1, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{250, 100, 3},
		{10000, 100, 100},
		{5, 0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.count, tt.size), "count=%d size=%d", tt.count, tt.size)
	}
}

func TestPaginate(t *testing.T) {
	records := randomRecords(250, 3)

	tests := []struct {
		name      string
		index     int
		wantLen   int
		wantFirst int
	}{
		{"first page", 1, 100, 0},
		{"middle page", 2, 100, 100},
		{"last partial page", 3, 50, 200},
		{"past the end", 4, 0, -1},
		{"zero index", 0, 0, -1},
		{"negative index", -3, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(records, tt.index, PageSize)
			assert.NotNil(t, page)
			assert.Len(t, page, tt.wantLen)
			if tt.wantFirst >= 0 {
				assert.Equal(t, records[tt.wantFirst], page[0])
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	assert.Empty(t, Paginate(nil, 1, PageSize))
	assert.Equal(t, 1, TotalPages(0, PageSize))
}

func TestPaginateResultCannotGrowIntoNextPage(t *testing.T) {
	records := randomRecords(10, 1)
	page := Paginate(records, 1, 4)
	page = append(page, records[9])
	assert.Equal(t, records[4].Container, Paginate(records, 2, 4)[0].Container)
	assert.Len(t, page, 5)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
}
