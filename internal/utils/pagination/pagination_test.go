package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination_Limit(t *testing.T) {
	tests := []struct {
		name     string
		pageSize int
		want     int
	}{
		{"default when unset", 0, DefaultPageSize},
		{"within range", 5, 5},
		{"clamped", 500, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pagination{Page: 1, PageSize: tt.pageSize}
			assert.Equal(t, tt.want, p.Limit())
		})
	}
}

func TestPagination_Info(t *testing.T) {
	p := &Pagination{Page: 2, PageSize: 3}
	assert.Equal(t, 3, p.Offset())
	assert.Equal(t, PageInfo{Page: 2, PageSize: 3, Total: 7, TotalPages: 3}, p.Info(7))
	assert.Equal(t, 0, p.TotalPages(0))
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{4, 5, 6}, Window(items, &Pagination{Page: 2, PageSize: 3}))
	assert.Equal(t, []int{7}, Window(items, &Pagination{Page: 3, PageSize: 3}))
	assert.Empty(t, Window(items, &Pagination{Page: 4, PageSize: 3}))

	p := &Pagination{Page: 0, PageSize: 2}
	assert.Equal(t, []int{1, 2}, Window(items, p))
	assert.Equal(t, DefaultPage, p.Page)
}
