package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		limit      int
		totalPages int
	}{
		{"empty", 0, 20, 0},
		{"exact pages", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"single short page", 3, 20, 1},
		{"zero limit falls back", 25, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]int{}, tt.total, 1, tt.limit)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalResults)
		})
	}
}

func TestNewPaginated_NilResultsBecomeEmpty(t *testing.T) {
	p := NewPaginated[string](nil, 0, 1, 10)
	assert.NotNil(t, p.Results)
	assert.Empty(t, p.Results)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, Limit: 1000, OrderDir: "sideways"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, "desc", f.OrderDir)

	assert.Equal(t, 40, Filter{Page: 3, Limit: 20}.Offset())
}

func TestMapPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2, 3}, 13, 2, 3)
	mapped := MapPaginated(p, func(i int) int { return i * 10 })

	assert.Equal(t, []int{10, 20, 30}, mapped.Results)
	assert.Equal(t, 5, mapped.TotalPages)
	assert.Equal(t, 2, mapped.Page)
}
