package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"valid", Params{Page: 3, PerPage: 50}, Params{Page: 3, PerPage: 50}},
		{"zero page", Params{Page: 0, PerPage: 10}, Params{Page: 1, PerPage: 10}},
		{"negative page", Params{Page: -1, PerPage: 10}, Params{Page: 1, PerPage: 10}},
		{"zero per page", Params{Page: 2}, Params{Page: 2, PerPage: 20}},
		{"capped per page", Params{Page: 1, PerPage: 500}, Params{Page: 1, PerPage: MaxPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 100, Params{Page: 3, PerPage: 50}.Offset())
}

func TestPaginate_FirstPage(t *testing.T) {
	r := Paginate(seq(45), Params{Page: 1, PerPage: 20})

	assert.Equal(t, seq(20), r.Data)
	assert.Equal(t, 45, r.TotalCount)
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.False(t, r.HasPrev)
}

func TestPaginate_LastPartialPage(t *testing.T) {
	r := Paginate(seq(45), Params{Page: 3, PerPage: 20})

	assert.Equal(t, []int{41, 42, 43, 44, 45}, r.Data)
	assert.False(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestPaginate_ExactMultiple(t *testing.T) {
	r := Paginate(seq(40), Params{Page: 2, PerPage: 20})

	assert.Len(t, r.Data, 20)
	assert.Equal(t, 2, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestPaginate_PastTheEnd(t *testing.T) {
	r := Paginate(seq(5), Params{Page: 4, PerPage: 2})

	assert.Empty(t, r.Data)
	assert.Equal(t, 5, r.TotalCount)
	assert.Equal(t, 3, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestPaginate_Empty(t *testing.T) {
	r := Paginate([]string{}, DefaultParams())

	assert.Empty(t, r.Data)
	assert.Zero(t, r.TotalPages)
	assert.False(t, r.HasNext)
	assert.False(t, r.HasPrev)
}
