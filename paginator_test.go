package sqlpager

import (
	"encoding/json"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Paginator_TrimsLookahead(t *testing.T) {
	p := NewPaginator([]int{1, 2, 3}, 2, "1", Options{Path: "/users"})

	assert.Equal(t, []int{1, 2}, p.Items())
	assert.Equal(t, 2, p.Count())
	assert.Equal(t, 2, p.PerPage())
	assert.Equal(t, 1, p.CurrentPage())
	assert.True(t, p.HasMorePages())
	assert.True(t, p.HasPages())
	assert.True(t, p.OnFirstPage())
	assert.False(t, p.OnLastPage())
	assert.Equal(t, "", p.PreviousPageURL())
	assert.Equal(t, "/users?page=2", p.NextPageURL())
	assert.Equal(t, lo.ToPtr(1), p.FirstItem())
	assert.Equal(t, lo.ToPtr(2), p.LastItem())
}

func Test_Paginator_LastPage(t *testing.T) {
	p := NewPaginator([]int{5}, 2, 3, Options{Path: "/users"})

	assert.False(t, p.HasMorePages())
	assert.True(t, p.HasPages())
	assert.True(t, p.OnLastPage())
	assert.False(t, p.OnFirstPage())
	assert.Equal(t, "/users?page=2", p.PreviousPageURL())
	assert.Equal(t, "", p.NextPageURL())
	assert.Equal(t, lo.ToPtr(5), p.FirstItem())
	assert.Equal(t, lo.ToPtr(5), p.LastItem())
}

func Test_Paginator_Empty(t *testing.T) {
	p := NewPaginator[int](nil, 10, nil, Options{})

	assert.True(t, p.IsEmpty())
	assert.Nil(t, p.FirstItem())
	assert.Nil(t, p.LastItem())
	assert.False(t, p.HasPages())
	assert.Equal(t, "/", p.Path())
	assert.Equal(t, "/?page=1", p.URL(0))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"current_page": 1,
		"data": [],
		"first_page_url": "/?page=1",
		"from": null,
		"prev_page_url": null,
		"path": "/",
		"per_page": 10,
		"to": null,
		"next_page_url": null
	}`, string(data))
}

func Test_Paginator_Appends(t *testing.T) {
	p := NewPaginator([]int{1, 2, 3}, 2, 1, Options{Path: "/users", Query: map[string]string{"q": "x"}}).
		Appends("sort", "name").
		Appends("page", "9").
		AppendQuery(map[string]string{"dir": "desc"}).
		WithFragment("list")

	assert.Equal(t, "/users?dir=desc&page=2&q=x&sort=name#list", p.NextPageURL())
	assert.Equal(t, "list", p.Fragment())

	p.WithPath("https://example.com/people")
	assert.Equal(t, "https://example.com/people?dir=desc&page=1&q=x&sort=name#list", p.URL(1))
}

func Test_Paginator_OptionsQueryNotShared(t *testing.T) {
	query := map[string]string{"q": "x"}
	NewPaginator([]int{1}, 1, 1, Options{Query: query}).Appends("sort", "id")

	assert.Equal(t, map[string]string{"q": "x"}, query)
}

func Test_Paginator_CustomPageName(t *testing.T) {
	p := NewPaginator([]int{1, 2}, 1, 1, Options{Path: "/users", PageName: "p"})

	assert.Equal(t, "/users?p=2", p.NextPageURL())
}

func Test_Paginator_MarshalJSON(t *testing.T) {
	p := NewPaginator([]string{"a", "b", "c"}, 2, 1, Options{Path: "/users"})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"current_page": 1,
		"data": ["a", "b"],
		"first_page_url": "/users?page=1",
		"from": 1,
		"prev_page_url": null,
		"path": "/users",
		"per_page": 2,
		"to": 2,
		"next_page_url": "/users?page=2"
	}`, string(data))
	assert.JSONEq(t, string(data), p.String())
}

func Test_LengthAwarePaginator(t *testing.T) {
	p := NewLengthAwarePaginator([]int{9, 10}, 10, 4, 3, Options{Path: "/users"})

	assert.Equal(t, 3, p.LastPage())
	assert.Equal(t, 10, p.Total())
	assert.Equal(t, lo.ToPtr(9), p.FirstItem())
	assert.Equal(t, lo.ToPtr(10), p.LastItem())
	assert.False(t, p.HasMorePages())
	assert.True(t, p.OnLastPage())
	assert.True(t, p.HasPages())
	assert.Equal(t, "", p.NextPageURL())
	assert.Equal(t, "/users?page=2", p.PreviousPageURL())
	assert.Equal(t, "/users?page=3", p.LastPageURL())
}

func Test_LengthAwarePaginator_LastPage(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		perPage int
		want    int
	}{
		{"empty", 0, 15, 1},
		{"exact", 20, 10, 2},
		{"remainder", 21, 10, 3},
		{"single", 1, 10, 1},
		{"negative total", -5, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLengthAwarePaginator[int](nil, tt.total, tt.perPage, 1, Options{})
			assert.Equal(t, tt.want, p.LastPage())
		})
	}
}

func Test_LengthAwarePaginator_MiddlePage(t *testing.T) {
	p := NewLengthAwarePaginator([]int{5, 6, 7, 8}, 10, 4, "2", Options{Path: "/users"}).Appends("q", "a")

	assert.True(t, p.HasMorePages())
	assert.False(t, p.OnFirstPage())
	assert.Equal(t, "/users?page=3&q=a", p.NextPageURL())
	assert.Equal(t, "/users?page=1&q=a", p.PreviousPageURL())
}

func Test_LengthAwarePaginator_MarshalJSON(t *testing.T) {
	p := NewLengthAwarePaginator([]int{1, 2}, 3, 2, 1, Options{Path: "/users"})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"current_page": 1,
		"data": [1, 2],
		"first_page_url": "/users?page=1",
		"from": 1,
		"prev_page_url": null,
		"path": "/users",
		"per_page": 2,
		"to": 2,
		"next_page_url": "/users?page=2",
		"last_page": 2,
		"last_page_url": "/users?page=2",
		"total": 3
	}`, string(data))
}
