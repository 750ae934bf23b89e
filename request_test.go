package sqlpager

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Request_Decode(t *testing.T) {
	cursor := NewCursor(map[string]any{"id": 3}, true)

	tests := []struct {
		name        string
		req         Request
		wantCursor  *Cursor
		wantPage    int
		wantPerPage int
	}{
		{"zero value", Request{}, nil, 1, DefaultPerPage},
		{"clamped per page", Request{PerPage: 1000, Page: 4}, nil, 4, MaxPerPage},
		{"negative page", Request{PerPage: 5, Page: -1}, nil, 1, 5},
		{"bad cursor", Request{Cursor: "garbage"}, nil, 1, DefaultPerPage},
		{"valid cursor", Request{Cursor: cursor.Encode(), PerPage: 20}, cursor, 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, page, perPage := tt.req.Decode()
			assert.True(t, tt.wantCursor.Equal(c))
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func Test_Request_DecodeMax(t *testing.T) {
	_, _, perPage := Request{PerPage: 60}.DecodeMax(50)
	assert.Equal(t, 50, perPage)
}

func Test_Request_Unmarshal(t *testing.T) {
	var r Request
	require.NoError(t, json.Unmarshal([]byte(`{"per_page":25,"page":2,"cursor":"abc"}`), &r))

	assert.Equal(t, Request{PerPage: 25, Page: 2, Cursor: "abc"}, r)
}

func Test_Request_Resolvers(t *testing.T) {
	r := Request{Page: 3}.Resolvers("/users")

	assert.Equal(t, 3, r.CurrentPage("page"))
	assert.Equal(t, "/users", r.CurrentPath())
	assert.Nil(t, r.CurrentCursor("cursor"))
}
