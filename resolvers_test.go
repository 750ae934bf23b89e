package sqlpager

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ResolversFromRequest(t *testing.T) {
	cursor := NewCursor(map[string]any{"id": 10}, false)
	req := httptest.NewRequest("GET", "http://example.com/users?page=3&q=a&cursor="+cursor.Encode(), nil)

	r := ResolversFromRequest(req)

	assert.Equal(t, 3, r.CurrentPage("page"))
	assert.Equal(t, 1, r.CurrentPage("other"))
	assert.Equal(t, "http://example.com/users", r.CurrentPath())
	assert.True(t, cursor.Equal(r.CurrentCursor("cursor")))
	assert.Nil(t, r.CurrentCursor("missing"))
	assert.Equal(t, map[string]string{"page": "3", "q": "a", "cursor": cursor.Encode()}, r.QueryString())
}

func Test_ResolversFromRequest_ForwardedProto(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/users?page=x", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS, http")

	r := ResolversFromRequest(req)

	assert.Equal(t, "https://example.com/users", r.CurrentPath())
	assert.Equal(t, 1, r.CurrentPage("page"))
}

func Test_ResolversFromRequest_NoHost(t *testing.T) {
	req := httptest.NewRequest("GET", "/users", nil)
	req.Host = ""

	assert.Equal(t, "/users", ResolversFromRequest(req).CurrentPath())
}

func Test_SetDefaultResolvers(t *testing.T) {
	previous := DefaultResolvers()
	t.Cleanup(func() { SetDefaultResolvers(previous) })

	assert.Equal(t, 1, DefaultResolvers().CurrentPage("page"))
	assert.Equal(t, "/", DefaultResolvers().CurrentPath())
	assert.Nil(t, DefaultResolvers().CurrentCursor("cursor"))

	SetDefaultResolvers(Resolvers{CurrentPage: func(string) int { return 4 }})

	assert.Equal(t, 4, DefaultResolvers().CurrentPage("page"))
	assert.Equal(t, "/", DefaultResolvers().CurrentPath())

	filled := Resolvers{CurrentPath: func() string { return "/x" }}.WithDefaults()
	assert.Equal(t, 4, filled.CurrentPage("page"))
	assert.Equal(t, "/x", filled.CurrentPath())
	assert.Nil(t, filled.QueryString())
}
