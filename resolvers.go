package sqlpager

import (
	"net/http"
	"strings"
)

// Resolvers supply the ambient request state a paginator falls back to when the
// caller does not pass a page, path or cursor explicitly.
type Resolvers struct {
	CurrentPage   func(pageName string) int
	CurrentPath   func() string
	CurrentCursor func(cursorName string) *Cursor
	QueryString   func() map[string]string
}

var defaultResolvers = Resolvers{
	CurrentPage:   func(string) int { return 1 },
	CurrentPath:   func() string { return "/" },
	CurrentCursor: func(string) *Cursor { return nil },
	QueryString:   func() map[string]string { return nil },
}

// DefaultResolvers returns the process-wide fallback resolvers.
func DefaultResolvers() Resolvers {
	return defaultResolvers
}

// SetDefaultResolvers replaces the process-wide fallback. Nil fields keep their
// previous value. It is not safe to call concurrently with pagination.
func SetDefaultResolvers(r Resolvers) {
	defaultResolvers = r.WithDefaults()
}

// WithDefaults fills nil fields from the process-wide fallback.
func (r Resolvers) WithDefaults() Resolvers {
	if r.CurrentPage == nil {
		r.CurrentPage = defaultResolvers.CurrentPage
	}
	if r.CurrentPath == nil {
		r.CurrentPath = defaultResolvers.CurrentPath
	}
	if r.CurrentCursor == nil {
		r.CurrentCursor = defaultResolvers.CurrentCursor
	}
	if r.QueryString == nil {
		r.QueryString = defaultResolvers.QueryString
	}

	return r
}

// ResolversFromRequest reads page, cursor, path and query string from req.
func ResolversFromRequest(req *http.Request) Resolvers {
	query := req.URL.Query()

	return Resolvers{
		CurrentPage: func(pageName string) int {
			return NormalizePage(query.Get(pageName))
		},
		CurrentPath: func() string {
			return requestPath(req)
		},
		CurrentCursor: func(cursorName string) *Cursor {
			return DecodeCursor(query.Get(cursorName))
		},
		QueryString: func() map[string]string {
			ret := make(map[string]string, len(query))
			for k := range query {
				ret[k] = query.Get(k)
			}
			return ret
		},
	}
}

func requestPath(req *http.Request) string {
	if req.Host == "" {
		return req.URL.Path
	}

	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if forwarded := req.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(forwarded, ",")[0]))
	}

	return scheme + "://" + req.Host + req.URL.Path
}
