package sqlpager

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// buildURL merges the query string already present on path with query and then
// sets name=value, so the pagination parameter always wins. A fragment is appended
// when set.
func buildURL(path string, query map[string]string, name, value, fragment string) string {
	u, err := url.Parse(path)
	if err != nil {
		return fallbackURL(path, query, name, value, fragment)
	}

	values := u.Query()
	for k, v := range query {
		values.Set(k, v)
	}
	if name != "" {
		values.Set(name, value)
	}

	u.RawQuery = values.Encode()
	u.Fragment = fragment

	return u.String()
}

// fallbackURL concatenates when path does not parse as a URL.
func fallbackURL(path string, query map[string]string, name, value, fragment string) string {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	if name != "" {
		values.Set(name, value)
	}

	ret := path
	if encoded := values.Encode(); encoded != "" {
		ret += lo.Ternary(strings.Contains(path, "?"), "&", "?") + encoded
	}
	if fragment != "" {
		ret += "#" + fragment
	}

	return ret
}
