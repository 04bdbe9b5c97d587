// Package locator turns a record's raw image reference into a fetchable URL.
package locator

import (
	"net/url"
	"slices"
	"strings"
)

type Resolver struct {
	BaseURL string
}

// Resolve returns the URL for raw and false when there is nothing to fetch.
// Absolute http(s) references are unwrapped; anything else is treated as a
// filename under BaseURL.
func (r Resolver) Resolve(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if isAbsolute(raw) {
		return Unwrap(raw), true
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + raw, true
}

type wrapper struct {
	host   func(string) bool
	path   string
	params []string
}

var wrappers = []wrapper{
	{host: isGoogle, path: "/url", params: []string{"url", "q"}},
	{host: isGoogle, path: "/imgres", params: []string{"imgurl"}},
	{host: hostIn("l.facebook.com", "lm.facebook.com"), path: "/l.php", params: []string{"u"}},
}

// Unwrap extracts the target of a known redirect wrapper. Any failure returns
// u unchanged.
func Unwrap(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}

	host := strings.ToLower(parsed.Hostname())
	for _, w := range wrappers {
		if !w.host(host) || parsed.Path != w.path {
			continue
		}
		query := parsed.Query()
		for _, p := range w.params {
			if target, ok := decodeTarget(query.Get(p)); ok {
				return target
			}
		}
		return u
	}
	return u
}

func decodeTarget(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	// Some wrappers encode the target twice.
	if !isAbsolute(v) {
		decoded, err := url.QueryUnescape(v)
		if err != nil {
			return "", false
		}
		v = decoded
	}
	if !isAbsolute(v) {
		return "", false
	}
	if _, err := url.Parse(v); err != nil {
		return "", false
	}
	return v, true
}

// IsIndirect reports whether u points at a search or redirect page rather
// than at image bytes.
func IsIndirect(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	path := parsed.Path

	switch {
	case isGoogle(host):
		return path == "/search" || path == "/url" || path == "/imgres"
	case host == "bing.com" || strings.HasSuffix(host, ".bing.com"):
		return path == "/search" || path == "/images/search"
	case host == "duckduckgo.com" || strings.HasSuffix(host, ".duckduckgo.com"):
		return parsed.Query().Has("q")
	case host == "images.app.goo.gl":
		return true
	}
	return false
}

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// isGoogle matches google.com, www.google.co.uk and the like.
func isGoogle(host string) bool {
	host = strings.TrimPrefix(host, "www.")
	return host == "google.com" || strings.HasPrefix(host, "google.")
}

func hostIn(hosts ...string) func(string) bool {
	return func(h string) bool {
		return slices.Contains(hosts, h)
	}
}
