package httputil

import (
	"net/url"
	"strings"
)

// hasOrigin reports whether u carries both a scheme and a host.
func hasOrigin(u *url.URL) bool {
	return u.Scheme != "" && u.Host != ""
}

// ResolveLink returns rawURL unchanged when it already has an origin and
// otherwise joins it to base with exactly one separating slash.
func ResolveLink(rawURL, base string) string {
	if u, err := url.Parse(rawURL); err == nil && hasOrigin(u) {
		return u.String()
	}

	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rawURL, "/")
	u, err := url.Parse(joined)
	if err != nil {
		return joined
	}
	return u.String()
}

// FormatMediaLink resolves rawURL like ResolveLink and adds a password query
// parameter for restricted media when password is non-blank.
func FormatMediaLink(rawURL, base, password string) string {
	link := ResolveLink(rawURL, base)
	if strings.TrimSpace(password) == "" {
		return link
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := u.Query()
	q.Set("password", password)
	u.RawQuery = q.Encode()
	return u.String()
}
