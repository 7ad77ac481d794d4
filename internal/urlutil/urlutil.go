// Package urlutil normalizes URLs into comparable domain tokens for the
// off-policy domain scan.
package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// DomainOf returns the comparable domain of a URL: "file" for file URLs,
// otherwise the lowercased authority with any userinfo and port stripped,
// IDNA-encoded to ASCII. Returns "" when no authority can be found.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if strings.EqualFold(parsed.Scheme, "file") {
		return "file"
	}

	host := parsed.Host
	if host == "" {
		// Scheme-less URLs like "bad.com/path" parse entirely into Path.
		host = parsed.Path
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
	}
	if host == "" {
		return ""
	}

	host = strings.ToLower(host)
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return ""
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return ""
	}
	return ascii
}
