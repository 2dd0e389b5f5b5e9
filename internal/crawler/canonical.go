package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// Canonicalize turns a possibly relative href into an absolute URL anchored
// at origin. Absolute hrefs are returned unchanged, so the function is
// idempotent.
func Canonicalize(origin *url.URL, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case schemeRe.MatchString(href):
		return href
	case strings.HasPrefix(href, "//"):
		return origin.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return origin.Scheme + "://" + origin.Host + href
	default:
		return origin.Scheme + "://" + origin.Host + "/" + href
	}
}

// originOf keeps only scheme and host of rawURL
func originOf(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// isWebURL reports whether link parses as an absolute http(s) URL
func isWebURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
