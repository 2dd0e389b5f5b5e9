package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	origin := &url.URL{Scheme: "https", Host: "www.tourmag.com"}

	testCases := []struct {
		href     string
		expected string
	}{
		{href: "/annonces/123", expected: "https://www.tourmag.com/annonces/123"},
		{href: "annonces/123", expected: "https://www.tourmag.com/annonces/123"},
		{href: "Agent-de-voyages_a123.html", expected: "https://www.tourmag.com/Agent-de-voyages_a123.html"},
		{href: "//cdn.tourmag.com/annonces/123", expected: "https://cdn.tourmag.com/annonces/123"},
		{href: "https://other.com/jobs/1", expected: "https://other.com/jobs/1"},
		{href: "http://www.tourmag.com/a", expected: "http://www.tourmag.com/a"},
		{href: "  /annonces/9  ", expected: "https://www.tourmag.com/annonces/9"},
		{href: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.href, func(t *testing.T) {
			assert.Equal(t, tc.expected, Canonicalize(origin, tc.href))
		})
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	origin := &url.URL{Scheme: "https", Host: "www.tourmag.com"}

	for _, href := range []string{"/annonces/1", "annonces/2", "//x.org/3", "https://a.b/4?x=1#y", "mailto:jobs@tourmag.com"} {
		once := Canonicalize(origin, href)
		assert.Equal(t, once, Canonicalize(origin, once), href)
	}
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, isWebURL("https://www.tourmag.com/annonces/1"))
	assert.False(t, isWebURL("javascript:void(0)"))
	assert.False(t, isWebURL("mailto:jobs@tourmag.com"))
	assert.False(t, isWebURL("https://"))
}
