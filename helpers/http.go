package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// Fixed browser-like header profile sent with every listing request
var (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguage = "fr-FR,fr;q=0.9,en;q=0.8"
)

// Page is a fetched document. Body is UTF-8 for 2xx responses and
// left undecoded otherwise.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// BrowserHeaders returns a fresh copy of the header profile
func BrowserHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent)
	h.Set("Accept", Accept)
	h.Set("Accept-Language", AcceptLanguage)
	return h
}

// FetchWithBrowserHeaders sends a GET request with the browser header profile
// and converts a successful body to UTF-8. Only transport failures are
// returned as errors; status handling is left to the caller.
func FetchWithBrowserHeaders(ctx context.Context, client *http.Client, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = BrowserHeaders()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	page := &Page{StatusCode: resp.StatusCode, Header: resp.Header}
	if !page.OK() {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return page, nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	page.Body, err = ToUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ToUTF8 determines the encoding from the Content-Type header and the body
// content and converts the body to UTF-8 if needed.
func ToUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return buf.Bytes(), nil
}
