package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/jobofferworker/internal/crawler"
)

type mockScraper struct {
	envelope crawler.Envelope
	deadline bool
}

func (m *mockScraper) Scrape(ctx context.Context) crawler.Envelope {
	_, m.deadline = ctx.Deadline()
	return m.envelope
}

type panicScraper struct{}

func (panicScraper) Scrape(context.Context) crawler.Envelope {
	panic("scraper exploded")
}

func serve(t *testing.T, handler http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleScrape_Success(t *testing.T) {
	scraper := &mockScraper{envelope: crawler.Envelope{
		Success: true,
		Total:   1,
		Offers: []crawler.JobOffer{
			{Title: "Agent de voyages", Link: "https://www.tourmag.com/annonces/1", PubDate: crawler.PubDateUnknown},
		},
		ScrapedAt: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC),
	}}
	server := NewServer(scraper, time.Minute)

	rec := serve(t, server.Router(), http.MethodGet, "/api/scrape", http.Header{"Origin": {"https://widget.example"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, scraper.deadline)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, "2024-03-12T08:00:00.000Z", body["scrapedAt"])
	assert.Len(t, body["offers"], 1)
}

func TestHandleScrape_Failure(t *testing.T) {
	server := NewServer(&mockScraper{envelope: crawler.NewFailureEnvelope(errors.New("scrape interrupted"))}, 0)

	rec := serve(t, server.Router(), http.MethodGet, "/api/scrape", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"scrape interrupted"}`, rec.Body.String())
}

func TestHandleScrape_NoTimeout(t *testing.T) {
	scraper := &mockScraper{envelope: crawler.Envelope{Success: true}}
	server := NewServer(scraper, 0)

	rec := serve(t, server.Router(), http.MethodGet, "/api/scrape", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, scraper.deadline)
	assert.Contains(t, rec.Body.String(), `"offers":[]`)
}

func TestHandleScrape_Panic(t *testing.T) {
	server := NewServer(panicScraper{}, 0)

	rec := serve(t, server.Router(), http.MethodGet, "/api/scrape", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	server := NewServer(&mockScraper{}, 0)

	rec := serve(t, server.Router(), http.MethodPost, "/api/scrape", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(&mockScraper{}, 0)

	rec := serve(t, server.Router(), http.MethodOptions, "/api/scrape", http.Header{
		"Origin":                        {"https://widget.example"},
		"Access-Control-Request-Method": {"GET"},
	})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")

	rec = serve(t, server.Router(), http.MethodOptions, "/api/scrape", http.Header{
		"Origin":                        {"https://widget.example"},
		"Access-Control-Request-Method": {"DELETE"},
	})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(&mockScraper{}, 0)

	rec := serve(t, server.Router(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
