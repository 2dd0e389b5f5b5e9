package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/jobofferworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

// Ensure MockCacheService implements cache.CacheService
var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

// MockFetcher serves canned markup per page index and records every call
type MockFetcher struct {
	mu     sync.Mutex
	pages  map[int]string
	errs   map[int][]error
	calls  []int
	times  []time.Time
	ends   []time.Time
	delays map[int]time.Duration
}

// Ensure MockFetcher implements PageFetcher
var _ PageFetcher = (*MockFetcher)(nil)

func NewMockFetcher(pages map[int]string) *MockFetcher {
	return &MockFetcher{
		pages:  pages,
		errs:   make(map[int][]error),
		delays: make(map[int]time.Duration),
	}
}

// FailWith queues errors returned by successive fetches of pageIndex
func (m *MockFetcher) FailWith(pageIndex int, errs ...error) {
	m.errs[pageIndex] = append(m.errs[pageIndex], errs...)
}

func (m *MockFetcher) Fetch(ctx context.Context, pageIndex int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, pageIndex)
	m.times = append(m.times, time.Now())
	delay := m.delays[pageIndex]
	var err error
	if queued := m.errs[pageIndex]; len(queued) > 0 {
		err, m.errs[pageIndex] = queued[0], queued[1:]
	}
	markup, ok := m.pages[pageIndex]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	m.ends = append(m.ends, time.Now())
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if !ok {
		return listingPage(), nil
	}
	return markup, nil
}

func (m *MockFetcher) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

func (m *MockFetcher) Times() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.times...)
}

// Ends returns when each completed fetch returned
func (m *MockFetcher) Ends() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.ends...)
}

// listingCell renders one listing cell in the source's markup
func listingCell(href, title, date string) string {
	cell := fmt.Sprintf(`<div class="cel_annonce"><a href="%s">%s</a>`, href, title)
	if date != "" {
		cell += fmt.Sprintf(`<span class="date">%s</span>`, date)
	}
	return cell + `</div>`
}

// listingPage wraps cells in a full page with the listings container
func listingPage(cells ...string) string {
	page := `<html><body><div id="menu"><a href="/annonces/menu">Toutes les annonces du site</a></div><div id="annonces">`
	for _, c := range cells {
		page += c
	}
	return page + `</div></body></html>`
}

func testSelectors() Selectors {
	return Selectors{
		Containers: []string{"#annonces", "#petites_annonces"},
		Cell:       ".cel_annonce",
		Date:       "[class*='date'], time, [datetime]",
	}
}
