package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"sjsage522/jobofferworker/helpers"
	"sjsage522/jobofferworker/logger"
	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
	"sjsage522/jobofferworker/services/cache"
)

// Statuses the source uses to throttle clients
var rateLimitStatuses = []int{http.StatusTooManyRequests, 430}

// FetcherConfig contains configuration for a Fetcher
type FetcherConfig struct {
	BaseURL   string
	PageParam string
	PageSize  int
	MaxPages  int
	CacheKey  string
	BlockTime time.Duration
}

// Fetcher retrieves listing pages from the source site
type Fetcher struct {
	baseURL   *url.URL
	pageParam string
	pageSize  int
	maxPages  int
	client    *http.Client
	cacheSvc  cache.CacheService
	cacheKey  string
	blockTime time.Duration
	log       *logger.Logger
}

// NewFetcher creates a new fetcher. cacheSvc may be nil, which disables the
// rate-limit block.
func NewFetcher(cfg FetcherConfig, client *http.Client, cacheSvc cache.CacheService) (*Fetcher, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, scrapeerrors.NewConfiguration(fmt.Sprintf("invalid base URL %q", cfg.BaseURL), err)
	}
	if cfg.PageSize <= 0 || cfg.MaxPages <= 0 {
		return nil, scrapeerrors.NewConfiguration("page size and max pages must be positive", nil)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Fetcher{
		baseURL:   baseURL,
		pageParam: cfg.PageParam,
		pageSize:  cfg.PageSize,
		maxPages:  cfg.MaxPages,
		client:    client,
		cacheSvc:  cacheSvc,
		cacheKey:  cfg.CacheKey,
		blockTime: cfg.BlockTime,
		log:       logger.ForScraper().WithField("source", baseURL.Host),
	}, nil
}

// PageURL returns the URL of the listing page at pageIndex
func (f *Fetcher) PageURL(pageIndex int) string {
	if pageIndex == 0 {
		return f.baseURL.String()
	}

	u := *f.baseURL
	q := u.Query()
	q.Set(f.pageParam, strconv.Itoa(pageIndex*f.pageSize))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch retrieves the markup of one listing page. Every failure is returned
// as a *errors.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageIndex int) (string, error) {
	source := f.baseURL.Host

	if pageIndex < 0 || pageIndex >= f.maxPages {
		return "", scrapeerrors.NewFetch(pageIndex, "", 0,
			scrapeerrors.NewValidation(source, fmt.Sprintf("page index %d outside [0, %d)", pageIndex, f.maxPages)))
	}

	pageURL := f.PageURL(pageIndex)

	if f.isBlocked() {
		return "", scrapeerrors.NewFetch(pageIndex, pageURL, 0, scrapeerrors.NewRateLimit(source, f.blockTime))
	}

	f.log.Debug().Int("page", pageIndex).Str("url", pageURL).Msg("Fetching listing page")

	page, err := helpers.FetchWithBrowserHeaders(ctx, f.client, pageURL)
	if err != nil {
		return "", scrapeerrors.NewFetch(pageIndex, pageURL, 0, scrapeerrors.NewNetwork(source, "request failed", err))
	}

	if slices.Contains(rateLimitStatuses, page.StatusCode) {
		f.block(page.Header.Get("Retry-After"))
		return "", scrapeerrors.NewFetch(pageIndex, pageURL, page.StatusCode, scrapeerrors.NewRateLimit(source, f.blockTime))
	}

	if !page.OK() {
		return "", scrapeerrors.NewFetch(pageIndex, pageURL, page.StatusCode, scrapeerrors.NewStatus(source, page.StatusCode))
	}

	return string(page.Body), nil
}

// isBlocked reports whether a previous rate-limit response is still in effect
func (f *Fetcher) isBlocked() bool {
	if f.cacheSvc == nil || f.cacheKey == "" {
		return false
	}
	_, err := f.cacheSvc.Get(f.cacheKey)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		f.log.Warn().Err(err).Msg("Rate limit block lookup failed")
	}
	return err == nil
}

// block stops further requests for the block time
func (f *Fetcher) block(retryAfter string) {
	if f.cacheSvc == nil || f.cacheKey == "" || f.blockTime <= 0 {
		return
	}

	f.log.Warn().
		Str("retry_after", retryAfter).
		Dur("block_time", f.blockTime).
		Msg("Source is rate limiting, blocking further requests")

	value := []byte(strconv.Itoa(int(f.blockTime / time.Second)))
	if err := f.cacheSvc.Set(f.cacheKey, value, f.blockTime); err != nil {
		f.log.Warn().Err(err).Msg("Rate limit block not stored")
	}
}
