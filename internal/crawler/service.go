package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sjsage522/jobofferworker/config"
	"sjsage522/jobofferworker/logger"
	"sjsage522/jobofferworker/services/cache"
)

// RateLimitCacheKey is the cache key holding the source's rate-limit block
const RateLimitCacheKey = "joboffers_rate_limited"

// Service runs the whole pipeline once per call. It keeps no state between
// calls, so concurrent Scrape calls are independent.
type Service struct {
	aggregator *Aggregator
	now        func() time.Time
	log        *logger.Logger
}

// NewService wires the fetcher, extractor and aggregator from cfg
func NewService(cfg config.Config, client *http.Client, cacheSvc cache.CacheService) (*Service, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}

	fetcher, err := NewFetcher(FetcherConfig{
		BaseURL:   cfg.BaseURL,
		PageParam: cfg.PageParam,
		PageSize:  cfg.PageSize,
		MaxPages:  cfg.MaxPages,
		CacheKey:  RateLimitCacheKey,
		BlockTime: cfg.RateLimitBlock,
	}, client, cacheSvc)
	if err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(cfg.BaseURL, Selectors{
		Containers:  cfg.ContainerSelectors,
		Cell:        cfg.CellSelector,
		Date:        cfg.DateSelector,
		Description: cfg.DescriptionSelector,
	})
	if err != nil {
		return nil, err
	}

	aggregator := NewAggregator(fetcher, extractor, AggregatorConfig{
		Strategy:       Strategy(cfg.Strategy),
		MaxPages:       cfg.MaxPages,
		PageDelay:      cfg.PageDelay,
		Concurrency:    cfg.Concurrency,
		EmptyPageLimit: cfg.EmptyPageLimit,
		Retries:        cfg.Retries,
	})

	return NewServiceWithAggregator(aggregator), nil
}

// NewServiceWithAggregator creates a service around an existing aggregator
func NewServiceWithAggregator(aggregator *Aggregator) *Service {
	return &Service{
		aggregator: aggregator,
		now:        time.Now,
		log:        logger.ForScraper(),
	}
}

// Scrape runs one aggregation and returns its envelope
func (s *Service) Scrape(ctx context.Context) (envelope Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Scrape panicked")
			envelope = NewFailureEnvelope(fmt.Errorf("internal error: %v", r))
		}
	}()

	run, err := s.aggregator.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Scrape failed")
		return NewFailureEnvelope(err)
	}
	return NewEnvelope(run, s.now())
}
