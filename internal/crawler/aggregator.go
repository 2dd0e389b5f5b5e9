package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"sjsage522/jobofferworker/logger"
	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
)

var errCoolDown = errors.New("cool-down interrupted")

// AggregatorConfig contains configuration for an Aggregator
type AggregatorConfig struct {
	Strategy Strategy
	MaxPages int
	// PageDelay is the cool-down between sequential requests
	PageDelay time.Duration
	// Concurrency bounds in-flight fetches of the concurrent strategy;
	// zero fetches every page at once
	Concurrency int
	// EmptyPageLimit is the number of consecutive empty pages that ends a
	// sequential scan
	EmptyPageLimit int
	// Retries is how many times a sequential fetch is repeated after a
	// retryable failure
	Retries int
}

// AggregationRun is the outcome of one scrape: offers deduplicated by link
// in page order
type AggregationRun struct {
	offers []JobOffer
	seen   mapset.Set[string]

	// PagesConsulted counts pages whose fetch was attempted
	PagesConsulted int
	StopReason     StopReason
	// Failures holds the fetch errors met during the run
	Failures []error
}

func newAggregationRun() *AggregationRun {
	return &AggregationRun{seen: mapset.NewThreadUnsafeSet[string]()}
}

// merge appends the offers whose link was not seen yet and returns how many
// were added
func (r *AggregationRun) merge(offers []JobOffer) int {
	added := 0
	for _, offer := range offers {
		if r.seen.Add(offer.Link) {
			r.offers = append(r.offers, offer)
			added++
		}
	}
	return added
}

// Offers returns a copy of the merged offers
func (r *AggregationRun) Offers() []JobOffer {
	offers := make([]JobOffer, len(r.offers))
	copy(offers, r.offers)
	return offers
}

// Total returns the number of merged offers
func (r *AggregationRun) Total() int {
	return len(r.offers)
}

// Aggregator drives the fetcher and extractor across the listing pages
type Aggregator struct {
	fetcher   PageFetcher
	extractor PageExtractor
	cfg       AggregatorConfig
	log       *logger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(fetcher PageFetcher, extractor PageExtractor, cfg AggregatorConfig) *Aggregator {
	if cfg.EmptyPageLimit <= 0 {
		cfg.EmptyPageLimit = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategySequential
	}
	return &Aggregator{
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg,
		log:       logger.ForScraper().WithField("strategy", string(cfg.Strategy)),
	}
}

// Run scrapes the listing. Page failures are recorded on the run; an error
// is returned only when ctx ends before the run completes.
func (a *Aggregator) Run(ctx context.Context) (*AggregationRun, error) {
	if a.cfg.MaxPages <= 0 {
		return nil, scrapeerrors.NewConfiguration("max pages must be positive", nil)
	}

	var (
		run *AggregationRun
		err error
	)
	switch a.cfg.Strategy {
	case StrategySequential:
		run, err = a.runSequential(ctx)
	case StrategyConcurrent:
		run, err = a.runConcurrent(ctx)
	default:
		return nil, scrapeerrors.NewConfiguration(fmt.Sprintf("unknown strategy %q", a.cfg.Strategy), nil)
	}
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Int("total", run.Total()).
		Int("pages", run.PagesConsulted).
		Str("stop_reason", string(run.StopReason)).
		Int("failures", len(run.Failures)).
		Msg("Scrape completed")
	return run, nil
}

func (a *Aggregator) runSequential(ctx context.Context) (*AggregationRun, error) {
	run := newAggregationRun()

	emptyStreak := 0
	for pageIndex := 0; pageIndex < a.cfg.MaxPages; pageIndex++ {
		markup, err := a.fetchWithRetries(ctx, pageIndex)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scrape interrupted at page %d: %w", pageIndex, ctxErr)
		}
		if errors.Is(err, errCoolDown) {
			return nil, fmt.Errorf("scrape interrupted at page %d: %w", pageIndex, err)
		}
		if err != nil {
			run.PagesConsulted++
			run.Failures = append(run.Failures, err)
			run.StopReason = StopFetchFailure
			a.log.Warn().Err(err).Int("page", pageIndex).Msg("Fetch failed, stopping scan")
			return run, nil
		}
		run.PagesConsulted++

		offers := a.extractor.Extract(markup)
		added := run.merge(offers)
		a.log.Info().
			Int("page", pageIndex+1).
			Int("found", len(offers)).
			Int("added", added).
			Msg("Page scraped")

		if len(offers) == 0 {
			emptyStreak++
			if emptyStreak >= a.cfg.EmptyPageLimit {
				run.StopReason = StopEmptyPage
				return run, nil
			}
			continue
		}
		emptyStreak = 0
	}

	run.StopReason = StopMaxPages
	return run, nil
}

// fetchWithRetries waits for the cool-down before every request but the
// first of the run and repeats retryable failures up to the configured count
func (a *Aggregator) fetchWithRetries(ctx context.Context, pageIndex int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= a.cfg.Retries; attempt++ {
		if pageIndex > 0 || attempt > 0 {
			if err := coolDown(ctx, a.cfg.PageDelay); err != nil {
				return "", fmt.Errorf("%w: %v", errCoolDown, err)
			}
		}

		markup, err := a.fetcher.Fetch(ctx, pageIndex)
		if err == nil {
			return markup, nil
		}
		lastErr = err

		if !scrapeerrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < a.cfg.Retries {
			logger.ForPage(pageIndex).Debug().Err(err).Int("attempt", attempt+1).Msg("Retrying page")
		}
	}
	return "", lastErr
}

// coolDown blocks for delay counted from now, the end of the previous fetch.
// It fails at once when ctx ends or its deadline comes before the delay.
func coolDown(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

type pageOutcome struct {
	offers []JobOffer
	err    error
}

func (a *Aggregator) runConcurrent(ctx context.Context) (*AggregationRun, error) {
	outcomes := make([]pageOutcome, a.cfg.MaxPages)

	var g errgroup.Group
	if a.cfg.Concurrency > 0 {
		g.SetLimit(a.cfg.Concurrency)
	}
	for pageIndex := 0; pageIndex < a.cfg.MaxPages; pageIndex++ {
		g.Go(func() error {
			markup, err := a.fetcher.Fetch(ctx, pageIndex)
			if err != nil {
				outcomes[pageIndex] = pageOutcome{err: err}
				return nil
			}
			outcomes[pageIndex] = pageOutcome{offers: a.extractor.Extract(markup)}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape interrupted: %w", err)
	}

	run := newAggregationRun()
	for pageIndex, outcome := range outcomes {
		run.PagesConsulted++
		if outcome.err != nil {
			run.Failures = append(run.Failures, outcome.err)
			a.log.Warn().Err(outcome.err).Int("page", pageIndex).Msg("Fetch failed, page counted as empty")
			continue
		}
		added := run.merge(outcome.offers)
		a.log.Info().
			Int("page", pageIndex+1).
			Int("found", len(outcome.offers)).
			Int("added", added).
			Msg("Page scraped")
	}

	run.StopReason = StopAllFetched
	return run, nil
}
