package worker

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/jobofferworker/internal/crawler"
	"sjsage522/jobofferworker/logger"
	"sjsage522/jobofferworker/services/publisher"
)

// PublishKey is the stream field holding the snapshot
const PublishKey = "joboffers"

// Scraper produces one envelope per call
type Scraper interface {
	Scrape(ctx context.Context) crawler.Envelope
}

// Worker periodically scrapes the listing and publishes the snapshot
type Worker struct {
	scraper         Scraper
	publisher       publisher.Publisher
	refreshInterval time.Duration
	isProduction    bool
	log             *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	scraper Scraper,
	pub publisher.Publisher,
	refreshInterval time.Duration,
	isProduction bool,
) *Worker {
	return &Worker{
		scraper:         scraper,
		publisher:       pub,
		refreshInterval: refreshInterval,
		isProduction:    isProduction,
		log:             logger.ForWorker(),
	}
}

// Start refreshes immediately, then once per interval until ctx is done
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.refresh(ctx)
		if !w.isProduction {
			w.log.Info().Dur("elapsed", time.Since(start)).Msg("Refresh finished")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// refresh scrapes once, publishes a successful envelope and trims the streams
func (w *Worker) refresh(ctx context.Context) {
	envelope := w.scraper.Scrape(ctx)
	if !envelope.Success {
		if ctx.Err() == nil {
			w.log.Warn().Str("error", envelope.Error).Msg("Scrape failed, nothing published")
		}
		return
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		w.log.WithError(err).Error().Msg("Failed to encode envelope")
		return
	}

	if err := w.publisher.Publish(PublishKey, data); err != nil {
		w.log.Error().Err(err).Msg("Publish failed")
		return
	}
	w.log.Info().Int("total", envelope.Total).Msg("Snapshot published")
	if !w.isProduction && logger.IsDebugEnabled() && len(envelope.Offers) > 0 {
		w.log.Debug().Interface("offer", envelope.Offers[0]).Msg("First published offer")
	}

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Stream trimming failed")
	}
}
