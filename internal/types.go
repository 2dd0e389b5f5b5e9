package internal

import (
	"sjsage522/jobofferworker/logger"
	"sjsage522/jobofferworker/services/cache"
	"sjsage522/jobofferworker/services/publisher"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache cache.CacheService
	// Publisher is nil when the refresh worker is disabled
	Publisher publisher.Publisher
}

// Cleanup releases the connections held by the dependencies
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			logger.LogError("publisher", err, "Failed to close publisher")
		}
	}
}
