package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("JOBOFFERS_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("JOBOFFERS_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())
}

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForScraper().Info().Int("page", 2).Msg("page scraped")
	assert.Contains(t, buf.String(), `"component":"scraper"`)
	assert.Contains(t, buf.String(), `"page":2`)

	buf.Reset()
	LogError("worker", errors.New("boom"), "refresh %d failed", 3)
	assert.Contains(t, buf.String(), `"component":"worker"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "refresh 3 failed")

	buf.Reset()
	ForRequest("req-1").Info().Msg("served")
	assert.Contains(t, buf.String(), `"component":"server"`)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	ForPage(4).Debug().Msg("retrying")
	assert.Contains(t, buf.String(), `"page":4`)

	assert.True(t, IsDebugEnabled())
}
