package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport errors (dial, TLS, timeout)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeStatus represents a non-2xx response from the source
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a pipeline error
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewStatus creates a new error for an unexpected HTTP status
func NewStatus(source string, status int) *ScrapeError {
	return New(ErrorTypeStatus, source, fmt.Sprintf("unexpected status code: %d", status), nil)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *ScrapeError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// FetchError is the failure of one listing page fetch
type FetchError struct {
	PageIndex int
	URL       string
	Status    int
	Err       *ScrapeError
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.PageIndex, e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable delegates to the wrapped error
func (e *FetchError) IsRetryable() bool {
	return e.Err != nil && e.Err.IsRetryable()
}

// NewFetch wraps err as the failure of the given page
func NewFetch(pageIndex int, url string, status int, err *ScrapeError) *FetchError {
	return &FetchError{
		PageIndex: pageIndex,
		URL:       url,
		Status:    status,
		Err:       err,
	}
}

// TypeOf returns the ErrorType of the first ScrapeError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var scrapeErr *ScrapeError
	if stderrors.As(err, &scrapeErr) {
		return scrapeErr.Type, true
	}
	return "", false
}

// IsRetryable reports whether err carries a retryable ScrapeError
func IsRetryable(err error) bool {
	var scrapeErr *ScrapeError
	return stderrors.As(err, &scrapeErr) && scrapeErr.IsRetryable()
}
