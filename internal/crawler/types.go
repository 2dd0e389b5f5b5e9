package crawler

import "context"

const (
	// PubDateUnknown is the pubDate of an offer whose listing shows no date
	PubDateUnknown = "Non précisée"

	// DescriptionMaxLength caps description snippets, in runes
	DescriptionMaxLength = 200
)

// JobOffer represents one scraped job posting.
// The JSON names are consumed as-is by the listing widget.
type JobOffer struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
}

// PageFetcher retrieves the raw markup of one listing page
type PageFetcher interface {
	Fetch(ctx context.Context, pageIndex int) (string, error)
}

// PageExtractor turns one page of markup into offers, in document order
type PageExtractor interface {
	Extract(markup string) []JobOffer
}

// Selectors contains CSS selectors for the listing markup
type Selectors struct {
	// Containers are tried in order; the first one present on the page is
	// the listings block
	Containers []string
	// Cell matches one listing inside the container
	Cell string
	// Date matches the element holding the publication date
	Date string
	// Description is optional; empty leaves descriptions blank
	Description string
}

// Strategy selects how the aggregator schedules page fetches
type Strategy string

const (
	// StrategySequential fetches pages one by one and stops early
	StrategySequential Strategy = "sequential"
	// StrategyConcurrent fetches every page up to the cap at once
	StrategyConcurrent Strategy = "concurrent"
)

// StopReason records why an aggregation run ended
type StopReason string

const (
	StopEmptyPage    StopReason = "empty_page"
	StopMaxPages     StopReason = "max_pages"
	StopFetchFailure StopReason = "fetch_failure"
	StopAllFetched   StopReason = "all_fetched"
)
