package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/jobofferworker/helpers"
	"sjsage522/jobofferworker/logger"
	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
)

// Extractor pulls job offers out of one listing page
type Extractor struct {
	origin    *url.URL
	selectors Selectors
	log       *logger.Logger
}

// NewExtractor creates an extractor resolving links against siteURL's origin
func NewExtractor(siteURL string, selectors Selectors) (*Extractor, error) {
	origin, err := originOf(siteURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, scrapeerrors.NewConfiguration("invalid site URL "+siteURL, err)
	}
	if len(selectors.Containers) == 0 || selectors.Cell == "" {
		return nil, scrapeerrors.NewConfiguration("container and cell selectors are required", nil)
	}

	return &Extractor{
		origin:    origin,
		selectors: selectors,
		log:       logger.ForScraper(),
	}, nil
}

// Extract parses markup and returns its offers in document order. A page
// without a listings container yields no offers.
func (e *Extractor) Extract(markup string) []JobOffer {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.log.Warn().Err(scrapeerrors.NewParsing(e.origin.Host, "failed to parse listing page", err)).Msg("Skipping page")
		return nil
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument is Extract for an already parsed document
func (e *Extractor) ExtractDocument(doc *goquery.Document) []JobOffer {
	container := e.findContainer(doc)
	if container == nil {
		e.log.Debug().Msg("No listings container on page")
		return nil
	}

	// only direct children are candidates, so a nested cell is never read twice
	var offers []JobOffer
	container.ChildrenFiltered(e.selectors.Cell).Each(func(_ int, s *goquery.Selection) {
		if offer, ok := e.processCell(s); ok {
			offers = append(offers, offer)
		}
	})
	return offers
}

// findContainer returns the first configured container present on the page
func (e *Extractor) findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.selectors.Containers {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// processCell converts one listing cell; ok is false when the cell lacks a
// usable link or title
func (e *Extractor) processCell(s *goquery.Selection) (JobOffer, bool) {
	linkSel := s.Find("a[href]").First()
	if linkSel.Length() == 0 {
		return JobOffer{}, false
	}

	href := strings.TrimSpace(linkSel.AttrOr("href", ""))
	title := helpers.CollapseSpace(linkSel.Text())
	if href == "" || title == "" {
		return JobOffer{}, false
	}

	link := Canonicalize(e.origin, href)
	if !isWebURL(link) {
		return JobOffer{}, false
	}

	return JobOffer{
		Title:       title,
		Link:        link,
		Description: e.description(s),
		PubDate:     e.pubDate(s),
	}, true
}

// pubDate looks for a date inside the cell, then in the sibling that
// follows it when that sibling is not itself a listing cell
func (e *Extractor) pubDate(s *goquery.Selection) string {
	if e.selectors.Date == "" {
		return PubDateUnknown
	}

	if date := dateText(s.Find(e.selectors.Date)); date != "" {
		return date
	}

	next := s.Next()
	if next.Length() > 0 && !next.Is(e.selectors.Cell) {
		if next.Is(e.selectors.Date) {
			if date := dateText(next); date != "" {
				return date
			}
		}
		if date := dateText(next.Find(e.selectors.Date)); date != "" {
			return date
		}
	}

	return PubDateUnknown
}

// dateText returns the first non-empty text among sel, falling back to a
// datetime attribute
func dateText(sel *goquery.Selection) string {
	var date string
	sel.EachWithBreak(func(_ int, d *goquery.Selection) bool {
		date = helpers.CollapseSpace(d.Text())
		if date == "" {
			date = strings.TrimSpace(d.AttrOr("datetime", ""))
		}
		return date == ""
	})
	return date
}

func (e *Extractor) description(s *goquery.Selection) string {
	if e.selectors.Description == "" {
		return ""
	}
	text := helpers.CollapseSpace(s.Find(e.selectors.Description).First().Text())
	return helpers.Truncate(text, DescriptionMaxLength)
}
