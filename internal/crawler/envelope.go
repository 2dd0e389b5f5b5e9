package crawler

import (
	"encoding/json"
	"time"
)

// ScrapedAtLayout is the ISO-8601 layout used for scrapedAt, millisecond
// precision in UTC
const ScrapedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the response payload served to the widget
type Envelope struct {
	Success   bool
	Total     int
	Offers    []JobOffer
	ScrapedAt time.Time
	Error     string
}

type successPayload struct {
	Success   bool       `json:"success"`
	Total     int        `json:"total"`
	Offers    []JobOffer `json:"offers"`
	ScrapedAt string     `json:"scrapedAt"`
}

type failurePayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewEnvelope projects a completed run captured at now
func NewEnvelope(run *AggregationRun, now time.Time) Envelope {
	offers := run.Offers()
	return Envelope{
		Success:   true,
		Total:     len(offers),
		Offers:    offers,
		ScrapedAt: now.UTC(),
	}
}

// NewFailureEnvelope reports an unrecoverable error
func NewFailureEnvelope(err error) Envelope {
	return Envelope{Error: err.Error()}
}

// MarshalJSON emits the success or failure shape
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return json.Marshal(failurePayload{Error: e.Error})
	}

	offers := e.Offers
	if offers == nil {
		offers = []JobOffer{}
	}
	return json.Marshal(successPayload{
		Success:   true,
		Total:     e.Total,
		Offers:    offers,
		ScrapedAt: e.ScrapedAt.UTC().Format(ScrapedAtLayout),
	})
}

// UnmarshalJSON reads either shape back
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var payload struct {
		Success   bool       `json:"success"`
		Total     int        `json:"total"`
		Offers    []JobOffer `json:"offers"`
		ScrapedAt string     `json:"scrapedAt"`
		Error     string     `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	*e = Envelope{
		Success: payload.Success,
		Total:   payload.Total,
		Offers:  payload.Offers,
		Error:   payload.Error,
	}
	if payload.ScrapedAt != "" {
		scrapedAt, err := time.Parse(time.RFC3339, payload.ScrapedAt)
		if err != nil {
			return err
		}
		e.ScrapedAt = scrapedAt
	}
	return nil
}
