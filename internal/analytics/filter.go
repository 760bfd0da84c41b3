package analytics

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of date filter values and trend buckets.
const DateLayout = "2006-01-02"

// Filter narrows a record set for a dashboard view. Zero values match everything.
type Filter struct {
	From       time.Time `json:"from"` // inclusive, date precision
	To         time.Time `json:"to"`   // inclusive, date precision
	Sentiments []string  `json:"sentiments,omitempty"`
}

// ParseFilter builds a filter from raw query values.
func ParseFilter(from, to string, sentiments []string) (Filter, error) {
	var f Filter
	var err error
	if from != "" {
		if f.From, err = time.Parse(DateLayout, from); err != nil {
			return Filter{}, fmt.Errorf("%w: from %q", ErrInvalidFilter, from)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(DateLayout, to); err != nil {
			return Filter{}, fmt.Errorf("%w: to %q", ErrInvalidFilter, to)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("%w: to before from", ErrInvalidFilter)
	}
	for _, s := range sentiments {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Sentiments = append(f.Sentiments, part)
			}
		}
	}
	return f, nil
}

// Apply returns the records matching the filter, preserving order.
func (f Filter) Apply(records []CommunicationRecord) []CommunicationRecord {
	out := make([]CommunicationRecord, 0, len(records))
	for _, rec := range records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (f Filter) matches(rec CommunicationRecord) bool {
	day := rec.ReceivedAt.Format(DateLayout)
	if !f.From.IsZero() && day < f.From.Format(DateLayout) {
		return false
	}
	if !f.To.IsZero() && day > f.To.Format(DateLayout) {
		return false
	}
	if len(f.Sentiments) == 0 {
		return true
	}
	for _, s := range f.Sentiments {
		if strings.EqualFold(s, rec.SentimentCategory) {
			return true
		}
	}
	return false
}

// ForCustomer returns the records of one customer.
func ForCustomer(records []CommunicationRecord, customerID string) []CommunicationRecord {
	var out []CommunicationRecord
	for _, rec := range records {
		if rec.CustomerID == customerID {
			out = append(out, rec)
		}
	}
	return out
}

// QuickFilter names one of the canned record filters.
type QuickFilter string

const (
	QuickEscalations QuickFilter = "escalations"
	QuickNegative    QuickFilter = "negative"
	QuickFollowUps   QuickFilter = "follow-ups"
	QuickPositive    QuickFilter = "positive-feedback"
)

// ApplyQuickFilter returns the records selected by a quick filter.
func ApplyQuickFilter(records []CommunicationRecord, q QuickFilter) ([]CommunicationRecord, error) {
	var keep func(CommunicationRecord) bool
	switch q {
	case QuickEscalations:
		keep = func(r CommunicationRecord) bool { return r.Escalation }
	case QuickNegative:
		keep = func(r CommunicationRecord) bool { return r.SentimentCategory == SentimentNegative }
	case QuickFollowUps:
		keep = func(r CommunicationRecord) bool { return r.FollowUpRequired }
	case QuickPositive:
		keep = func(r CommunicationRecord) bool { return r.Classification == ClassificationCompliment }
	default:
		return nil, fmt.Errorf("%w: unknown quick filter %q", ErrInvalidFilter, q)
	}

	out := []CommunicationRecord{}
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
