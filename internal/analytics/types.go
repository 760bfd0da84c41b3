// Package analytics derives dashboard statistics, customer segments and
// churn-risk lists from enriched customer communication records.
package analytics

import (
	"errors"
	"time"
)

// Sentiment categories after normalisation by the warehouse layer.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// Response urgency values.
const (
	UrgencyImmediate = "immediate"
	UrgencyStandard  = "standard"
	UrgencyLow       = "low"
)

// ClassificationCompliment is the label the positive-feedback quick filter keys on.
const ClassificationCompliment = "Compliment"

var (
	// ErrEmptyInput is returned when an aggregation is requested over zero records.
	ErrEmptyInput = errors.New("analytics: empty input")
	// ErrUndefinedSegmentInput is returned alongside the default segment for
	// an aggregate that has no communications.
	ErrUndefinedSegmentInput = errors.New("analytics: aggregate has no communications")
	// ErrNotFound is returned when a customer has no records in the set.
	ErrNotFound = errors.New("analytics: not found")
	// ErrInvalidFilter is returned for malformed filter parameters.
	ErrInvalidFilter = errors.New("analytics: invalid filter")
)

// CommunicationRecord is one enriched customer email event.
type CommunicationRecord struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customer_id"`
	CustomerName       string    `json:"customer_name"`
	Classification     string    `json:"classification"`
	SentimentCategory  string    `json:"sentiment_category"`
	SentimentScore     float64   `json:"sentiment_score"`
	Escalation         bool      `json:"escalation"`
	Urgency            string    `json:"urgency"`
	ReceivedAt         time.Time `json:"received_at"`
	Summary            string    `json:"summary"`
	NextSteps          string    `json:"next_steps"`
	FollowUpRequired   bool      `json:"follow_up_required"`
	KeyTopics          string    `json:"key_topics,omitempty"`
	CompetitiveMention string    `json:"competitive_mention,omitempty"`
}

// IsUrgent reports whether the record requires an immediate response.
func (r CommunicationRecord) IsUrgent() bool {
	return r.Urgency == UrgencyImmediate
}

// CustomerAggregate holds per-customer signals derived from one analysis pass.
type CustomerAggregate struct {
	CustomerID          string    `json:"customer_id"`
	CustomerName        string    `json:"customer_name"`
	AvgSentiment        float64   `json:"avg_sentiment"`
	TotalEscalations    int       `json:"total_escalations"`
	TotalCommunications int       `json:"total_communications"`
	UrgentCount         int       `json:"urgent_count"`
	LastContact         time.Time `json:"last_contact"`

	// position of the customer's first record in the source set
	firstSeen int
}

// Segment is a mutually exclusive customer classification.
type Segment string

const (
	SegmentHighRisk       Segment = "high_risk"
	SegmentChampion       Segment = "champion"
	SegmentNeedsAttention Segment = "needs_attention"
	SegmentStandard       Segment = "standard"
)

// Segments lists every segment in report order.
var Segments = []Segment{SegmentHighRisk, SegmentNeedsAttention, SegmentStandard, SegmentChampion}

// Label returns the display label for a segment.
func (s Segment) Label() string {
	switch s {
	case SegmentHighRisk:
		return "High Risk"
	case SegmentChampion:
		return "Champions"
	case SegmentNeedsAttention:
		return "Needs Attention"
	default:
		return "Standard"
	}
}
