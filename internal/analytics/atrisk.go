package analytics

import (
	"fmt"
	"sort"
)

// AtRiskThresholds selects customers for churn follow-up. They are
// deliberately looser than the HighRisk segment thresholds and are configured
// separately.
type AtRiskThresholds struct {
	Sentiment   float64 `yaml:"sentiment" json:"sentiment"`
	Escalations int     `yaml:"escalations" json:"escalations"`
}

// DefaultAtRiskThresholds returns the production at-risk thresholds.
func DefaultAtRiskThresholds() AtRiskThresholds {
	return AtRiskThresholds{
		Sentiment:   0,
		Escalations: 1,
	}
}

// Matches reports whether the aggregate is at risk.
func (t AtRiskThresholds) Matches(agg CustomerAggregate) bool {
	if agg.TotalCommunications == 0 {
		return false
	}
	return agg.AvgSentiment < t.Sentiment || agg.TotalEscalations > t.Escalations
}

// Ordering controls the order of an at-risk list.
type Ordering string

const (
	// OrderEncounter keeps the order in which customers first appear in the record set.
	OrderEncounter Ordering = "encounter"
	// OrderSeverity sorts by ascending sentiment, then descending escalations.
	OrderSeverity Ordering = "severity"
	// OrderRecent sorts by most recent communication first.
	OrderRecent Ordering = "recent"
)

// ParseOrdering validates an ordering name. Empty selects OrderEncounter.
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(s) {
	case "", OrderEncounter:
		return OrderEncounter, nil
	case OrderSeverity, OrderRecent:
		return Ordering(s), nil
	}
	return "", fmt.Errorf("%w: unknown ordering %q", ErrInvalidFilter, s)
}

// AtRisk returns the aggregates flagged for churn follow-up in the requested order.
func AtRisk(aggs []CustomerAggregate, t AtRiskThresholds, order Ordering) []CustomerAggregate {
	var out []CustomerAggregate
	for _, agg := range aggs {
		if t.Matches(agg) {
			out = append(out, agg)
		}
	}

	switch order {
	case OrderSeverity:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.AvgSentiment != b.AvgSentiment {
				return a.AvgSentiment < b.AvgSentiment
			}
			if a.TotalEscalations != b.TotalEscalations {
				return a.TotalEscalations > b.TotalEscalations
			}
			return a.CustomerID < b.CustomerID
		})
	case OrderRecent:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if !a.LastContact.Equal(b.LastContact) {
				return a.LastContact.After(b.LastContact)
			}
			return a.CustomerID < b.CustomerID
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].firstSeen < out[j].firstSeen
		})
	}
	return out
}

// AtRiskIDs returns only the customer identifiers of AtRisk.
func AtRiskIDs(aggs []CustomerAggregate, t AtRiskThresholds, order Ordering) []string {
	risky := AtRisk(aggs, t, order)
	ids := make([]string, 0, len(risky))
	for _, agg := range risky {
		ids = append(ids, agg.CustomerID)
	}
	return ids
}

// AtRiskDetail carries the latest issue of an at-risk customer.
type AtRiskDetail struct {
	CustomerID        string  `json:"customer_id"`
	CustomerName      string  `json:"customer_name"`
	AvgSentiment      float64 `json:"avg_sentiment"`
	TotalEscalations  int     `json:"total_escalations"`
	LatestIssue       string  `json:"latest_issue"`
	Summary           string  `json:"summary"`
	RecommendedAction string  `json:"recommended_action"`
}

// AtRiskDetails returns up to limit at-risk customers with their most recent
// record. A limit <= 0 returns all of them.
func AtRiskDetails(records []CommunicationRecord, t AtRiskThresholds, order Ordering, limit int) []AtRiskDetail {
	risky := AtRisk(Aggregate(records), t, order)
	if limit > 0 && len(risky) > limit {
		risky = risky[:limit]
	}

	latest := latestByCustomer(records)
	details := make([]AtRiskDetail, 0, len(risky))
	for _, agg := range risky {
		d := AtRiskDetail{
			CustomerID:       agg.CustomerID,
			CustomerName:     agg.CustomerName,
			AvgSentiment:     agg.AvgSentiment,
			TotalEscalations: agg.TotalEscalations,
		}
		if d.CustomerName == "" {
			d.CustomerName = "Unknown"
		}
		if rec, ok := latest[agg.CustomerID]; ok {
			d.LatestIssue = rec.Classification
			d.Summary = rec.Summary
			d.RecommendedAction = rec.NextSteps
		}
		details = append(details, d)
	}
	return details
}

func latestByCustomer(records []CommunicationRecord) map[string]CommunicationRecord {
	latest := make(map[string]CommunicationRecord)
	for _, rec := range records {
		cur, ok := latest[rec.CustomerID]
		if !ok || rec.ReceivedAt.After(cur.ReceivedAt) {
			latest[rec.CustomerID] = rec
		}
	}
	return latest
}
