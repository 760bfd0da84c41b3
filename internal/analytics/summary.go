package analytics

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ==========================================
// SUMMARY STATISTICS
// ==========================================

// Summary holds the executive dashboard counts for a record set.
type Summary struct {
	TotalRecords      int     `json:"total_records"`
	DistinctCustomers int     `json:"distinct_customers"`
	Escalations       int     `json:"escalations"`
	PositiveCount     int     `json:"positive_count"`
	NegativeCount     int     `json:"negative_count"`
	NeutralCount      int     `json:"neutral_count"`
	ImmediateCount    int     `json:"immediate_count"`
	AvgSentiment      float64 `json:"avg_sentiment"`
	EscalationRate    float64 `json:"escalation_rate"`
	PositiveRate      float64 `json:"positive_rate"`
}

// CategoryCount is one bar or slice of a categorical chart.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DailyPoint is one bucket of the daily trend series.
type DailyPoint struct {
	Date         string  `json:"date"`
	Count        int     `json:"count"`
	AvgSentiment float64 `json:"avg_sentiment"`
	Escalations  int     `json:"escalations"`
}

// CrossTabCell counts records for one classification and sentiment category pair.
type CrossTabCell struct {
	Classification    string `json:"classification"`
	SentimentCategory string `json:"sentiment_category"`
	Count             int    `json:"count"`
}

// UrgencySentiment is the mean sentiment of records with one urgency value.
type UrgencySentiment struct {
	Urgency      string  `json:"urgency"`
	Count        int     `json:"count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// PriorityItem is a communication surfaced on the executive dashboard.
type PriorityItem struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	Classification string    `json:"classification"`
	ReceivedAt     time.Time `json:"received_at"`
	Summary        string    `json:"summary"`
	Priority       string    `json:"priority"`
}

// MeanSentiment returns the mean sentiment score of the records.
func MeanSentiment(records []CommunicationRecord) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyInput
	}
	var sum float64
	for _, rec := range records {
		sum += rec.SentimentScore
	}
	return sum / float64(len(records)), nil
}

// Percent returns part/total as a percentage rounded to one decimal.
// A zero total yields ErrEmptyInput.
func Percent(part, total int) (float64, error) {
	if total == 0 {
		return 0, ErrEmptyInput
	}
	return math.Round(float64(part)/float64(total)*1000) / 10, nil
}

// Summarize computes the dashboard-level counts and rates.
func Summarize(records []CommunicationRecord) (*Summary, error) {
	avg, err := MeanSentiment(records)
	if err != nil {
		return nil, err
	}

	s := &Summary{TotalRecords: len(records), AvgSentiment: avg}
	customers := make(map[string]struct{})
	for _, rec := range records {
		customers[rec.CustomerID] = struct{}{}
		if rec.Escalation {
			s.Escalations++
		}
		if rec.IsUrgent() {
			s.ImmediateCount++
		}
		switch rec.SentimentCategory {
		case SentimentPositive:
			s.PositiveCount++
		case SentimentNegative:
			s.NegativeCount++
		case SentimentNeutral:
			s.NeutralCount++
		}
	}
	s.DistinctCustomers = len(customers)
	// total is non-zero past MeanSentiment
	s.EscalationRate, _ = Percent(s.Escalations, s.TotalRecords)
	s.PositiveRate, _ = Percent(s.PositiveCount, s.TotalRecords)
	return s, nil
}

// CountBy counts records by key, ordered by descending count then label.
// Empty keys are skipped. A limit <= 0 returns every label.
func CountBy(records []CommunicationRecord, key func(CommunicationRecord) string, limit int) []CategoryCount {
	counts := make(map[string]int)
	for _, rec := range records {
		if k := key(rec); k != "" {
			counts[k]++
		}
	}

	out := make([]CategoryCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CategoryCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByClassification keys records by classification label.
func ByClassification(r CommunicationRecord) string { return r.Classification }

// BySentiment keys records by sentiment category.
func BySentiment(r CommunicationRecord) string { return r.SentimentCategory }

// ByCompetitor keys records by competitive mention.
func ByCompetitor(r CommunicationRecord) string { return strings.TrimSpace(r.CompetitiveMention) }

// DailyTrend buckets records by calendar day, ascending.
func DailyTrend(records []CommunicationRecord) []DailyPoint {
	buckets := make(map[string]*DailyPoint)
	sums := make(map[string]float64)
	for _, rec := range records {
		day := rec.ReceivedAt.Format(DateLayout)
		p, ok := buckets[day]
		if !ok {
			p = &DailyPoint{Date: day}
			buckets[day] = p
		}
		p.Count++
		sums[day] += rec.SentimentScore
		if rec.Escalation {
			p.Escalations++
		}
	}

	out := make([]DailyPoint, 0, len(buckets))
	for day, p := range buckets {
		p.AvgSentiment = sums[day] / float64(p.Count)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CrossTabulate counts records per classification and sentiment category.
func CrossTabulate(records []CommunicationRecord) []CrossTabCell {
	type key struct{ class, sentiment string }
	counts := make(map[key]int)
	for _, rec := range records {
		counts[key{rec.Classification, rec.SentimentCategory}]++
	}

	out := make([]CrossTabCell, 0, len(counts))
	for k, n := range counts {
		out = append(out, CrossTabCell{Classification: k.class, SentimentCategory: k.sentiment, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Classification != out[j].Classification {
			return out[i].Classification < out[j].Classification
		}
		return out[i].SentimentCategory < out[j].SentimentCategory
	})
	return out
}

// SentimentByUrgency returns the mean sentiment per urgency value, in the
// order immediate, standard, low, followed by any other values alphabetically.
func SentimentByUrgency(records []CommunicationRecord) []UrgencySentiment {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		sums[rec.Urgency] += rec.SentimentScore
		counts[rec.Urgency]++
	}

	rank := map[string]int{UrgencyImmediate: 0, UrgencyStandard: 1, UrgencyLow: 2}
	out := make([]UrgencySentiment, 0, len(counts))
	for u, n := range counts {
		out = append(out, UrgencySentiment{Urgency: u, Count: n, AvgSentiment: sums[u] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i].Urgency]
		rj, jok := rank[out[j].Urgency]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i].Urgency < out[j].Urgency
	})
	return out
}

// PriorityCommunications returns escalated or immediate-urgency records in
// record order, at most limit of them.
func PriorityCommunications(records []CommunicationRecord, limit int) []PriorityItem {
	out := []PriorityItem{}
	for _, rec := range records {
		if !rec.Escalation && !rec.IsUrgent() {
			continue
		}
		priority := "medium"
		if rec.Escalation {
			priority = "high"
		}
		out = append(out, PriorityItem{
			ID:             rec.ID,
			CustomerID:     rec.CustomerID,
			CustomerName:   rec.CustomerName,
			Classification: rec.Classification,
			ReceivedAt:     rec.ReceivedAt,
			Summary:        Truncate(rec.Summary, 200),
			Priority:       priority,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// ==========================================
// DASHBOARD VIEWS
// ==========================================

// Dashboard is the executive view.
type Dashboard struct {
	Summary         *Summary        `json:"summary"`
	Sentiment       []CategoryCount `json:"sentiment_distribution"`
	Classifications []CategoryCount `json:"classifications"`
	Priority        []PriorityItem  `json:"priority"`
}

// BuildDashboard assembles the executive view.
func BuildDashboard(records []CommunicationRecord) (*Dashboard, error) {
	summary, err := Summarize(records)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Summary:         summary,
		Sentiment:       CountBy(records, BySentiment, 0),
		Classifications: CountBy(records, ByClassification, 6),
		Priority:        PriorityCommunications(records, 5),
	}, nil
}

// DeepDive is the analytics view.
type DeepDive struct {
	Daily       []DailyPoint       `json:"daily"`
	CrossTab    []CrossTabCell     `json:"cross_tab"`
	Urgency     []UrgencySentiment `json:"urgency"`
	Competitors []CategoryCount    `json:"competitors"`
}

// BuildDeepDive assembles the analytics view.
func BuildDeepDive(records []CommunicationRecord) (*DeepDive, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return &DeepDive{
		Daily:       DailyTrend(records),
		CrossTab:    CrossTabulate(records),
		Urgency:     SentimentByUrgency(records),
		Competitors: CountBy(records, ByCompetitor, 10),
	}, nil
}
