package analytics

import (
	"sort"
	"time"
)

// CustomerProfile is the single-customer view.
type CustomerProfile struct {
	Aggregate      CustomerAggregate     `json:"aggregate"`
	Segment        Segment               `json:"segment"`
	PositiveCount  int                   `json:"positive_count"`
	TypicalUrgency string                `json:"typical_urgency"`
	FirstContact   time.Time             `json:"first_contact"`
	LastContact    time.Time             `json:"last_contact"`
	Timeline       []CommunicationRecord `json:"timeline"`
	Recent         []CommunicationRecord `json:"recent"`
	Demographics   map[string]any        `json:"demographics,omitempty"`
	Purchases      []map[string]any      `json:"purchases,omitempty"`
}

// BuildProfile assembles the profile of one customer. Timeline is ordered
// oldest first; Recent holds the five newest records.
func BuildProfile(records []CommunicationRecord, customerID string, seg *Segmenter) (*CustomerProfile, error) {
	own := ForCustomer(records, customerID)
	if len(own) == 0 {
		return nil, ErrNotFound
	}

	agg := Aggregate(own)[0]
	segment, _ := seg.Classify(agg)

	p := &CustomerProfile{
		Aggregate:      agg,
		Segment:        segment,
		TypicalUrgency: modeUrgency(own),
	}

	timeline := append([]CommunicationRecord(nil), own...)
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].ReceivedAt.Before(timeline[j].ReceivedAt)
	})
	p.Timeline = timeline
	p.FirstContact = timeline[0].ReceivedAt
	p.LastContact = timeline[len(timeline)-1].ReceivedAt

	for _, rec := range own {
		if rec.SentimentCategory == SentimentPositive {
			p.PositiveCount++
		}
	}

	for i := len(timeline) - 1; i >= 0 && len(p.Recent) < 5; i-- {
		p.Recent = append(p.Recent, timeline[i])
	}
	return p, nil
}

// modeUrgency returns the most frequent urgency; ties go to the value seen first.
func modeUrgency(records []CommunicationRecord) string {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if rec.Urgency == "" {
			continue
		}
		if counts[rec.Urgency] == 0 {
			order = append(order, rec.Urgency)
		}
		counts[rec.Urgency]++
	}
	if len(order) == 0 {
		return "N/A"
	}
	best := order[0]
	for _, u := range order[1:] {
		if counts[u] > counts[best] {
			best = u
		}
	}
	return best
}
