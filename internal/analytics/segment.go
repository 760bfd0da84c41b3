package analytics

import (
	"errors"
)

// SegmentThresholds configures the segmentation rule. The order in which the
// rules are evaluated is fixed; only the cut-off values move.
type SegmentThresholds struct {
	HighRiskEscalations  int     `yaml:"high_risk_escalations" json:"high_risk_escalations"`
	HighRiskSentiment    float64 `yaml:"high_risk_sentiment" json:"high_risk_sentiment"`
	ChampionSentiment    float64 `yaml:"champion_sentiment" json:"champion_sentiment"`
	NeedsAttentionUrgent int     `yaml:"needs_attention_urgent" json:"needs_attention_urgent"`
}

// DefaultSegmentThresholds returns the production thresholds.
func DefaultSegmentThresholds() SegmentThresholds {
	return SegmentThresholds{
		HighRiskEscalations:  2,
		HighRiskSentiment:    -0.3,
		ChampionSentiment:    0.3,
		NeedsAttentionUrgent: 1,
	}
}

// Segmenter assigns segments to customer aggregates.
type Segmenter struct {
	thresholds SegmentThresholds
}

// NewSegmenter creates a segmenter with the given thresholds.
func NewSegmenter(t SegmentThresholds) *Segmenter {
	return &Segmenter{thresholds: t}
}

// Classify returns exactly one segment for the aggregate. First match wins:
//
//  1. HighRisk: escalations > HighRiskEscalations or sentiment < HighRiskSentiment
//  2. Champion: sentiment > ChampionSentiment and no escalations
//  3. NeedsAttention: urgent count > NeedsAttentionUrgent
//  4. Standard
//
// An aggregate with no communications has no defined average sentiment; it is
// classified Standard and ErrUndefinedSegmentInput is returned with it.
func (s *Segmenter) Classify(agg CustomerAggregate) (Segment, error) {
	if agg.TotalCommunications == 0 {
		return SegmentStandard, ErrUndefinedSegmentInput
	}
	t := s.thresholds
	switch {
	case agg.TotalEscalations > t.HighRiskEscalations || agg.AvgSentiment < t.HighRiskSentiment:
		return SegmentHighRisk, nil
	case agg.AvgSentiment > t.ChampionSentiment && agg.TotalEscalations == 0:
		return SegmentChampion, nil
	case agg.UrgentCount > t.NeedsAttentionUrgent:
		return SegmentNeedsAttention, nil
	default:
		return SegmentStandard, nil
	}
}

// CustomerSegment pairs an aggregate with its assigned segment.
type CustomerSegment struct {
	CustomerAggregate
	Segment   Segment `json:"segment"`
	Undefined bool    `json:"undefined,omitempty"`
}

// SegmentSummary is the per-segment row of a segment report.
type SegmentSummary struct {
	Segment      Segment `json:"segment"`
	Label        string  `json:"label"`
	Customers    int     `json:"customers"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// SegmentReport is the result of segmenting every customer in a record set.
type SegmentReport struct {
	Customers []CustomerSegment `json:"customers"`
	Summary   []SegmentSummary  `json:"summary"`
	// Undefined counts aggregates that fell back to the default segment.
	Undefined int `json:"undefined"`
}

// Segment classifies every aggregate. Aggregates with no communications are
// counted in Undefined and keep the default segment; they never abort the pass.
func (s *Segmenter) Segment(aggs []CustomerAggregate) *SegmentReport {
	report := &SegmentReport{
		Customers: make([]CustomerSegment, 0, len(aggs)),
	}
	counts := make(map[Segment]int, len(Segments))
	defined := make(map[Segment]int, len(Segments))
	totals := make(map[Segment]float64, len(Segments))

	for _, agg := range aggs {
		seg, err := s.Classify(agg)
		undefined := errors.Is(err, ErrUndefinedSegmentInput)
		if undefined {
			report.Undefined++
		}
		report.Customers = append(report.Customers, CustomerSegment{
			CustomerAggregate: agg,
			Segment:           seg,
			Undefined:         undefined,
		})
		counts[seg]++
		if !undefined {
			defined[seg]++
			totals[seg] += agg.AvgSentiment
		}
	}

	for _, seg := range Segments {
		row := SegmentSummary{Segment: seg, Label: seg.Label(), Customers: counts[seg]}
		if defined[seg] > 0 {
			row.AvgSentiment = totals[seg] / float64(defined[seg])
		}
		report.Summary = append(report.Summary, row)
	}
	return report
}
