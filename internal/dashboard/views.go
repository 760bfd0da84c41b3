package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/pkg/logger"
	"github.com/ignite/customer360/internal/warehouse"
)

var log = logger.With("component", "dashboard")

// DashboardView is the executive overview. Empty is set when the filter
// matched nothing; the statistics are then absent rather than zeroed.
type DashboardView struct {
	Empty  bool                     `json:"empty"`
	Global *warehouse.GlobalSummary `json:"global,omitempty"`
	*analytics.Dashboard
}

// Dashboard builds the overview for the filtered record set. The global
// warehouse summary is best effort.
func (s *Service) Dashboard(ctx context.Context, f analytics.Filter) (*DashboardView, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{}
	if s.warehouse != nil {
		global, err := s.warehouse.GetGlobalSummary(ctx)
		if err != nil {
			log.Warn("global summary unavailable", "error", err)
		} else {
			view.Global = global
		}
	}

	d, err := analytics.BuildDashboard(records)
	if errors.Is(err, analytics.ErrEmptyInput) {
		view.Empty = true
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.Dashboard = d
	return view, nil
}

// AnalyticsView carries the deep-dive charts.
type AnalyticsView struct {
	Empty bool `json:"empty"`
	*analytics.DeepDive
}

// Analytics builds trends, the cross-tab, urgency and competitor counts.
func (s *Service) Analytics(ctx context.Context, f analytics.Filter) (*AnalyticsView, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	dd, err := analytics.BuildDeepDive(records)
	if errors.Is(err, analytics.ErrEmptyInput) {
		return &AnalyticsView{Empty: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &AnalyticsView{DeepDive: dd}, nil
}

// Search runs the warehouse substring search.
func (s *Service) Search(ctx context.Context, term string) ([]warehouse.SearchResult, error) {
	if s.warehouse == nil {
		return nil, fmt.Errorf("search: warehouse not configured")
	}
	if strings.TrimSpace(term) == "" {
		return []warehouse.SearchResult{}, nil
	}
	return s.warehouse.Search(ctx, term, DefaultSearchLimit)
}

// QuickFilter returns the records selected by a canned filter, newest
// first as loaded.
func (s *Service) QuickFilter(ctx context.Context, name string, f analytics.Filter) ([]analytics.CommunicationRecord, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.ApplyQuickFilter(records, analytics.QuickFilter(name))
}

// Customer builds a customer profile. Demographics and purchases are
// attached when the warehouse has them.
func (s *Service) Customer(ctx context.Context, customerID string) (*analytics.CustomerProfile, error) {
	records, err := s.load(ctx, analytics.Filter{})
	if err != nil {
		return nil, err
	}
	p, err := analytics.BuildProfile(records, customerID, s.segmenter)
	if err != nil {
		return nil, err
	}

	if s.warehouse != nil {
		if p.Demographics, err = s.warehouse.GetDemographics(ctx, customerID); err != nil {
			log.Warn("demographics unavailable", "customer_id", customerID, "error", err)
		}
		if p.Purchases, err = s.warehouse.GetPurchaseHistory(ctx, customerID); err != nil {
			log.Warn("purchase history unavailable", "customer_id", customerID, "error", err)
		}
	}
	return p, nil
}

// Segments classifies every customer in the filtered record set.
func (s *Service) Segments(ctx context.Context, f analytics.Filter) (*analytics.SegmentReport, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	report := s.segmenter.Segment(analytics.Aggregate(records))
	if report.Undefined > 0 {
		log.Warn("customers without communications defaulted to standard", "count", report.Undefined)
	}
	return report, nil
}

// AtRisk lists at-risk customers with their latest issue. A limit <= 0
// uses the configured default.
func (s *Service) AtRisk(ctx context.Context, f analytics.Filter, order analytics.Ordering, limit int) ([]analytics.AtRiskDetail, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.atRiskLimit
	}
	return analytics.AtRiskDetails(records, s.atRisk, order, limit), nil
}

// InsightsView is the AI page: narrative summary plus the rule outputs.
type InsightsView struct {
	Empty     bool                     `json:"empty"`
	Insight   *insights.Result         `json:"insight,omitempty"`
	Segments  *analytics.SegmentReport `json:"segments"`
	AtRisk    []analytics.AtRiskDetail `json:"at_risk"`
	ArchiveID string                   `json:"archive_id,omitempty"`
}

// Insights asks the summarizer for the executive narrative. Provider
// failures surface as a fallback result, never as an error. When save is
// set and an archive is wired the view is stored as a snapshot; an
// archive failure is logged and leaves ArchiveID empty.
func (s *Service) Insights(ctx context.Context, f analytics.Filter, order analytics.Ordering, save bool) (*InsightsView, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	view := &InsightsView{
		Segments: s.segmenter.Segment(analytics.Aggregate(records)),
		AtRisk:   analytics.AtRiskDetails(records, s.atRisk, order, s.atRiskLimit),
	}

	data, err := insights.BuildPromptData(records)
	if errors.Is(err, analytics.ErrEmptyInput) {
		view.Empty = true
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	if s.insights != nil {
		view.Insight = s.insights.Summarize(ctx, data)
	}

	if save && s.archive != nil {
		summary, _ := analytics.Summarize(records)
		id, err := s.archive.Save(ctx, &archive.Snapshot{
			Filter:   f,
			Insight:  view.Insight,
			Segments: view.Segments,
			AtRisk:   view.AtRisk,
			Summary:  summary,
		})
		if err != nil {
			log.Error("insight snapshot not archived", "error", err)
		} else {
			view.ArchiveID = id
		}
	}
	return view, nil
}

// Report fetches an archived insight snapshot.
func (s *Service) Report(ctx context.Context, id string) (*archive.Snapshot, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Get(ctx, id)
}
