// Package dashboard assembles the views served by the API from one record
// set load, the analytics rules and the optional warehouse extras.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/warehouse"
)

const (
	DefaultAtRiskLimit = 5
	DefaultSearchLimit = 10
	PriorityLimit      = 5
)

// ErrArchiveDisabled is returned by report lookups when no archive is wired.
var ErrArchiveDisabled = errors.New("dashboard: report archive not configured")

// RecordProvider loads the current communication record set.
type RecordProvider interface {
	LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error)
}

// Warehouse serves the queries that are not part of the cached record set.
type Warehouse interface {
	GetGlobalSummary(ctx context.Context) (*warehouse.GlobalSummary, error)
	Search(ctx context.Context, term string, limit int) ([]warehouse.SearchResult, error)
	GetDemographics(ctx context.Context, customerID string) (map[string]any, error)
	GetPurchaseHistory(ctx context.Context, customerID string) ([]map[string]any, error)
}

// Summarizer produces the AI executive summary.
type Summarizer interface {
	Summarize(ctx context.Context, data insights.PromptData) *insights.Result
}

// Archiver persists insight snapshots.
type Archiver interface {
	Save(ctx context.Context, snap *archive.Snapshot) (string, error)
	Get(ctx context.Context, id string) (*archive.Snapshot, error)
}

type refresher interface {
	Refresh(ctx context.Context) error
}

// Options tunes the analytics rules.
type Options struct {
	Segments    analytics.SegmentThresholds
	AtRisk      analytics.AtRiskThresholds
	AtRiskLimit int
}

// Service is safe for concurrent use; every call works on a fresh load.
type Service struct {
	records   RecordProvider
	warehouse Warehouse
	insights  Summarizer
	archive   Archiver

	segmenter   *analytics.Segmenter
	atRisk      analytics.AtRiskThresholds
	atRiskLimit int
}

// New builds a service. warehouse, summarizer and archiver may be nil.
func New(records RecordProvider, wh Warehouse, summarizer Summarizer, archiver Archiver, opts Options) *Service {
	if opts.AtRiskLimit <= 0 {
		opts.AtRiskLimit = DefaultAtRiskLimit
	}
	return &Service{
		records:     records,
		warehouse:   wh,
		insights:    summarizer,
		archive:     archiver,
		segmenter:   analytics.NewSegmenter(opts.Segments),
		atRisk:      opts.AtRisk,
		atRiskLimit: opts.AtRiskLimit,
	}
}

// ArchiveEnabled reports whether insight snapshots can be stored.
func (s *Service) ArchiveEnabled() bool { return s.archive != nil }

func (s *Service) load(ctx context.Context, f analytics.Filter) ([]analytics.CommunicationRecord, error) {
	records, err := s.records.LoadCommunications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load communications: %w", err)
	}
	return f.Apply(records), nil
}

// Refresh evicts the cached record set when the provider supports it.
func (s *Service) Refresh(ctx context.Context) error {
	if r, ok := s.records.(refresher); ok {
		return r.Refresh(ctx)
	}
	return nil
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		Segments:    analytics.DefaultSegmentThresholds(),
		AtRisk:      analytics.DefaultAtRiskThresholds(),
		AtRiskLimit: DefaultAtRiskLimit,
	}
}
