package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	records   []analytics.CommunicationRecord
	err       error
	refreshed bool
}

func (f *fakeRecords) LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error) {
	return f.records, f.err
}

func (f *fakeRecords) Refresh(ctx context.Context) error {
	f.refreshed = true
	return nil
}

type fakeWarehouse struct {
	searchTerm string
	demoErr    error
}

func (f *fakeWarehouse) GetGlobalSummary(ctx context.Context) (*warehouse.GlobalSummary, error) {
	return &warehouse.GlobalSummary{TotalCustomers: 3, TotalEmails: 5}, nil
}

func (f *fakeWarehouse) Search(ctx context.Context, term string, limit int) ([]warehouse.SearchResult, error) {
	f.searchTerm = term
	return []warehouse.SearchResult{{EmailID: "E1", CustomerID: "C1"}}, nil
}

func (f *fakeWarehouse) GetDemographics(ctx context.Context, id string) (map[string]any, error) {
	if f.demoErr != nil {
		return nil, f.demoErr
	}
	return map[string]any{"CITY": "Denver"}, nil
}

func (f *fakeWarehouse) GetPurchaseHistory(ctx context.Context, id string) ([]map[string]any, error) {
	return []map[string]any{{"MODEL": "Sled X"}}, nil
}

type fakeSummarizer struct{ calls int }

func (f *fakeSummarizer) Summarize(ctx context.Context, data insights.PromptData) *insights.Result {
	f.calls++
	return &insights.Result{Text: "summary", Provider: "fake"}
}

type fakeArchive struct {
	saved *archive.Snapshot
	err   error
}

func (f *fakeArchive) Save(ctx context.Context, snap *archive.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = snap
	return "3f1c1f0e-0000-4000-8000-000000000001", nil
}

func (f *fakeArchive) Get(ctx context.Context, id string) (*archive.Snapshot, error) {
	if f.saved == nil {
		return nil, archive.ErrNotFound
	}
	return f.saved, nil
}

func day(d int) time.Time { return time.Date(2025, 6, d, 10, 0, 0, 0, time.UTC) }

// C1 is high risk, C2 a champion, C3 needs attention.
func fixture() []analytics.CommunicationRecord {
	return []analytics.CommunicationRecord{
		{ID: "E5", CustomerID: "C3", CustomerName: "Cy", Classification: "Inquiry", SentimentCategory: analytics.SentimentNeutral, SentimentScore: 0.1, Urgency: analytics.UrgencyImmediate, ReceivedAt: day(5)},
		{ID: "E4", CustomerID: "C1", CustomerName: "Ana", Classification: "Complaint", SentimentCategory: analytics.SentimentNegative, SentimentScore: -0.8, Escalation: true, Urgency: analytics.UrgencyImmediate, ReceivedAt: day(4), Summary: "Battery failed", NextSteps: "Replace pack"},
		{ID: "E3", CustomerID: "C3", CustomerName: "Cy", Classification: "Inquiry", SentimentCategory: analytics.SentimentNeutral, SentimentScore: 0.0, Urgency: analytics.UrgencyImmediate, ReceivedAt: day(3)},
		{ID: "E2", CustomerID: "C2", CustomerName: "Bo", Classification: "Compliment", SentimentCategory: analytics.SentimentPositive, SentimentScore: 0.9, Urgency: analytics.UrgencyLow, ReceivedAt: day(2)},
		{ID: "E1", CustomerID: "C1", CustomerName: "Ana", Classification: "Complaint", SentimentCategory: analytics.SentimentNegative, SentimentScore: -0.6, Escalation: true, Urgency: analytics.UrgencyStandard, ReceivedAt: day(1)},
	}
}

func newTestService(recs *fakeRecords, wh Warehouse, sum Summarizer, arch Archiver) *Service {
	return New(recs, wh, sum, arch, DefaultOptions())
}

func TestDashboard(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, &fakeWarehouse{}, nil, nil)

	view, err := svc.Dashboard(context.Background(), analytics.Filter{})
	require.NoError(t, err)
	assert.False(t, view.Empty)
	assert.Equal(t, 5, view.Summary.TotalRecords)
	assert.Equal(t, 3, view.Summary.DistinctCustomers)
	assert.Equal(t, int64(3), view.Global.TotalCustomers)
	assert.Len(t, view.Priority, 4)
}

func TestDashboard_EmptyFilter(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, nil, nil, nil)
	f := analytics.Filter{From: day(20), To: day(21)}

	view, err := svc.Dashboard(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, view.Empty)
	assert.Nil(t, view.Dashboard)

	dd, err := svc.Analytics(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, dd.Empty)
}

func TestLoadError(t *testing.T) {
	boom := errors.New("warehouse suspended")
	svc := newTestService(&fakeRecords{err: boom}, nil, nil, nil)

	_, err := svc.Segments(context.Background(), analytics.Filter{})
	assert.ErrorIs(t, err, boom)
}

func TestSegments(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, nil, nil, nil)

	report, err := svc.Segments(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	got := map[string]analytics.Segment{}
	for _, c := range report.Customers {
		got[c.CustomerID] = c.Segment
	}
	assert.Equal(t, map[string]analytics.Segment{
		"C1": analytics.SegmentHighRisk,
		"C2": analytics.SegmentChampion,
		"C3": analytics.SegmentNeedsAttention,
	}, got)
}

func TestAtRisk(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, nil, nil, nil)

	got, err := svc.AtRisk(context.Background(), analytics.Filter{}, analytics.OrderEncounter, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].CustomerID)
	assert.Equal(t, "Complaint", got[0].LatestIssue)
	assert.Equal(t, "Battery failed", got[0].Summary)
	assert.Equal(t, "Replace pack", got[0].RecommendedAction)
}

func TestCustomer(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, &fakeWarehouse{}, nil, nil)

	p, err := svc.Customer(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, analytics.SegmentHighRisk, p.Segment)
	assert.Equal(t, "Denver", p.Demographics["CITY"])
	assert.Len(t, p.Purchases, 1)

	_, err = svc.Customer(context.Background(), "C404")
	assert.ErrorIs(t, err, analytics.ErrNotFound)
}

func TestCustomer_DemographicsErrorIsNotFatal(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, &fakeWarehouse{demoErr: errors.New("no table")}, nil, nil)

	p, err := svc.Customer(context.Background(), "C2")
	require.NoError(t, err)
	assert.Nil(t, p.Demographics)
	assert.Len(t, p.Purchases, 1)
}

func TestQuickFilterAndSearch(t *testing.T) {
	wh := &fakeWarehouse{}
	svc := newTestService(&fakeRecords{records: fixture()}, wh, nil, nil)

	got, err := svc.QuickFilter(context.Background(), "escalations", analytics.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.QuickFilter(context.Background(), "vip", analytics.Filter{})
	assert.ErrorIs(t, err, analytics.ErrInvalidFilter)

	res, err := svc.Search(context.Background(), "ana")
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, "ana", wh.searchTerm)

	res, err = svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestInsights_ArchivesSnapshot(t *testing.T) {
	sum := &fakeSummarizer{}
	arch := &fakeArchive{}
	svc := newTestService(&fakeRecords{records: fixture()}, nil, sum, arch)

	view, err := svc.Insights(context.Background(), analytics.Filter{}, analytics.OrderSeverity, true)
	require.NoError(t, err)
	assert.Equal(t, "summary", view.Insight.Text)
	assert.Equal(t, "3f1c1f0e-0000-4000-8000-000000000001", view.ArchiveID)
	require.NotNil(t, arch.saved)
	assert.Equal(t, 5, arch.saved.Summary.TotalRecords)
	assert.Len(t, arch.saved.AtRisk, 1)

	snap, err := svc.Report(context.Background(), view.ArchiveID)
	require.NoError(t, err)
	assert.Same(t, arch.saved, snap)
}

func TestInsights_ArchiveFailureKeepsView(t *testing.T) {
	svc := newTestService(&fakeRecords{records: fixture()}, nil, &fakeSummarizer{}, &fakeArchive{err: errors.New("denied")})

	view, err := svc.Insights(context.Background(), analytics.Filter{}, analytics.OrderEncounter, true)
	require.NoError(t, err)
	assert.Empty(t, view.ArchiveID)
	assert.NotNil(t, view.Insight)
}

func TestInsights_Empty(t *testing.T) {
	sum := &fakeSummarizer{}
	svc := newTestService(&fakeRecords{}, nil, sum, nil)

	view, err := svc.Insights(context.Background(), analytics.Filter{}, analytics.OrderEncounter, false)
	require.NoError(t, err)
	assert.True(t, view.Empty)
	assert.Equal(t, 0, sum.calls)

	_, err = svc.Report(context.Background(), "x")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestRefresh(t *testing.T) {
	recs := &fakeRecords{}
	svc := newTestService(recs, nil, nil, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.True(t, recs.refreshed)
}
