package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/dashboard"
	"github.com/ignite/customer360/internal/pkg/httputil"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc          *dashboard.Service
	defaultOrder analytics.Ordering
}

// NewHandlers creates a new Handlers instance. defaultOrder applies when a
// request does not name an at-risk ordering.
func NewHandlers(svc *dashboard.Service, defaultOrder analytics.Ordering) *Handlers {
	if defaultOrder == "" {
		defaultOrder = analytics.OrderEncounter
	}
	return &Handlers{svc: svc, defaultOrder: defaultOrder}
}

// parseFilter reads from, to and repeated sentiment parameters.
func parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	return analytics.ParseFilter(q.Get("from"), q.Get("to"), q["sentiment"])
}

func (h *Handlers) parseOrdering(r *http.Request) (analytics.Ordering, error) {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		return h.defaultOrder, nil
	}
	return analytics.ParseOrdering(raw)
}

// fail maps domain errors onto HTTP statuses.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidFilter):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, analytics.ErrNotFound), errors.Is(err, archive.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, dashboard.ErrArchiveDisabled):
		httputil.Error(w, http.StatusNotImplemented, "archive_disabled", err.Error())
	default:
		httputil.InternalError(w, r, err)
	}
}

// GetDashboard returns the executive overview.
//
//	GET /api/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	view, err := h.svc.Dashboard(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, view)
}

// GetAnalytics returns trends, the cross-tab and urgency breakdowns.
//
//	GET /api/analytics
func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	view, err := h.svc.Analytics(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, view)
}

// Search looks up customers by name, id or summary text.
//
//	GET /api/search?q=
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	results, err := h.svc.Search(r.Context(), term)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"query":   term,
		"count":   len(results),
		"results": results,
	})
}

// GetQuickFilter applies one of the canned filters.
//
//	GET /api/quick-filters/{name}
func (h *Handlers) GetQuickFilter(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	name := chi.URLParam(r, "name")
	records, err := h.svc.QuickFilter(r.Context(), name, f)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"filter":  name,
		"count":   len(records),
		"records": records,
	})
}

// GetCustomer returns one customer profile.
//
//	GET /api/customers/{id}
func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Customer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, profile)
}

// GetSegments returns the segment report.
//
//	GET /api/segments
func (h *Handlers) GetSegments(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	report, err := h.svc.Segments(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, report)
}

// GetAtRisk lists at-risk customers.
//
//	GET /api/at-risk?order=&limit=
func (h *Handlers) GetAtRisk(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	order, err := h.parseOrdering(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	details, err := h.svc.AtRisk(r.Context(), f, order, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"order":     order,
		"count":     len(details),
		"customers": details,
	})
}

// GetInsights returns the AI summary with segments and at-risk customers.
// archive=true stores the result when an archive is configured.
//
//	GET /api/insights?order=&archive=
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	order, err := h.parseOrdering(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	view, err := h.svc.Insights(r.Context(), f, order, httputil.QueryBool(r, "archive"))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, view)
}

// GetReport fetches an archived insights snapshot.
//
//	GET /api/reports/{id}
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, snap)
}

// RefreshCache evicts the cached record set.
//
//	POST /api/cache/refresh
func (h *Handlers) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "refreshed"})
}
