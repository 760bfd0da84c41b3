package cache

import (
	"context"

	"github.com/ignite/customer360/internal/analytics"
)

// Source is a record provider that can name the query behind its data.
type Source interface {
	LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error)
	CommunicationsQuery() string
}

// Provider decorates a Source with the query cache.
type Provider struct {
	src   Source
	cache *Cache
}

// NewProvider wraps src.
func NewProvider(src Source, c *Cache) *Provider {
	return &Provider{src: src, cache: c}
}

// LoadCommunications returns the cached record set, loading it on a miss.
func (p *Provider) LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error) {
	return Remember(ctx, p.cache, p.src.CommunicationsQuery(), p.src.LoadCommunications)
}

// Refresh evicts the record set so the next load goes to the warehouse.
func (p *Provider) Refresh(ctx context.Context) error {
	return p.cache.Invalidate(ctx, p.src.CommunicationsQuery())
}

// Stats exposes the underlying cache counters.
func (p *Provider) Stats() Stats {
	return p.cache.Stats()
}
