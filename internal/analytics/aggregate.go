package analytics

// Aggregate groups records by customer and returns one aggregate per customer
// in encounter order. Aggregates are computed fresh on every call.
func Aggregate(records []CommunicationRecord) []CustomerAggregate {
	index := make(map[string]int)
	var aggs []CustomerAggregate
	var sums []float64

	for i, rec := range records {
		pos, ok := index[rec.CustomerID]
		if !ok {
			pos = len(aggs)
			index[rec.CustomerID] = pos
			aggs = append(aggs, CustomerAggregate{
				CustomerID: rec.CustomerID,
				firstSeen:  i,
			})
			sums = append(sums, 0)
		}

		agg := &aggs[pos]
		if agg.CustomerName == "" {
			agg.CustomerName = rec.CustomerName
		}
		agg.TotalCommunications++
		sums[pos] += rec.SentimentScore
		if rec.Escalation {
			agg.TotalEscalations++
		}
		if rec.IsUrgent() {
			agg.UrgentCount++
		}
		if rec.ReceivedAt.After(agg.LastContact) {
			agg.LastContact = rec.ReceivedAt
		}
	}

	for i := range aggs {
		aggs[i].AvgSentiment = sums[i] / float64(aggs[i].TotalCommunications)
	}
	return aggs
}

// AggregateCustomer returns the aggregate for a single customer.
func AggregateCustomer(records []CommunicationRecord, customerID string) (CustomerAggregate, error) {
	aggs := Aggregate(ForCustomer(records, customerID))
	if len(aggs) == 0 {
		return CustomerAggregate{CustomerID: customerID}, ErrNotFound
	}
	return aggs[0], nil
}
