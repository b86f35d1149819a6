package domain

// SearchResult is the outcome of a paginated retrieval.
//
// The server does not guarantee that its reported total matches what can
// actually be retrieved; the pagination engine reconciles the two and the
// flags below record how.
type SearchResult struct {
	// Items are the retrieved item summaries, in server order.
	Items []Item

	// ReportedTotal is the total count the server claimed for the query.
	ReportedTotal int

	// Retrieved is the number of items actually fetched. This converges to
	// the true matching set size even when ReportedTotal is unreliable.
	Retrieved int

	// Truncated is set when retrieval stopped at a server-side pagination
	// ceiling before reaching the reported total.
	Truncated bool

	// Approximate is set when ReportedTotal could not be trusted (free-text
	// queries) and the effective count was derived from Retrieved instead.
	Approximate bool
}

// IDs returns the item ids in result order.
func (r *SearchResult) IDs() []int64 {
	ids := make([]int64, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.ID
	}
	return ids
}
