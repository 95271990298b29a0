package models

// Page is one page of a list view.
type Page[T any] struct {
	Listings []T  `json:"listings"`
	HasMore  bool `json:"hasMore"`
	NextPage *int `json:"nextPage"`
}

// NewPage builds a page from the items fetched at (page, limit) out of total matches.
func NewPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	skip := int64((page - 1) * limit)
	p := Page[T]{Listings: items}
	if skip+int64(len(items)) < total {
		next := page + 1
		p.HasMore = true
		p.NextPage = &next
	}
	return p
}

// NormalizePaging clamps page and limit: page starts at 1, limit falls back to
// defaultLimit when unset and never exceeds maxLimit.
func NormalizePaging(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// BookingView is an interest as listed for the user who holds it.
type BookingView struct {
	Interest
	Property PropertySummary `json:"property"`
}

// ManagedPropertyView is an owned property with the interests registered on it.
type ManagedPropertyView struct {
	PropertySummary
	InterestedParties []Interest `json:"interestedParties"`
}
