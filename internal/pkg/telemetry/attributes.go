package telemetry

// Span attribute keys.
const (
	AttrSearchQuery     = "search.query"
	AttrSearchPage      = "search.page"
	AttrTotalCount      = "search.total_count"
	AttrCacheHit        = "search.cache_hit"
	AttrCacheGeneration = "search.cache_generation"
	AttrBusinessID      = "business.id"
	AttrDealTransitions = "deals.transitions"
)
