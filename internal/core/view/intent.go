package view

import (
	"net/url"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// IntentType names a user action sent to an explore session.
type IntentType string

const (
	IntentTyping   IntentType = "type"
	IntentCommit   IntentType = "commit"
	IntentRemove   IntentType = "remove_tag"
	IntentPage     IntentType = "page"
	IntentBounds   IntentType = "bounds"
	IntentFollow   IntentType = "follow"
	IntentNavigate IntentType = "navigate"
	IntentRetry    IntentType = "retry"
	IntentBack     IntentType = "back"
	IntentForward  IntentType = "forward"
)

// Intent is a user action. Which fields are read depends on Type.
type Intent struct {
	Type IntentType `json:"type"`

	// Keyword is the raw text for "type".
	Keyword string `json:"keyword,omitempty"`
	// Filters holds query-string keys and values for "commit".
	Filters map[string]string `json:"filters,omitempty"`
	// Key is the tag key for "remove_tag".
	Key    string         `json:"key,omitempty"`
	Page   int            `json:"page,omitempty"`
	Bounds *domain.Bounds `json:"bounds,omitempty"`
	Follow bool           `json:"follow,omitempty"`
	// Query is the new address for "navigate".
	Query string `json:"query,omitempty"`
}

// Values returns Filters as url.Values.
func (i Intent) Values() url.Values {
	v := url.Values{}
	for k, val := range i.Filters {
		v.Set(k, val)
	}
	return v
}
