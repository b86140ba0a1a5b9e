package filter

import "github.com/samirrijal/diadiem/internal/core/domain"

// Tag is a removable chip describing one active criterion.
type Tag struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Tags lists the active criteria in display order. Page is not a tag.
func Tags(s State) []Tag {
	var tags []Tag
	if s.Keyword != "" {
		tags = append(tags, Tag{Key: KeyKeyword, Label: `"` + s.Keyword + `"`})
	}
	if s.Category != "" {
		tags = append(tags, Tag{Key: KeyCategory, Label: s.Category})
	}
	if s.City != "" {
		tags = append(tags, Tag{Key: KeyCity, Label: s.City})
		if s.District != "" {
			tags = append(tags, Tag{Key: KeyDistrict, Label: s.District})
		}
	}
	if s.Sort != domain.SortDefault && s.Sort != "" {
		tags = append(tags, Tag{Key: KeySort, Label: sortLabels[s.Sort]})
	}
	if s.HasDeals {
		tags = append(tags, Tag{Key: KeyDeals, Label: "Has deals"})
	}
	if s.IsVerified {
		tags = append(tags, Tag{Key: KeyVerified, Label: "Verified"})
	}
	if s.IsOpenNow {
		tags = append(tags, Tag{Key: KeyOpen, Label: "Open now"})
	}
	return tags
}

var sortLabels = map[domain.SortOrder]string{
	domain.SortRating: "Top rated",
	domain.SortNewest: "Newest",
	domain.SortName:   "Name A-Z",
}
