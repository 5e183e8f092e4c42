package engine

import "github.com/pulseboard/alert-intel/internal/model"

// Similarity dimension weights. Every dimension always contributes its
// weight to the denominator, so the denominator is 1.0 and the score
// needs no normalization.
const (
	weightCategory = 0.30
	weightPlatform = 0.20
	weightCampaign = 0.20
	weightKind     = 0.15
	weightPattern  = 0.15
)

// Similarity scores how related two alerts are, in [0,1]. The score is
// symmetric, and an alert compared with itself scores 1.0.
func Similarity(a, b *model.Alert) float64 {
	if a.ID == b.ID {
		return 1.0
	}

	score := 0.0
	if a.Category == b.Category {
		score += weightCategory
	}
	if a.Platform != "" && a.Platform == b.Platform {
		score += weightPlatform
	}
	if a.CampaignID != "" && a.CampaignID == b.CampaignID {
		score += weightCampaign
	}
	if a.Kind == b.Kind {
		score += weightKind
	}
	if tagsIntersect(a.Metadata.PatternTags, b.Metadata.PatternTags) {
		score += weightPattern
	}
	return score
}

// tagsIntersect reports whether the two tag sets share any element
func tagsIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}
