package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/alert-intel/internal/model"
)

// GenerateInsights runs the four insight analyses over one run's
// alerts and clusters and returns the results ordered by confidence
// weighted by impact
func GenerateInsights(alerts []*model.Alert, clusters []*model.Cluster) []*model.Insight {
	now := time.Now()

	var insights []*model.Insight
	insights = append(insights, patternRecurrence(alerts, now)...)
	if in := optimizationOpportunity(clusters, now); in != nil {
		insights = append(insights, in)
	}
	if in := predictivePrevention(alerts, now); in != nil {
		insights = append(insights, in)
	}
	if in := performanceStrategy(alerts, now); in != nil {
		insights = append(insights, in)
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Score() > insights[j].Score()
	})

	return insights
}

// patternRecurrence emits one insight per pattern tag seen on two or
// more alerts
func patternRecurrence(alerts []*model.Alert, now time.Time) []*model.Insight {
	tagCounts := make(map[string]int)
	tagAlerts := make(map[string][]string)
	var tagOrder []string

	for _, a := range alerts {
		for _, tag := range a.Metadata.PatternTags {
			if tagCounts[tag] == 0 {
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
			tagAlerts[tag] = append(tagAlerts[tag], a.ID)
		}
	}

	var insights []*model.Insight
	for _, tag := range tagOrder {
		count := tagCounts[tag]
		if count < 2 {
			continue
		}

		confidence := 60 + count*10
		if confidence > 95 {
			confidence = 95
		}
		impact := model.ImpactMedium
		if count >= 3 {
			impact = model.ImpactHigh
		}

		insights = append(insights, &model.Insight{
			ID:              uuid.New().String(),
			Kind:            model.InsightKindPattern,
			Title:           fmt.Sprintf("Recurring pattern: %s", strings.ReplaceAll(tag, "_", " ")),
			Description:     fmt.Sprintf("The %s pattern appeared on %d alerts this cycle, suggesting a systemic cause rather than isolated incidents.", tag, count),
			Confidence:      confidence,
			Impact:          impact,
			Actionable:      true,
			RelatedAlertIDs: tagAlerts[tag],
			SuggestedActions: []string{
				"Investigate the shared cause across the affected campaigns",
				"Set up a saved view filtered to this pattern",
			},
			CreatedAt: now,
		})
	}
	return insights
}

// optimizationOpportunity aggregates urgent and high priority clusters
// into a single budget-reallocation insight
func optimizationOpportunity(clusters []*model.Cluster, now time.Time) *model.Insight {
	var campaigns []string
	var related []string
	seen := make(map[string]bool)
	hot := 0

	for _, c := range clusters {
		if c.Priority != model.AlertPriorityUrgent && c.Priority != model.AlertPriorityHigh {
			continue
		}
		hot++
		for _, id := range c.AffectedCampaigns {
			if !seen[id] {
				seen[id] = true
				campaigns = append(campaigns, id)
			}
		}
		for _, a := range c.Alerts {
			related = append(related, a.ID)
		}
	}
	if hot == 0 {
		return nil
	}

	return &model.Insight{
		ID:              uuid.New().String(),
		Kind:            model.InsightKindOptimization,
		Title:           "High-priority clusters need attention",
		Description:     fmt.Sprintf("%d cluster(s) at urgent or high priority affect %d campaign(s). Addressing them together is likely cheaper than one by one.", hot, len(campaigns)),
		Confidence:      85,
		Impact:          model.ImpactHigh,
		Actionable:      true,
		RelatedAlertIDs: related,
		SuggestedActions: []string{
			"Triage the affected campaigns as a group",
			"Reallocate budget away from the impacted segments until resolved",
		},
		CreatedAt: now,
	}
}

// predictivePrevention gathers predictive alerts into a single
// act-before-it-happens insight
func predictivePrevention(alerts []*model.Alert, now time.Time) *model.Insight {
	var related []string
	for _, a := range alerts {
		if a.Kind == model.AlertKindPredictive {
			related = append(related, a.ID)
		}
	}
	if len(related) == 0 {
		return nil
	}

	return &model.Insight{
		ID:              uuid.New().String(),
		Kind:            model.InsightKindPrediction,
		Title:           "Predicted issues are still preventable",
		Description:     fmt.Sprintf("%d predictive alert(s) point at conditions that have not materialized yet. Acting inside the action window avoids the impact entirely.", len(related)),
		Confidence:      80,
		Impact:          model.ImpactMedium,
		Actionable:      true,
		RelatedAlertIDs: related,
		SuggestedActions: []string{
			"Review each prediction's action window",
			"Schedule preventive changes before the window closes",
		},
		CreatedAt: now,
	}
}

// performanceStrategy fires when performance alerts average out as
// severe, indicating the problem is structural
func performanceStrategy(alerts []*model.Alert, now time.Time) *model.Insight {
	var related []string
	sum := 0
	for _, a := range alerts {
		if a.Category == model.AlertCategoryPerformance {
			related = append(related, a.ID)
			sum += a.Severity
		}
	}
	if len(related) == 0 || float64(sum)/float64(len(related)) <= 70 {
		return nil
	}

	return &model.Insight{
		ID:              uuid.New().String(),
		Kind:            model.InsightKindRecommendation,
		Title:           "Performance degradation is broad, review strategy",
		Description:     fmt.Sprintf("Average severity across %d performance alert(s) exceeds 70. Per-campaign fixes are unlikely to be enough.", len(related)),
		Confidence:      88,
		Impact:          model.ImpactHigh,
		Actionable:      true,
		RelatedAlertIDs: related,
		SuggestedActions: []string{
			"Audit bidding strategy and attribution settings account-wide",
			"Compare against platform-level benchmark shifts",
		},
		CreatedAt: now,
	}
}
