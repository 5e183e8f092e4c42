package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseboard/alert-intel/internal/model"
)

func insightAlert(id string, category model.AlertCategory, kind model.AlertKind, severity int, tags ...string) *model.Alert {
	return &model.Alert{
		ID:         id,
		Category:   category,
		Kind:       kind,
		Priority:   model.AlertPriorityMedium,
		Severity:   severity,
		Confidence: 80,
		Timestamp:  time.Now(),
		Status:     model.AlertStatusActive,
		Metadata:   model.AlertMetadata{PatternTags: tags},
	}
}

func TestGenerateInsights_PatternRecurrence(t *testing.T) {
	alerts := []*model.Alert{
		insightAlert("a", model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"),
		insightAlert("b", model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"),
		insightAlert("c", model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"),
		insightAlert("d", model.AlertCategoryAnomaly, model.AlertKindInfo, 20, "one_off"),
	}

	insights := GenerateInsights(alerts, nil)

	var pattern *model.Insight
	for _, in := range insights {
		if in.Kind == model.InsightKindPattern {
			require.Nil(t, pattern, "only the recurring tag should produce a pattern insight")
			pattern = in
		}
	}
	require.NotNil(t, pattern)
	require.Equal(t, 90, pattern.Confidence)
	require.Equal(t, model.ImpactHigh, pattern.Impact)
	require.ElementsMatch(t, []string{"a", "b", "c"}, pattern.RelatedAlertIDs)
}

func TestGenerateInsights_PatternConfidenceCap(t *testing.T) {
	var alerts []*model.Alert
	for i := 0; i < 6; i++ {
		alerts = append(alerts, insightAlert(string(rune('a'+i)), model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"))
	}

	insights := GenerateInsights(alerts, nil)
	for _, in := range insights {
		if in.Kind == model.InsightKindPattern {
			// 60 + 6*10 would be 120; capped at 95
			require.Equal(t, 95, in.Confidence)
		}
	}
}

func TestGenerateInsights_TwoOccurrencesAreMediumImpact(t *testing.T) {
	alerts := []*model.Alert{
		insightAlert("a", model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"),
		insightAlert("b", model.AlertCategoryBudget, model.AlertKindWarning, 50, "budget_depletion"),
	}

	insights := GenerateInsights(alerts, nil)
	require.Len(t, insights, 1)
	require.Equal(t, 80, insights[0].Confidence)
	require.Equal(t, model.ImpactMedium, insights[0].Impact)
}

func TestGenerateInsights_OptimizationOpportunity(t *testing.T) {
	clusters := []*model.Cluster{
		{
			ID: "c1", Priority: model.AlertPriorityUrgent,
			AffectedCampaigns: []string{"camp-1", "camp-2"},
			Alerts:            []*model.Alert{insightAlert("a", model.AlertCategoryPerformance, model.AlertKindCritical, 90)},
		},
		{
			ID: "c2", Priority: model.AlertPriorityHigh,
			AffectedCampaigns: []string{"camp-2", "camp-3"},
			Alerts:            []*model.Alert{insightAlert("b", model.AlertCategoryPerformance, model.AlertKindWarning, 70)},
		},
		{
			ID: "c3", Priority: model.AlertPriorityLow,
			AffectedCampaigns: []string{"camp-9"},
			Alerts:            []*model.Alert{insightAlert("c", model.AlertCategoryOpportunity, model.AlertKindSuccess, 30)},
		},
	}

	insights := GenerateInsights(nil, clusters)
	require.Len(t, insights, 1)

	in := insights[0]
	require.Equal(t, model.InsightKindOptimization, in.Kind)
	require.Equal(t, 85, in.Confidence)
	require.Equal(t, model.ImpactHigh, in.Impact)
	// camp-9 belongs to a low priority cluster and must not be counted
	require.ElementsMatch(t, []string{"a", "b"}, in.RelatedAlertIDs)
	require.Contains(t, in.Description, "3 campaign(s)")
}

func TestGenerateInsights_PredictivePrevention(t *testing.T) {
	alerts := []*model.Alert{
		insightAlert("a", model.AlertCategoryPerformance, model.AlertKindPredictive, 65),
		insightAlert("b", model.AlertCategoryBudget, model.AlertKindWarning, 50),
	}

	insights := GenerateInsights(alerts, nil)
	require.Len(t, insights, 1)
	require.Equal(t, model.InsightKindPrediction, insights[0].Kind)
	require.Equal(t, 80, insights[0].Confidence)
	require.Equal(t, model.ImpactMedium, insights[0].Impact)
	require.Equal(t, []string{"a"}, insights[0].RelatedAlertIDs)
}

func TestGenerateInsights_PerformanceStrategy(t *testing.T) {
	// Average severity 80 across performance alerts
	alerts := []*model.Alert{
		insightAlert("a", model.AlertCategoryPerformance, model.AlertKindCritical, 90),
		insightAlert("b", model.AlertCategoryPerformance, model.AlertKindWarning, 70),
	}

	insights := GenerateInsights(alerts, nil)
	require.Len(t, insights, 1)
	require.Equal(t, model.InsightKindRecommendation, insights[0].Kind)
	require.Equal(t, 88, insights[0].Confidence)

	// Average exactly 70 must not fire
	alerts = []*model.Alert{
		insightAlert("a", model.AlertCategoryPerformance, model.AlertKindWarning, 70),
		insightAlert("b", model.AlertCategoryPerformance, model.AlertKindWarning, 70),
	}
	require.Empty(t, GenerateInsights(alerts, nil))
}

func TestGenerateInsights_Ordering(t *testing.T) {
	alerts := []*model.Alert{
		insightAlert("a", model.AlertCategoryPerformance, model.AlertKindPredictive, 90, "performance_decline"),
		insightAlert("b", model.AlertCategoryPerformance, model.AlertKindPredictive, 80, "performance_decline"),
	}
	clusters := []*model.Cluster{
		{
			ID: "c1", Priority: model.AlertPriorityUrgent,
			AffectedCampaigns: []string{"camp-1"},
			Alerts:            []*model.Alert{alerts[0]},
		},
	}

	insights := GenerateInsights(alerts, clusters)
	require.NotEmpty(t, insights)

	for i := 0; i < len(insights)-1; i++ {
		require.GreaterOrEqual(t, insights[i].Score(), insights[i+1].Score())
	}
}
